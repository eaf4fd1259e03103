package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Debug  bool   `help:"Whether to enable debug logging."`
	Config string `help:"YAML file layered over the built-in defaults." type:"path"`

	Serve struct {
		Addr string `help:"HTTP listen address (overrides config)."`
		DB   string `help:"SQLite file for the audit log (overrides config)."`
	} `cmd:"" default:"1" help:"Start the game server."`

	ShowConfig struct {
	} `cmd:"" name:"config" help:"Write the default configuration to standard output."`

	Schema struct {
	} `cmd:"" help:"Write the JSON Schema of every client message payload."`

	HashPassword struct {
		Password string `arg:"" help:"Admin password to hash."`
	} `cmd:"" help:"Print a bcrypt hash for admin.password_hash."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("space-voxels-server"),
		kong.Description("authoritative server for Space Voxels"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	var err error
	switch ctx.Command() {
	case "serve":
		err = serveCommand()
	case "config":
		_, err = os.Stdout.Write(DefaultConfig)
	case "schema":
		var data []byte
		data, err = MarshalSchemas()
		if err == nil {
			fmt.Println(string(data))
		}
	case "hash-password <password>":
		var hash string
		hash, err = HashPassword(CLI.HashPassword.Password)
		if err == nil {
			fmt.Println(hash)
		}
	}
	if err != nil {
		writeError(err)
	}
}

func serveCommand() error {
	cfg, err := LoadConfig(CLI.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if CLI.Serve.Addr != "" {
		cfg.Addr = CLI.Serve.Addr
	}
	if CLI.Serve.DB != "" {
		cfg.DBPath = CLI.Serve.DB
	}
	if cfg.AllowAnyOrigin {
		AllowAnyOrigin()
	}

	var audit Recorder
	if cfg.DBPath != "" {
		db, err := OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open audit db: %w", err)
		}
		defer db.Close()
		analytics := NewAnalytics(db)
		defer analytics.Stop()
		audit = analytics
		log.Info().Str("path", cfg.DBPath).Msg("audit log enabled")
	}

	coord := NewCoordinator(cfg, audit)
	hub := NewHub(coord, cfg.Limits)
	go hub.Run()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go NewScheduler(coord, cfg.Timers).Run(ctx)

	mux := SetupRoutes(hub, NewAuth(cfg.Admin), audit, cfg)
	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Int("maxPlayers", cfg.Limits.MaxPlayers).Msg("server starting")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	return server.Shutdown(shutdownCtx)
}
