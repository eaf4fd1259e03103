package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost       = 12
	minPasswordLen   = 8
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	adminSubject     = "admin"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAdminDisabled = errors.New("admin password not configured")
	ErrRateLimited   = errors.New("too many login attempts, try again later")
)

// Auth guards the admin endpoints with a bcrypt password and short-lived JWTs
type Auth struct {
	passHash  []byte
	jwtSecret []byte
	ttl       time.Duration

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  deadlock.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates the admin authenticator. Without a configured token
// secret a random one is generated, so tokens do not survive a restart.
func NewAuth(cfg AdminConfig) *Auth {
	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic("failed to generate JWT secret: " + err.Error())
		}
	}
	if cfg.PasswordHash == "" {
		log.Warn().Msg("admin password hash not set, admin endpoints disabled")
	}
	return &Auth{
		passHash:  []byte(cfg.PasswordHash),
		jwtSecret: secret,
		ttl:       cfg.TokenTTL,
		rateMap:   make(map[string]*rateEntry),
	}
}

// HashPassword returns the bcrypt hash to put in admin.password_hash
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the admin password and returns a signed token
func (a *Auth) Login(password, ip string) (string, error) {
	if len(a.passHash) == 0 {
		return "", ErrAdminDisabled
	}
	if !a.checkRate(ip) {
		return "", ErrRateLimited
	}
	if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(password)); err != nil {
		return "", ErrUnauthorized
	}
	token, err := a.generateToken(time.Now())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ValidateToken accepts only unexpired admin tokens signed with our secret
func (a *Auth) ValidateToken(tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrUnauthorized
	}
	if sub, _ := claims["sub"].(string); sub != adminSubject {
		return ErrUnauthorized
	}
	return nil
}

func (a *Auth) generateToken(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": adminSubject,
		"jti": GenerateID(8),
		"exp": now.Add(a.ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
