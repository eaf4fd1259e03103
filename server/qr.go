package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRCode renders the join link as a PNG
func QRCode(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr for %s: %w", url, err)
	}
	return png, nil
}

// qrHandler serves a QR code pointing phones at the client
func qrHandler(url string) http.HandlerFunc {
	png, err := QRCode(url)
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			log.Error().Err(err).Msg("qr code unavailable")
			http.Error(w, "qr code unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(png)
	}
}
