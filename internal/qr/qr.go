// Package qr builds check-in links and renders them as PNG QR codes.
package qr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Encoder matches qrcode.Encode so tests can swap it out.
type Encoder func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)

var ErrInvalidSize = errors.New("qr: size must be positive")

// CheckInURL returns {base}/attendance?meetingId={id}.
func CheckInURL(base, meetingID string) string {
	return strings.TrimRight(base, "/") + "/attendance?meetingId=" + url.QueryEscape(meetingID)
}

// BaseURL picks the public origin for links: an explicit site URL, then a
// Vercel deployment host, then the LAN address of this server.
func BaseURL(siteURL, vercelURL, host string, port int) string {
	switch {
	case siteURL != "":
		return siteURL
	case vercelURL != "":
		return "https://" + vercelURL
	default:
		return fmt.Sprintf("http://%s:%d", host, port)
	}
}

// Generator renders PNGs of a fixed width.
type Generator struct {
	size   int
	encode Encoder
}

// NewGenerator returns a Generator; a nil encode uses qrcode.Encode.
func NewGenerator(size int, encode Encoder) *Generator {
	if encode == nil {
		encode = qrcode.Encode
	}
	return &Generator{size: size, encode: encode}
}

// PNG encodes content at medium error correction.
func (g *Generator) PNG(content string) ([]byte, error) {
	if g.size <= 0 {
		return nil, ErrInvalidSize
	}
	png, err := g.encode(content, qrcode.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
