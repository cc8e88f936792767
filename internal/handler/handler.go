// Package handler exposes meetings, registration, check-in and the
// attendance roll over HTTP.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"qrattend/internal/apperror"
	"qrattend/internal/attendance"
	"qrattend/internal/auth"
	"qrattend/internal/meeting"
	"qrattend/internal/metrics"
	"qrattend/internal/netinfo"
	"qrattend/internal/participant"
	"qrattend/internal/qr"
	"qrattend/internal/roll"
	"qrattend/internal/store"
)

// Deps are the collaborators a Handler serves.
type Deps struct {
	Docs         store.Documents
	Meetings     *meeting.Registry
	Participants *participant.Directory
	Ledger       *attendance.Service
	Roll         *roll.Query
	QR           *qr.Generator
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Log          *zap.Logger
}

// Settings carry the runtime values routes need from configuration.
type Settings struct {
	SiteURL   string
	VercelURL string
	// Port is the port the server actually listens on.
	Port int
	// Location formats export timestamps.
	Location *time.Location

	Secret        auth.Secret
	SigningKey    string
	Issuer        string
	AdminTokenTTL time.Duration

	RateLimitPerMin int
	PublicDir       string
}

// Handler implements the HTTP routes.
type Handler struct {
	Deps
	settings Settings
	lanIP    func() string
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLANResolver replaces the host interface lookup used for links.
func WithLANResolver(f func() string) Option {
	return func(h *Handler) { h.lanIP = f }
}

// WithClock sets the clock used for login tokens and timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New returns a Handler; a nil Location means local time.
func New(deps Deps, settings Settings, opts ...Option) *Handler {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	h := &Handler{Deps: deps, settings: settings, lanIP: netinfo.LocalIP, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// fail writes err as {"message": ...}. Store and unexpected failures are
// logged and answered with fallback.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error(fallback, zap.String("route", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"message": apperror.PublicMessage(err, fallback)})
}

// bindJSON decodes an optional JSON body into dst. A missing body leaves dst
// zero; a malformed or invalid one is answered with 400.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid request body.",
			"errors":  apperror.BindingMessages(err),
		})
		return false
	}
	return true
}

// outcomeLabel names a failure for metrics.
func outcomeLabel(err error) string {
	if k := apperror.KindOf(err); k != "" {
		return strings.ToLower(string(k))
	}
	return "error"
}
