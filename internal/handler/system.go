package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qrattend/internal/auth"
	"qrattend/internal/qr"
)

const probePath = "test/connection-test"

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Health reports liveness without touching the store.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Healthz pings the document store.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Docs.Ping(ctx); err != nil {
		h.Log.Warn("store ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": true})
}

// StoreProbe writes and removes a scratch document.
func (h *Handler) StoreProbe(c *gin.Context) {
	ctx := c.Request.Context()
	body, _ := json.Marshal(map[string]time.Time{"timestamp": h.now()})
	err := h.Docs.Set(ctx, probePath, body)
	if err == nil {
		err = h.Docs.Delete(ctx, probePath)
	}
	if err != nil {
		h.Log.Error("store probe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Store connection failed."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Store connection working"})
}

// NetworkInfo reports the LAN address kiosks can reach.
func (h *Handler) NetworkInfo(c *gin.Context) {
	ip := h.lanIP()
	networkURL := fmt.Sprintf("http://%s:%d", ip, h.settings.Port)
	c.JSON(http.StatusOK, gin.H{
		"localIP":    ip,
		"port":       h.settings.Port,
		"networkUrl": networkURL,
		"qrUrl":      networkURL + "/attendance",
	})
}

// QRCode renders the active meeting's check-in link as a PNG.
func (h *Handler) QRCode(c *gin.Context) {
	m, err := h.Meetings.Active(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Could not generate QR code.")
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No active meeting. Start a meeting to generate QR."})
		return
	}

	base := qr.BaseURL(h.settings.SiteURL, h.settings.VercelURL, h.lanIP(), h.settings.Port)
	png, err := h.QR.PNG(qr.CheckInURL(base, m.ID))
	if err != nil {
		h.fail(c, err, "Could not generate QR code.")
		return
	}

	disposition := "inline"
	if c.Query("download") != "" {
		disposition = `attachment; filename="attendance-qr.png"`
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, "image/png", png)
}

// AdminLogin exchanges the admin password for a bearer token.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if !h.settings.Secret.Verify(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid password."})
		return
	}
	tok, err := auth.Issue("admin", auth.RoleAdmin, h.settings.Issuer, h.settings.SigningKey, h.settings.AdminTokenTTL, h.now())
	if err != nil {
		h.fail(c, err, "Could not issue token.")
		return
	}
	c.JSON(http.StatusOK, tok)
}
