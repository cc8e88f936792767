package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrattend/internal/auth"
	"qrattend/internal/httpmiddleware"
)

// NewRouter wires middleware and routes onto a new gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(httpmiddleware.AccessLog(h.Log, "/healthz", "/metrics"))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", auth.AdminKeyHeader},
		ExposeHeaders:   []string{"Content-Disposition"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(h.Metrics.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/meeting/active", h.ActiveMeeting)
	api.GET("/network-info", h.NetworkInfo)
	api.GET("/qr", h.QRCode)

	limiter := httpmiddleware.NewTokenBucket(h.settings.RateLimitPerMin, h.settings.RateLimitPerMin)
	public := api.Group("", limiter.GinMiddleware())
	public.POST("/register", h.Register)
	public.POST("/check-registration", h.CheckRegistration)
	public.POST("/attendance", h.MarkAttendance)
	public.POST("/admin/login", h.AdminLogin)

	admin := api.Group("", auth.AdminAuth(h.settings.Secret, h.settings.SigningKey, h.settings.Issuer, h.now))
	admin.POST("/meeting/start", h.StartMeeting)
	admin.POST("/meeting/end", h.EndMeeting)
	admin.GET("/attendance/live", h.LiveAttendance)
	admin.GET("/attendance/date/:date", h.AttendanceByDate)
	admin.GET("/export/attendance/:date", h.ExportAttendance)
	admin.GET("/test-store", h.StoreProbe)

	mountPages(r, h.settings.PublicDir)
	return r
}

// mountPages serves the browser pages from dir when it exists. Unknown
// non-API paths fall back to index.html.
func mountPages(r *gin.Engine, dir string) {
	if info, err := os.Stat(dir); dir == "" || err != nil || !info.IsDir() {
		r.NoRoute(notFound)
		return
	}

	r.StaticFile("/attendance", filepath.Join(dir, "attendance.html"))
	r.StaticFile("/admin", filepath.Join(dir, "admin.html"))
	index := filepath.Join(dir, "index.html")

	r.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			notFound(c)
			return
		}
		asset := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+p)))
		if info, err := os.Stat(asset); err == nil && !info.IsDir() {
			c.File(asset)
			return
		}
		c.File(index)
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "Not found."})
}
