package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"qrattend/internal/attendance"
	"qrattend/internal/auth"
	"qrattend/internal/config"
	"qrattend/internal/handler"
	"qrattend/internal/logger"
	"qrattend/internal/meeting"
	"qrattend/internal/metrics"
	"qrattend/internal/netinfo"
	"qrattend/internal/participant"
	"qrattend/internal/qr"
	"qrattend/internal/roll"
	"qrattend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog := logger.New(cfg.Env)
	defer func() { _ = zlog.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, zlog); err != nil {
		zlog.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	now := func() time.Time { return time.Now().In(loc) }

	docs, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := docs.Ping(ctx); err != nil {
		zlog.Warn("store not reachable", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}

	meetings := meeting.NewRegistry(docs, zlog, meeting.WithClock(now))
	participants := participant.NewDirectory(docs, zlog)
	ledger := attendance.NewService(attendance.NewRepository(docs, zlog), meetings, participants, zlog, attendance.WithClock(now))

	port := cfg.HTTPPort
	if cfg.PortSearch {
		if port, err = netinfo.FindFreePort(cfg.HTTPPort); err != nil {
			return err
		}
		if port != cfg.HTTPPort {
			zlog.Warn("port in use, using next free port", zap.Int("requested", cfg.HTTPPort), zap.Int("port", port))
		}
	}

	h := handler.New(handler.Deps{
		Docs:         docs,
		Meetings:     meetings,
		Participants: participants,
		Ledger:       ledger,
		Roll:         roll.NewQuery(ledger),
		QR:           qr.NewGenerator(cfg.QRSize, nil),
		Metrics:      metrics.New(prometheus.DefaultRegisterer),
		Gatherer:     prometheus.DefaultGatherer,
		Log:          zlog,
	}, handler.Settings{
		SiteURL:         cfg.SiteURL,
		VercelURL:       cfg.VercelURL,
		Port:            port,
		Location:        loc,
		Secret:          auth.NewSecret(cfg.AdminPassword, cfg.AdminPasswordHash),
		SigningKey:      cfg.JWTSigningKey,
		Issuer:          cfg.JWTIssuer,
		AdminTokenTTL:   cfg.AdminTokenTTL,
		RateLimitPerMin: cfg.RateLimitPerMin,
		PublicDir:       cfg.PublicDir,
	}, handler.WithClock(now))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler.NewRouter(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lanIP := netinfo.LocalIP()
		zlog.Info("server listening",
			zap.String("local_url", fmt.Sprintf("http://localhost:%d", port)),
			zap.String("network_url", fmt.Sprintf("http://%s:%d", lanIP, port)),
			zap.String("checkin_base_url", qr.BaseURL(cfg.SiteURL, cfg.VercelURL, lanIP, port)),
			zap.String("store", cfg.StoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	zlog.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server forced shutdown", zap.Error(err))
	}
	zlog.Info("server exited")
	return nil
}

// openStore connects the configured document store backend.
func openStore(ctx context.Context, cfg config.App) (store.Documents, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemory(), func() {}, nil
	case config.BackendRedis:
		docs := store.NewRedis(cfg.RedisAddr, cfg.RedisPrefix)
		return docs, func() { _ = docs.Close() }, nil
	case config.BackendSQLite, config.BackendPostgres:
		var (
			db  *store.DB
			err error
		)
		if cfg.StoreBackend == config.BackendSQLite {
			db, err = store.NewSQLite(ctx, cfg.SQLitePath)
		} else {
			db, err = store.NewPostgres(ctx, cfg.DatabaseURL)
		}
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("open %s: %w", cfg.StoreBackend, err)
		}
		docs, err := store.NewSQLDocuments(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate %s: %w", cfg.StoreBackend, err)
		}
		return docs, func() { _ = docs.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
