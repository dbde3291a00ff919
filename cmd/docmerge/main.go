package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/docmerge/combine"
	"github.com/hazyhaar/docmerge/config"
	"github.com/hazyhaar/docmerge/convert"
	"github.com/hazyhaar/docmerge/docpipe"
	"github.com/hazyhaar/docmerge/engine"
	"github.com/hazyhaar/docmerge/jobstore"
	"github.com/hazyhaar/docmerge/server"
	"github.com/hazyhaar/docmerge/shield"
)

func main() {
	cfg, err := config.Load(env("CONFIG_FILE", "config.yaml"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("data dir", "error", err)
		os.Exit(1)
	}

	// Job history.
	store, err := jobstore.Open(cfg.JobsDB, logger)
	if err != nil {
		slog.Error("jobstore", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Conversion pipeline.
	eng := engine.NewLibreOffice(cfg.EnginePath, cfg.EngineTimeoutDuration(), logger)
	if eng.Available() {
		slog.Info("render engine ready")
	} else {
		slog.Warn("render engine not found, office conversions fall back to manual extraction")
	}
	pipe := docpipe.New(docpipe.Config{
		MaxFileSize: cfg.MaxUploadBytes(),
		Logger:      logger,
	})
	asm := combine.New(pipe, convert.New(pipe, eng, logger), logger)
	svc := server.New(asm, store, cfg.DataDir, logger)

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	for _, mw := range shield.DefaultStack(cfg.MaxUploadBytes()) {
		r.Use(mw)
	}
	if cfg.AuthPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AuthPassword), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("auth password hash", "error", err)
			os.Exit(1)
		}
		r.Use(basicAuth(hash))
	}
	svc.RegisterHTTP(r)

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// basicAuth enforces HTTP Basic Auth against the bcrypt hash of the
// configured password. The username is not checked; health stays open for
// load balancer probes.
func basicAuth(hash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			_, password, ok := r.BasicAuth()
			if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="docmerge"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
