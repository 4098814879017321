package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"golang.org/x/time/rate"

	"shelfwise/internal/books"
	"shelfwise/internal/borrowers"
	"shelfwise/internal/borrowings"
	"shelfwise/internal/cache"
	"shelfwise/internal/config"
	"shelfwise/internal/httpapi"
	"shelfwise/internal/logging"
	"shelfwise/internal/migrations"
	"shelfwise/internal/observability"
	"shelfwise/internal/reports"
)

func main() {
	log := logging.NewDefault()

	if err := run(log); err != nil {
		log.Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

func run(log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return err
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, "shelfwise")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn(context.Background(), "trace pipeline shutdown failed", "error", err)
		}
	}()

	respCache := cache.New()

	bookSvc := books.NewService(db, respCache, cfg.CacheTTLs.Books, log)
	borrowerSvc := borrowers.NewService(db, respCache, cfg.CacheTTLs.Borrowers, log)
	borrowingSvc := borrowings.NewService(db, respCache, cfg.CacheTTLs, log)
	reportSvc := reports.NewService(db, log, cfg.ReportsDir)

	// Write throttles: 5 book creations per 10 minutes, 3 borrowings per
	// 5 minutes.
	bookCreateLimiter := rate.NewLimiter(rate.Every(10*time.Minute/5), 5)
	borrowLimiter := rate.NewLimiter(rate.Every(5*time.Minute/3), 3)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(httpapi.RequestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpapi.OKMessage(w, "ok")
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/books", books.NewHandler(bookSvc, log, bookCreateLimiter).Routes())
		r.Mount("/borrowers", borrowers.NewHandler(borrowerSvc, log).Routes())
		r.Mount("/borrowings", borrowings.NewHandler(borrowingSvc, log, borrowLimiter).Routes())
		r.Mount("/reports", reports.NewHandler(reportSvc, log).Routes())
		r.Mount("/cache", httpapi.NewCacheHandler(respCache, log).Routes())
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
