// cmd/server/server.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/api"
	"github.com/codr1/refschedule/internal/api/conversions"
	"github.com/codr1/refschedule/internal/config"
	"github.com/codr1/refschedule/internal/conversion"
	"github.com/codr1/refschedule/internal/db"
	"github.com/codr1/refschedule/internal/email"
	"github.com/codr1/refschedule/internal/ratelimit"
	"github.com/codr1/refschedule/internal/scheduler"
	"github.com/codr1/refschedule/internal/sheets"
	"github.com/codr1/refschedule/internal/storage"
)

type app struct {
	cfg       *config.Config
	db        *db.DB
	runner    *conversion.Runner
	limiter   *ratelimit.Limiter
	scheduler *scheduler.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{cfg: cfg, db: database}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	cfg := a.cfg

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	a.runner = &conversion.Runner{
		DB:               a.db,
		Store:            store,
		TranslationsPath: cfg.Translations.Path,
		Recipients:       cfg.Email.Recipients,
		BaseURL:          cfg.App.BaseURL,
	}

	sesClient, err := email.NewSESClientFromConfig(ctx, cfg.Email)
	if err != nil {
		return fmt.Errorf("init email: %w", err)
	}
	if sesClient != nil {
		a.runner.Email = sesClient
	}

	if cfg.Sheets.SpreadsheetID != "" {
		client, err := sheets.NewClient(ctx, cfg.Sheets.CredentialsFile)
		if err != nil {
			return fmt.Errorf("init google sheets: %w", err)
		}
		a.runner.SheetMaster = sheets.MasterSheet{
			Client:        client,
			SpreadsheetID: cfg.Sheets.SpreadsheetID,
			Range:         cfg.Sheets.Range,
		}
	}

	a.limiter = ratelimit.New(&ratelimit.Config{
		UploadCooldown:       cfg.Uploads.Cooldown,
		UploadMaxPerHour:     cfg.Uploads.MaxPerHour,
		UploadMaxTownPerHour: cfg.Uploads.MaxTownPerHour,
	})

	a.scheduler, err = scheduler.New()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if err := scheduler.RegisterSheetSyncJobs(a.scheduler, cfg.Sync, a.runner); err != nil {
		return fmt.Errorf("register sync jobs: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("storage", cfg.Storage.Driver).
		Bool("email", a.runner.Email != nil).
		Bool("sheets", a.runner.SheetMaster != nil).
		Int("sync_towns", len(cfg.Sync.Towns)).
		Msg("Server initialized")
	return nil
}

func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
}

func (a *app) httpServer() *http.Server {
	return &http.Server{
		Addr:         ":" + strconv.Itoa(a.cfg.App.Port),
		Handler:      a.handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (a *app) handler() http.Handler {
	router := http.NewServeMux()
	registerRoutes(router, a)

	return api.ChainMiddleware(
		router,
		api.WithAPIToken(a.cfg.App.APITokenHash),
		api.WithRecovery,
		api.WithRequestID,
		api.WithLogging,
	)
}

func registerRoutes(mux *http.ServeMux, a *app) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	handlers := &conversions.Handlers{
		Runner:         a.runner,
		Limiter:        a.limiter,
		MaxUploadBytes: a.cfg.Uploads.MaxBytes,
		TrustProxy:     a.cfg.App.TrustProxy,
	}
	handlers.Register(mux)
}
