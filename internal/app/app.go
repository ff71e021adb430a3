package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hiapplyco/apply-codes-sub006/internal/eventlog"
	"github.com/hiapplyco/apply-codes-sub006/internal/httpapi"
	"github.com/hiapplyco/apply-codes-sub006/internal/interview"
	"github.com/hiapplyco/apply-codes-sub006/internal/store"
)

type App struct {
	cfg      Config
	logger   *log.Logger
	db       *pgxpool.Pool
	store    *store.Store
	eventLog *eventlog.Logger
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	// The durable store is fire-and-forget for the live engine; without a
	// database the service still runs, it just keeps no audit trail.
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.store = store.New(db)
	} else {
		logger.Printf("app: DATABASE_URL not set, running without audit persistence")
	}

	// Migrations are applied externally by the CI deploy job.
	a.eventLog = eventlog.New(a.db)

	return a, nil
}

func (a *App) Router(sessions *httpapi.SessionRegistry) http.Handler {
	routerCfg := httpapi.RouterConfig{
		PublicBaseURL: a.cfg.PublicBaseURL,
		OpenAIAPIKey:  a.cfg.OpenAIAPIKey,
		OpenAIModel:   a.cfg.OpenAIModel,
		JWTSecret:     a.cfg.JWTSecret,
		Engine: interview.Config{
			HistorySize:       a.cfg.HistorySize,
			FlushMaxChars:     a.cfg.FlushMaxChars,
			FlushIdle:         a.cfg.FlushIdle,
			DebounceWindow:    a.cfg.DebounceWindow,
			TipMinAnswerChars: a.cfg.TipMinAnswerChars,
			CoverageThreshold: a.cfg.CoverageThreshold,
		},
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.store, a.eventLog, sessions)
}

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
