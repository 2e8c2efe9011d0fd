package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/talent-coach/backend/internal/config"
	"github.com/zhouzirui/talent-coach/backend/internal/database"
	"github.com/zhouzirui/talent-coach/backend/internal/events"
	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
	"github.com/zhouzirui/talent-coach/backend/internal/service/ai"
	"github.com/zhouzirui/talent-coach/backend/internal/service/coach"
	"github.com/zhouzirui/talent-coach/backend/internal/service/session"
	"github.com/zhouzirui/talent-coach/backend/internal/storage"
	"github.com/zhouzirui/talent-coach/backend/internal/telemetry"
)

type appOptions struct {
	envFile string
	addr    string
}

// app holds the wired services shared by every subcommand.
type app struct {
	cfg           *config.Config
	personalities coaching.PersonalityStore
	coach         *coach.Service
	objects       *storage.S3Store
	archive       *database.Queries

	closers []func()
}

func loadConfig(opts appOptions) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load configuration")
	}
	return cfg, telemetry.InitLogger(cfg.Log), nil
}

// newApp loads configuration and wires the coaching service. Optional
// collaborators that fail to start are logged and skipped.
func newApp(ctx context.Context, opts appOptions, withArchive bool) (*app, error) {
	cfg, logCloser, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	a.closers = append(a.closers, func() { _ = logCloser.Close() })

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
	} else {
		a.closers = append(a.closers, shutdownTelemetry)
	}

	a.personalities = coaching.NewMemoryStore(coaching.Seed())

	chatModel, err := ai.NewChatModel(ctx, cfg.AI)
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "initialize chat model")
	}
	aiSvc, err := ai.NewService(ctx, chatModel, ai.Options{Timeout: cfg.AI.Timeout})
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "initialize ai service")
	}
	log.Info().Str("provider", cfg.AI.Provider).Msg("ai service initialized")

	var deliverOpts []report.Option
	if cfg.Storage.Enabled() {
		objects, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("object storage unavailable, reports will not be archived")
		} else {
			a.objects = objects
			deliverOpts = append(deliverOpts, report.WithArchive(objects))
			log.Info().Str("bucket", cfg.Storage.Bucket).Msg("object storage enabled")
		}
	}

	deps := coach.Dependencies{
		Store: session.NewStore(session.Options{
			MaxSessions: cfg.Session.MaxSessions,
			IdleTTL:     cfg.Session.IdleTTL,
		}),
		Completer: aiSvc,
		Prompts:   ai.NewCoachPromptManager(a.personalities),
		Deliverer: report.NewDeliverer(cfg.Report.TempDir, deliverOpts...),
	}

	if withArchive && cfg.Archive.Enabled() {
		queries, err := openArchive(ctx, cfg.Archive)
		if err != nil {
			log.Warn().Err(err).Str("driver", cfg.Archive.Driver).Msg("turn archive unavailable")
		} else {
			a.archive = queries
			deps.Archive = queries
			a.closers = append(a.closers, func() { _ = queries.Close() })
		}
	}

	if cfg.Events.RabbitMQURL != "" {
		publisher, err := events.DialAMQP(cfg.Events.RabbitMQURL, cfg.Events.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("session updates will not be published")
		} else {
			deps.Publisher = publisher
			a.closers = append(a.closers, func() { _ = publisher.Close() })
		}
	}

	a.coach, err = coach.NewService(deps)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func openArchive(ctx context.Context, cfg config.ArchiveConfig) (*database.Queries, error) {
	db, err := database.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	queries := database.New(db)
	if err := queries.Migrate(ctx); err != nil {
		_ = queries.Close()
		return nil, err
	}
	return queries, nil
}

// Close releases collaborators in reverse start order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
