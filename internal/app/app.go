package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"StoryCurator/internal/api"
	"StoryCurator/internal/config"
	"StoryCurator/internal/infrastructure/amplify"
	"StoryCurator/internal/infrastructure/broker"
	"StoryCurator/internal/infrastructure/events"
	"StoryCurator/internal/infrastructure/ivor"
	"StoryCurator/internal/infrastructure/scheduler"
	"StoryCurator/internal/infrastructure/storage"
	"StoryCurator/internal/logging"
	"StoryCurator/internal/ports"
	"StoryCurator/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// stores groups the repositories one backend provides.
type stores struct {
	articles  ports.ArticleStore
	queue     ports.QueueRepository
	decisions ports.DecisionRepository
	rules     ports.RuleRepository
	log       ports.CurationLog
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db        *sql.DB
	publisher *broker.Publisher

	articles      ports.ArticleStore
	capture       *usecase.CaptureQueue
	governance    *usecase.Governance
	curation      *usecase.Curation
	conversations *usecase.Conversations
	social        *usecase.Social
}

// New connects storage and collaborators and builds every use case.
// Optional services with no URL configured are left out.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}
	a.articles = st.articles

	var publisher ports.EventPublisher = broker.Noop{}
	if cfg.Broker.URL != "" {
		p, err := broker.Connect(cfg.Broker)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = p
		publisher = p
	}

	var chat ports.ChatClient
	if cfg.Services.IVOR.URL != "" {
		chat = ivor.NewClient(cfg.Services.IVOR, cfg.Services.Timeout)
	}
	var calendar ports.EventsCalendar
	if cfg.Services.Events.URL != "" {
		calendar = events.NewClient(cfg.Services.Events, cfg.Services.Timeout)
	}
	var amplifier ports.Amplifier
	if cfg.Services.Amplify.URL != "" {
		amplifier = amplify.NewClient(cfg.Services.Amplify, cfg.Services.Timeout)
	}

	a.governance = usecase.NewGovernance(usecase.GovernanceDeps{
		Decisions: st.decisions,
		Articles:  st.articles,
		Events:    publisher,
		Logger:    baseLogger.With("component", "governance"),
		Options: usecase.GovernanceOptions{
			AutoApproveScore: cfg.Governance.AutoApproveScore,
			VotingPeriod:     cfg.Governance.VotingPeriod,
			Quorum:           cfg.Governance.Quorum,
			CurationLimit:    cfg.Governance.CurationLimit,
			MinFeatureVotes:  cfg.Governance.MinFeatureVotes,
			MinFeatureScore:  cfg.Governance.MinFeatureScore,
			RequiredTags:     cfg.Governance.RequiredTags,
		},
	})
	a.capture = usecase.NewCaptureQueue(usecase.CaptureDeps{
		Queue:     st.queue,
		Articles:  st.articles,
		Validator: a.governance,
		Events:    publisher,
		Logger:    baseLogger.With("component", "capture"),
		Options: usecase.CaptureOptions{
			AutoPublishThreshold: cfg.Capture.AutoPublishThreshold,
			AutoFeatureThreshold: cfg.Capture.AutoFeatureThreshold,
			RequireUserConsent:   cfg.Capture.RequireUserConsent,
			BatchSize:            cfg.Capture.BatchSize,
			MaxQueueSize:         cfg.Capture.MaxQueueSize,
			MaxAttempts:          cfg.Capture.MaxAttempts,
			ConsentTTL:           cfg.Capture.ConsentTTL,
		},
	})
	a.curation = usecase.NewCuration(usecase.CurationDeps{
		Rules:     st.rules,
		Log:       st.log,
		Decisions: st.decisions,
		Articles:  st.articles,
		Events:    publisher,
		Logger:    baseLogger.With("component", "curation"),
		Options: usecase.CurationOptions{
			MaxFeatured:         cfg.Curation.MaxFeatured,
			ScoreFloor:          cfg.Curation.ScoreFloor,
			GeographicDiversity: cfg.Curation.GeographicDiversity,
		},
	})
	a.conversations = usecase.NewConversations(usecase.ConversationDeps{
		Chat:    chat,
		Capture: a.capture,
		Logger:  baseLogger.With("component", "conversations"),
	})
	a.social = usecase.NewSocial(usecase.SocialDeps{
		Articles:  st.articles,
		Calendar:  calendar,
		Amplifier: amplifier,
		Logger:    baseLogger.With("component", "social"),
		PublicURL: cfg.HTTP.PublicURL,
	})

	if n, err := a.curation.EnsureDefaultRules(ctx); err != nil {
		baseLogger.Warn("seed curation rules", "error", err)
	} else if n > 0 {
		baseLogger.Info("seeded curation rules", "count", n)
	}
	return a, nil
}

func (a *Application) openStores(ctx context.Context) (stores, error) {
	if a.cfg.Database.UseInMemory {
		a.logger.Info("using in-memory storage")
		curation := storage.NewMemoryCuration()
		return stores{
			articles:  storage.NewMemoryArticles(),
			queue:     storage.NewMemoryQueue(),
			decisions: storage.NewMemoryDecisions(),
			rules:     curation,
			log:       curation,
		}, nil
	}

	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return stores{}, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	curation := storage.NewCurationRepository(db)
	return stores{
		articles:  storage.NewFallback(storage.NewArticleRepository(db), a.logger.With("component", "articles")),
		queue:     storage.NewQueueRepository(db),
		decisions: storage.NewDecisionRepository(db),
		rules:     curation,
		log:       curation,
	}, nil
}

// Handler returns the HTTP API.
func (a *Application) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Capture:        a.capture,
		Governance:     a.governance,
		Curation:       a.curation,
		Conversations:  a.conversations,
		Social:         a.social,
		Articles:       a.articles,
		Logger:         a.logger.With("component", "api"),
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
	})
}

// Serve runs the HTTP API and the recurring jobs until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	jobs := usecase.NewScheduler(a.logger.With("component", "scheduler"),
		usecase.CaptureJob(scheduler.NewIntervalScheduler(a.cfg.Capture.Interval, false), a.capture),
		usecase.CurationJob(scheduler.NewIntervalScheduler(a.cfg.Curation.Interval, false), a.governance, a.curation, a.logger),
	)
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return jobs.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down")
		return errors.Join(srv.Shutdown(shutdownCtx), jobs.Stop(shutdownCtx))
	})
	return g.Wait()
}

// ProcessOnce runs a single capture batch.
func (a *Application) ProcessOnce(ctx context.Context) usecase.BatchResult {
	return a.capture.ProcessBatch(ctx)
}

// CurateOnce closes expired votes and runs one curation session.
func (a *Application) CurateOnce(ctx context.Context) (usecase.CurationReport, error) {
	return usecase.RunCurationPass(ctx, a.governance, a.curation, usecase.SessionOptions{})
}

// Close releases the database and broker connections.
func (a *Application) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
}
