package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/internal/calendar"
	"github.com/username/attendance-tracker/internal/config"
	"github.com/username/attendance-tracker/internal/metrics"
	"github.com/username/attendance-tracker/internal/store/cache"
	"github.com/username/attendance-tracker/internal/store/filestore"
	"github.com/username/attendance-tracker/internal/store/postgres"
	"github.com/username/attendance-tracker/internal/store/postgrest"
	"github.com/username/attendance-tracker/internal/timemanager"
)

// app holds the wired components of one command run
type app struct {
	cfg     *config.Config
	manager *timemanager.Manager
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return initializeApp(ctx, cfg)
}

func initializeApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, err := a.newStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cc := cfg.Store.Cache; cc.Addr != "" {
		cached, err := cache.New(ctx, store, cache.Options{
			Addr:     cc.Addr,
			Password: cc.Password,
			DB:       cc.DB,
			TTL:      cc.GetTTL(),
		}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = cached.Close() })
		store = cached
	}

	cal, err := newCalendar(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	policy := metrics.Config{
		Calendar:             cal,
		DailyTargetHours:     cfg.Policy.DailyTargetHours,
		HalfDayHours:         cfg.Policy.HalfDayHours,
		LateThresholdMinutes: cfg.Policy.GetLateThresholdMinutes(),
	}

	a.manager = timemanager.NewManager(store, policy, cfg.OwnerID, logger,
		timemanager.WithDefaultCheckIn(cfg.Policy.GetDefaultCheckInMinutes()))

	return a, nil
}

// newStore builds the configured record store
func (a *app) newStore(ctx context.Context) (attendance.RecordStore, error) {
	cfg := a.cfg.Store

	switch cfg.Type {
	case config.StoreFile, "":
		logger.Info("Using file store", zap.String("path", cfg.File.Path))
		return filestore.New(cfg.File.Path, logger), nil

	case config.StorePostgres:
		db, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		logger.Info("Using PostgreSQL store")
		return postgres.NewStore(db, logger), nil

	case config.StorePostgREST:
		var tokenManager *postgrest.TokenManager
		if cfg.PostgREST.TokenCommand != "" {
			tokenManager = postgrest.NewTokenManager(
				cfg.PostgREST.GetRefreshInterval(),
				cfg.PostgREST.TokenCommand,
				logger,
			)
		} else {
			tokenManager = postgrest.NewStaticTokenManager(cfg.PostgREST.AccessToken, logger)
		}

		if err := tokenManager.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start token manager: %w", err)
		}
		a.closers = append(a.closers, tokenManager.Stop)

		logger.Info("Using PostgREST store", zap.String("url", cfg.PostgREST.URL))
		return postgrest.NewClient(cfg.PostgREST.URL, cfg.PostgREST.Table, cfg.PostgREST.APIKey, tokenManager, logger), nil

	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

// newCalendar is the configured working weekdays, with dated overrides
// from policy.calendar_file when one is set
func newCalendar(cfg *config.Config) (calendar.Calendar, error) {
	base := calendar.NewWeekdayCalendar(cfg.Policy.GetWorkingDays()...)
	if cfg.Policy.CalendarFile == "" {
		return base, nil
	}

	composite := calendar.NewCompositeCalendar(base, calendar.NewFileCalendar(cfg.Policy.CalendarFile, logger), logger)
	if err := composite.LoadOverrides(); err != nil {
		return nil, err
	}
	return composite, nil
}
