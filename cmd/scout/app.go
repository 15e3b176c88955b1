package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/config"
	"github.com/kailas-cloud/scout/internal/db"
	dbRedis "github.com/kailas-cloud/scout/internal/db/redis"
	"github.com/kailas-cloud/scout/internal/domain/catalog"
	logpkg "github.com/kailas-cloud/scout/internal/logger"
	"github.com/kailas-cloud/scout/internal/metrics"
	budgetrepo "github.com/kailas-cloud/scout/internal/repository/budget"
	openaiRec "github.com/kailas-cloud/scout/internal/transport/openai"
	healthuc "github.com/kailas-cloud/scout/internal/usecase/health"
	recommenderuc "github.com/kailas-cloud/scout/internal/usecase/recommender"
	searchuc "github.com/kailas-cloud/scout/internal/usecase/search"
)

// app is the composition root shared by every command.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  db.Store
	search *searchuc.Service
	health *healthuc.Service
}

// loadConfig reads config for ENV and builds the logger.
func loadConfig() (string, config.Config, *zap.Logger, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return env, cfg, logger, nil
}

// newApp wires catalog, recommender chain, budget and health.
func newApp(ctx context.Context) (*app, error) {
	env, cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	metrics.Register()

	idx, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("Catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("items", idx.Len()),
		zap.Int("tags", idx.Vocabulary().Len()),
	)

	a := &app{env: env, cfg: cfg, logger: logger}

	if cfg.Database.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		a.store = store
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
	}

	rc := cfg.Recommender
	base := openaiRec.NewRecommender(&openaiRec.Config{
		APIKey:       rc.APIKey,
		BaseURL:      rc.BaseURL,
		Model:        rc.Model,
		Temperature:  rc.Temperature,
		JSONMode:     rc.JSONMode,
		Timeout:      rc.Timeout(),
		MaxRetries:   rc.MaxRetries,
		RetryBackoff: rc.RetryBackoff(),
		Logger:       logger,
	})

	// Pass a nil interface, not a typed nil pointer, when the budget is off.
	var budget recommenderuc.BudgetChecker
	if rc.Budget.Enabled() {
		action := recommenderuc.BudgetActionWarn
		if rc.Budget.Action == "reject" {
			action = recommenderuc.BudgetActionReject
		}
		b := recommenderuc.NewBudget(rc.Budget.DailyTokenLimit, rc.Budget.MonthlyTokenLimit, action, logger)
		if a.store != nil {
			b.WithStore(ctx, budgetrepo.New(a.store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
		}
		budget = b
	}

	rec := recommenderuc.NewInstrumented(base, rc.Model, budget, logger)

	a.search = searchuc.New(idx, rec, logger)

	// Nil interface when persistence is disabled.
	var pinger healthuc.DBPinger
	if a.store != nil {
		pinger = a.store
	}
	a.health = healthuc.New(rec, pinger)

	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}
