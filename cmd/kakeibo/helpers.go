package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/config"
	"github.com/Veraticus/kakeibo/internal/engine"
	"github.com/Veraticus/kakeibo/internal/feedback"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/statscache"
	"github.com/Veraticus/kakeibo/internal/storage"
	"github.com/spf13/viper"
)

// app bundles the services a command needs for one invocation.
type app struct {
	store    *storage.SQLiteStorage
	stats    *statscache.Cache
	engine   *engine.ClassificationEngine
	feedback *feedback.Handler
	settings *config.Settings
	userID   string
}

// openApp loads configuration, opens and migrates the database, and wires the
// engine and feedback handler to it.
func openApp(ctx context.Context) (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}

	store, err := initStorage(ctx, settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	stats, err := statscache.New(store, statscache.Config{TTL: settings.StatsTTL})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	eng, err := engine.NewWithConfig(engine.Dependencies{
		Rules:      store,
		Knowledge:  store,
		Statistics: stats,
	}, settings.Engine)
	if err != nil {
		stats.Close()
		_ = store.Close()
		return nil, err
	}

	return &app{
		store:    store,
		stats:    stats,
		engine:   eng,
		feedback: feedback.New(store, feedback.WithHistory(store, stats)),
		settings: settings,
		userID:   currentUser(),
	}, nil
}

// initStorage opens the database with proper path expansion and runs migrations.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (a *app) Close() {
	a.stats.Close()
	if err := a.store.Close(); err != nil {
		common.LogError(err, "Failed to close database", common.Fields{"path": a.store.Path()})
	}
}

// profile returns the current user's profile, or nil when they have not set one up.
func (a *app) profile(ctx context.Context) (*model.UserProfile, error) {
	p, err := a.store.GetProfile(ctx, a.userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// profileOrNew is like profile but starts an empty profile for new users.
func (a *app) profileOrNew(ctx context.Context) (*model.UserProfile, error) {
	p, err := a.profile(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &model.UserProfile{
			UserID:      a.userID,
			Preferences: make(map[model.PolicyName]model.PolicyValue),
		}
	}
	if p.Preferences == nil {
		p.Preferences = make(map[model.PolicyName]model.PolicyValue)
	}
	return p, nil
}

func currentUser() string {
	if u := viper.GetString("user"); u != "" {
		return u
	}
	return defaultUser
}

// parseCategory accepts a category ID or its English or Japanese name.
func parseCategory(s string) (model.Category, error) {
	if c, ok := model.LookupCategory(model.CategoryID(s)); ok {
		return c, nil
	}
	for _, c := range model.Categories() {
		if s == c.JapaneseName || strings.EqualFold(s, c.Name) {
			return c, nil
		}
	}
	return model.Category{}, common.NewUserError(
		fmt.Sprintf("unknown category %q (see: kakeibo categories)", s),
		model.ErrUnknownCategory)
}
