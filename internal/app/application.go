// Package app wires the feed services together and manages their lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/glazehub/glazehub/internal/app/services/engagement"
	feedsvc "github.com/glazehub/glazehub/internal/app/services/feed"
	"github.com/glazehub/glazehub/internal/app/services/praise"
	"github.com/glazehub/glazehub/internal/app/storage"
	"github.com/glazehub/glazehub/internal/app/storage/credfile"
	"github.com/glazehub/glazehub/internal/app/storage/memory"
	"github.com/glazehub/glazehub/internal/app/system"
	"github.com/glazehub/glazehub/internal/config"
	"github.com/glazehub/glazehub/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory post store and the file-backed credential store.
type Stores struct {
	Posts       storage.PostStore
	Credentials storage.CredentialStore
}

// Application ties the domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Feed       *feedsvc.Service
	Engagement *engagement.Manager
}

// New builds a fully initialised application with the provided stores.
func New(cfg *config.Config, stores Stores, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration required")
	}
	if log == nil {
		log = logger.NewDefault("app")
	}

	if stores.Posts == nil {
		stores.Posts = memory.New()
	}
	if stores.Credentials == nil {
		creds, err := credfile.New(cfg.Remote.CredentialFile)
		if err != nil {
			log.WithError(err).Warn("credential persistence unavailable")
		} else {
			stores.Credentials = creds
		}
	}

	engine := praise.NewEngine()
	credentials := praise.NewCredentials(cfg.Remote.APIKey, stores.Credentials, log.WithField("component", "credentials"))

	httpClient := &http.Client{Timeout: cfg.Remote.RequestTimeout}
	remote, err := praise.NewRemoteGenerator(
		httpClient,
		cfg.Remote.BaseURL,
		cfg.Remote.Model,
		cfg.Remote.RequestsPerMin,
		credentials,
		engine,
		log.WithField("component", "praise-remote"),
	)
	if err != nil {
		return nil, fmt.Errorf("configure remote generator: %w", err)
	}

	feedService := feedsvc.New(stores.Posts, remote, engine, credentials, feedsvc.Config{
		Author:       cfg.Feed.Author,
		MinComments:  cfg.Feed.MinComments,
		MaxComments:  cfg.Feed.MaxComments,
		MinSeedLikes: cfg.Feed.MinSeedLikes,
		MaxSeedLikes: cfg.Feed.MaxSeedLikes,
	}, log.WithField("component", "feed"))

	// Mirror the original demo: a credential present at startup enables
	// remote generation without an explicit settings call.
	if credentials.Configured() {
		feedService.SetRemoteEnabled(true)
	}

	engagementMgr := engagement.NewManager(engine, engagement.Config{
		LikeInterval:    cfg.Engagement.LikeInterval,
		CommentInterval: cfg.Engagement.CommentInterval,
		LikeTarget:      cfg.Engagement.LikeTarget,
		CommentTarget:   cfg.Engagement.CommentTarget,
	}, log.WithField("component", "engagement"))

	manager := system.NewManager()
	if err := manager.Register(engagementMgr); err != nil {
		return nil, fmt.Errorf("register engagement manager: %w", err)
	}

	return &Application{
		manager:    manager,
		log:        log,
		Feed:       feedService,
		Engagement: engagementMgr,
	}, nil
}

// Start begins all registered lifecycle services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services, cancelling any running engagement simulations.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
