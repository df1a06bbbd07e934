// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/bookcast/internal/artifacts"
	"github.com/jackzampolin/bookcast/internal/catalog"
	"github.com/jackzampolin/bookcast/internal/config"
	"github.com/jackzampolin/bookcast/internal/defra"
	"github.com/jackzampolin/bookcast/internal/home"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/library"
	"github.com/jackzampolin/bookcast/internal/llmcall"
	"github.com/jackzampolin/bookcast/internal/providers"
	"github.com/jackzampolin/bookcast/internal/series"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	DefraClient   *defra.Client
	Books         library.Store
	Artifacts     artifacts.Store
	Orchestrator  *series.Orchestrator
	Jobs          *jobs.Tracker
	Notifications *jobs.Notifications
	Registry      *providers.Registry
	LLMCalls      *llmcall.Log
	Catalog       *catalog.Client
	ConfigManager *config.Manager
	Logger        *slog.Logger
	Home          *home.Dir

	// RunContext outlives individual requests and is cancelled when the
	// server shuts down. Background generation runs under it.
	RunContext context.Context
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DefraClientFrom extracts the DefraDB client from context.
func DefraClientFrom(ctx context.Context) *defra.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefraClient
	}
	return nil
}

// BooksFrom extracts the book store from context.
func BooksFrom(ctx context.Context) library.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Books
	}
	return nil
}

// ArtifactsFrom extracts the artifact store from context.
func ArtifactsFrom(ctx context.Context) artifacts.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Artifacts
	}
	return nil
}

// OrchestratorFrom extracts the series orchestrator from context.
func OrchestratorFrom(ctx context.Context) *series.Orchestrator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Orchestrator
	}
	return nil
}

// JobsFrom extracts the job tracker from context.
func JobsFrom(ctx context.Context) *jobs.Tracker {
	if s := ServicesFrom(ctx); s != nil {
		return s.Jobs
	}
	return nil
}

// NotificationsFrom extracts the notification store from context.
func NotificationsFrom(ctx context.Context) *jobs.Notifications {
	if s := ServicesFrom(ctx); s != nil {
		return s.Notifications
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// CatalogFrom extracts the Gutendex client from context.
func CatalogFrom(ctx context.Context) *catalog.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Catalog
	}
	return nil
}

// ConfigFrom returns the current configuration, or the defaults when no
// config manager is attached.
func ConfigFrom(ctx context.Context) *config.Config {
	if s := ServicesFrom(ctx); s != nil && s.ConfigManager != nil {
		return s.ConfigManager.Get()
	}
	return config.DefaultConfig()
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// LLMCallsFrom extracts the generation call log from context.
func LLMCallsFrom(ctx context.Context) *llmcall.Log {
	if s := ServicesFrom(ctx); s != nil {
		return s.LLMCalls
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// RunContextFrom returns the long-lived context for background work.
// It falls back to a context detached from ctx's cancellation.
func RunContextFrom(ctx context.Context) context.Context {
	if s := ServicesFrom(ctx); s != nil && s.RunContext != nil {
		return s.RunContext
	}
	return context.WithoutCancel(ctx)
}
