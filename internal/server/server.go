package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/artifacts"
	"github.com/jackzampolin/bookcast/internal/catalog"
	"github.com/jackzampolin/bookcast/internal/config"
	"github.com/jackzampolin/bookcast/internal/defra"
	"github.com/jackzampolin/bookcast/internal/extract"
	"github.com/jackzampolin/bookcast/internal/home"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/library"
	"github.com/jackzampolin/bookcast/internal/llmcall"
	"github.com/jackzampolin/bookcast/internal/providers"
	"github.com/jackzampolin/bookcast/internal/schema"
	"github.com/jackzampolin/bookcast/internal/series"
	"github.com/jackzampolin/bookcast/internal/server/endpoints"
	"github.com/jackzampolin/bookcast/internal/svcctx"
)

// Server is the main Bookcast HTTP server.
// Unless it is pointed at an external DefraDB or runs in memory, it manages
// the DefraDB container lifecycle: starting it on server start and stopping
// it on server shutdown.
type Server struct {
	cfg          Config
	httpServer   *http.Server
	defraManager *defra.DockerManager
	defraClient  *defra.Client
	registry     *providers.Registry
	configMgr    *config.Manager
	logger       *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services
	// stopRuns cancels background generation on shutdown
	stopRuns context.CancelFunc

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the bookcast home directory
	Home *home.Dir
	// DefraConfig holds DefraDB container settings
	DefraConfig defra.DockerConfig
	// DefraURL connects to an already running DefraDB instead of a managed container
	DefraURL string
	// InMemory keeps books and artifacts in process memory (no DefraDB)
	InMemory bool
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Generator overrides the registry-backed LLM generator
	Generator series.Generator
	// Extractor overrides the file extractor built from config
	Extractor extract.Extractor
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, err
		}
		cfg.Home = h
	}

	var defraManager *defra.DockerManager
	if !cfg.InMemory && cfg.DefraURL == "" {
		if cfg.DefraConfig.DataPath == "" {
			cfg.DefraConfig.DataPath = cfg.Home.DefraDataPath()
		}
		var err error
		defraManager, err = defra.NewDockerManager(cfg.DefraConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create defra manager: %w", err)
		}
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	// If config manager provided, set up providers and hot reload
	if cfg.ConfigManager != nil {
		registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())

		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		cfg:          cfg,
		defraManager: defraManager,
		registry:     registry,
		configMgr:    cfg.ConfigManager,
		logger:       cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{DefraManager: defraManager}) {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		// Episode audio renders synchronously.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts DefraDB (when managed), wires services and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
// If an existing DefraDB container exists, it validates the configuration matches.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.startDefra(ctx); err != nil {
		s.setNotRunning()
		return err
	}

	if err := s.setup(ctx); err != nil {
		_ = s.shutdown()
		return err
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// startDefra brings up the DefraDB client for the configured mode.
func (s *Server) startDefra(ctx context.Context) error {
	switch {
	case s.cfg.InMemory:
		s.logger.Info("using in-memory stores")
		return nil
	case s.defraManager != nil:
		if err := s.defraManager.ValidateExisting(ctx); err != nil {
			return fmt.Errorf("existing DefraDB container incompatible: %w", err)
		}
		s.logger.Info("starting DefraDB")
		if err := s.defraManager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start DefraDB: %w", err)
		}
		s.defraClient = defra.NewClient(s.defraManager.URL())
	default:
		s.defraClient = defra.NewClient(s.cfg.DefraURL)
	}

	if err := s.defraClient.HealthCheck(ctx); err != nil {
		s.stopDefra(context.Background())
		return fmt.Errorf("DefraDB health check failed: %w", err)
	}
	s.logger.Info("DefraDB is ready", "url", s.defraClient.URL())

	s.logger.Info("initializing schemas")
	if err := schema.Initialize(ctx, s.defraClient, s.logger); err != nil {
		s.stopDefra(context.Background())
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	return nil
}

// setup builds the stores, orchestrator and service context.
func (s *Server) setup(ctx context.Context) error {
	cfg := s.currentConfig()

	var books library.Store
	var store artifacts.Store
	if s.defraClient != nil {
		books = library.NewDefraStore(s.defraClient)
		store = artifacts.NewDefraStore(s.defraClient)
	} else {
		books = library.NewMemoryStore()
		store = artifacts.NewMemoryStore()
	}

	extractor := s.cfg.Extractor
	if extractor == nil {
		ec := cfg.ExtractConfig()
		ec.Logger = s.logger
		extractor = extract.New(ec)
	}
	calls := llmcall.NewLog(0)
	gen := s.cfg.Generator
	if gen == nil {
		gen = &registryGenerator{registry: s.registry, config: s.currentConfig, calls: calls}
	}

	tracker := jobs.NewTracker()
	notes := jobs.NewNotifications(0)
	orch, err := series.New(series.Config{
		Store:         store,
		Extractor:     extractor,
		Generator:     gen,
		Optimizer:     cfg.Optimizer(),
		Jobs:          tracker,
		Notifications: notes,
		BatchSize:     cfg.Podcast.BatchSize,
		Logger:        s.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopRuns = cancel

	services := &svcctx.Services{
		DefraClient:   s.defraClient,
		Books:         books,
		Artifacts:     store,
		Orchestrator:  orch,
		Jobs:          tracker,
		Notifications: notes,
		Registry:      s.registry,
		LLMCalls:      calls,
		Catalog:       catalog.NewClient(catalog.Config{BaseURL: cfg.Catalog.BaseURL}),
		ConfigManager: s.configMgr,
		Logger:        s.logger,
		Home:          s.cfg.Home,
		RunContext:    runCtx,
	}

	s.mu.Lock()
	s.services = services
	s.mu.Unlock()
	return nil
}

func (s *Server) currentConfig() *config.Config {
	if s.configMgr != nil {
		return s.configMgr.Get()
	}
	return config.DefaultConfig()
}

// shutdown stops background runs, the HTTP server and a managed DefraDB.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	if s.stopRuns != nil {
		s.stopRuns()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.stopDefra(shutdownCtx)

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) stopDefra(ctx context.Context) {
	if s.defraManager == nil {
		return
	}
	s.logger.Info("stopping DefraDB")
	if err := s.defraManager.Stop(ctx); err != nil {
		s.logger.Error("DefraDB stop error", "error", err)
	}
	if err := s.defraManager.Close(); err != nil {
		s.logger.Error("DefraDB manager close error", "error", err)
	}
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Handler returns the HTTP handler with service context attached.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		services := s.services
		s.mu.RUnlock()

		ctx := r.Context()
		if services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the stores and orchestrator are wired.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svcctx.OrchestratorFrom(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
