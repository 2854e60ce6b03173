// Package di wires the configuration into the logger, registry, renderer and
// question flow that the commands and the server share.
//
// The container keeps the current renderer and flow behind atomic pointers.
// Reload builds a complete new set and swaps it in; anything that already
// holds the previous renderer keeps using it unchanged.
package di

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/conneroisu/bleak/internal/config"
	"github.com/conneroisu/bleak/internal/elements"
	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/logging"
	"github.com/conneroisu/bleak/internal/observer"
	"github.com/conneroisu/bleak/internal/questions"
	"github.com/conneroisu/bleak/internal/registry"
	"github.com/conneroisu/bleak/internal/renderer"
)

// ServiceContainer owns the long-lived services of a bleak process
type ServiceContainer struct {
	mu          sync.Mutex
	config      atomic.Pointer[config.Config]
	logger      logging.Logger
	metricsReg  *prometheus.Registry
	metrics     *observer.Metrics
	registry    atomic.Pointer[registry.ComponentRegistry]
	renderer    atomic.Pointer[renderer.Renderer]
	flow        atomic.Pointer[questions.Flow]
	initialized bool
}

// Option customises a ServiceContainer
type Option func(*ServiceContainer)

// WithLogger replaces the logger built from configuration.
func WithLogger(logger logging.Logger) Option {
	return func(c *ServiceContainer) {
		c.logger = logger
	}
}

// NewServiceContainer creates a new container for cfg
func NewServiceContainer(cfg *config.Config, opts ...Option) *ServiceContainer {
	c := &ServiceContainer{}
	c.config.Store(cfg)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize builds every service. It is safe to call more than once.
func (c *ServiceContainer) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	cfg := c.config.Load()
	if cfg == nil {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "no configuration supplied")
	}

	if c.logger == nil {
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "logging level")
		}
		c.logger = logging.NewLogger(&logging.LoggerConfig{
			Level:  level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		})
	}

	c.metricsReg = prometheus.NewRegistry()
	metrics, err := observer.NewMetrics(c.metricsReg)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeConfigInvalid, "registering metrics", err)
	}
	c.metrics = metrics

	if err := c.build(cfg); err != nil {
		return err
	}

	c.initialized = true
	return nil
}

// Reload rebuilds the registry, renderer and flow from cfg and swaps them
// in. On error the previous services stay active.
func (c *ServiceContainer) Reload(cfg *config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return errors.NewInternalError(errors.ErrCodeConfigInvalid, "container not initialized", nil)
	}
	if err := c.build(cfg); err != nil {
		return err
	}
	c.config.Store(cfg)
	c.logger.Info(context.Background(), "Configuration reloaded", "types", c.registry.Load().Count())
	return nil
}

// ReloadFlow reloads only the question flow file.
func (c *ServiceContainer) ReloadFlow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	flow, err := loadFlow(c.config.Load())
	if err != nil {
		return err
	}
	c.flow.Store(flow)
	c.logger.Info(context.Background(), "Question flow reloaded", "questions", flow.Len())
	return nil
}

// build must be called with c.mu held
func (c *ServiceContainer) build(cfg *config.Config) error {
	obs := observer.Multi{observer.NewLogging(c.logger), c.metrics}

	reg := registry.NewComponentRegistry(registry.WithObserver(obs))
	if err := elements.RegisterDefaults(reg); err != nil {
		return err
	}

	r, err := BuildRenderer(cfg.Renderer, reg, obs, c.logger)
	if err != nil {
		return err
	}

	flow, err := loadFlow(cfg)
	if err != nil {
		return err
	}

	c.registry.Store(reg)
	c.renderer.Store(r)
	c.flow.Store(flow)
	return nil
}

func loadFlow(cfg *config.Config) (*questions.Flow, error) {
	if cfg.Questions.File == "" {
		return questions.Default(), nil
	}
	return questions.Load(cfg.Questions.File)
}

// BuildRenderer registers aliases on reg and creates a renderer that follows
// the renderer configuration.
func BuildRenderer(cfg config.RendererConfig, reg *registry.ComponentRegistry, obs observer.Observer, logger logging.Logger) (*renderer.Renderer, error) {
	aliases := make([]string, 0, len(cfg.Aliases))
	for alias := range cfg.Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		target, ok := reg.Get(cfg.Aliases[alias])
		if !ok {
			return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
				fmt.Sprintf("alias %q targets unregistered type %q", alias, cfg.Aliases[alias]))
		}
		if err := reg.Register(alias, target); err != nil {
			return nil, err
		}
	}

	rc := renderer.Config{
		Components:        reg.GetAll(),
		ShouldHaveOptions: cfg.ShouldHaveOptions,
		Observer:          obs,
		OnObserverPanic: func(hook string, err error) {
			logger.Warn(context.Background(), err, "Observer hook failed", "hook", hook)
		},
	}

	switch cfg.Fallback {
	case config.FallbackBuiltin:
		rc.Fallback = elements.Fallback
	case config.FallbackNone:
	default:
		fallback, ok := reg.Get(cfg.Fallback)
		if !ok {
			return nil, errors.NewConfigError(errors.ErrCodeNoFallback,
				fmt.Sprintf("fallback type %q is not registered", cfg.Fallback))
		}
		rc.Fallback = fallback
	}

	if cfg.HasDefaultOptions() {
		rc.GetDefaultOptions = func(questionType string) []string {
			opts, _ := cfg.DefaultOptionsFor(questionType)
			return opts
		}
	}

	return renderer.New(rc), nil
}

// GetConfig returns the active configuration
func (c *ServiceContainer) GetConfig() *config.Config {
	return c.config.Load()
}

// GetLogger returns the process logger
func (c *ServiceContainer) GetLogger() logging.Logger {
	if c.logger == nil {
		return logging.NewNopLogger()
	}
	return c.logger
}

// GetRegistry returns the active component registry
func (c *ServiceContainer) GetRegistry() (*registry.ComponentRegistry, error) {
	reg := c.registry.Load()
	if reg == nil {
		return nil, errors.NewInternalError(errors.ErrCodeConfigInvalid, "registry not initialized", nil)
	}
	return reg, nil
}

// GetRenderer returns the active renderer
func (c *ServiceContainer) GetRenderer() (*renderer.Renderer, error) {
	r := c.renderer.Load()
	if r == nil {
		return nil, errors.NewInternalError(errors.ErrCodeConfigInvalid, "renderer not initialized", nil)
	}
	return r, nil
}

// GetFlow returns the active question flow
func (c *ServiceContainer) GetFlow() (*questions.Flow, error) {
	flow := c.flow.Load()
	if flow == nil {
		return nil, errors.NewInternalError(errors.ErrCodeConfigInvalid, "question flow not initialized", nil)
	}
	return flow, nil
}

// Gatherer exposes the metrics registry for the /metrics endpoint
func (c *ServiceContainer) Gatherer() prometheus.Gatherer {
	return c.metricsReg
}

// Shutdown releases container resources
func (c *ServiceContainer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil
	}
	c.logger.Debug(ctx, "Service container shut down")
	c.initialized = false
	return nil
}
