// Package bootstrap wires configuration, module resolution and composition
// into a servable application.
package bootstrap

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	sorobonto "github.com/Dawdaborje/sorobonto-backend"
	"github.com/Dawdaborje/sorobonto-backend/compose"
	"github.com/Dawdaborje/sorobonto-backend/config"
	"github.com/Dawdaborje/sorobonto-backend/metrics"
	"github.com/Dawdaborje/sorobonto-backend/registry"
	"github.com/Dawdaborje/sorobonto-backend/scripting"
)

// App is an assembled schema and everything needed to serve it.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Resolution *registry.Resolution
	Schema     *compose.Schema

	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector

	gatherer prometheus.Gatherer
}

// Options overrides the defaults of New. The zero value is ready to use.
type Options struct {
	// Registry holds compiled-in modules. Defaults to registry.Default.
	Registry *registry.Registry
	// Output receives log records. Defaults to os.Stdout.
	Output io.Writer
	// Registerer and Gatherer back the metrics. Default to the prometheus
	// default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// New resolves the configured modules and composes the schema. Modules that
// are absent or fail to load are logged and skipped; a composition conflict is
// returned as an error.
func New(cfg *config.Config, opts Options) (*App, error) {
	if opts.Registry == nil {
		opts.Registry = registry.Default
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	logger := NewLogger(cfg.Logging, opts.Output)
	a := &App{Config: cfg, Logger: logger, gatherer: opts.Gatherer}

	resolverOpts := []registry.ResolverOption{
		registry.WithLogger(logger.With().Str("component", "resolver").Logger()),
	}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewWithRegistry(opts.Registerer)
		resolverOpts = append(resolverOpts, registry.WithObserver(a.Metrics))
	}

	a.Resolution = Resolve(cfg, opts.Registry, resolverOpts...)

	summary := a.Resolution.Summary()
	logger.Info().
		Int("loaded", summary.Loaded).
		Int("absent", summary.Absent).
		Int("failed", summary.Failed).
		Strs("failed_modules", summary.FailedModules).
		Msg("schema modules resolved")

	schema, err := compose.Compose(
		a.Resolution.Queries(),
		a.Resolution.Mutations(),
		compose.WithGreeting(cfg.Schema.Greeting),
		compose.WithLogger(logger.With().Str("component", "composer").Logger()),
	)
	if a.Metrics != nil {
		a.Metrics.ObserveComposition(schema, err)
	}
	if err != nil {
		_ = a.Resolution.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	a.Schema = schema

	logger.Info().
		Strs("query", schema.Query().FieldNames()).
		Strs("mutation", schema.Mutation().FieldNames()).
		Msg("schema composed")

	return a, nil
}

// Close releases the resources the loaded modules hold.
func (a *App) Close() error {
	if err := a.Resolution.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("closing schema modules")
		return err
	}
	return nil
}

// Resolve resolves cfg.Apps against the compiled-in modules of reg, then the
// scripts under cfg.AppsDir.
func Resolve(cfg *config.Config, reg *registry.Registry, opts ...registry.ResolverOption) *registry.Resolution {
	sources := []registry.Source{reg, scripting.NewSource(cfg.AppsDir)}
	return registry.NewResolver(sources, opts...).Resolve(cfg.Apps)
}

// Router mounts the GraphQL endpoint, and the playground and metrics when
// enabled.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)

	handlerOpts := []sorobonto.HandlerOption{
		sorobonto.WithLogger(a.Logger),
	}
	if a.Metrics != nil {
		handlerOpts = append(handlerOpts, sorobonto.WithRequestObserver(a.Metrics))
	}
	r.Handle(a.Config.Server.GraphQLPath, sorobonto.HTTPHandler(a.Schema, handlerOpts...))

	if a.Config.Server.Playground {
		r.Get(a.Config.Server.PlaygroundPath, sorobonto.PlaygroundHandler("Sorobonto", a.Config.Server.GraphQLPath).ServeHTTP)
	}
	if a.Metrics != nil {
		r.Handle(a.Config.Metrics.Path, promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// NewLogger builds the application logger. Format "console" writes human
// readable lines; anything else writes JSON.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
