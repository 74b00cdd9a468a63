package proctor

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/proctor/internal/config"
	"github.com/loykin/proctor/internal/history"
	"github.com/loykin/proctor/internal/history/factory"
	"github.com/loykin/proctor/internal/logger"
	"github.com/loykin/proctor/internal/metrics"
	"github.com/loykin/proctor/internal/registry"
	iapi "github.com/loykin/proctor/internal/server"
	"github.com/loykin/proctor/internal/task"
	itls "github.com/loykin/proctor/internal/tls"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Record = registry.Record

type Entry = registry.Entry

type ProcessStats = registry.ProcessStats

type Store = registry.Store

type Command = task.Command

type Signature = task.Signature

type Kwargs = task.Kwargs

type Config = cfg.Config

type LogConfig = cfg.LogConfig

type ServerConfig = cfg.ServerConfig

type TLSConfig = cfg.TLSConfig

type MetricsConfig = cfg.MetricsConfig

type HistoryConfig = cfg.HistoryConfig

type LoggerConfig = logger.Config

type HistorySink = history.Sink

// HistoryEvent is the lifecycle event delivered to history sinks.
// Custom sink implementations receive these from the registry.
type HistoryEvent = history.Event

const (
	HistoryEventSignal   = history.EventSignal
	HistoryEventSelfHeal = history.EventSelfHeal
	HistoryEventRemove   = history.EventRemove
)

// Sentinel errors surfaced by registry operations.
var (
	ErrNotFound          = registry.ErrNotFound
	ErrUnsupportedSignal = registry.ErrUnsupportedSignal
	ErrProcessGone       = registry.ErrProcessGone
	ErrNotTerminated     = registry.ErrNotTerminated
)

// DefaultTask is the task name Submit falls back to.
const DefaultTask = task.DefaultTask

// Shell builds a command run through the system shell.
func Shell(cmd string) Command { return task.Shell(cmd) }

// Argv builds a command run directly from an argv vector.
func Argv(args ...string) Command { return task.Argv(args...) }

// Registry is a thin facade over the internal process registry.
// It provides a stable public API for embedding.

type Registry struct{ inner *registry.Registry }

// New returns a registry rooted at dir. The directory is created lazily
// by runner-side writers; a missing one behaves as an empty registry.
func New(dir string) *Registry { return &Registry{inner: registry.New(dir)} }

func (r *Registry) Root() string                      { return r.inner.Root() }
func (r *Registry) Store() *Store                     { return r.inner.Store() }
func (r *Registry) SetLogger(l *slog.Logger)          { r.inner.SetLogger(l) }
func (r *Registry) SetHistorySink(s HistorySink)      { r.inner.SetHistorySink(s) }
func (r *Registry) SetLocking(enabled bool)           { r.inner.SetLocking(enabled) }
func (r *Registry) List() ([]string, error)           { return r.inner.List() }
func (r *Registry) Get(name string) (Record, error)   { return r.inner.Get(name) }
func (r *Registry) Entries() ([]Entry, error)         { return r.inner.Entries() }
func (r *Registry) Stats() ([]ProcessStats, error)    { return r.inner.Stats() }
func (r *Registry) Terminate(name string) error       { return r.inner.Terminate(name) }
func (r *Registry) Kill(name string) error            { return r.inner.Kill(name) }
func (r *Registry) Cleanup(force bool) error          { return r.inner.Cleanup(force) }

func (r *Registry) Submit(command Command, name, taskName string) *Signature {
	return r.inner.Submit(command, name, taskName)
}

func (r *Registry) SendSignal(name string, sig syscall.Signal) error {
	return r.inner.SendSignal(name, sig)
}

func (r *Registry) Remove(name string, force bool) error {
	return r.inner.Remove(name, force)
}

// LoadConfig parses a TOML daemon configuration file.
func LoadConfig(path string) (*Config, error) {
	return cfg.Load(path)
}

// SetupTLS builds the crypto/tls configuration described by the server
// TLS section, generating a self-signed certificate when configured to.
// It returns (nil, nil) when tc is nil or TLS is disabled.
func SetupTLS(tc *TLSConfig) (*tls.Config, error) {
	return itls.Setup(tc)
}

// NewHandler returns the registry HTTP API as a mountable http.Handler.
func NewHandler(r *Registry, basePath string) http.Handler {
	return iapi.NewRouter(r.inner, basePath).Handler()
}

// NewHTTPServer starts an HTTP server exposing the registry API on addr.
func NewHTTPServer(addr, basePath string, r *Registry) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, r.inner)
}

// NewHistorySink builds a lifecycle event sink from a DSN. Supported
// schemes: sqlite, postgres, clickhouse, opensearch and elasticsearch.
func NewHistorySink(dsn string) (HistorySink, error) {
	return factory.NewSinkFromDSN(dsn)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
func MetricsHandler() http.Handler                  { return metrics.Handler() }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
