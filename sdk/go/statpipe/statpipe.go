// Package statpipe is the embedding API: create counters in business code and
// let a background loop hand snapshots to whoever opens the process's pipe.
//
//	exp, err := statpipe.Init(ctx)
//	if err != nil { ... }
//	defer exp.Close()
//
//	ticks, _ := exp.CreateCounter("my.ticks", statpipe.KindFloat)
//	statpipe.Increment(ticks)
package statpipe

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/statpipe/internal/config"
	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/publish"
	"github.com/zeusync/statpipe/internal/core/stats"
	"github.com/zeusync/statpipe/internal/core/stats/promexport"
	"github.com/zeusync/statpipe/internal/injector"
)

type (
	Kind         = stats.Kind
	Value        = stats.Value
	Counter      = stats.Counter
	Distribution = stats.Distribution
	Snapshot     = stats.Snapshot
	Event        = publish.Event
	EventHandler = publish.EventHandler
)

const (
	KindInteger = stats.KindInteger
	KindFloat   = stats.KindFloat
)

var (
	Int   = stats.Int
	Float = stats.Float
)

var (
	ErrCapacityExceeded = stats.ErrCapacityExceeded
	ErrKindMismatch     = stats.ErrKindMismatch
)

type options struct {
	config     config.Config
	configPath string
	dir        string
	logger     log.Log
	publish    []publish.Option
}

type Option func(*options)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithConfigFile loads the configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithDir overrides the directory pipes are created in.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

func WithLogger(l log.Log) Option {
	return func(o *options) { o.logger = l }
}

func WithEvents(h EventHandler) Option {
	return func(o *options) { o.publish = append(o.publish, publish.WithEvents(h)) }
}

func WithPID(pid int) Option {
	return func(o *options) { o.publish = append(o.publish, publish.WithPID(pid)) }
}

// Exporter owns a registry and the loop publishing it.
type Exporter struct {
	registry  *stats.Registry
	publisher *publish.Publisher
	logger    log.Log

	group  *errgroup.Group
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// Init builds the registry and starts publishing it in the background. Errors
// returned here are configuration errors; failures of the pipe directory only
// disable publishing and are reported by Close.
func Init(ctx context.Context, opts ...Option) (*Exporter, error) {
	o := options{config: config.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.configPath != "" {
		cfg, err := config.LoadFile(o.configPath)
		if err != nil {
			return nil, err
		}
		o.config = cfg
	}
	if o.dir != "" {
		o.config.Publish.Dir = o.dir
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	var (
		c   *injector.Components
		err error
	)
	if o.logger != nil {
		c, err = injector.InitializeComponentsWithLogger(o.config, o.logger, o.publish)
	} else {
		c, err = injector.InitializeComponents(o.config, o.publish)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.Publisher.Run(ctx) })

	return &Exporter{
		registry:  c.Registry,
		publisher: c.Publisher,
		logger:    c.Logger,
		group:     group,
		cancel:    cancel,
	}, nil
}

func (e *Exporter) CreateCounter(name string, kind Kind) (*Counter, error) {
	return e.registry.CreateCounter(name, kind)
}

// CreateDistribution registers a sample recorder; window <= 0 selects the default.
func (e *Exporter) CreateDistribution(name string, window int) (*Distribution, error) {
	return e.registry.CreateDistribution(name, window)
}

func (e *Exporter) Registry() *stats.Registry { return e.registry }

// Path is the pipe readers should open for this process.
func (e *Exporter) Path() string { return e.publisher.Path() }

// Snapshot reads every registered counter without going through the pipe.
func (e *Exporter) Snapshot() Snapshot { return e.registry.Snapshot() }

// PrometheusCollector exposes the same counters to a Prometheus registry.
// Registering it does not start any listener.
func (e *Exporter) PrometheusCollector(namespace string) prometheus.Collector {
	return promexport.NewCollector(e.registry, namespace)
}

// Close stops publishing and removes the pipe. It returns the error that
// disabled publishing early, if one did. Counters stay usable after Close.
func (e *Exporter) Close() error {
	e.closeOnce.Do(func() {
		e.cancel()
		e.closeErr = e.group.Wait()
	})
	return e.closeErr
}

func Increment(c *Counter) { c.Increment() }

func IncrementBy(c *Counter, v Value) error { return c.IncrementBy(v) }

func Set(c *Counter, v Value) error { return c.Set(v) }
