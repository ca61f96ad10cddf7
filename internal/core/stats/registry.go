package stats

import (
	"fmt"
	"sync"

	"github.com/zeusync/statpipe/internal/core/observability/log"
)

// DefaultCapacity is the number of registry slots when WithCapacity is not given.
const DefaultCapacity = 64

// source is anything the registry can render into snapshot entries.
type source interface {
	appendEntries(dst []Entry) []Entry
}

// Registry is the ordered, append-only collection of counters and distributions.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sources  []source
	capacity int
	logger   log.Log
}

type registryConfig struct {
	capacity int
	logger   log.Log
}

// Option configures a Registry constructed by NewRegistry.
type Option func(*registryConfig)

// WithCapacity bounds the number of registrations. n <= 0 removes the bound.
func WithCapacity(n int) Option {
	return func(cfg *registryConfig) { cfg.capacity = n }
}

func WithLogger(l log.Log) Option {
	return func(cfg *registryConfig) { cfg.logger = l }
}

func NewRegistry(opts ...Option) *Registry {
	cfg := registryConfig{capacity: DefaultCapacity}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = log.Provide()
	}

	r := &Registry{
		capacity: cfg.capacity,
		logger:   cfg.logger,
	}
	if cfg.capacity > 0 {
		r.sources = make([]source, 0, cfg.capacity)
	}
	return r
}

// CreateCounter registers a zero-valued counter and returns its handle.
func (r *Registry) CreateCounter(name string, kind Kind) (*Counter, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("create counter %q: %w", name, ErrInvalidKind)
	}
	c := newCounter(name, kind)
	if err := r.register(c, c.name); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateDistribution registers a sample window that renders as percentile entries.
func (r *Registry) CreateDistribution(name string, window int) (*Distribution, error) {
	d := newDistribution(name, window)
	if err := r.register(d, d.name); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Registry) register(s source, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capacity > 0 && len(r.sources) >= r.capacity {
		r.logger.Warn("stat registry full",
			log.String("name", name),
			log.Int("capacity", r.capacity),
		)
		return fmt.Errorf("register %q: %w (capacity %d)", name, ErrCapacityExceeded, r.capacity)
	}
	r.sources = append(r.sources, s)
	return nil
}

// Lookup returns the first counter registered under name.
func (r *Registry) Lookup(name string) (*Counter, bool) {
	name = truncateName(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		if c, ok := s.(*Counter); ok && c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Cap returns the configured capacity; 0 means unbounded.
func (r *Registry) Cap() int {
	if r.capacity <= 0 {
		return 0
	}
	return r.capacity
}

// Snapshot copies every entry in registration order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	sources := r.sources[:len(r.sources):len(r.sources)]
	r.mu.RUnlock()

	entries := make([]Entry, 0, len(sources))
	for _, s := range sources {
		entries = s.appendEntries(entries)
	}
	return Snapshot{Entries: entries}
}
