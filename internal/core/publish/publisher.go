package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/stats"
	"github.com/zeusync/statpipe/pkg/generic"
)

// Snapshotter is the read side of a stats registry.
type Snapshotter interface {
	Snapshot() stats.Snapshot
}

var _ Snapshotter = (*stats.Registry)(nil)

// Publisher serves registry snapshots over a named pipe, one reader per cycle:
// create the pipe, wait for a reader, write the snapshot, remove the pipe.
type Publisher struct {
	source Snapshotter
	config Config
	path   string
	logger log.Log
	events EventHandler

	buffers *generic.Pool[*bytes.Buffer]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

type publisherOptions struct {
	pid    int
	events EventHandler
}

// Option configures a Publisher constructed by New.
type Option func(*publisherOptions)

// WithPID overrides the process id used in the pipe name.
func WithPID(pid int) Option {
	return func(o *publisherOptions) { o.pid = pid }
}

// WithEvents installs a handler for loop events.
func WithEvents(h EventHandler) Option {
	return func(o *publisherOptions) { o.events = h }
}

func New(source Snapshotter, config Config, logger log.Log, opts ...Option) *Publisher {
	o := publisherOptions{pid: os.Getpid()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if logger == nil {
		logger = log.Provide()
	}

	path := config.PipePath(o.pid)
	return &Publisher{
		source: source,
		config: config,
		path:   path,
		logger: logger.With(log.String("component", "publisher"), log.String("path", path)),
		events: o.events,
		buffers: generic.NewResetPool(
			func() *bytes.Buffer { return new(bytes.Buffer) },
			func(b *bytes.Buffer) *bytes.Buffer { b.Reset(); return b },
		),
	}
}

// Path returns the pipe path readers should open.
func (p *Publisher) Path() string { return p.path }

// Run publishes until ctx is cancelled or a fatal error occurs. It returns nil
// on cancellation and the fatal error otherwise; transient errors are logged
// and retried with exponential backoff.
func (p *Publisher) Run(ctx context.Context) error {
	defer p.emit(Event{Type: EventStopped, Path: p.path})

	if err := p.config.Validate(); err != nil {
		p.logger.Error("stats publishing disabled", log.Error(err))
		return err
	}
	if err := p.checkDir(); err != nil {
		p.logger.Error("stats publishing disabled", log.Error(err))
		return err
	}

	p.logger.Info("stats publisher started")
	defer p.logger.Info("stats publisher stopped")

	var backoff time.Duration
	for {
		if ctx.Err() != nil {
			return nil
		}

		cycle := uuid.New()
		n, err := p.cycle(ctx, cycle)
		switch {
		case err == nil:
			backoff = 0
			p.logger.Debug("snapshot served", log.Stringer("cycle", cycle), log.Int("bytes", n))
			p.emit(Event{Type: EventServed, Cycle: cycle, Path: p.path, Bytes: n})
			continue
		case ctx.Err() != nil && isCancel(err):
			return nil
		}

		p.emit(Event{Type: EventFailed, Cycle: cycle, Path: p.path, Err: err})
		if IsFatal(err) {
			p.logger.Error("stats publishing disabled", log.Stringer("cycle", cycle), log.Error(err))
			return err
		}

		backoff = p.nextBackoff(backoff)
		p.logger.Warn("stats publish cycle failed",
			log.Stringer("cycle", cycle),
			log.Duration("backoff", backoff),
			log.Error(err),
		)
		if !sleep(ctx, backoff) {
			return nil
		}
	}
}

// Start runs the loop in a background goroutine.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.err = nil

	go func() {
		defer close(done)
		err := p.Run(ctx)
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
	}()
	return nil
}

// Stop cancels a loop started with Start, waits for it and returns its terminal error.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-done
	return p.Err()
}

// Done is closed when a loop started with Start returns.
func (p *Publisher) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Err returns the error a background loop ended with, if any.
func (p *Publisher) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Publisher) checkDir() error {
	info, err := os.Stat(p.config.Dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDirUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirUnavailable, p.config.Dir)
	}
	return nil
}

// cycle serves one reader and returns the number of bytes written.
func (p *Publisher) cycle(ctx context.Context, id uuid.UUID) (int, error) {
	if err := makeFifo(p.path, p.config.Mode); err != nil {
		return 0, err
	}
	defer p.remove(id)
	p.emit(Event{Type: EventCreated, Cycle: id, Path: p.path})

	f, err := p.rendezvous(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			p.logger.Warn("close pipe", log.Stringer("cycle", id), log.Error(cerr))
		}
	}()

	if p.config.WriteTimeout > 0 {
		_ = f.SetWriteDeadline(time.Now().Add(p.config.WriteTimeout))
	}
	stop := context.AfterFunc(ctx, func() { _ = f.SetWriteDeadline(time.Now()) })
	defer stop()

	buf := p.buffers.Get()
	defer p.buffers.Put(buf)
	buf.Write(p.source.Snapshot().AppendText(buf.AvailableBuffer()))

	n, err := f.Write(buf.Bytes())
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, fmt.Errorf("write snapshot: %w", err)
	}
	return n, nil
}

// rendezvous waits for a reader to open the pipe.
func (p *Publisher) rendezvous(ctx context.Context) (*os.File, error) {
	var timeout <-chan time.Time
	if p.config.OpenTimeout > 0 {
		t := time.NewTimer(p.config.OpenTimeout)
		defer t.Stop()
		timeout = t.C
	}
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		f, ok, err := tryOpenWriter(p.path)
		if err != nil {
			return nil, err
		}
		if ok {
			return f, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("%w (%v)", ErrOpenTimeout, p.config.OpenTimeout)
		case <-ticker.C:
		}
	}
}

func (p *Publisher) remove(id uuid.UUID) {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("remove pipe", log.Stringer("cycle", id), log.Error(err))
	}
}

func (p *Publisher) nextBackoff(prev time.Duration) time.Duration {
	next := prev * 2
	if next < p.config.MinBackoff {
		next = p.config.MinBackoff
	}
	if next > p.config.MaxBackoff {
		next = p.config.MaxBackoff
	}
	return next
}

func (p *Publisher) emit(e Event) {
	if p.events == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	p.events(e)
}

// sleep waits for d or ctx, reporting false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
