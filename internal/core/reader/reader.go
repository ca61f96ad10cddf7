// Package reader is the consumer side of the stats pipes: it reads one
// process's snapshot, or every snapshot published under a directory.
package reader

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/stats"
	"github.com/zeusync/statpipe/pkg/concurrent"
	"github.com/zeusync/statpipe/pkg/sequence"
)

var (
	// ErrNoWriter means no publisher served the pipe before the timeout.
	ErrNoWriter = errors.New("no writer on pipe")
	// ErrNotPipe means the path exists but is not a named pipe.
	ErrNotPipe = errors.New("not a named pipe")
)

// Options tune reads.
type Options struct {
	Suffix string
	// Timeout bounds the wait for a publisher and the read itself. Values
	// <= 0 select the default.
	Timeout      time.Duration
	PollInterval time.Duration
	// Concurrency bounds parallel reads in Scan; <= 0 is unbounded.
	Concurrency int
	// RemoveDead unlinks pipes whose owning process no longer exists.
	RemoveDead bool
}

func DefaultOptions() Options {
	return Options{
		Suffix:       ".stats",
		Timeout:      100 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Concurrency:  8,
	}
}

// Result is the outcome of reading one pipe during Scan.
type Result struct {
	PID      int
	Path     string
	Snapshot stats.Snapshot
	Err      error
	Removed  bool
}

type Reader struct {
	opts   Options
	logger log.Log
}

func New(opts Options, logger log.Log) *Reader {
	if opts.Suffix == "" {
		opts.Suffix = DefaultOptions().Suffix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	if logger == nil {
		logger = log.Provide()
	}
	return &Reader{opts: opts, logger: logger.With(log.String("component", "reader"))}
}

// PathFor returns the pipe path a process publishes to inside dir.
func (r *Reader) PathFor(dir string, pid int) string {
	return filepath.Join(dir, strconv.Itoa(pid)+r.opts.Suffix)
}

// Read waits for the publisher behind path and parses one snapshot. The path
// may briefly be missing or stale while the publisher is between cycles; Read
// keeps polling until Options.Timeout.
func (r *Reader) Read(ctx context.Context, path string) (stats.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	if info, err := os.Stat(path); err == nil && info.Mode()&fs.ModeNamedPipe == 0 {
		return stats.Snapshot{}, fmt.Errorf("%s: %w", path, ErrNotPipe)
	}

	data, err := r.readPipe(ctx, path)
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return stats.ParseSnapshot(bytes.NewReader(data))
}

// pipeFile is an open read end plus the hook that unblocks it on cancellation.
type pipeFile struct {
	*os.File
	stop func() bool
}

func (p *pipeFile) close() {
	p.stop()
	_ = p.Close()
}

func (r *Reader) open(ctx context.Context, path string) (*pipeFile, error) {
	f, err := openReader(path)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = f.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = f.SetReadDeadline(time.Now()) })
	return &pipeFile{File: f, stop: stop}, nil
}

// readPipe polls until the first bytes arrive, then reads to EOF. A
// non-blocking FIFO reports EOF while no writer has it open, so EOF before any
// data means "not yet". A pipe unlinked or replaced under us is reopened.
func (r *Reader) readPipe(ctx context.Context, path string) ([]byte, error) {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	var f *pipeFile
	defer func() {
		if f != nil {
			f.close()
		}
	}()

	buf := make([]byte, 4096)
	for {
		if f == nil {
			var err error
			f, err = r.open(ctx, path)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}

		if f != nil {
			n, err := f.Read(buf)
			if n > 0 {
				rest, err := io.ReadAll(f)
				if err != nil {
					return nil, r.ctxErr(ctx, err)
				}
				return append(buf[:n], rest...), nil
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, r.ctxErr(ctx, err)
			}
			if replaced(f.File, path) {
				f.close()
				f = nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, r.ctxErr(ctx, ctx.Err())
		case <-ticker.C:
		}
	}
}

func replaced(f *os.File, path string) bool {
	open, err := f.Stat()
	if err != nil {
		return true
	}
	current, err := os.Stat(path)
	if err != nil {
		return true
	}
	return !os.SameFile(open, current)
}

func (r *Reader) ctxErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return ErrNoWriter
	default:
		return err
	}
}

// Scan reads every pipe in dir concurrently. Per-pipe failures are reported in
// the results; only a failure to list dir is returned as an error. Results are
// ordered by PID.
func (r *Reader) Scan(ctx context.Context, dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	pipes := sequence.Map(sequence.From(entries), func(e fs.DirEntry) Result { return r.candidate(dir, e) }).
		Filter(func(res Result) bool { return res.PID > 0 }).
		Sort(func(a, b Result) int { return cmp.Compare(a.PID, b.PID) }).
		Collect()

	return concurrent.ParallelMap(ctx, pipes, r.opts.Concurrency, func(ctx context.Context, res Result) (Result, error) {
		res.Snapshot, res.Err = r.Read(ctx, res.Path)
		if res.Err != nil {
			res.Removed = r.reap(res)
		}
		return res, nil
	})
}

// candidate maps a directory entry to a pending Result, leaving PID zero for
// anything that is not one of our pipes.
func (r *Reader) candidate(dir string, e fs.DirEntry) Result {
	name := e.Name()
	if e.Type()&fs.ModeNamedPipe == 0 || !strings.HasSuffix(name, r.opts.Suffix) {
		return Result{}
	}
	pid, err := strconv.Atoi(strings.TrimSuffix(name, r.opts.Suffix))
	if err != nil || pid <= 0 {
		return Result{}
	}
	return Result{PID: pid, Path: filepath.Join(dir, name)}
}

// reap removes the pipe of a process that no longer exists.
func (r *Reader) reap(res Result) bool {
	if !r.opts.RemoveDead || processAlive(res.PID) {
		return false
	}
	if err := os.Remove(res.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("remove dead pipe", log.String("path", res.Path), log.Error(err))
		return false
	}
	r.logger.Info("removed dead pipe", log.String("path", res.Path), log.Int("pid", res.PID))
	return true
}

// Sum adds up the snapshots of every successful result.
func Sum(results []Result) stats.Snapshot {
	ok := sequence.From(results).Filter(func(res Result) bool { return res.Err == nil })
	return sequence.Fold(ok, stats.Snapshot{}, func(total stats.Snapshot, res Result) stats.Snapshot {
		return total.Sum(res.Snapshot)
	})
}
