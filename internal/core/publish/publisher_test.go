//go:build unix

package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/stats"
)

const waitFor = 5 * time.Second

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Dir = dir
	cfg.PollInterval = 2 * time.Millisecond
	cfg.MinBackoff = time.Millisecond
	cfg.MaxBackoff = 10 * time.Millisecond
	cfg.WriteTimeout = time.Second
	return cfg
}

// readPipe waits for the pipe to appear, then reads one full snapshot from it.
func readPipe(t *testing.T, path string) string {
	t.Helper()
	require.Eventually(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.Mode()&os.ModeNamedPipe != 0
	}, waitFor, time.Millisecond)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for publisher")
	}
	var zero T
	return zero
}

func ticksAndTocks(t *testing.T) (*stats.Registry, *stats.Counter) {
	t.Helper()
	reg := stats.NewRegistry()
	ticks, err := reg.CreateCounter("my.ticks", stats.KindFloat)
	require.NoError(t, err)
	tocks, err := reg.CreateCounter("my.tocks", stats.KindInteger)
	require.NoError(t, err)

	ticks.Increment()
	for i := 0; i < 10; i++ {
		require.NoError(t, tocks.IncrementBy(stats.Int(2)))
	}
	tocks.Increment()
	return reg, ticks
}

func TestPublisher_ServesOneSnapshotPerCycle(t *testing.T) {
	dir := t.TempDir()
	reg, ticks := ticksAndTocks(t)

	served := make(chan error, 8)
	p := New(reg, testConfig(dir), log.NewNop(), WithPID(4242), WithEvents(func(e Event) {
		if e.Type == EventServed {
			// the loop has not started the next cycle yet
			_, err := os.Lstat(e.Path)
			served <- err
		}
	}))
	require.Equal(t, filepath.Join(dir, "4242.stats"), p.Path())
	require.NoError(t, p.Start(context.Background()))

	require.Equal(t, "my.ticks: 1.000000\nmy.tocks: 21\n", readPipe(t, p.Path()))
	require.ErrorIs(t, recv(t, served), os.ErrNotExist)

	ticks.Increment()
	require.Equal(t, "my.ticks: 2.000000\nmy.tocks: 21\n", readPipe(t, p.Path()))
	require.ErrorIs(t, recv(t, served), os.ErrNotExist)

	require.NoError(t, p.Stop())
}

func TestPublisher_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	reg, _ := ticksAndTocks(t)

	var events []EventType
	p := New(reg, testConfig(dir), log.NewNop(), WithEvents(func(e Event) {
		events = append(events, e.Type)
	}))

	err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrDirUnavailable)
	require.True(t, IsFatal(err))
	require.Equal(t, []EventType{EventStopped}, events)

	_, statErr := os.Stat(dir)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestPublisher_DirectoryIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	p := New(stats.NewRegistry(), testConfig(file), log.NewNop())
	require.ErrorIs(t, p.Run(context.Background()), ErrDirUnavailable)
}

func TestPublisher_PermissionDeniedIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	p := New(stats.NewRegistry(), testConfig(dir), log.NewNop())
	err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrPermission)
	require.Equal(t, ClassFatal, Classify(err))
}

func TestPublisher_StopWhileWaitingForReader(t *testing.T) {
	dir := t.TempDir()
	created := make(chan struct{}, 1)
	p := New(stats.NewRegistry(), testConfig(dir), log.NewNop(), WithEvents(func(e Event) {
		if e.Type == EventCreated {
			select {
			case created <- struct{}{}:
			default:
			}
		}
	}))

	require.NoError(t, p.Start(context.Background()))
	recv(t, created)

	info, err := os.Stat(p.Path())
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeNamedPipe)

	require.NoError(t, p.Stop())
	_, err = os.Stat(p.Path())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPublisher_OpenTimeoutIsTransient(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.OpenTimeout = 10 * time.Millisecond

	failed := make(chan error, 16)
	reg, _ := ticksAndTocks(t)
	p := New(reg, cfg, log.NewNop(), WithEvents(func(e Event) {
		if e.Type == EventFailed {
			select {
			case failed <- e.Err:
			default:
			}
		}
	}))
	require.NoError(t, p.Start(context.Background()))

	require.ErrorIs(t, recv(t, failed), ErrOpenTimeout)
	require.ErrorIs(t, recv(t, failed), ErrOpenTimeout)

	require.NoError(t, p.Stop())
	require.NoError(t, p.Err())
}

func TestPublisher_ReplacesStaleFile(t *testing.T) {
	dir := t.TempDir()
	reg, _ := ticksAndTocks(t)
	p := New(reg, testConfig(dir), log.NewNop(), WithPID(7))

	require.NoError(t, os.WriteFile(p.Path(), []byte("stale"), 0o644))
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop() }()

	require.Equal(t, "my.ticks: 1.000000\nmy.tocks: 21\n", readPipe(t, p.Path()))
}

func TestPublisher_LargeSnapshotIsNotTruncated(t *testing.T) {
	dir := t.TempDir()
	reg := stats.NewRegistry(stats.WithCapacity(0))
	for i := 0; i < 2000; i++ {
		c, err := reg.CreateCounter(fmt.Sprintf("service.endpoint.%04d.requests_total", i), stats.KindInteger)
		require.NoError(t, err)
		require.NoError(t, c.SetInt(int64(i)))
	}
	want := reg.Snapshot().String()
	require.Greater(t, len(want), 64*1024)

	served := make(chan int, 1)
	p := New(reg, testConfig(dir), log.NewNop(), WithEvents(func(e Event) {
		if e.Type == EventServed {
			select {
			case served <- e.Bytes:
			default:
			}
		}
	}))
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop() }()

	got := readPipe(t, p.Path())
	require.Equal(t, want, got)
	require.Equal(t, len(want), recv(t, served))
	require.Equal(t, 2000, strings.Count(got, "\n"))
}

func TestPublisher_StartStop(t *testing.T) {
	p := New(stats.NewRegistry(), testConfig(t.TempDir()), log.NewNop())

	require.ErrorIs(t, p.Stop(), ErrNotRunning)
	require.NoError(t, p.Start(context.Background()))
	require.ErrorIs(t, p.Start(context.Background()), ErrAlreadyRunning)
	require.NoError(t, p.Stop())
	require.ErrorIs(t, p.Stop(), ErrNotRunning)

	// restartable
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Stop())
}

func TestPublisher_FatalErrorSurfacesThroughStop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	p := New(stats.NewRegistry(), testConfig(dir), log.NewNop())

	require.NoError(t, p.Start(context.Background()))
	select {
	case <-p.Done():
	case <-time.After(waitFor):
		t.Fatal("loop did not terminate")
	}
	require.ErrorIs(t, p.Err(), ErrDirUnavailable)
	require.ErrorIs(t, p.Stop(), ErrDirUnavailable)
}
