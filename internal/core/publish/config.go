package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config controls where and how snapshots are published.
type Config struct {
	// Dir must already exist; the publisher never creates it.
	Dir    string
	Suffix string
	Mode   os.FileMode

	// PollInterval is how often the rendezvous retries opening the pipe
	// while no reader is present.
	PollInterval time.Duration
	// OpenTimeout abandons a cycle when no reader shows up in time. Zero waits forever.
	OpenTimeout time.Duration
	// WriteTimeout bounds writing a snapshot to a reader that stopped reading. Zero disables it.
	WriteTimeout time.Duration

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultConfig returns default publisher configuration
func DefaultConfig() Config {
	return Config{
		Dir:          "/tmp/stats-pipe",
		Suffix:       ".stats",
		Mode:         0o644,
		PollInterval: 25 * time.Millisecond,
		OpenTimeout:  0,
		WriteTimeout: 10 * time.Second,
		MinBackoff:   100 * time.Millisecond,
		MaxBackoff:   5 * time.Second,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Dir == "":
		return fmt.Errorf("%w: empty pipe directory", ErrInvalidConfig)
	case c.Suffix == "" || filepath.Base(c.Suffix) != c.Suffix:
		return fmt.Errorf("%w: bad pipe suffix %q", ErrInvalidConfig, c.Suffix)
	case c.Mode&^os.ModePerm != 0 || c.Mode == 0:
		return fmt.Errorf("%w: bad pipe mode %v", ErrInvalidConfig, c.Mode)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	case c.OpenTimeout < 0 || c.WriteTimeout < 0:
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	case c.MinBackoff < 0 || c.MaxBackoff < c.MinBackoff:
		return fmt.Errorf("%w: backoff range [%v, %v]", ErrInvalidConfig, c.MinBackoff, c.MaxBackoff)
	}
	return nil
}

// PipePath returns <Dir>/<pid><Suffix>.
func (c Config) PipePath(pid int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%d%s", pid, c.Suffix))
}
