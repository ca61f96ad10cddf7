package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/publish"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	require.Equal(t, publish.DefaultConfig(), c.PublishConfig())
	require.Equal(t, log.LevelInfo, c.LogLevel())
	require.Equal(t, ".stats", c.ReaderOptions().Suffix)
}

func TestLoad(t *testing.T) {
	in := `
log:
  level: debug
  encoding: console
publish:
  dir: /var/run/stats
  mode: 0600
  poll_interval: 10ms
  open_timeout: 2s
  max_backoff: 1m
registry:
  capacity: 128
reader:
  timeout: 250ms
  concurrency: 2
  remove_dead: true
`
	c, err := Load(strings.NewReader(in))
	require.NoError(t, err)

	require.Equal(t, log.LevelDebug, c.LogLevel())
	require.Equal(t, "console", c.Log.Encoding)

	p := c.PublishConfig()
	require.Equal(t, "/var/run/stats", p.Dir)
	require.Equal(t, ".stats", p.Suffix)
	require.Equal(t, os.FileMode(0o600), p.Mode)
	require.Equal(t, 10*time.Millisecond, p.PollInterval)
	require.Equal(t, 2*time.Second, p.OpenTimeout)
	require.Equal(t, time.Minute, p.MaxBackoff)
	require.Equal(t, publish.DefaultConfig().MinBackoff, p.MinBackoff)

	require.Equal(t, 128, c.Registry.Capacity)
	require.Len(t, c.RegistryOptions(), 1)

	r := c.ReaderOptions()
	require.Equal(t, 250*time.Millisecond, r.Timeout)
	require.Equal(t, 2, r.Concurrency)
	require.True(t, r.RemoveDead)
}

func TestLoad_Empty(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, Default(), c)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field":  "publish:\n  directory: /tmp\n",
		"bad duration":   "publish:\n  poll_interval: soon\n",
		"bad mode":       "publish:\n  mode: rw-r--r--\n",
		"bad level":      "log:\n  level: chatty\n",
		"bad encoding":   "log:\n  encoding: xml\n",
		"empty dir":      "publish:\n  dir: \"\"\n",
		"neg timeout":    "reader:\n  timeout: -1s\n",
		"zero timeout":   "reader:\n  timeout: 0s\n",
		"zero poll":      "publish:\n  poll_interval: 0s\n",
		"not a document": "[1, 2",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(in))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	require.Equal(t, Default(), c)

	path := filepath.Join(t.TempDir(), "statpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registry:\n  capacity: 8\n"), 0o600))
	c, err = LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 8, c.Registry.Capacity)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(Default())
	require.NoError(t, err)
	require.Contains(t, string(out), "0644")
	require.Contains(t, string(out), "poll_interval: 25ms")

	back, err := Load(strings.NewReader(string(out)))
	require.NoError(t, err)
	require.Equal(t, Default(), back)
}
