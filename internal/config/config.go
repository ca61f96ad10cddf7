// Package config loads the statpipe YAML configuration shared by the
// exporter and the statcat reader.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/publish"
	"github.com/zeusync/statpipe/internal/core/reader"
	"github.com/zeusync/statpipe/internal/core/stats"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the on-disk configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Publish  PublishConfig  `yaml:"publish"`
	Registry RegistryConfig `yaml:"registry"`
	Reader   ReaderConfig   `yaml:"reader"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type PublishConfig struct {
	Dir          string   `yaml:"dir"`
	Suffix       string   `yaml:"suffix"`
	Mode         FileMode `yaml:"mode"`
	PollInterval Duration `yaml:"poll_interval"`
	OpenTimeout  Duration `yaml:"open_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	MinBackoff   Duration `yaml:"min_backoff"`
	MaxBackoff   Duration `yaml:"max_backoff"`
}

type RegistryConfig struct {
	Capacity int `yaml:"capacity"`
}

type ReaderConfig struct {
	Timeout     Duration `yaml:"timeout"`
	Concurrency int      `yaml:"concurrency"`
	RemoveDead  bool     `yaml:"remove_dead"`
}

// Duration decodes "250ms"-style strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// FileMode decodes octal permission bits written as 0644 or "0644".
type FileMode os.FileMode

func (m *FileMode) UnmarshalYAML(node *yaml.Node) error {
	var v uint32
	if _, err := fmt.Sscanf(node.Value, "%o", &v); err != nil {
		return fmt.Errorf("line %d: bad file mode %q", node.Line, node.Value)
	}
	*m = FileMode(v)
	return nil
}

func (m FileMode) MarshalYAML() (any, error) {
	return fmt.Sprintf("%04o", uint32(m)), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	p := publish.DefaultConfig()
	r := reader.DefaultOptions()
	return Config{
		Log: LogConfig{Level: "info", Encoding: "json"},
		Publish: PublishConfig{
			Dir:          p.Dir,
			Suffix:       p.Suffix,
			Mode:         FileMode(p.Mode),
			PollInterval: Duration(p.PollInterval),
			OpenTimeout:  Duration(p.OpenTimeout),
			WriteTimeout: Duration(p.WriteTimeout),
			MinBackoff:   Duration(p.MinBackoff),
			MaxBackoff:   Duration(p.MaxBackoff),
		},
		Registry: RegistryConfig{Capacity: stats.DefaultCapacity},
		Reader: ReaderConfig{
			Timeout:     Duration(r.Timeout),
			Concurrency: r.Concurrency,
		},
	}
}

// Load decodes YAML from r on top of Default and validates the result.
func Load(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile is Load for a path. An empty path yields Default.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Load(f)
}

func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		return fmt.Errorf("%w: log encoding %q", ErrInvalidConfig, c.Log.Encoding)
	}
	if err := c.PublishConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Reader.Timeout <= 0 {
		return fmt.Errorf("%w: reader timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// LogLevel returns the parsed log level; Validate has already vetted it.
func (c Config) LogLevel() log.Level {
	l, _ := log.ParseLevel(c.Log.Level)
	return l
}

func (c Config) PublishConfig() publish.Config {
	return publish.Config{
		Dir:          c.Publish.Dir,
		Suffix:       c.Publish.Suffix,
		Mode:         os.FileMode(c.Publish.Mode),
		PollInterval: time.Duration(c.Publish.PollInterval),
		OpenTimeout:  time.Duration(c.Publish.OpenTimeout),
		WriteTimeout: time.Duration(c.Publish.WriteTimeout),
		MinBackoff:   time.Duration(c.Publish.MinBackoff),
		MaxBackoff:   time.Duration(c.Publish.MaxBackoff),
	}
}

func (c Config) RegistryOptions() []stats.Option {
	return []stats.Option{stats.WithCapacity(c.Registry.Capacity)}
}

func (c Config) ReaderOptions() reader.Options {
	opts := reader.DefaultOptions()
	opts.Suffix = c.Publish.Suffix
	opts.Timeout = time.Duration(c.Reader.Timeout)
	opts.Concurrency = c.Reader.Concurrency
	opts.RemoveDead = c.Reader.RemoveDead
	return opts
}
