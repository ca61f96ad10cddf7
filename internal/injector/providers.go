package injector

import (
	"github.com/zeusync/statpipe/internal/config"
	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/publish"
	"github.com/zeusync/statpipe/internal/core/stats"
)

// Components is everything an exporting process needs.
type Components struct {
	Logger    log.Log
	Registry  *stats.Registry
	Publisher *publish.Publisher
}

func ProvideLogger(cfg config.Config) (*log.Logger, error) {
	return log.New(cfg.LogLevel(), log.WithEncoding(cfg.Log.Encoding))
}

func ProvideRegistry(cfg config.Config, logger log.Log) *stats.Registry {
	opts := append(cfg.RegistryOptions(), stats.WithLogger(logger))
	return stats.NewRegistry(opts...)
}

func ProvidePublisher(cfg config.Config, reg *stats.Registry, logger log.Log, opts []publish.Option) *publish.Publisher {
	return publish.New(reg, cfg.PublishConfig(), logger, opts...)
}
