//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/statpipe/internal/config"
	"github.com/zeusync/statpipe/internal/core/observability/log"
	"github.com/zeusync/statpipe/internal/core/publish"
)

func InitializeComponents(cfg config.Config, opts []publish.Option) (*Components, error) {
	wire.Build(
		ProvideLogger,
		wire.Bind(new(log.Log), new(*log.Logger)),
		ProvideRegistry,
		ProvidePublisher,
		wire.Struct(new(Components), "*"),
	)
	return nil, nil
}

func InitializeComponentsWithLogger(cfg config.Config, logger log.Log, opts []publish.Option) (*Components, error) {
	wire.Build(
		ProvideRegistry,
		ProvidePublisher,
		wire.Struct(new(Components), "*"),
	)
	return nil, nil
}
