//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/api"
	loader "github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/logger"
	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/reporting"
	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/storage"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"
	"github.com/bionicotaku/lingo-media-dashboard/internal/server"
	"github.com/bionicotaku/lingo-media-dashboard/internal/services"
	"github.com/bionicotaku/lingo-media-dashboard/internal/tasks/polling"

	"github.com/google/wire"
)

// wireApp init dashboard application.
func wireApp(*loader.Bundle) (*app, func(), error) {
	panic(wire.Build(
		loader.ProviderSet,
		logger.ProviderSet,
		server.ProviderSet,
		api.ProviderSet,
		storage.ProviderSet,
		reporting.ProviderSet,
		repositories.ProviderSet,
		polling.ProviderSet,
		services.ProviderSet,
		wire.Bind(new(services.ProgressTracker), new(*repositories.ProgressChannel)),
		wire.Bind(new(services.UploadTransport), new(*storage.Transport)),
		wire.Bind(new(services.PollStarter), new(*polling.Pollers)),
		newApp,
	))
}
