//go:build wireinject
// +build wireinject

package di

import (
	"FareCast/internal/domain/repository"
	"FareCast/pkg/config"
	"FareCast/pkg/metrics"
	"FareCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Metrics
		ProvideRegistry,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideKVStore,
		ProvideQueryCache,
		ProvideClickHouseClient,
		ProvideKafkaConsumer,

		// Repositories and external services
		ProvidePredictionClient,
		ProvideEventPublisher,
		ProvideArchiveStore,

		// Use cases
		ProvideOrchestrator,
		ProvideHistoryStore,
		ProvideFareService,
		ProvideArchiveHandler,

		// HTTP
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
