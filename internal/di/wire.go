//go:build wireinject
// +build wireinject

package di

import (
	"tradyxa/pkg/config"
	"tradyxa/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideTickStorage,
		ProvideTickPublisher,
		ProvideMarketStream,
		ProvideFeatureStore,
		ProvideSnapshotStore,
		ProvideVerdictAudit,
		ProvideVerdictEvents,

		// Enrichment and caches
		ProvideEnrichCache,
		ProvideRegimeDetector,
		ProvideSlippageForecaster,
		ProvideResponseCache,

		// Analytics services
		ProvideSyntheticGenerator,
		ProvideSlippageEstimator,

		// Use cases
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,
		ProvideSnapshotPipeline,
		ProvideCandlesUseCase,
		ProvideRefreshQueue,

		// HTTP
		ProvideSnapshotsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
