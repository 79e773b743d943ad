//go:build wireinject
// +build wireinject

package di

import (
	"ShotTrace/pkg/config"
	"ShotTrace/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application and
// a cleanup that releases clients in reverse order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideCache,

		// Repositories
		ProvideRoundStorage,
		ProvideRoundPublisher,
		ProvideRoundCache,

		// Domain services
		ProvideCourse,
		ProvideExpectedStrokesModel,
		ProvideStabilityFetcher,

		// Use cases
		ProvideRoundAnalyzer,
		ProvideRoundProcessor,
		ProvideRoundQuery,
		ProvideRoundCollector,

		// Transport
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,
		ProvideKafkaRoundHandler,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
