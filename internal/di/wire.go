//go:build wireinject
// +build wireinject

package di

import (
	"SalesPulse/pkg/config"
	"SalesPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideLocation,
		ProvideMetrics,

		// Infrastructure
		ProvideCacheStore,
		ProvideHistoryCache,
		ProvideOrderSource,
		ProvideAlertPublisher,

		// Use cases
		ProvideSalesUseCase,
		ProvideForecastUseCase,
		ProvideComparisonUseCase,

		// Transport and jobs
		ProvideSalesHandler,
		ProvideHealthHandler,
		ProvideHTTPServer,
		ProvideScheduler,
		ProvideJobs,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
