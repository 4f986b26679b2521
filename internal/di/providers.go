package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"SalesPulse/internal/domain/repository"
	"SalesPulse/internal/handler/api"
	internalrepo "SalesPulse/internal/repository"
	"SalesPulse/internal/scheduler"
	hcache "SalesPulse/internal/service/cache"
	"SalesPulse/internal/service/neto"
	"SalesPulse/internal/service/ratelimit"
	"SalesPulse/internal/usecase"
	pkgcache "SalesPulse/pkg/cache"
	"SalesPulse/pkg/config"
	xhttp "SalesPulse/pkg/http"
	pkgkafka "SalesPulse/pkg/kafka"
	applogger "SalesPulse/pkg/logger"
	"SalesPulse/pkg/metrics"
	"SalesPulse/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideLocation resolves the reference timezone.
func ProvideLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Location()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideCacheStore returns redis fronted by an in-process layer when redis
// is enabled, otherwise the in-process cache alone.
func ProvideCacheStore(cfg *config.Config, log *applogger.Logger) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		log.Info("cache: in-memory only", applogger.Int("max_size", cfg.Cache.MemorySize))
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemorySize)), nil
	}

	remote, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	log.Info("cache: redis with in-memory layer", applogger.String("addr", cfg.Redis.Addr))
	return pkgcache.NewLayeredCache(remote,
		pkgcache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		pkgcache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
	), nil
}

// ProvideHistoryCache wraps the store with compute-on-miss coalescing.
func ProvideHistoryCache(store pkgcache.Service, log *applogger.Logger, m repository.Metrics) *hcache.HistoryCache {
	return hcache.NewHistoryCache(store, log, m)
}

// ProvideOrderSource creates the Neto order client.
func ProvideOrderSource(cfg *config.Config, log *applogger.Logger, m repository.Metrics) repository.OrderSource {
	return neto.New(neto.Config{
		URL:      cfg.Neto.URL,
		Key:      cfg.Neto.Key,
		Username: cfg.Neto.Username,
		Timeout:  cfg.Neto.Timeout,
		Attempts: cfg.Neto.Attempts,
		Backoff:  cfg.Neto.Backoff,
	}, log, m)
}

// ProvideSalesUseCase creates the day aggregate use case.
func ProvideSalesUseCase(
	source repository.OrderSource,
	hc *hcache.HistoryCache,
	cfg *config.Config,
	loc *time.Location,
	log *applogger.Logger,
	m repository.Metrics,
) *usecase.SalesUseCase {
	return usecase.NewSalesUseCase(source, hc, usecase.SalesConfig{
		Location:   loc,
		Channels:   cfg.Channels,
		SalesTTL:   cfg.Cache.SalesTTL,
		SummaryTTL: cfg.Cache.SummaryTTL,
		RawTTL:     cfg.Cache.RawTTL,
	}, log, m)
}

// ProvideForecastUseCase creates the forecast use case.
func ProvideForecastUseCase(sales *usecase.SalesUseCase, hc *hcache.HistoryCache, cfg *config.Config) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(sales, hc, cfg.Cache.ForecastTTL, cfg.Forecast.Parallelism)
}

// ProvideAlertPublisher publishes red flags to Kafka when configured and
// to the log otherwise.
func ProvideAlertPublisher(cfg *config.Config, log *applogger.Logger) (repository.AlertPublisher, error) {
	k := cfg.Alerts.Kafka
	if !k.Enabled {
		return internalrepo.NewLogAlertPublisher(log.With(applogger.String("component", "alerts"))), nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithClientID(k.ClientID),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithWriteTimeout(k.WriteTimeout),
		pkgkafka.WithBatchTimeout(k.BatchTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	log.Info("alerts: kafka", applogger.Strings("brokers", k.Brokers), applogger.String("topic", k.Topic))
	return internalrepo.NewKafkaAlertPublisher(producer, k.Topic), nil
}

// ProvideComparisonUseCase creates the benchmark comparison use case. The
// cache store doubles as the alert de-dup lock.
func ProvideComparisonUseCase(
	sales *usecase.SalesUseCase,
	pub repository.AlertPublisher,
	store pkgcache.Service,
	cfg *config.Config,
	log *applogger.Logger,
	m repository.Metrics,
) *usecase.ComparisonUseCase {
	return usecase.NewComparisonUseCase(sales, pub, store, cfg.Alerts.DedupTTL, log, m)
}

// ProvideSalesHandler creates the dashboard HTTP handler.
func ProvideSalesHandler(
	cfg *config.Config,
	log *applogger.Logger,
	sales *usecase.SalesUseCase,
	forecast *usecase.ForecastUseCase,
	comparison *usecase.ComparisonUseCase,
	loc *time.Location,
) *api.SalesEchoHandler {
	return api.NewSalesEchoHandler(log, sales, forecast, comparison, loc, ratelimit.New(), api.RateLimit{
		Capacity:     cfg.RateLimit.Capacity,
		RefillPerSec: cfg.RateLimit.RefillPerSec,
	})
}

// ProvideHealthHandler probes the cache store.
func ProvideHealthHandler(store pkgcache.Service) *api.HealthHandler {
	return api.NewHealthHandler(map[string]api.HealthCheck{
		"cache": func(ctx context.Context) error {
			_, err := store.Exists(ctx, "healthz")
			return err
		},
	})
}

// ProvideHTTPServer creates the echo server with all route handlers.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, sales *api.SalesEchoHandler, health *api.HealthHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithMetricsPath(cfg.Server.MetricsPath),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, xhttp.WithCORS(true, cfg.Server.CORSOrigins...))
	}
	return xhttp.NewServer(log, []xhttp.Handler{sales, health}, opts...)
}

// ProvideScheduler returns nil when background jobs are disabled.
func ProvideScheduler(cfg *config.Config, log *applogger.Logger, loc *time.Location) *scheduler.Scheduler {
	if cfg.Scheduler.Disabled {
		return nil
	}
	return scheduler.New(log, loc, cfg.Scheduler.JobTimeout)
}

// ProvideJobs lists the background jobs. The warm-up also runs at startup.
func ProvideJobs(cfg *config.Config, sales *usecase.SalesUseCase, comparison *usecase.ComparisonUseCase) []server.ScheduledJob {
	jobs := []server.ScheduledJob{{
		Schedule: cfg.Scheduler.WarmupSchedule,
		Job:      scheduler.NewWarmupJob(sales, cfg.Scheduler.WarmupDays),
		Warm:     true,
	}}
	if !cfg.Scheduler.RedFlagDisabled {
		jobs = append(jobs, server.ScheduledJob{
			Schedule: cfg.Scheduler.RedFlagSchedule,
			Job:      scheduler.NewRedFlagJob(comparison),
		})
	}
	return jobs
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	jobs []server.ScheduledJob,
	store pkgcache.Service,
	pub repository.AlertPublisher,
) *server.App {
	closers := map[string]io.Closer{
		"cache":  store,
		"alerts": pub,
	}
	return server.New(log, srv, sched, jobs, closers, cfg.Server.ShutdownTimeout)
}
