package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botstack/publisher/config"
	"github.com/botstack/publisher/internal/adapters/devauth"
	"github.com/botstack/publisher/internal/adapters/devdeploy"
	"github.com/botstack/publisher/internal/adapters/execdeploy"
	"github.com/botstack/publisher/internal/adapters/oidc"
	"github.com/botstack/publisher/internal/core"
	"github.com/botstack/publisher/internal/data"
	"github.com/botstack/publisher/internal/observability/statsd"
	"github.com/botstack/publisher/internal/service"
)

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Publish  *service.PublishService
	History  *service.HistoryService
	Staging  *service.StagingService
	Verifier core.TokenVerifier

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// InitServices wires the service container from configuration and connected
// infrastructure. DB and RedisClient may be nil when the selected history
// backend does not need them.
func InitServices(ctx context.Context, deps ServiceDeps) (ServiceContainer, error) {
	if deps.Config == nil {
		return ServiceContainer{}, errors.New("app config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, deps.Config.Observability)

	history, err := buildHistoryService(ctx, deps, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	staging, err := service.NewStagingService(service.StagingServiceOptions{
		Root:               deps.Config.Staging.Root,
		RuntimeTemplateDir: deps.Config.Staging.RuntimeTemplateDir,
		WriteConcurrency:   deps.Config.Staging.WriteConcurrency,
		Logger:             logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init staging service: %w", err)
	}

	orchestrator, err := buildOrchestrator(deps.Config.Deploy)
	if err != nil {
		return ServiceContainer{}, err
	}

	verifier, err := buildVerifier(ctx, deps.Config.Auth)
	if err != nil {
		return ServiceContainer{}, err
	}

	publish, err := service.NewPublishService(service.PublishServiceOptions{
		Table:               core.NewStatusTable(),
		History:             history,
		Staging:             staging,
		Orchestrator:        orchestrator,
		Logger:              logger,
		Metrics:             observability.MetricsSink,
		DeployTimeout:       deps.Config.Deploy.Timeout,
		ProvisionOutputPath: deps.Config.Deploy.ProvisionOutputPath,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init publish service: %w", err)
	}

	return ServiceContainer{
		Publish:       publish,
		History:       history,
		Staging:       staging,
		Verifier:      verifier,
		Observability: observability,
	}, nil
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	container := ObservabilityContainer{MetricsConfig: cfg.Metrics}

	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.StatsdPrefix,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to initialise statsd client", "error", err)
		} else {
			container.MetricsSink = client
		}
	}

	return container
}

// buildHistoryService selects the persistence backend and hydrates history.
func buildHistoryService(ctx context.Context, deps ServiceDeps, logger *slog.Logger) (*service.HistoryService, error) {
	opts := service.HistoryServiceOptions{Logger: logger}

	switch deps.Config.History.Backend {
	case config.HistoryBackendMemory:
		// No persistence; history lives for the process lifetime.
	case config.HistoryBackendFile:
		opts.Snapshot = data.NewFileSnapshotRepo(deps.Config.History.FilePath)
	case config.HistoryBackendRedis:
		if deps.RedisClient == nil {
			return nil, errors.New("history backend is redis but no redis connection was made")
		}
		opts.Snapshot = data.NewRedisSnapshotRepo(deps.RedisClient, deps.Config.History.RedisKey)
	case config.HistoryBackendPostgres:
		if deps.DB == nil {
			return nil, errors.New("history backend is postgres but no database connection was made")
		}
		archive := data.NewHistoryArchiveRepo(deps.DB)
		if err := archive.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("init history archive: %w", err)
		}
		opts.Archive = archive
	default:
		return nil, fmt.Errorf("unknown history backend %q", deps.Config.History.Backend)
	}

	return service.NewHistoryService(ctx, opts), nil
}

// buildOrchestrator selects the deployment orchestrator implementation.
//
//nolint:ireturn // adapter selection happens at runtime.
func buildOrchestrator(cfg config.DeployConfig) (core.DeploymentOrchestrator, error) {
	switch cfg.Adapter {
	case config.DeployAdapterExec:
		runner, err := execdeploy.NewRunner(execdeploy.Config{
			Command: cfg.Command,
			Args:    cfg.Args,
		})
		if err != nil {
			return nil, fmt.Errorf("init exec deploy adapter: %w", err)
		}
		return runner, nil
	case config.DeployAdapterDev, "":
		return devdeploy.NewOrchestrator(devdeploy.Config{
			Latency:  cfg.DevLatency,
			FailWith: cfg.DevFailWith,
		}), nil
	default:
		return nil, fmt.Errorf("unknown deploy adapter %q", cfg.Adapter)
	}
}

// buildVerifier selects the API token verifier. AuthModeNone returns nil,
// which disables authentication in the HTTP layer.
//
//nolint:ireturn // verifier selection happens at runtime.
func buildVerifier(ctx context.Context, cfg config.AuthConfig) (core.TokenVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeNone, "":
		return nil, nil
	case config.AuthModeStatic:
		verifier, err := devauth.NewProvider(devauth.Config{Tokens: cfg.Static.Tokens})
		if err != nil {
			return nil, fmt.Errorf("init static auth: %w", err)
		}
		return verifier, nil
	case config.AuthModeOIDC:
		verifier, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
			Issuer:   cfg.OIDC.Issuer,
			ClientID: cfg.OIDC.ClientID,
		})
		if err != nil {
			return nil, fmt.Errorf("init oidc auth: %w", err)
		}
		return verifier, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

func newJanitorBackgroundService(cfg *ServiceOrchestrationConfig) backgroundService {
	return backgroundService{
		mode: config.ServiceModeJanitor,
		name: "staging janitor",
		start: func(ctx context.Context) error {
			janitorCfg := cfg.Config.Janitor
			return cfg.Services.Staging.RunJanitor(ctx, janitorCfg.Interval, janitorCfg.MaxAge)
		},
	}
}

func launchBackground(
	ctx context.Context,
	descriptor backgroundService,
	errCh chan<- error,
	logger *slog.Logger,
) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case errCh <- fmt.Errorf("%s failed: %w", descriptor.name, err):
			case <-ctx.Done():
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, len(enabled)+1)

	var httpServer *http.Server
	if enabled[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	var backgrounds []backgroundServiceHandle
	if enabled[config.ServiceModeJanitor] {
		descriptor := newJanitorBackgroundService(cfg)
		backgrounds = append(backgrounds, backgroundServiceHandle{
			name: descriptor.name,
			done: launchBackground(serviceCtx, descriptor, errCh, logger),
		})
	}

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  httpServer,
		publish:     cfg.Services.Publish,
		metrics:     cfg.Services.Observability.MetricsSink,
		logger:      logger,
		backgrounds: backgrounds,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	publish     *service.PublishService
	metrics     *statsd.Client
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Let in-flight deploys finish so their outcomes reach history.
	if cfg.publish != nil {
		waitForService(drainPublish(cfg.publish), "publish service", cfg.logger)
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.metrics != nil {
		if err := cfg.metrics.Close(); err != nil {
			cfg.logger.Warn("failed to close metrics sink", "error", err)
		}
	}

	return nil
}

func drainPublish(publish *service.PublishService) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		publish.Wait()
	}()
	return done
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
