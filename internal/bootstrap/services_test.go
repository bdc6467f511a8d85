package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botstack/publisher/config"
	"github.com/botstack/publisher/internal/adapters/devauth"
	"github.com/botstack/publisher/internal/adapters/devdeploy"
	"github.com/botstack/publisher/internal/adapters/execdeploy"
)

func TestValidateServiceConfig(t *testing.T) {
	cfg := &config.AppConfig{Services: "http,janitor"}
	assert.NoError(t, ValidateServiceConfig(cfg))

	cfg = &config.AppConfig{Services: "scheduler"}
	assert.Error(t, ValidateServiceConfig(cfg))

	assert.Error(t, ValidateServiceConfig(nil))
}

func TestBuildVerifier(t *testing.T) {
	ctx := context.Background()

	v, err := buildVerifier(ctx, config.AuthConfig{Mode: config.AuthModeNone})
	require.NoError(t, err)
	assert.Nil(t, v, "auth mode none disables verification")

	v, err = buildVerifier(ctx, config.AuthConfig{
		Mode:   config.AuthModeStatic,
		Static: config.StaticAuthConfig{Tokens: []string{"secret"}},
	})
	require.NoError(t, err)
	require.IsType(t, &devauth.Provider{}, v)
	assert.NoError(t, v.Verify(ctx, "secret"))

	_, err = buildVerifier(ctx, config.AuthConfig{Mode: config.AuthModeStatic})
	assert.Error(t, err, "static auth without tokens is a config error")

	_, err = buildVerifier(ctx, config.AuthConfig{Mode: "saml"})
	assert.Error(t, err)
}

func TestBuildOrchestrator(t *testing.T) {
	o, err := buildOrchestrator(config.DeployConfig{Adapter: config.DeployAdapterDev})
	require.NoError(t, err)
	assert.IsType(t, &devdeploy.Orchestrator{}, o)

	o, err = buildOrchestrator(config.DeployConfig{
		Adapter: config.DeployAdapterExec,
		Command: "/usr/local/bin/deploy.sh",
	})
	require.NoError(t, err)
	assert.IsType(t, &execdeploy.Runner{}, o)

	_, err = buildOrchestrator(config.DeployConfig{Adapter: config.DeployAdapterExec})
	assert.Error(t, err, "exec adapter requires a command")

	_, err = buildOrchestrator(config.DeployConfig{Adapter: "ftp"})
	assert.Error(t, err)
}

func TestInitServicesMemoryBackend(t *testing.T) {
	cfg := &config.AppConfig{
		Services: "http",
		History:  config.HistoryConfig{Backend: config.HistoryBackendMemory},
		Staging:  config.StagingConfig{Root: t.TempDir()},
		Deploy:   config.DeployConfig{Adapter: config.DeployAdapterDev},
	}

	container, err := InitServices(context.Background(), ServiceDeps{Config: cfg})
	require.NoError(t, err)
	require.NotNil(t, container.Publish)
	require.NotNil(t, container.History)
	require.NotNil(t, container.Staging)
	assert.Nil(t, container.Verifier)
	assert.Nil(t, container.Observability.MetricsSink)
}

func TestInitServicesPostgresBackendRequiresDB(t *testing.T) {
	cfg := &config.AppConfig{
		Services: "http",
		History:  config.HistoryConfig{Backend: config.HistoryBackendPostgres},
		Staging:  config.StagingConfig{Root: t.TempDir()},
		Deploy:   config.DeployConfig{Adapter: config.DeployAdapterDev},
	}

	_, err := InitServices(context.Background(), ServiceDeps{Config: cfg})
	assert.Error(t, err)
}

func TestInitServicesRedisBackendRequiresClient(t *testing.T) {
	cfg := &config.AppConfig{
		Services: "http",
		History:  config.HistoryConfig{Backend: config.HistoryBackendRedis},
		Staging:  config.StagingConfig{Root: t.TempDir()},
		Deploy:   config.DeployConfig{Adapter: config.DeployAdapterDev},
	}

	_, err := InitServices(context.Background(), ServiceDeps{Config: cfg})
	assert.Error(t, err)
}

func TestWaitForServiceReturnsWhenDone(t *testing.T) {
	done := make(chan struct{})
	start := time.Now()
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	}()
	waitForService(done, "test service", InitLogger())
	assert.Less(t, time.Since(start), shutdownWaitTimeout)
}
