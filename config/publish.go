package config

import (
	"fmt"
	"strings"
	"time"
)

// StagingConfig contains staging directory configuration.
type StagingConfig struct {
	// Root is the directory under which per-deploy staging directories live.
	Root string `env:"STAGING_ROOT" envDefault:"data/staging"`

	// RuntimeTemplateDir is the default runtime copied into staged deploys
	// when a project has no ejected runtime. Empty skips the runtime copy.
	RuntimeTemplateDir string `env:"STAGING_RUNTIME_TEMPLATE_DIR"`

	// WriteConcurrency bounds concurrent asset file writes during staging.
	WriteConcurrency int `env:"STAGING_WRITE_CONCURRENCY" envDefault:"8"`
}

// Sanitize applies guardrails to staging configuration values.
func (s *StagingConfig) Sanitize() {
	s.Root = strings.TrimSpace(s.Root)
	if s.WriteConcurrency < 1 {
		s.WriteConcurrency = 1
	}
}

// DeployAdapter selects the deployment orchestrator implementation.
type DeployAdapter string

const (
	// DeployAdapterDev simulates deployments (development only).
	DeployAdapterDev DeployAdapter = "dev"
	// DeployAdapterExec shells out to a configured deploy command.
	DeployAdapterExec DeployAdapter = "exec"
)

// UnmarshalText implements encoding.TextUnmarshaler for DeployAdapter.
func (d *DeployAdapter) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "dev", "exec":
		*d = DeployAdapter(v)
		return nil
	default:
		return fmt.Errorf("invalid DeployAdapter: %q (valid options: dev, exec)", v)
	}
}

// DeployConfig contains deployment orchestration configuration.
type DeployConfig struct {
	// Adapter selects the orchestrator implementation.
	Adapter DeployAdapter `env:"DEPLOY_ADAPTER" envDefault:"dev"`

	// Command is the deploy executable (Adapter=exec).
	Command string `env:"DEPLOY_COMMAND"`

	// Args are fixed arguments passed before the per-deploy arguments.
	Args []string `env:"DEPLOY_ARGS" envSeparator:" "`

	// Timeout bounds a single deploy. Zero disables the bound.
	Timeout time.Duration `env:"DEPLOY_TIMEOUT" envDefault:"0"`

	// ProvisionOutputPath optionally selects the provision subtree merged
	// into staged settings (JMESPath expression).
	ProvisionOutputPath string `env:"DEPLOY_PROVISION_OUTPUT_PATH"`

	// DevLatency is the simulated deploy duration (Adapter=dev).
	DevLatency time.Duration `env:"DEPLOY_DEV_LATENCY" envDefault:"2s"`

	// DevFailWith, when set, makes every simulated deploy fail (Adapter=dev).
	DevFailWith string `env:"DEPLOY_DEV_FAIL_WITH"`
}

// Sanitize applies guardrails to deploy configuration values.
func (d *DeployConfig) Sanitize() {
	d.Command = strings.TrimSpace(d.Command)
	if d.Timeout < 0 {
		d.Timeout = 0
	}
	if d.DevLatency < 0 {
		d.DevLatency = 0
	}
}

// JanitorConfig contains staging janitor configuration.
type JanitorConfig struct {
	// Interval is the janitor sweep interval.
	Interval time.Duration `env:"JANITOR_INTERVAL" envDefault:"10m"`

	// MaxAge is the age past which an orphaned staging directory is removed.
	MaxAge time.Duration `env:"JANITOR_MAX_AGE" envDefault:"24h"`
}

// Sanitize applies guardrails to janitor configuration values.
func (j *JanitorConfig) Sanitize() {
	if j.Interval < time.Minute {
		j.Interval = time.Minute
	}
	if j.MaxAge < time.Hour {
		j.MaxAge = time.Hour
	}
}
