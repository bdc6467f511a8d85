// Package execdeploy runs an external deployment command against the staged
// directory. The command receives the deploy parameters as arguments and
// environment variables; its output is streamed line by line into the job log.
package execdeploy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/botstack/publisher/internal/core"
)

// Config controls the exec runner.
type Config struct {
	// Command is the executable to run, resolved via PATH when not absolute.
	Command string

	// Args are fixed arguments placed before the per-deploy arguments.
	Args []string
}

// Runner implements core.DeploymentOrchestrator by shelling out.
type Runner struct {
	command string
	args    []string
}

var _ core.DeploymentOrchestrator = (*Runner)(nil)

// NewRunner constructs a Runner from Config.
func NewRunner(cfg Config) (*Runner, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("deploy command is required")
	}
	return &Runner{command: cfg.Command, args: append([]string(nil), cfg.Args...)}, nil
}

// Deploy runs the configured command in the staged working directory. A
// non-zero exit is a deploy failure; stderr is folded into the log stream so
// the failure detail survives in job history.
func (r *Runner) Deploy(ctx context.Context, req core.DeployRequest) error {
	if req.WorkDir == "" {
		return errors.New("work dir is required")
	}

	args := append(append([]string(nil), r.args...),
		"--name", req.Name,
		"--environment", req.Environment,
	)
	if req.SubscriptionID != "" {
		args = append(args, "--subscription", req.SubscriptionID)
	}

	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Dir = req.WorkDir
	cmd.Env = deployEnv(req)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pipe deploy stdout: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start deploy command %s: %w", r.command, err)
	}

	streamLines(stdout, req.LogSink)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("deploy command failed: %w", err)
	}
	return nil
}

func deployEnv(req core.DeployRequest) []string {
	env := append(os.Environ(),
		"PUBLISH_NAME="+req.Name,
		"PUBLISH_ENVIRONMENT="+req.Environment,
		"PUBLISH_SUBSCRIPTION_ID="+req.SubscriptionID,
	)
	if req.LUIS != nil {
		env = append(env,
			"LUIS_AUTHORING_KEY="+req.LUIS.AuthoringKey,
			"LUIS_ENDPOINT_KEY="+req.LUIS.EndpointKey,
			"LUIS_REGION="+req.LUIS.Region,
		)
	}
	return env
}

func streamLines(r io.Reader, sink func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if sink != nil {
			sink(scanner.Text())
		}
	}
}
