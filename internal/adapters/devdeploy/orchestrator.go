// Package devdeploy provides a simulated deployment orchestrator for local
// development. It never talks to a cloud; it walks the staged directory,
// emits plausible progress lines, and succeeds or fails based on config.
package devdeploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/botstack/publisher/internal/core"
)

// Config controls the dev orchestrator behavior.
type Config struct {
	// Latency is how long the simulated deploy takes. Zero means no delay.
	Latency time.Duration

	// FailWith, when non-empty, makes every deploy fail with this message.
	FailWith string
}

// Orchestrator implements core.DeploymentOrchestrator for local development.
type Orchestrator struct {
	latency  time.Duration
	failWith string
}

var _ core.DeploymentOrchestrator = (*Orchestrator)(nil)

// NewOrchestrator constructs a dev orchestrator from Config.
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{latency: cfg.Latency, failWith: cfg.FailWith}
}

// Deploy simulates a deployment of the staged directory.
func (o *Orchestrator) Deploy(ctx context.Context, req core.DeployRequest) error {
	log := req.LogSink
	if log == nil {
		log = func(string) {}
	}

	log(fmt.Sprintf("Starting dev deploy of %s to %s.", req.Name, req.Environment))

	count, err := countFiles(req.WorkDir)
	if err != nil {
		return fmt.Errorf("inspect staged directory: %w", err)
	}
	log(fmt.Sprintf("Packed %d staged files.", count))

	if o.latency > 0 {
		select {
		case <-time.After(o.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if req.LUIS != nil && !req.LUIS.Empty() {
		log("Published language models.")
	}

	if o.failWith != "" {
		return errors.New(o.failWith)
	}

	log("Dev deploy complete.")
	return nil
}

func countFiles(root string) (int, error) {
	if root == "" {
		return 0, errors.New("work dir is required")
	}
	count := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("staged directory missing: %w", os.ErrNotExist)
		}
		return 0, err
	}
	return count, nil
}
