package core

import (
	"context"

	"github.com/botstack/publisher/internal/domain/model"
)

// This file contains port definitions for the publishing core. Service
// implementations depend on these interfaces, not on concrete adapters.

// DeployRequest groups the inputs handed to the deployment orchestrator for
// one deploy attempt.
type DeployRequest struct {
	// WorkDir is the staged working directory for this deploy.
	WorkDir string

	// Name is the deployment name, normally "<botID>-<profile>".
	Name           string
	Environment    string
	SubscriptionID string

	LUIS *model.LuisCredentials

	// LogSink receives progress lines emitted by the orchestrator. It may be
	// nil; orchestrators must tolerate that.
	LogSink func(line string)
}

// DeploymentOrchestrator performs the actual cloud deployment. It is an
// opaque external collaborator: it is invoked once per job and terminates
// with nil on success or an error carrying the failure message.
type DeploymentOrchestrator interface {
	Deploy(ctx context.Context, req DeployRequest) error
}

// SnapshotStore persists the whole history table as a single document. Load
// must return an empty table (not an error) when no snapshot exists yet.
type SnapshotStore interface {
	Load(ctx context.Context) (model.HistoryTable, error)
	Save(ctx context.Context, table model.HistoryTable) error
}

// HistoryArchive is a row-oriented alternative to SnapshotStore for backends
// where rewriting the whole table per append would be wasteful.
type HistoryArchive interface {
	Append(ctx context.Context, botID, profile string, entry model.HistoryEntry) error

	// ListAll returns the full archive grouped per (bot, profile), each list
	// ordered newest-first. Used to hydrate the in-memory table at startup.
	ListAll(ctx context.Context) (model.HistoryTable, error)
}

// TokenVerifier authenticates API callers from a bearer token. This guards
// the HTTP surface and is unrelated to the cloud access token carried inside
// a PublishConfig.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}
