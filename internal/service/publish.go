// Package service provides the business logic for the bot publishing system.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/botstack/publisher/internal/core"
	"github.com/botstack/publisher/internal/domain/model"
	"github.com/botstack/publisher/internal/observability/metrics"
	"github.com/botstack/publisher/internal/observability/statsd"
)

const genericDeployFailure = "Publish failed. See the deploy log for details."

// PublishServiceOptions groups dependencies for PublishService.
type PublishServiceOptions struct {
	Table        *core.StatusTable           // Required: in-flight job tracking
	History      *HistoryService             // Required: terminal outcome store
	Staging      *StagingService             // Required: working directory management
	Orchestrator core.DeploymentOrchestrator // Required: performs the deploy

	Logger  *slog.Logger // Optional: structured logger
	Metrics statsd.Sink  // Optional: lifecycle metrics

	// DeployTimeout bounds a single deploy when positive. Zero disables the
	// bound: a deploy that never completes leaves its record in the status
	// table indefinitely (documented limitation).
	DeployTimeout time.Duration

	// ProvisionOutputPath optionally selects the provision subtree merged
	// into staged settings (JMESPath).
	ProvisionOutputPath string

	// now is overridable for tests.
	now func() time.Time
}

// PublishService coordinates one publish call end to end: it stages assets,
// validates credentials, accepts a job, and runs the deployment without
// blocking the caller. Terminal outcomes move from the status table into
// history exactly once.
type PublishService struct {
	table        *core.StatusTable
	history      *HistoryService
	staging      *StagingService
	orchestrator core.DeploymentOrchestrator
	logger       *slog.Logger
	metrics      statsd.Sink
	timeout      time.Duration
	outputPath   string
	now          func() time.Time

	// wg tracks in-flight deploy goroutines so tests and shutdown can drain.
	wg sync.WaitGroup
}

// NewPublishService constructs a new PublishService.
func NewPublishService(opts PublishServiceOptions) (*PublishService, error) {
	if opts.Table == nil {
		return nil, errors.New("StatusTable is required")
	}
	if opts.History == nil {
		return nil, errors.New("HistoryService is required")
	}
	if opts.Staging == nil {
		return nil, errors.New("StagingService is required")
	}
	if opts.Orchestrator == nil {
		return nil, errors.New("DeploymentOrchestrator is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "publish_service")
	}

	now := opts.now
	if now == nil {
		now = time.Now
	}

	return &PublishService{
		table:        opts.Table,
		history:      opts.History,
		staging:      opts.Staging,
		orchestrator: opts.Orchestrator,
		logger:       logger,
		metrics:      opts.Metrics,
		timeout:      opts.DeployTimeout,
		outputPath:   opts.ProvisionOutputPath,
		now:          now,
	}, nil
}

// MustNewPublishService constructs a new PublishService and panics on error.
// Use this when the options are known valid (e.g. in bootstrap).
func MustNewPublishService(opts PublishServiceOptions) *PublishService {
	svc, err := NewPublishService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create PublishService: %v", err))
	}
	return svc
}

// Publish runs the synchronous phase of one publish call and returns its
// outcome: an accepted (202) record whose deployment continues in the
// background, or a synthesized failure (500) recorded directly to history.
// Errors are returned only for malformed requests; every operational failure
// surfaces as a status-coded record instead.
func (s *PublishService) Publish(
	ctx context.Context,
	cfg *model.PublishConfig,
	project *model.BotProject,
) (*model.JobRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	key := s.staging.ResourceKey(cfg)
	if err := s.staging.Stage(ctx, project, key); err != nil {
		return s.rejectAndTeardown(ctx, cfg, project, key, fmt.Sprintf("Failed to stage bot assets: %v", err)), nil
	}

	if strings.TrimSpace(cfg.AccessToken) == "" {
		return s.rejectAndTeardown(ctx, cfg, project, key,
			"Publish failed: no access token. Provide an access token for the target subscription."), nil
	}
	if len(cfg.Provision) == 0 {
		return s.rejectAndTeardown(ctx, cfg, project, key,
			"Publish failed: no provisioned resources. Run provisioning for this profile first."), nil
	}

	if err := MergeProvisionedSettings(s.staging.SettingsPath(key), cfg.Provision, MergeOptions{
		OutputPath: s.outputPath,
	}); err != nil {
		return s.rejectAndTeardown(ctx, cfg, project, key,
			fmt.Sprintf("Failed to merge provisioned settings: %v", err)), nil
	}

	logs := newDeployLog()
	logs.Append(fmt.Sprintf("Publish started for %s/%s into environment %q.", project.BotID, cfg.Name, cfg.Environment))

	rec := model.JobRecord{
		Status: model.StatusAccepted,
		Result: model.PublishResult{
			ID:      uuid.NewString(),
			Time:    s.now(),
			Message: "Accepted for publishing.",
			Log:     logs.String(),
			Comment: cfg.Comment,
		},
	}
	s.table.Add(project.BotID, cfg.Name, rec)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "publish accepted",
			"bot_id", project.BotID, "profile", cfg.Name, "job_id", rec.Result.ID)
	}
	metrics.EmitPublishLifecycle(s.metrics, metrics.PublishMetric{
		Transition: metrics.TransitionAccepted,
		Result:     metrics.ResultSuccess,
	})

	s.wg.Add(1)
	go s.runDeploy(deployArgs{
		botID:   project.BotID,
		profile: cfg.Name,
		jobID:   rec.Result.ID,
		key:     key,
		cfg:     cfg,
		logs:    logs,
	})

	return &rec, nil
}

// Wait blocks until all in-flight deploy goroutines have completed. Used by
// graceful shutdown and by tests.
func (s *PublishService) Wait() {
	s.wg.Wait()
}

type deployArgs struct {
	botID   string
	profile string
	jobID   string
	key     string
	cfg     *model.PublishConfig
	logs    *deployLog
}

// runDeploy executes the asynchronous phase: invoke the orchestrator, then
// fold the outcome into history and clear the status table entry.
func (s *PublishService) runDeploy(args deployArgs) {
	defer s.wg.Done()

	// The deploy outlives the request that accepted it.
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	luis := args.cfg.LUIS
	if luis.Empty() {
		luis = s.luisFromProvision(args.cfg)
	}

	err := s.orchestrator.Deploy(ctx, core.DeployRequest{
		WorkDir:        s.staging.Dir(args.key),
		Name:           args.botID + "-" + args.profile,
		Environment:    args.cfg.Environment,
		SubscriptionID: args.cfg.SubscriptionID,
		LUIS:           luis,
		LogSink:        args.logs.Append,
	})
	s.complete(ctx, args, err, s.now().Sub(start))
}

func (s *PublishService) complete(ctx context.Context, args deployArgs, deployErr error, elapsed time.Duration) {
	rec, ok := s.table.Remove(args.botID, args.profile, args.jobID)
	if !ok {
		// Already removed: the completion is a silent no-op.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job record missing at completion",
				"bot_id", args.botID, "profile", args.profile, "job_id", args.jobID)
		}
		s.teardown(ctx, args.key)
		return
	}

	if deployErr != nil {
		msg := strings.TrimSpace(deployErr.Error())
		if msg == "" {
			msg = genericDeployFailure
		}
		args.logs.Append(msg)
		rec.Status = model.StatusFailed
		rec.Result.Message = msg
	} else {
		args.logs.Append("Deployment completed.")
		rec.Status = model.StatusSuccess
		rec.Result.Message = "Publish success."
	}
	rec.Result.Time = s.now()
	rec.Result.Log = args.logs.String()

	if err := s.history.Append(ctx, args.botID, args.profile, model.EntryFromRecord(rec)); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "persist publish outcome failed",
			"bot_id", args.botID, "profile", args.profile, "job_id", args.jobID, "error", err)
	}
	s.teardown(ctx, args.key)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "publish finished",
			"bot_id", args.botID, "profile", args.profile, "job_id", args.jobID,
			"status", rec.Status, "elapsed", elapsed)
	}
	metrics.EmitPublishLifecycle(s.metrics, metrics.PublishMetric{
		Transition: metrics.TransitionCompleted,
		Result:     metrics.ResultFor(deployErr),
		Duration:   elapsed,
		Err:        deployErr,
	})
}

// rejectAndTeardown records a synchronous validation failure straight into
// history (no status table entry is created) and removes the staging dir.
func (s *PublishService) rejectAndTeardown(
	ctx context.Context,
	cfg *model.PublishConfig,
	project *model.BotProject,
	key, message string,
) *model.JobRecord {
	rec := model.JobRecord{
		Status: model.StatusFailed,
		Result: model.PublishResult{
			ID:      uuid.NewString(),
			Time:    s.now(),
			Message: message,
			Comment: cfg.Comment,
		},
	}

	if err := s.history.Append(ctx, project.BotID, cfg.Name, model.EntryFromRecord(rec)); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "persist publish rejection failed",
			"bot_id", project.BotID, "profile", cfg.Name, "error", err)
	}
	s.teardown(ctx, key)

	if s.logger != nil {
		s.logger.WarnContext(ctx, "publish rejected",
			"bot_id", project.BotID, "profile", cfg.Name, "reason", message)
	}
	metrics.EmitPublishLifecycle(s.metrics, metrics.PublishMetric{
		Transition: metrics.TransitionRejected,
		Result:     metrics.ResultError,
		Err:        &ValidationError{Reason: message},
	})
	return &rec
}

func (s *PublishService) teardown(ctx context.Context, key string) {
	if err := s.staging.Teardown(key); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "staging teardown failed", "resource_key", key, "error", err)
	}
}

func (s *PublishService) luisFromProvision(cfg *model.PublishConfig) *model.LuisCredentials {
	if len(cfg.Provision) == 0 {
		return nil
	}
	authoring, okA := ExtractProvisionField(cfg.Provision, "luis.authoringKey")
	endpoint, okE := ExtractProvisionField(cfg.Provision, "luis.endpointKey")
	if !okA && !okE {
		return nil
	}
	region, _ := ExtractProvisionField(cfg.Provision, "luis.region")
	return &model.LuisCredentials{
		AuthoringKey: authoring,
		EndpointKey:  endpoint,
		Region:       region,
	}
}

// GetStatus returns the current publish state for (botID, profile): the
// in-flight record when one exists, otherwise the newest history entry
// reshaped into the same envelope, otherwise a synthetic 404. When jobID is
// non-empty the lookup targets that specific job in the table first, then in
// history. Never fails.
func (s *PublishService) GetStatus(botID, profile, jobID string) model.JobRecord {
	if jobID != "" {
		if rec, ok := s.table.Get(botID, profile, jobID); ok {
			return rec
		}
		for _, entry := range s.history.Get(botID, profile) {
			if entry.ID == jobID {
				return entry.ToRecord()
			}
		}
		return s.notFound()
	}

	if rec, ok := s.table.Latest(botID, profile); ok {
		return rec
	}
	if entry, ok := s.history.Newest(botID, profile); ok {
		return entry.ToRecord()
	}
	return s.notFound()
}

// History returns the full ordered history for (botID, profile).
func (s *PublishService) History(botID, profile string) []model.HistoryEntry {
	return s.history.Get(botID, profile)
}

func (s *PublishService) notFound() model.JobRecord {
	return model.JobRecord{
		Status: model.StatusNotFound,
		Result: model.PublishResult{
			Time:    s.now(),
			Message: "Bot has not been published to this profile.",
		},
	}
}

// deployLog accumulates orchestrator progress lines. Safe for concurrent use:
// the orchestrator appends from its own goroutine while status readers may
// snapshot the text.
type deployLog struct {
	mu    sync.Mutex
	lines []string
}

func newDeployLog() *deployLog {
	return &deployLog{}
}

// Append adds one progress line, dropping blank lines.
func (l *deployLog) Append(line string) {
	line = strings.TrimRight(line, "\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

// String returns the accumulated log as newline-joined text.
func (l *deployLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}
