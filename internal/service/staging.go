package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/botstack/publisher/internal/domain/model"
)

const (
	assetsDirName       = "assets"
	settingsDirName     = "settings"
	settingsFileName    = "appsettings.json"
	defaultWriteWorkers = 8
)

// StagingServiceOptions groups configuration for StagingService.
type StagingServiceOptions struct {
	// Root is the directory under which per-deploy staging directories are
	// created. Required.
	Root string

	// RuntimeTemplateDir is the default runtime copied into each staging
	// directory when the project does not declare an ejected runtime.
	// Optional; when empty and the project has no runtime path, the runtime
	// copy step is skipped.
	RuntimeTemplateDir string

	// WriteConcurrency bounds parallel asset writes. Defaults to 8.
	WriteConcurrency int

	Logger *slog.Logger
}

// StagingService materializes bot projects into per-deploy working
// directories and cleans them up afterwards.
type StagingService struct {
	root       string
	runtimeDir string
	writeLimit int
	logger     *slog.Logger
}

// NewStagingService constructs a StagingService.
func NewStagingService(opts StagingServiceOptions) (*StagingService, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("staging root is required")
	}
	limit := opts.WriteConcurrency
	if limit <= 0 {
		limit = defaultWriteWorkers
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "staging_service")
	}

	return &StagingService{
		root:       opts.Root,
		runtimeDir: opts.RuntimeTemplateDir,
		writeLimit: limit,
		logger:     logger,
	}, nil
}

// ResourceKey derives the identifier of the on-disk staging directory for one
// deploy. It is stable for identical inputs, and two profiles that differ in
// any credential or target field map to distinct keys.
func (s *StagingService) ResourceKey(cfg *model.PublishConfig) string {
	h := sha256.New()
	for _, part := range []string{
		cfg.Name,
		cfg.SubscriptionID,
		cfg.Environment,
		cfg.ProvisionPassword,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if cfg.LUIS != nil {
		h.Write([]byte(cfg.LUIS.AuthoringKey))
		h.Write([]byte{0})
		h.Write([]byte(cfg.LUIS.EndpointKey))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Dir returns the staging directory path for a resource key.
func (s *StagingService) Dir(key string) string {
	return filepath.Join(s.root, key)
}

// SettingsPath returns the staged deployment-settings file path for a key.
func (s *StagingService) SettingsPath(key string) string {
	return filepath.Join(s.Dir(key), settingsDirName, settingsFileName)
}

// Stage materializes the project into the directory identified by key. The
// directory is fully cleared first, so re-staging the same key is idempotent.
func (s *StagingService) Stage(ctx context.Context, project *model.BotProject, key string) error {
	dir := s.Dir(key)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	if err := s.copyRuntime(project, dir); err != nil {
		return err
	}
	if err := s.writeAssets(ctx, project, dir); err != nil {
		return err
	}
	if err := s.writeSettings(project, dir); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "project staged",
			"bot_id", project.BotID, "resource_key", key, "files", len(project.Files))
	}
	return nil
}

func (s *StagingService) copyRuntime(project *model.BotProject, dir string) error {
	src := project.RuntimePath
	if src == "" {
		src = s.runtimeDir
	}
	if src == "" {
		return nil
	}
	if err := copyDir(src, dir); err != nil {
		return fmt.Errorf("copy runtime from %s: %w", src, err)
	}
	return nil
}

func (s *StagingService) writeAssets(ctx context.Context, project *model.BotProject, dir string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.writeLimit)

	for _, file := range project.Files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			target := filepath.Join(dir, assetsDirName, filepath.FromSlash(file.RelativePath))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create asset dir for %s: %w", file.RelativePath, err)
			}
			if err := os.WriteFile(target, []byte(file.Content), 0o644); err != nil {
				return fmt.Errorf("write asset %s: %w", file.RelativePath, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *StagingService) writeSettings(project *model.BotProject, dir string) error {
	settings := project.Settings
	if len(settings) == 0 {
		settings = json.RawMessage("{}")
	}

	var pretty map[string]any
	if err := json.Unmarshal(settings, &pretty); err != nil {
		return fmt.Errorf("decode project settings: %w", err)
	}
	formatted, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project settings: %w", err)
	}

	path := filepath.Join(dir, settingsDirName, settingsFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// Teardown removes the staging directory for key. An already-absent directory
// is not an error.
func (s *StagingService) Teardown(key string) error {
	if err := os.RemoveAll(s.Dir(key)); err != nil {
		return fmt.Errorf("remove staging dir: %w", err)
	}
	return nil
}

// Sweep removes staging directories whose last modification is older than
// maxAge and returns how many were removed. Crashed deploys leave orphans
// behind; the janitor calls this periodically.
func (s *StagingService) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read staging root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove stale staging dir %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// RunJanitor sweeps stale staging directories every interval until ctx is
// cancelled.
func (s *StagingService) RunJanitor(ctx context.Context, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.Sweep(maxAge)
			if err != nil {
				if s.logger != nil {
					s.logger.ErrorContext(ctx, "staging sweep failed", "error", err)
				}
				continue
			}
			if removed > 0 && s.logger != nil {
				s.logger.InfoContext(ctx, "removed stale staging directories", "count", removed)
			}
		}
	}
}

// copyDir copies the tree rooted at src into dst, preserving relative layout.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
