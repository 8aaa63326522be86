package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/caryardhq/caryard/internal/config"
	"github.com/caryardhq/caryard/internal/store"
	"github.com/caryardhq/caryard/pkg/models"
	"github.com/google/uuid"
)

const runStatusTTL = time.Hour

// RunStore is the slice of the data layer the import pipeline needs.
type RunStore interface {
	CreateImportRun(ctx context.Context, run *models.ImportRun) error
	GetImportRun(ctx context.Context, id uuid.UUID, ownerUID string) (*models.ImportRun, error)
	ListImportRuns(ctx context.Context, ownerUID string) ([]*models.ImportRun, error)
	UpdateImportRunStatus(ctx context.Context, id uuid.UUID, ownerUID, status string, opts ...store.RunUpdateOption) error
	ListImportRowLogs(ctx context.Context, runID uuid.UUID, ownerUID string) ([]*models.ImportRowLog, error)
	CommitImport(ctx context.Context, runID uuid.UUID, ownerUID string, set store.CommitSet) (*models.ImportRun, error)
}

// StatusCache mirrors run status into Redis so status polling does not hit
// Postgres. Cache failures are logged and ignored; the database is the truth.
type StatusCache interface {
	SetRunStatus(ctx context.Context, runID uuid.UUID, status string, ttl time.Duration) error
	GetRunStatus(ctx context.Context, runID uuid.UUID) (string, bool, error)
}

// Service drives an import run from upload through preview to commit.
// Previews are held in memory between the two phases; a run whose preview was
// lost (process restart) must be re-uploaded.
type Service struct {
	store       RunStore
	cache       StatusCache
	logger      *slog.Logger
	maxRows     int
	maxReported int

	mu       sync.Mutex
	previews map[uuid.UUID]*Preview
}

func NewService(s RunStore, c StatusCache, logger *slog.Logger, cfg config.ImportConfig) *Service {
	return &Service{
		store:       s,
		cache:       c,
		logger:      logger,
		maxRows:     cfg.MaxRows,
		maxReported: cfg.MaxReportedErrors,
		previews:    make(map[uuid.UUID]*Preview),
	}
}

// Upload registers a run, parses the CSV, and produces a preview. No live
// inventory is touched; the caller reviews the preview and then commits.
func (s *Service) Upload(ctx context.Context, ownerUID, entity, filename string, r io.Reader) (*models.ImportRun, *Preview, error) {
	run := &models.ImportRun{
		ID:         uuid.New(),
		OwnerUID:   &ownerUID,
		Entity:     entity,
		SourceFile: filename,
		Status:     models.ImportStatusUploaded,
	}
	if err := s.store.CreateImportRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("create import run: %w", err)
	}

	if err := s.transition(ctx, run.ID, ownerUID, models.ImportStatusProcessing); err != nil {
		return nil, nil, err
	}

	preview, err := Parse(entity, r, s.maxRows)
	if err != nil {
		s.logger.Warn("import parse failed", "run_id", run.ID, "error", err)
		if ferr := s.transition(ctx, run.ID, ownerUID, models.ImportStatusFailed,
			store.WithRunError(err.Error())); ferr != nil {
			return nil, nil, ferr
		}
		return nil, nil, err
	}

	if err := s.transition(ctx, run.ID, ownerUID, models.ImportStatusPreviewReady,
		store.WithRunCounts(preview.Counts)); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.previews[run.ID] = preview
	s.mu.Unlock()

	updated, err := s.store.GetImportRun(ctx, run.ID, ownerUID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("import preview ready",
		"run_id", run.ID, "entity", entity,
		"total", preview.Counts.Total, "valid", preview.Counts.Valid,
		"warnings", preview.Counts.Warning, "errors", preview.Counts.Error)
	return updated, preview.reportCapped(s.maxReported), nil
}

// Commit reconciles a previewed run into live inventory.
func (s *Service) Commit(ctx context.Context, ownerUID string, runID uuid.UUID) (*models.ImportRun, error) {
	s.mu.Lock()
	preview, ok := s.previews[runID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no preview held for run %s, re-upload required", runID)
	}

	if err := s.transition(ctx, runID, ownerUID, models.ImportStatusCommitting); err != nil {
		return nil, err
	}

	run, err := s.store.CommitImport(ctx, runID, ownerUID, preview.commitSet())
	if err != nil {
		s.logger.Error("import commit failed", "run_id", runID, "error", err)
		if ferr := s.transition(ctx, runID, ownerUID, models.ImportStatusFailed,
			store.WithRunError(err.Error())); ferr != nil {
			return nil, ferr
		}
		return nil, err
	}

	s.mu.Lock()
	delete(s.previews, runID)
	s.mu.Unlock()
	s.cacheStatus(ctx, runID, run.Status)

	s.logger.Info("import committed",
		"run_id", runID,
		"created", run.Created, "updated", run.Updated, "skipped", run.Skipped)
	return run, nil
}

// Run returns the run record. The status cache answers pure status polls.
func (s *Service) Run(ctx context.Context, ownerUID string, runID uuid.UUID) (*models.ImportRun, error) {
	return s.store.GetImportRun(ctx, runID, ownerUID)
}

func (s *Service) Runs(ctx context.Context, ownerUID string) ([]*models.ImportRun, error) {
	return s.store.ListImportRuns(ctx, ownerUID)
}

func (s *Service) Logs(ctx context.Context, ownerUID string, runID uuid.UUID) ([]*models.ImportRowLog, error) {
	return s.store.ListImportRowLogs(ctx, runID, ownerUID)
}

// CachedStatus tries the cache first and falls back to the database. The run
// must still belong to the caller for the fallback to answer.
func (s *Service) CachedStatus(ctx context.Context, ownerUID string, runID uuid.UUID) (string, error) {
	if status, found, err := s.cache.GetRunStatus(ctx, runID); err == nil && found {
		return status, nil
	}
	run, err := s.store.GetImportRun(ctx, runID, ownerUID)
	if err != nil {
		return "", err
	}
	return run.Status, nil
}

func (s *Service) transition(ctx context.Context, runID uuid.UUID, ownerUID, status string, opts ...store.RunUpdateOption) error {
	if err := s.store.UpdateImportRunStatus(ctx, runID, ownerUID, status, opts...); err != nil {
		return err
	}
	s.cacheStatus(ctx, runID, status)
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, runID uuid.UUID, status string) {
	if err := s.cache.SetRunStatus(ctx, runID, status, runStatusTTL); err != nil {
		s.logger.Warn("run status cache write failed", "run_id", runID, "error", err)
	}
}
