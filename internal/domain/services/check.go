package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
)

// Record types written by the check pipeline.
const (
	WorkspaceType    = "workspace_compliance"
	OrganizationType = "organization_summary"
)

// RepositoryType returns the record type of a per-repository check.
func RepositoryType(owner, name string) string {
	return "repo_" + owner + "_" + name
}

// Stage names the pipeline step that failed.
type Stage string

// Pipeline stages.
const (
	StageAggregation Stage = "aggregation"
	StageStorage     Stage = "storage"
)

// StageError reports which stage of a check failed and for which entity.
type StageError struct {
	Stage  Stage
	Entity string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Entity, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsStage reports whether err is a StageError for stage.
func IsStage(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}

// CheckResult is the outcome of one per-entity check.
type CheckResult struct {
	Record   *entities.EvidenceRecord `json:"record"`
	Previous *entities.EvidenceRecord `json:"previous,omitempty"`
	Diff     *entities.EvidenceDiff   `json:"diff,omitempty"`
}

// CheckService runs the aggregate, score and persist pipeline.
type CheckService struct {
	sourceControl ports.SourceControlClient
	repositories  *RepositoryAggregator
	workspace     *WorkspaceAggregator
	ledger        *EvidenceLedger
	runLog        ports.RunLog
	metrics       ports.MetricsRecorder
	logger        *slog.Logger
}

// NewCheckService creates a new CheckService. sourceControl, identity, runLog
// and metrics may be nil; checks needing a missing provider return an error.
func NewCheckService(
	ledger *EvidenceLedger,
	sourceControl ports.SourceControlClient,
	identity ports.IdentityClient,
	runLog ports.RunLog,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *CheckService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &CheckService{
		sourceControl: sourceControl,
		ledger:        ledger,
		runLog:        runLog,
		metrics:       metrics,
		logger:        logger,
	}
	if sourceControl != nil {
		s.repositories = NewRepositoryAggregator(sourceControl, logger)
	}
	if identity != nil {
		s.workspace = NewWorkspaceAggregator(identity, logger)
	}
	return s
}

// CheckRepository aggregates, scores and records one repository.
func (s *CheckService) CheckRepository(ctx context.Context, owner, name string) (*CheckResult, error) {
	if s.repositories == nil {
		return nil, errors.New("source control provider is not configured")
	}

	start := timeNow()
	entity := owner + "/" + name
	recordType := RepositoryType(owner, name)

	agg, err := s.repositories.Aggregate(ctx, owner, name)
	if err != nil {
		return nil, s.fail(ctx, entities.SourceGitHub, recordType, entity, StageAggregation, err, start)
	}

	metadata := map[string]string{
		"organization": owner,
		"repository":   entity,
	}
	return s.persist(ctx, entities.SourceGitHub, recordType, entity, agg, ScoreRepository(agg), metadata, nil, start)
}

// CheckWorkspace aggregates, scores and records the identity workspace.
func (s *CheckService) CheckWorkspace(ctx context.Context) (*CheckResult, error) {
	if s.workspace == nil {
		return nil, errors.New("identity provider is not configured")
	}

	start := timeNow()

	agg, err := s.workspace.Aggregate(ctx)
	if err != nil {
		return nil, s.fail(ctx, entities.SourceGoogle, WorkspaceType, "workspace", StageAggregation, err, start)
	}

	metadata := map[string]string{"domain": agg.Domain}
	return s.persist(ctx, entities.SourceGoogle, WorkspaceType, agg.Domain, agg, ScoreWorkspace(agg), metadata, nil, start)
}

// persist saves the scored aggregate and diffs it against the record it
// supersedes: the latest of the same type whose metadata matches baseline.
func (s *CheckService) persist(
	ctx context.Context,
	source entities.Source,
	recordType, entity string,
	data any,
	summary entities.Summary,
	metadata, baseline map[string]string,
	start time.Time,
) (*CheckResult, error) {
	previous, err := s.ledger.LatestMatching(ctx, source, recordType, baseline)
	if err != nil {
		return nil, s.fail(ctx, source, recordType, entity, StageStorage, err, start)
	}

	rec, err := s.ledger.Save(ctx, source, recordType, data, summary, metadata)
	if err != nil {
		return nil, s.fail(ctx, source, recordType, entity, StageStorage, err, start)
	}

	result := &CheckResult{Record: rec, Previous: previous}
	if previous != nil {
		d := s.ledger.Diff(previous, rec)
		result.Diff = &d
	}

	if s.metrics != nil {
		s.metrics.CheckCompleted(source, recordType, rec.Summary)
	}
	s.logRun(ctx, &entities.CheckRun{
		Source:     source,
		Type:       recordType,
		Entity:     entity,
		Outcome:    entities.OutcomeSucceeded,
		RecordID:   rec.ID,
		Score:      rec.Summary.Score,
		StartedAt:  start.UTC(),
		DurationMs: timeNow().Sub(start).Milliseconds(),
	})

	return result, nil
}

// fail records a failed run and returns the stage error.
func (s *CheckService) fail(
	ctx context.Context,
	source entities.Source,
	recordType, entity string,
	stage Stage,
	err error,
	start time.Time,
) error {
	if s.metrics != nil {
		s.metrics.CheckFailed(source, string(stage))
	}
	s.logRun(ctx, &entities.CheckRun{
		Source:     source,
		Type:       recordType,
		Entity:     entity,
		Outcome:    entities.OutcomeFailed,
		Stage:      string(stage),
		Error:      err.Error(),
		StartedAt:  start.UTC(),
		DurationMs: timeNow().Sub(start).Milliseconds(),
	})
	return &StageError{Stage: stage, Entity: entity, Err: err}
}

// logRun appends to the run log. Run log failures never fail a check.
func (s *CheckService) logRun(ctx context.Context, run *entities.CheckRun) {
	if s.runLog == nil {
		return
	}
	if err := s.runLog.LogRun(ctx, run); err != nil {
		s.logger.Warn("recording check run", "entity", run.Entity, "error", err)
	}
}
