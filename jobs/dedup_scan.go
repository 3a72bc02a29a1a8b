package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/groundwork-re/groundwork/internal/dedup"
	"github.com/groundwork-re/groundwork/internal/entity"
	jobmetrics "github.com/groundwork-re/groundwork/internal/jobs"
)

// DedupDetector scans and records duplicate-account findings.
type DedupDetector interface {
	ScanRelatedEntities(ctx context.Context, entityID int64, opts dedup.DetectOptions) ([]dedup.Candidate, error)
	CreateAlert(ctx context.Context, candidate dedup.Candidate) (dedup.DuplicateAlert, error)
}

// EntityLister resolves the scan scope when a run covers all entities.
type EntityLister interface {
	List(ctx context.Context, filters entity.ListFilters) ([]entity.Entity, int, error)
}

// DedupScanJob runs scheduled duplicate scans and records every fresh
// candidate as a pending alert.
type DedupScanJob struct {
	Detector DedupDetector
	Entities EntityLister
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

func NewDedupScanJob(detector DedupDetector, entities EntityLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *DedupScanJob {
	return &DedupScanJob{
		Detector: detector,
		Entities: entities,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the duplicate scan job.
func (j *DedupScanJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Detector == nil || j.Entities == nil {
		return errors.New("dedup scan: dependencies not configured")
	}
	var payload DedupScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.EntityID == "" {
		payload.EntityID = "all"
	}

	tracker := j.metrics().Track(TaskDedupScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	entityIDs, err := j.resolveScope(ctx, payload.EntityID)
	if err != nil {
		resultErr = err
		j.log().Error("resolve scan scope", slog.String("entity", payload.EntityID), slog.Any("error", err))
		return resultErr
	}

	start := j.now()
	var recorded int
	for _, id := range entityIDs {
		candidates, err := j.Detector.ScanRelatedEntities(ctx, id, dedup.DetectOptions{})
		if err != nil {
			resultErr = err
			j.log().Error("scan related entities", slog.Int64("entity_id", id), slog.Any("error", err))
			return resultErr
		}
		for _, candidate := range candidates {
			if _, err := j.Detector.CreateAlert(ctx, candidate); err != nil {
				resultErr = err
				j.log().Error("record alert", slog.Int64("entity_id", id), slog.Any("error", err))
				return resultErr
			}
			j.metrics().AddDuplicates(string(candidate.MatchType), id, 1)
			recorded++
		}
	}

	j.log().Info("duplicate scan complete",
		slog.Int("entities", len(entityIDs)),
		slog.Int("alerts_recorded", recorded),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *DedupScanJob) resolveScope(ctx context.Context, scope string) ([]int64, error) {
	if scope == "" || scope == "all" {
		all, _, err := j.Entities.List(ctx, entity.ListFilters{ActiveOnly: true})
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(all))
		for _, e := range all {
			ids = append(ids, e.ID)
		}
		return ids, nil
	}
	id, err := strconv.ParseInt(scope, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid entity id %s", scope)
	}
	if id <= 0 {
		return nil, fmt.Errorf("entity id must be positive")
	}
	return []int64{id}, nil
}

func (j *DedupScanJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DedupScanJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDedupScan))
	}
	return slog.Default().With(slog.String("job", TaskDedupScan))
}

func (j *DedupScanJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *DedupScanJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
