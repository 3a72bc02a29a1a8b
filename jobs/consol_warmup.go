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

	"github.com/groundwork-re/groundwork/internal/entity"
	jobmetrics "github.com/groundwork-re/groundwork/internal/jobs"
)

// RootWarmer rebuilds and caches the reports for one root entity.
type RootWarmer interface {
	WarmRoot(ctx context.Context, rootID int64) error
	Bust(ctx context.Context) error
}

// ConsolWarmupJob busts the report cache and rebuilds the consolidated trial
// balance and summary for each holding entity, so the first morning request
// hits a warm cache.
type ConsolWarmupJob struct {
	Warmer   RootWarmer
	Entities EntityLister
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

func NewConsolWarmupJob(warmer RootWarmer, entities EntityLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *ConsolWarmupJob {
	return &ConsolWarmupJob{
		Warmer:   warmer,
		Entities: entities,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the warmup job.
func (j *ConsolWarmupJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Warmer == nil || j.Entities == nil {
		return errors.New("consol warmup: dependencies not configured")
	}
	var payload ConsolWarmupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RootID == "" {
		payload.RootID = "all"
	}

	tracker := j.metrics().Track(TaskConsolWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	rootIDs, err := j.resolveRoots(ctx, payload.RootID)
	if err != nil {
		resultErr = err
		j.log().Error("resolve warmup roots", slog.String("root", payload.RootID), slog.Any("error", err))
		return resultErr
	}
	if len(rootIDs) == 0 {
		j.log().Info("no holding entities to warm")
		return resultErr
	}

	if err := j.Warmer.Bust(ctx); err != nil {
		resultErr = err
		j.log().Error("bust report cache", slog.Any("error", err))
		return resultErr
	}

	start := j.now()
	warmed := 0
	for _, rootID := range rootIDs {
		if err := j.Warmer.WarmRoot(ctx, rootID); err != nil {
			resultErr = err
			j.log().Error("warm root", slog.Int64("root_id", rootID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	j.log().Info("consolidation warmup complete",
		slog.Int("roots", warmed),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ConsolWarmupJob) resolveRoots(ctx context.Context, root string) ([]int64, error) {
	if root == "" || root == "all" {
		holdings, _, err := j.Entities.List(ctx, entity.ListFilters{Purpose: entity.PurposeHolding, ActiveOnly: true})
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(holdings))
		for _, e := range holdings {
			ids = append(ids, e.ID)
		}
		return ids, nil
	}
	id, err := strconv.ParseInt(root, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid root id %s", root)
	}
	if id <= 0 {
		return nil, fmt.Errorf("root id must be positive")
	}
	return []int64{id}, nil
}

func (j *ConsolWarmupJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ConsolWarmupJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskConsolWarmup))
	}
	return slog.Default().With(slog.String("job", TaskConsolWarmup))
}

func (j *ConsolWarmupJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *ConsolWarmupJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
