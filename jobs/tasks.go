package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/groundwork-re/groundwork/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDedupScan runs duplicate-account scans across related entities.
	TaskDedupScan = "dedup:scan"
	// TaskConsolWarmup rebuilds cached consolidation reports.
	TaskConsolWarmup = "consol:warmup"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DedupScanPayload configures the scope of a duplicate scan run.
type DedupScanPayload struct {
	// EntityID scopes the scan to one entity; "all" scans every active entity.
	EntityID string `json:"entity_id"`
}

// NewDedupScanTask creates an Asynq task for a duplicate scan.
func NewDedupScanTask(entityID string) (*asynq.Task, error) {
	if entityID == "" {
		entityID = "all"
	}
	body, err := json.Marshal(DedupScanPayload{EntityID: entityID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDedupScan, body, asynq.Queue(QueueDefault)), nil
}

// ConsolWarmupPayload configures the scope of a consolidation warmup run.
type ConsolWarmupPayload struct {
	// RootID warms one root; "all" warms every active holding entity.
	RootID string `json:"root_id"`
}

// NewConsolWarmupTask creates an Asynq task for a consolidation warmup.
func NewConsolWarmupTask(rootID string) (*asynq.Task, error) {
	if rootID == "" {
		rootID = "all"
	}
	body, err := json.Marshal(ConsolWarmupPayload{RootID: rootID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConsolWarmup, body, asynq.Queue(QueueDefault)), nil
}
