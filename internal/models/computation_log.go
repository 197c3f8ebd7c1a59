package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ComputationType selects which pipeline a computation run executes.
type ComputationType string

const (
	ComputationDaily      ComputationType = "daily"
	ComputationWeekly     ComputationType = "weekly"
	ComputationMonthly    ComputationType = "monthly"
	ComputationBenchmarks ComputationType = "benchmarks"
	ComputationAll        ComputationType = "all"
)

// Valid reports whether the computation type is supported.
func (t ComputationType) Valid() bool {
	switch t {
	case ComputationDaily, ComputationWeekly, ComputationMonthly, ComputationBenchmarks, ComputationAll:
		return true
	}
	return false
}

// Period maps a periodic computation type onto its analytics period. The
// second return is false for benchmark-only and composite runs.
func (t ComputationType) Period() (AnalyticsPeriod, bool) {
	switch t {
	case ComputationDaily:
		return PeriodDaily, true
	case ComputationWeekly:
		return PeriodWeekly, true
	case ComputationMonthly:
		return PeriodMonthly, true
	}
	return "", false
}

// Computation run lifecycle states. A run transitions from running to exactly
// one terminal state and is immutable afterwards.
const (
	ComputationStatusRunning   = "running"
	ComputationStatusCompleted = "completed"
	ComputationStatusFailed    = "failed"
)

// JSONMap is a free-form JSONB payload column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json source type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// ComputationLogEntry is the audit trail row for one aggregation run.
type ComputationLogEntry struct {
	ID                 string          `db:"id" json:"id"`
	ComputationType    ComputationType `db:"computation_type" json:"computation_type"`
	ComputationScope   string          `db:"computation_scope" json:"computation_scope"`
	ScopeID            *string         `db:"scope_id" json:"scope_id"`
	Status             string          `db:"status" json:"status"`
	StartedAt          time.Time       `db:"started_at" json:"started_at"`
	CompletedAt        *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	RecordsProcessed   int             `db:"records_processed" json:"records_processed"`
	RecordsUpdated     int             `db:"records_updated" json:"records_updated"`
	ErrorsCount        int             `db:"errors_count" json:"errors_count"`
	DurationSeconds    int             `db:"computation_duration_seconds" json:"computation_duration_seconds"`
	PerformanceMetrics JSONMap         `db:"performance_metrics" json:"performance_metrics,omitempty"`
	ErrorDetails       JSONMap         `db:"error_details" json:"error_details,omitempty"`
}
