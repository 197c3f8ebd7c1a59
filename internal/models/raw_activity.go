package models

import "time"

// The raw activity tables are owned by platform instrumentation; this service
// only ever reads them.

// BlockCompletion records one user's attempt at a content block within a
// learning session.
type BlockCompletion struct {
	ID                    string     `db:"id" json:"id"`
	UserID                string     `db:"user_id" json:"user_id"`
	ClientID              string     `db:"client_id" json:"client_id"`
	BlockID               string     `db:"block_id" json:"block_id"`
	CompletionStatus      string     `db:"completion_status" json:"completion_status"`
	CompletionPercentage  float64    `db:"completion_percentage" json:"completion_percentage"`
	ContentEngagementScore *float64  `db:"content_engagement_score" json:"content_engagement_score,omitempty"`
	MasteryScore          *float64   `db:"mastery_score" json:"mastery_score,omitempty"`
	TotalTimeSpentSeconds int        `db:"total_time_spent_seconds" json:"total_time_spent_seconds"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}

// Block completion statuses assigned by instrumentation.
const (
	CompletionStatusInProgress = "in_progress"
	CompletionStatusCompleted  = "completed"
	CompletionStatusMastered   = "mastered"
)

// LearningSession records one continuous learning session.
type LearningSession struct {
	ID                    string    `db:"id" json:"id"`
	UserID                string    `db:"user_id" json:"user_id"`
	ClientID              string    `db:"client_id" json:"client_id"`
	StartedAt             time.Time `db:"started_at" json:"started_at"`
	TotalDurationSeconds  int       `db:"total_duration_seconds" json:"total_duration_seconds"`
	ActiveDurationSeconds int       `db:"active_duration_seconds" json:"active_duration_seconds"`
	LearningVelocity      *float64  `db:"learning_velocity" json:"learning_velocity,omitempty"`
	FocusScore            *float64  `db:"focus_score" json:"focus_score,omitempty"`
	AttentionSpanMinutes  float64   `db:"attention_span_minutes" json:"attention_span_minutes"`
	BreakCount            int       `db:"break_count" json:"break_count"`
}

// PerformanceEntry records one graded outcome in the user's performance
// history.
type PerformanceEntry struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Score         float64   `db:"score" json:"score"`
	IsImprovement bool      `db:"is_improvement" json:"is_improvement"`
	CompletedAt   time.Time `db:"completed_at" json:"completed_at"`
}

// UserActivity is a generic instrumentation event.
type UserActivity struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	ClientID     string    `db:"client_id" json:"client_id"`
	ActivityType string    `db:"activity_type" json:"activity_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserRef identifies one user eligible for aggregation.
type UserRef struct {
	UserID   string `db:"user_id" json:"user_id"`
	ClientID string `db:"client_id" json:"client_id"`
}
