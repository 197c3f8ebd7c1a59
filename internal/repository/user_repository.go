package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/aigym/analytics-api/internal/models"
)

// UserRepository resolves the population of users eligible for aggregation.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ActiveUserIDs returns the distinct users with at least one activity event
// inside [start, end).
func (r *UserRepository) ActiveUserIDs(ctx context.Context, start, end time.Time) ([]string, error) {
	var ids []string
	query := "SELECT DISTINCT user_id FROM user_activities WHERE created_at >= $1 AND created_at < $2"
	if err := r.db.SelectContext(ctx, &ids, query, start, end); err != nil {
		return nil, fmt.Errorf("query active user ids: %w", err)
	}
	return ids, nil
}

// ListUsers resolves user references restricted to the given ids and optional
// client/user filters.
func (r *UserRepository) ListUsers(ctx context.Context, ids []string, clientID, userID string) ([]models.UserRef, error) {
	var builder strings.Builder
	builder.WriteString("SELECT id AS user_id, client_id FROM users WHERE id = ANY($1)")
	args := []interface{}{pq.Array(ids)}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" AND client_id = $%d", len(args)))
	}
	if userID != "" {
		args = append(args, userID)
		builder.WriteString(fmt.Sprintf(" AND id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY id")

	var users []models.UserRef
	if err := r.db.SelectContext(ctx, &users, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query users for analytics: %w", err)
	}
	return users, nil
}
