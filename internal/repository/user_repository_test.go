package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryActiveUserIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	start := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"user_id"}).AddRow("u1").AddRow("u2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT user_id FROM user_activities WHERE created_at >= $1 AND created_at < $2")).
		WithArgs(start, end).
		WillReturnRows(rows)

	ids, err := repo.ActiveUserIDs(context.Background(), start, end)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListUsersFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"user_id", "client_id"}).AddRow("u1", "c1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1) AND client_id = $2 ORDER BY id")).
		WithArgs(pq.Array([]string{"u1", "u2"}), "c1").
		WillReturnRows(rows)

	users, err := repo.ListUsers(context.Background(), []string{"u1", "u2"}, "c1", "")
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "c1", users[0].ClientID)
	require.NoError(t, mock.ExpectationsWereMet())
}
