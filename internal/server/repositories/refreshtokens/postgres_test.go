package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issueQ   = `INSERT INTO refresh_tokens \(user_id, token, expires_at\) VALUES \(\$1, \$2, \$3\) RETURNING id, created_at`
	consumeQ = `DELETE FROM refresh_tokens WHERE token = \$1 RETURNING id, user_id, expires_at, created_at`
)

var issuedAt = time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestIssue(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()
	expires := time.Date(2026, 2, 21, 19, 30, 0, 0, time.FixedZone("CET", 3600))

	mock.ExpectQuery(issueQ).
		WithArgs("u-alice", "r-1", expires.UTC()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("rt-1", issuedAt))
	mock.ExpectQuery(issueQ).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(issueQ).WillReturnError(errors.New("connection reset"))

	tok := &models.RefreshToken{UserID: "u-alice", Token: "r-1", Expires: expires}
	require.NoError(t, repo.Issue(ctx, tok))
	assert.Equal(t, "rt-1", tok.ID)
	assert.Equal(t, issuedAt, tok.CreatedAt)
	assert.Equal(t, time.UTC, tok.Expires.Location())

	assert.ErrorIs(t, repo.Issue(ctx, &models.RefreshToken{UserID: "u-alice", Token: "r-1", Expires: expires}), common.ErrAlreadyExists)
	assert.ErrorContains(t, repo.Issue(ctx, &models.RefreshToken{UserID: "u-alice", Token: "r-2", Expires: expires}),
		"issue refresh token: connection reset")
}

func TestConsume(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()
	expires := issuedAt.Add(7 * 24 * time.Hour)

	mock.ExpectQuery(consumeQ).WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}).
			AddRow("rt-1", "u-alice", expires, issuedAt))
	mock.ExpectQuery(consumeQ).WithArgs("r-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(consumeQ).WithArgs("r-2").WillReturnError(errors.New("connection reset"))

	got, err := repo.Consume(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, &models.RefreshToken{ID: "rt-1", UserID: "u-alice", Token: "r-1", Expires: expires, CreatedAt: issuedAt}, got)

	_, err = repo.Consume(ctx, "r-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.Consume(ctx, "r-2")
	assert.ErrorContains(t, err, "consume refresh token: connection reset")
}
