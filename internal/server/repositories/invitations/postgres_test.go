package invitations

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/invites"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `INSERT INTO invites \(id, token, inviter_id`
	latestQ = `FROM invites WHERE inviter_id = \$1 AND invitee_email = \$2 ORDER BY created_at DESC LIMIT 1`
	tokenQ  = `FROM invites WHERE token = \$1`
	listQ   = `FROM invites WHERE inviter_id = \$1 ORDER BY created_at DESC`
	updateQ = `UPDATE invites SET status = \$2, message = \$3, expires_at = \$4, accepted_at = \$5 WHERE id = \$1 AND status = \$6`
)

var (
	cols = []string{"id", "token", "inviter_id", "invitee_email", "message", "status", "created_at", "expires_at", "accepted_at"}
	t0   = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestInsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	inv, _, err := invites.Send(nil, "u-a", "new@example.com", "hi", t0, 0)
	require.NoError(t, err)

	mock.ExpectExec(insertQ).
		WithArgs(inv.ID, inv.Token, "u-a", "new@example.com", "hi", "sent", t0, t0.Add(invites.DefaultTTL), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	require.NoError(t, repo.Insert(context.Background(), inv))
	assert.ErrorIs(t, repo.Insert(context.Background(), inv), common.ErrAlreadyExists)
}

func TestLatest(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(latestQ).WithArgs("u-a", "new@example.com").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("i-1", "tok", "u-a", "new@example.com", "", "sent", t0, t0.Add(time.Hour), nil))
	mock.ExpectQuery(latestQ).WithArgs("u-a", "other@example.com").WillReturnError(sql.ErrNoRows)

	got, err := repo.Latest(context.Background(), "u-a", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "i-1", got.ID)
	assert.Equal(t, invites.StatusSent, got.Status)
	assert.Nil(t, got.AcceptedAt)

	_, err = repo.Latest(context.Background(), "u-a", "other@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByToken_Accepted(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	accepted := t0.Add(30 * time.Minute)

	mock.ExpectQuery(tokenQ).WithArgs("tok").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("i-1", "tok", "u-a", "new@example.com", "", "accepted", t0, t0.Add(time.Hour), accepted))

	got, err := repo.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, got.AcceptedAt)
	assert.Equal(t, accepted, *got.AcceptedAt)
}

func TestListByInviter(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(listQ).WithArgs("u-a").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("i-2", "t2", "u-a", "b@example.com", "", "expired", t0, t0, nil).
			AddRow("i-1", "t1", "u-a", "a@example.com", "yo", "sent", t0, t0.Add(time.Hour), nil))

	got, err := repo.ListByInviter(context.Background(), "u-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, invites.StatusExpired, got[0].Status)
	assert.Equal(t, "yo", got[1].Message)
}

func TestUpdate_Conditional(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	inv, _, err := invites.Send(nil, "u-a", "new@example.com", "", t0, time.Hour)
	require.NoError(t, err)
	at := t0.Add(time.Minute)
	require.NoError(t, inv.Accept(at))

	mock.ExpectExec(updateQ).
		WithArgs(inv.ID, "accepted", "", t0.Add(time.Hour), at, "sent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Update(context.Background(), inv, invites.StatusSent))
	assert.ErrorIs(t, repo.Update(context.Background(), inv, invites.StatusSent), common.ErrVersionConflict)
}
