package database

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSession_CommitsOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	sessions := NewSessionManager(mock)
	err = sessions.WithSession(context.Background(), func(ctx context.Context, db DBTX) error {
		_, err := db.Exec(ctx, "UPDATE users SET is_active = false")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSession_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	sessions := NewSessionManager(mock)
	err = sessions.WithSession(context.Background(), func(ctx context.Context, db DBTX) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSession_RollsBackAndRepanics(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	sessions := NewSessionManager(mock)
	assert.Panics(t, func() {
		_ = sessions.WithSession(context.Background(), func(ctx context.Context, db DBTX) error {
			panic("handler bug")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSession_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	called := false
	sessions := NewSessionManager(mock)
	err = sessions.WithSession(context.Background(), func(ctx context.Context, db DBTX) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "failed to begin session")
}

func TestWithSession_CommitFailureIsReported(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	sessions := NewSessionManager(mock)
	err = sessions.WithSession(context.Background(), func(ctx context.Context, db DBTX) error {
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit session")
}

func TestNopSessions_PassesThrough(t *testing.T) {
	var got DBTX = &fakeDBTX{}
	err := NopSessions{}.WithSession(context.Background(), func(ctx context.Context, db DBTX) error {
		got = db
		return nil
	})

	require.NoError(t, err)
	assert.Nil(t, got)
}

type fakeDBTX struct{ DBTX }
