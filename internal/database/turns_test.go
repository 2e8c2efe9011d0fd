package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/talent-coach/backend/internal/database"
)

func openSQLite(t *testing.T) *database.Queries {
	t.Helper()
	db, err := database.Open(context.Background(), database.DriverSQLite, filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)

	q := database.New(db)
	t.Cleanup(func() { _ = q.Close() })
	require.NoError(t, q.Migrate(context.Background()))
	return q
}

func TestInsertAndListTurns(t *testing.T) {
	q := openSQLite(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	for i, entry := range []string{"welcome", "RECRUITER: hi\nCOACH: hello"} {
		require.NoError(t, q.InsertTurn(ctx, database.InsertTurnParams{
			SessionID: "s-1",
			Position:  i + 1,
			Entry:     entry,
			CreatedAt: at,
		}))
	}
	require.NoError(t, q.InsertTurn(ctx, database.InsertTurnParams{SessionID: "s-2", Position: 1, Entry: "other", CreatedAt: at}))

	turns, err := q.ListTurnsBySession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "welcome", turns[0].Entry)
	assert.Equal(t, 2, turns[1].Position)
	assert.True(t, at.Equal(turns[1].CreatedAt))

	require.NoError(t, q.DeleteTurnsBySession(ctx, "s-1"))
	turns, err = q.ListTurnsBySession(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMigrateIsRepeatable(t *testing.T) {
	q := openSQLite(t)
	assert.NoError(t, q.Migrate(context.Background()))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}
