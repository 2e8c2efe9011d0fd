package database

import (
	"context"
	"time"
)

const insertTurn = `-- name: InsertTurn :exec
INSERT INTO coaching_turns (session_id, position, entry, created_at)
VALUES (?, ?, ?, ?)
`

type InsertTurnParams struct {
	SessionID string
	Position  int
	Entry     string
	CreatedAt time.Time
}

func (q *Queries) InsertTurn(ctx context.Context, arg InsertTurnParams) error {
	_, err := q.db.ExecContext(ctx, q.db.Rebind(insertTurn),
		arg.SessionID,
		arg.Position,
		arg.Entry,
		arg.CreatedAt,
	)
	return err
}

const listTurnsBySession = `-- name: ListTurnsBySession :many
SELECT id, session_id, position, entry, created_at
FROM coaching_turns
WHERE session_id = ?
ORDER BY position, id
`

func (q *Queries) ListTurnsBySession(ctx context.Context, sessionID string) ([]CoachingTurn, error) {
	var items []CoachingTurn
	if err := q.db.SelectContext(ctx, &items, q.db.Rebind(listTurnsBySession), sessionID); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTurnsBySession = `-- name: DeleteTurnsBySession :exec
DELETE FROM coaching_turns
WHERE session_id = ?
`

func (q *Queries) DeleteTurnsBySession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, q.db.Rebind(deleteTurnsBySession), sessionID)
	return err
}
