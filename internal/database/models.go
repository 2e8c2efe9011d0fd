package database

import "time"

type CoachingTurn struct {
	ID        int64     `db:"id"`
	SessionID string    `db:"session_id"`
	Position  int       `db:"position"`
	Entry     string    `db:"entry"`
	CreatedAt time.Time `db:"created_at"`
}
