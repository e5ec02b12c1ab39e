// Package duel implements /duelar and /aceitar: a player stakes points
// against another player of the same chat and a coin flip decides who
// pays. The payout and the status change commit together, so the sum of
// both scores is preserved and a completed duel always has its payout.
// models.go describes the duel record.
package duel

import (
	"time"

	"github.com/google/uuid"

	"cresceminha.bot/ranking-bot/internal/features/ranking"
)

// Status is the lifecycle state of a duel.
type Status string

const (
	StatusPending   Status = "pending"   // waiting for /aceitar
	StatusCompleted Status = "completed" // coin flipped, payout applied
	StatusExpired   Status = "expired"   // not accepted within the TTL
)

// Duel is one challenge between two players of a chat.
type Duel struct {
	ID           uuid.UUID  `db:"id"`
	ChatID       int64      `db:"chat_id"`
	ChallengerID int64      `db:"challenger_id"`
	DefenderID   int64      `db:"defender_id"`
	Stake        int64      `db:"stake"`
	Status       Status     `db:"status"`
	WinnerID     *int64     `db:"winner_id"`   // set once completed
	CreatedAt    time.Time  `db:"created_at"`
	ResolvedAt   *time.Time `db:"resolved_at"` // completed or expired
}

// Invitation is a freshly created duel with both player records.
type Invitation struct {
	Duel       *Duel
	Challenger *ranking.Player
	Defender   *ranking.Player
}

// Settlement is the payout applied together with a duel's completion.
type Settlement struct {
	Winner *ranking.Player
	Loser  *ranking.Player
	Paid   int64
}

// Result is an accepted duel.
type Result struct {
	Duel   *Duel
	Winner *ranking.Player
	Loser  *ranking.Player
	Paid   int64 // points moved from loser to winner, 0 when the loser had none
}
