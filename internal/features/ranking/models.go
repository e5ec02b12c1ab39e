// Package ranking implements the daily play: eligibility, scoring,
// persistence of per-chat player records, the leaderboard and the
// personal panel.
// models.go describes the player record and the outcome of a play.
package ranking

import "time"

// Player is the statistics record of one user inside one chat.
// A user who plays in two groups has two independent records.
type Player struct {
	ID          int64      `db:"id"`           // DB row id, defines record order
	ChatID      int64      `db:"chat_id"`      // Telegram chat ID
	UserID      int64      `db:"user_id"`      // Telegram user ID
	Username    string     `db:"username"`     // @username without "@" (may be empty)
	DisplayName string     `db:"display_name"` // last seen handle
	Score       int64      `db:"score"`        // signed accumulator
	LastPlayAt  *time.Time `db:"last_play_at"` // nil = never played
	TotalPlays  int        `db:"total_plays"`  // accepted plays
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// clone returns a deep copy so callers never share LastPlayAt.
func (p *Player) clone() *Player {
	c := *p
	if p.LastPlayAt != nil {
		t := *p.LastPlayAt
		c.LastPlayAt = &t
	}
	return &c
}

// PlayRequest carries who issued /jogar and where.
type PlayRequest struct {
	ChatID      int64
	UserID      int64
	Username    string
	DisplayName string
}

// Target is the user a command points at: a text mention carries the
// user id, a plain "@name" argument only the username.
type Target struct {
	UserID   int64
	Username string
}

// IsZero reports whether no target was given.
func (t Target) IsZero() bool {
	return t.UserID == 0 && t.Username == ""
}

// Outcome is the result of a play attempt.
//
//   - Accepted: Delta was applied, Player is the stored record.
//   - Rejected: Reason says why (common.ErrAlreadyPlayedToday).
//
// Storage failures are not an Outcome, they come back as an error
// wrapping common.ErrStorage.
type Outcome struct {
	Accepted bool
	Reason   error
	Delta    int64
	Player   *Player
}
