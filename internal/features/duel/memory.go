package duel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
)

// Payer moves points between two records under the record store's lock.
// *ranking.MemoryRepository implements it.
type Payer interface {
	TransferWith(ctx context.Context, chatID, fromUserID, toUserID int64, amount ranking.AmountFunc) (from, to *ranking.Player, moved int64, err error)
}

// MemoryRepository keeps duels in a map. Used with STORAGE_DRIVER=memory.
type MemoryRepository struct {
	mu    sync.Mutex
	duels map[uuid.UUID]*Duel
	payer Payer
}

// NewMemoryRepository creates an empty in-memory duel store paying out
// through payer.
func NewMemoryRepository(payer Payer) *MemoryRepository {
	return &MemoryRepository{duels: make(map[uuid.UUID]*Duel), payer: payer}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Create(_ context.Context, d *Duel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.duels {
		if other.Status == StatusPending && other.ChatID == d.ChatID && other.DefenderID == d.DefenderID {
			return fmt.Errorf("defender %d in chat %d: %w", d.DefenderID, d.ChatID, common.ErrDuelAlreadyPending)
		}
	}
	c := *d
	r.duels[d.ID] = &c
	return nil
}

func (r *MemoryRepository) LatestPending(_ context.Context, chatID, defenderID int64) (*Duel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *Duel
	for _, d := range r.duels {
		if d.Status != StatusPending || d.ChatID != chatID || d.DefenderID != defenderID {
			continue
		}
		if latest == nil || d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no pending duel (chat_id=%d, defender_id=%d): %w", chatID, defenderID, common.ErrNotFound)
	}
	c := *latest
	return &c, nil
}

// Settle holds the duel mutex across the payout, so the duel flips to
// completed only after the points moved.
func (r *MemoryRepository) Settle(ctx context.Context, id uuid.UUID, winnerID, loserID int64, at time.Time) (*Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.duels[id]
	if !ok || d.Status != StatusPending {
		return nil, fmt.Errorf("duel %s: %w", id, common.ErrDuelNotPending)
	}

	loser, winner, paid, err := r.payer.TransferWith(ctx, d.ChatID, loserID, winnerID, ranking.UpTo(d.Stake))
	if err != nil {
		return nil, fmt.Errorf("duel payout: %w", err)
	}

	d.Status = StatusCompleted
	d.WinnerID = &winnerID
	d.ResolvedAt = &at
	return &Settlement{Winner: winner, Loser: loser, Paid: paid}, nil
}

func (r *MemoryRepository) Expire(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.duels[id]
	if !ok || d.Status != StatusPending {
		return fmt.Errorf("duel %s: %w", id, common.ErrDuelNotPending)
	}
	d.Status = StatusExpired
	d.ResolvedAt = &at
	return nil
}

func (r *MemoryRepository) ExpireBefore(_ context.Context, cutoff, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, d := range r.duels {
		if d.Status == StatusPending && d.CreatedAt.Before(cutoff) {
			d.Status = StatusExpired
			resolved := at
			d.ResolvedAt = &resolved
			n++
		}
	}
	return n, nil
}

