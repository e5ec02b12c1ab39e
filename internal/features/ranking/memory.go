package ranking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cresceminha.bot/ranking-bot/internal/common"
)

type recordKey struct {
	chatID int64
	userID int64
}

// MemoryRepository keeps records in a map guarded by one mutex.
// Used by tests and by STORAGE_DRIVER=memory; data dies with the process.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[recordKey]*Player
	order   []recordKey // insertion order
	nextID  int64
	now     func() time.Time
}

// NewMemoryRepository creates an empty in-memory record store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[recordKey]*Player),
		now:     time.Now,
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Get(_ context.Context, chatID, userID int64) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.records[recordKey{chatID, userID}]
	if !ok {
		return nil, fmt.Errorf("player not found (chat_id=%d, user_id=%d): %w", chatID, userID, common.ErrNotFound)
	}
	return p.clone(), nil
}

func (r *MemoryRepository) Upsert(_ context.Context, p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(p.clone())
	stored := r.records[recordKey{p.ChatID, p.UserID}]
	p.ID, p.CreatedAt, p.UpdatedAt = stored.ID, stored.CreatedAt, stored.UpdatedAt
	return nil
}

// put stores p, assigning id/created_at on first insert. Caller holds mu.
func (r *MemoryRepository) put(p *Player) {
	key := recordKey{p.ChatID, p.UserID}
	now := r.now()
	if old, ok := r.records[key]; ok {
		p.ID, p.CreatedAt = old.ID, old.CreatedAt
	} else {
		r.nextID++
		p.ID, p.CreatedAt = r.nextID, now
		r.order = append(r.order, key)
	}
	p.UpdatedAt = now
	r.records[key] = p
}

func (r *MemoryRepository) ListByChat(_ context.Context, chatID int64) ([]*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Player
	for _, key := range r.order {
		if key.chatID == chatID {
			out = append(out, r.records[key].clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) Mutate(_ context.Context, chatID, userID int64, fn MutateFunc) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey{chatID, userID}
	var p *Player
	existing, exists := r.records[key]
	if exists {
		p = existing.clone()
	} else {
		p = &Player{ChatID: chatID, UserID: userID}
	}

	if err := fn(p, exists); err != nil {
		return nil, err
	}

	p.ChatID, p.UserID = chatID, userID
	r.put(p)
	return p.clone(), nil
}

func (r *MemoryRepository) Transfer(ctx context.Context, chatID, fromUserID, toUserID, amount int64) (*Player, *Player, error) {
	if fromUserID == toUserID {
		return nil, nil, common.ErrSelfTransfer
	}
	if amount <= 0 {
		return nil, nil, common.ErrInvalidAmount
	}
	from, to, _, err := r.TransferWith(ctx, chatID, fromUserID, toUserID, Exactly(amount))
	return from, to, err
}

// TransferWith is TransferTx under the store mutex.
func (r *MemoryRepository) TransferWith(_ context.Context, chatID, fromUserID, toUserID int64, amount AmountFunc) (*Player, *Player, int64, error) {
	if fromUserID == toUserID {
		return nil, nil, 0, common.ErrSelfTransfer
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	from, ok := r.records[recordKey{chatID, fromUserID}]
	if !ok {
		return nil, nil, 0, fmt.Errorf("sender (user_id=%d): %w", fromUserID, common.ErrNotFound)
	}
	to, ok := r.records[recordKey{chatID, toUserID}]
	if !ok {
		return nil, nil, 0, fmt.Errorf("recipient (user_id=%d): %w", toUserID, common.ErrNotFound)
	}

	moved, err := amount(from.Score)
	if err != nil {
		return nil, nil, 0, err
	}
	if moved > 0 {
		now := r.now()
		from.Score -= moved
		from.UpdatedAt = now
		to.Score += moved
		to.UpdatedAt = now
	}
	return from.clone(), to.clone(), moved, nil
}

func (r *MemoryRepository) FindByUsername(_ context.Context, chatID int64, username string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *Player
	for _, key := range r.order {
		p := r.records[key]
		if key.chatID != chatID || p.Username == "" || !strings.EqualFold(p.Username, username) {
			continue
		}
		if found == nil || p.UpdatedAt.After(found.UpdatedAt) {
			found = p
		}
	}
	if found == nil {
		return nil, fmt.Errorf("player not found (username=%s): %w", username, common.ErrNotFound)
	}
	return found.clone(), nil
}
