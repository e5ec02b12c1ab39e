// Package ranking — repository.go defines the record store contract and
// its PostgreSQL implementation over the players table.
// Every write is a single transaction keyed by UNIQUE (user_id, chat_id).
package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cresceminha.bot/ranking-bot/internal/common"
)

// MutateFunc changes a record in place. exists is false when the record
// was synthesized (zero-valued) because the player never played in the chat.
// Returning an error aborts the mutation and nothing is persisted.
type MutateFunc func(p *Player, exists bool) error

// Repository is the record store the rest of the bot depends on.
type Repository interface {
	// Get returns common.ErrNotFound when the player has no record in the chat.
	Get(ctx context.Context, chatID, userID int64) (*Player, error)
	// Upsert writes the record as is, creating it when missing.
	Upsert(ctx context.Context, p *Player) error
	// ListByChat returns every record of the chat in record order.
	ListByChat(ctx context.Context, chatID int64) ([]*Player, error)
	// Mutate is an atomic read-modify-write of one record.
	Mutate(ctx context.Context, chatID, userID int64, fn MutateFunc) (*Player, error)
	// Transfer moves amount points between two records of the same chat.
	// Both sides are applied or neither.
	Transfer(ctx context.Context, chatID, fromUserID, toUserID, amount int64) (from, to *Player, err error)
	// FindByUsername looks a player up by @username, case-insensitive.
	FindByUsername(ctx context.Context, chatID int64, username string) (*Player, error)
}

const playerColumns = `id, chat_id, user_id, username, display_name, score,
	last_play_at, total_plays, created_at, updated_at`

// PostgresRepository stores players in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates the PostgreSQL record store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (*Player, error) {
	var p Player
	err := row.Scan(
		&p.ID, &p.ChatID, &p.UserID, &p.Username, &p.DisplayName, &p.Score,
		&p.LastPlayAt, &p.TotalPlays, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns an error wrapping common.ErrNotFound for a missing record.
func (r *PostgresRepository) Get(ctx context.Context, chatID, userID int64) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE chat_id = $1 AND user_id = $2`
	p, err := scanPlayer(r.db.QueryRow(ctx, query, chatID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("player not found (chat_id=%d, user_id=%d): %w", chatID, userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("read player (chat_id=%d, user_id=%d): %w", chatID, userID, err)
	}
	return p, nil
}

// Upsert inserts or overwrites the record in one statement.
func (r *PostgresRepository) Upsert(ctx context.Context, p *Player) error {
	query := `
		INSERT INTO players (chat_id, user_id, username, display_name, score, last_play_at, total_plays)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, chat_id) DO UPDATE
		SET username = EXCLUDED.username,
		    display_name = EXCLUDED.display_name,
		    score = EXCLUDED.score,
		    last_play_at = EXCLUDED.last_play_at,
		    total_plays = EXCLUDED.total_plays,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.ChatID, p.UserID, p.Username, p.DisplayName, p.Score, p.LastPlayAt, p.TotalPlays,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert player (chat_id=%d, user_id=%d): %w", p.ChatID, p.UserID, err)
	}
	return nil
}

// ListByChat returns the chat's records ordered by row id (insertion order).
func (r *PostgresRepository) ListByChat(ctx context.Context, chatID int64) ([]*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE chat_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list players (chat_id=%d): %w", chatID, err)
	}
	defer rows.Close()

	var out []*Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read player rows: %w", err)
	}
	return out, nil
}

// Mutate locks the record (creating a zero-valued placeholder first, so two
// first plays serialize on the unique key), applies fn and writes the result.
// A rejected mutation rolls the placeholder back.
func (r *PostgresRepository) Mutate(ctx context.Context, chatID, userID int64, fn MutateFunc) (*Player, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var placeholderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO players (chat_id, user_id, display_name)
		VALUES ($1, $2, '')
		ON CONFLICT (user_id, chat_id) DO NOTHING
		RETURNING id
	`, chatID, userID).Scan(&placeholderID)
	exists := false
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		exists = true
	case err != nil:
		return nil, fmt.Errorf("create placeholder player: %w", err)
	}

	p, err := scanPlayer(tx.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE chat_id = $1 AND user_id = $2 FOR UPDATE`,
		chatID, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("lock player (chat_id=%d, user_id=%d): %w", chatID, userID, err)
	}

	if err := fn(p, exists); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE players
		SET username = $3, display_name = $4, score = $5, last_play_at = $6,
		    total_plays = $7, updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2
		RETURNING updated_at
	`, chatID, userID, p.Username, p.DisplayName, p.Score, p.LastPlayAt, p.TotalPlays).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update player (chat_id=%d, user_id=%d): %w", chatID, userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit player update: %w", err)
	}
	return p, nil
}

// AmountFunc decides how many points leave the sender, given the sender's
// locked score. Returning 0 moves nothing.
type AmountFunc func(fromScore int64) (int64, error)

// Exactly moves amount points or fails with common.ErrInsufficientScore.
func Exactly(amount int64) AmountFunc {
	return func(fromScore int64) (int64, error) {
		if fromScore < amount {
			return 0, fmt.Errorf("need %d, have %d: %w", amount, fromScore, common.ErrInsufficientScore)
		}
		return amount, nil
	}
}

// UpTo moves at most limit points, never taking the sender below zero.
func UpTo(limit int64) AmountFunc {
	return func(fromScore int64) (int64, error) {
		return min(limit, max(fromScore, 0)), nil
	}
}

// Transfer moves exactly amount points inside its own transaction.
func (r *PostgresRepository) Transfer(ctx context.Context, chatID, fromUserID, toUserID, amount int64) (*Player, *Player, error) {
	if fromUserID == toUserID {
		return nil, nil, common.ErrSelfTransfer
	}
	if amount <= 0 {
		return nil, nil, common.ErrInvalidAmount
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	from, to, _, err := TransferTx(ctx, tx, chatID, fromUserID, toUserID, Exactly(amount))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transfer: %w", err)
	}
	return from, to, nil
}

// TransferTx locks both rows (ordered by user_id to avoid deadlocks),
// asks amount how much to move and applies it inside tx.
// The caller owns commit and rollback.
func TransferTx(ctx context.Context, tx pgx.Tx, chatID, fromUserID, toUserID int64, amount AmountFunc) (from, to *Player, moved int64, err error) {
	if fromUserID == toUserID {
		return nil, nil, 0, common.ErrSelfTransfer
	}

	rows, err := tx.Query(ctx,
		`SELECT `+playerColumns+` FROM players
		 WHERE chat_id = $1 AND user_id = ANY($2)
		 ORDER BY user_id
		 FOR UPDATE`,
		chatID, []int64{fromUserID, toUserID},
	)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("lock transfer players: %w", err)
	}

	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			rows.Close()
			return nil, nil, 0, fmt.Errorf("scan transfer player: %w", err)
		}
		switch p.UserID {
		case fromUserID:
			from = p
		case toUserID:
			to = p
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, 0, fmt.Errorf("read transfer players: %w", err)
	}

	if from == nil {
		return nil, nil, 0, fmt.Errorf("sender (user_id=%d): %w", fromUserID, common.ErrNotFound)
	}
	if to == nil {
		return nil, nil, 0, fmt.Errorf("recipient (user_id=%d): %w", toUserID, common.ErrNotFound)
	}

	moved, err = amount(from.Score)
	if err != nil {
		return nil, nil, 0, err
	}
	if moved <= 0 {
		return from, to, 0, nil
	}

	update := `
		UPDATE players SET score = score + $3, updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2
		RETURNING score, updated_at
	`
	if err := tx.QueryRow(ctx, update, chatID, fromUserID, -moved).Scan(&from.Score, &from.UpdatedAt); err != nil {
		return nil, nil, 0, fmt.Errorf("debit sender: %w", err)
	}
	if err := tx.QueryRow(ctx, update, chatID, toUserID, moved).Scan(&to.Score, &to.UpdatedAt); err != nil {
		return nil, nil, 0, fmt.Errorf("credit recipient: %w", err)
	}
	return from, to, moved, nil
}

// FindByUsername returns an error wrapping common.ErrNotFound when nobody matches.
func (r *PostgresRepository) FindByUsername(ctx context.Context, chatID int64, username string) (*Player, error) {
	query := `
		SELECT ` + playerColumns + ` FROM players
		WHERE chat_id = $1 AND LOWER(username) = LOWER($2)
		ORDER BY updated_at DESC
		LIMIT 1
	`
	p, err := scanPlayer(r.db.QueryRow(ctx, query, chatID, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("player not found (username=%s): %w", username, common.ErrNotFound)
		}
		return nil, fmt.Errorf("read player (username=%s): %w", username, err)
	}
	return p, nil
}
