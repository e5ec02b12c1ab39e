// Package duel — repository.go stores duels in the duelos table.
package duel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// Repository persists duels.
type Repository interface {
	// Create inserts a pending duel. common.ErrDuelAlreadyPending when the
	// defender already has one in the chat.
	Create(ctx context.Context, d *Duel) error
	// LatestPending returns the defender's newest pending duel or common.ErrNotFound.
	LatestPending(ctx context.Context, chatID, defenderID int64) (*Duel, error)
	// Settle completes a pending duel and pays the winner up to the stake
	// from the loser's score, all or nothing. common.ErrDuelNotPending when
	// the duel was resolved or expired first.
	Settle(ctx context.Context, id uuid.UUID, winnerID, loserID int64, at time.Time) (*Settlement, error)
	// Expire moves one pending duel to expired.
	Expire(ctx context.Context, id uuid.UUID, at time.Time) error
	// ExpireBefore expires every pending duel created before cutoff.
	ExpireBefore(ctx context.Context, cutoff, at time.Time) (int64, error)
}

const duelColumns = `id, chat_id, challenger_id, defender_id, stake, status,
	winner_id, created_at, resolved_at`

// PostgresRepository stores duels in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates the PostgreSQL duel store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

func (r *PostgresRepository) Create(ctx context.Context, d *Duel) error {
	query := `
		INSERT INTO duelos (id, chat_id, challenger_id, defender_id, stake, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		d.ID, d.ChatID, d.ChallengerID, d.DefenderID, d.Stake, string(d.Status), d.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("defender %d in chat %d: %w", d.DefenderID, d.ChatID, common.ErrDuelAlreadyPending)
		}
		return fmt.Errorf("create duel: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LatestPending(ctx context.Context, chatID, defenderID int64) (*Duel, error) {
	query := `
		SELECT ` + duelColumns + ` FROM duelos
		WHERE chat_id = $1 AND defender_id = $2 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		d      Duel
		status string
	)
	err := r.db.QueryRow(ctx, query, chatID, defenderID).Scan(
		&d.ID, &d.ChatID, &d.ChallengerID, &d.DefenderID, &d.Stake, &status,
		&d.WinnerID, &d.CreatedAt, &d.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no pending duel (chat_id=%d, defender_id=%d): %w", chatID, defenderID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("read pending duel: %w", err)
	}
	d.Status = Status(status)
	return &d, nil
}

// Settle locks the duel row, then both player rows through
// ranking.TransferTx, and commits the payout with the status change.
func (r *PostgresRepository) Settle(ctx context.Context, id uuid.UUID, winnerID, loserID int64, at time.Time) (*Settlement, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		chatID, stake int64
		status        string
	)
	err = tx.QueryRow(ctx,
		`SELECT chat_id, stake, status FROM duelos WHERE id = $1 FOR UPDATE`, id,
	).Scan(&chatID, &stake, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("duel %s: %w", id, common.ErrDuelNotPending)
		}
		return nil, fmt.Errorf("lock duel %s: %w", id, err)
	}
	if Status(status) != StatusPending {
		return nil, fmt.Errorf("duel %s is %s: %w", id, status, common.ErrDuelNotPending)
	}

	loser, winner, paid, err := ranking.TransferTx(ctx, tx, chatID, loserID, winnerID, ranking.UpTo(stake))
	if err != nil {
		return nil, fmt.Errorf("duel payout: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE duelos SET status = 'completed', winner_id = $2, resolved_at = $3
		WHERE id = $1
	`, id, winnerID, at)
	if err != nil {
		return nil, fmt.Errorf("complete duel %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit duel %s: %w", id, err)
	}
	return &Settlement{Winner: winner, Loser: loser, Paid: paid}, nil
}

func (r *PostgresRepository) Expire(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE duelos SET status = 'expired', resolved_at = $2
		WHERE id = $1 AND status = 'pending'
	`, id, at)
	if err != nil {
		return fmt.Errorf("expire duel %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("duel %s: %w", id, common.ErrDuelNotPending)
	}
	return nil
}

func (r *PostgresRepository) ExpireBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE duelos SET status = 'expired', resolved_at = $2
		WHERE status = 'pending' AND created_at < $1
	`, cutoff, at)
	if err != nil {
		return 0, fmt.Errorf("expire stale duels: %w", err)
	}
	return tag.RowsAffected(), nil
}
