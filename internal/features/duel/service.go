// Package duel — service.go holds the duel rules.
package duel

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
	"cresceminha.bot/ranking-bot/internal/metrics"
)

// Coin decides a duel. Flip returns true when the challenger wins.
type Coin interface {
	Flip() bool
}

// CoinFunc adapts a function to Coin.
type CoinFunc func() bool

func (f CoinFunc) Flip() bool { return f() }

// fairCoin uses the global math/rand/v2 source, safe for concurrent use.
type fairCoin struct{}

func (fairCoin) Flip() bool { return rand.IntN(2) == 0 }

// Service runs duels between players of a chat.
type Service struct {
	duels   Repository
	players *ranking.Service
	stake   int64
	ttl     time.Duration
	coin    Coin
	now     func() time.Time
}

// NewService creates the duel service. stake is the number of points a
// duel is worth, ttl how long a challenge waits for /aceitar.
func NewService(duels Repository, players *ranking.Service, stake int64, ttl time.Duration) *Service {
	return &Service{
		duels:   duels,
		players: players,
		stake:   stake,
		ttl:     ttl,
		coin:    fairCoin{},
		now:     time.Now,
	}
}

// SetCoin replaces the coin.
func (s *Service) SetCoin(c Coin) { s.coin = c }

// SetClock replaces the clock.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Stake returns the points at stake in a new duel.
func (s *Service) Stake() int64 { return s.stake }

// Challenge creates a pending duel from challengerID against the target.
func (s *Service) Challenge(ctx context.Context, chatID, challengerID int64, target ranking.Target) (*Invitation, error) {
	challenger, err := s.players.Stats(ctx, chatID, challengerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrCallerNotFound
		}
		return nil, err
	}

	defender, err := s.players.Resolve(ctx, chatID, target)
	if err != nil {
		return nil, err
	}
	if defender.UserID == challengerID {
		return nil, common.ErrSelfDuel
	}
	if challenger.Score < s.stake {
		return nil, fmt.Errorf("need %d, have %d: %w", s.stake, challenger.Score, common.ErrInsufficientScore)
	}

	d := &Duel{
		ID:           uuid.New(),
		ChatID:       chatID,
		ChallengerID: challengerID,
		DefenderID:   defender.UserID,
		Stake:        s.stake,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}
	if err := s.duels.Create(ctx, d); err != nil {
		if errors.Is(err, common.ErrDuelAlreadyPending) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create duel: %w", common.ErrStorage, err)
	}

	log.WithFields(log.Fields{
		"chat_id":    chatID,
		"duel_id":    d.ID,
		"challenger": challengerID,
		"defender":   defender.UserID,
		"stake":      d.Stake,
	}).Info("Duel created")

	return &Invitation{Duel: d, Challenger: challenger, Defender: defender}, nil
}

// Accept resolves the defender's pending duel.
//
// Algorithm:
//  1. Load the newest pending duel; an expired one is closed and reported
//     as common.ErrNotFound
//  2. Flip the coin
//  3. Settle: mark the duel completed and move min(stake, loser score)
//     points in one step, so a concurrent /aceitar loses and a failed
//     payout leaves the duel pending
func (s *Service) Accept(ctx context.Context, chatID, defenderID int64) (*Result, error) {
	d, err := s.duels.LatestPending(ctx, chatID, defenderID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: load duel: %w", common.ErrStorage, err)
	}

	now := s.now()
	if now.Sub(d.CreatedAt) > s.ttl {
		if err := s.duels.Expire(ctx, d.ID, now); err != nil && !errors.Is(err, common.ErrDuelNotPending) {
			return nil, fmt.Errorf("%w: expire duel: %w", common.ErrStorage, err)
		}
		return nil, common.ErrNotFound
	}

	winnerID, loserID := d.DefenderID, d.ChallengerID
	if s.coin.Flip() {
		winnerID, loserID = d.ChallengerID, d.DefenderID
	}

	st, err := s.duels.Settle(ctx, d.ID, winnerID, loserID, now)
	if err != nil {
		if errors.Is(err, common.ErrDuelNotPending) || errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: settle duel: %w", common.ErrStorage, err)
	}

	d.Status = StatusCompleted
	d.WinnerID = &winnerID
	d.ResolvedAt = &now

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"duel_id": d.ID,
		"winner":  winnerID,
		"loser":   loserID,
		"paid":    st.Paid,
	}).Info("Duel completed")

	return &Result{Duel: d, Winner: st.Winner, Loser: st.Loser, Paid: st.Paid}, nil
}

// ExpireStale closes every pending duel older than the TTL.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.duels.ExpireBefore(ctx, now.Add(-s.ttl), now)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	if n > 0 {
		metrics.RecordDuelsExpired(n)
		log.WithField("count", n).Info("Stale duels expired")
	}
	return n, nil
}
