// Package donation implements /doar: moving points from one player to
// another in the same chat. The store applies both sides atomically, so
// the sum of the two scores never changes.
package donation

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
)

// Result is a completed donation with both records after the transfer.
type Result struct {
	From   *ranking.Player
	To     *ranking.Player
	Amount int64
}

// Service handles donations.
type Service struct {
	players *ranking.Service   // target lookup
	repo    ranking.Repository // atomic transfer
}

// NewService creates the donation service.
func NewService(players *ranking.Service, repo ranking.Repository) *Service {
	return &Service{players: players, repo: repo}
}

// Donate moves amount points from fromUserID to the target.
// Checks performed:
//   - amount must be positive (common.ErrInvalidAmount)
//   - the donor must have a record (common.ErrCallerNotFound)
//   - the target must have a record in this chat (common.ErrNotFound)
//   - no donations to yourself (common.ErrSelfTransfer)
//   - amount must not exceed the donor's score (common.ErrInsufficientScore)
func (s *Service) Donate(ctx context.Context, chatID, fromUserID int64, target ranking.Target, amount int64) (*Result, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	if _, err := s.players.Stats(ctx, chatID, fromUserID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrCallerNotFound
		}
		return nil, err
	}

	to, err := s.players.Resolve(ctx, chatID, target)
	if err != nil {
		return nil, err
	}
	if to.UserID == fromUserID {
		return nil, common.ErrSelfTransfer
	}

	fromRec, toRec, err := s.repo.Transfer(ctx, chatID, fromUserID, to.UserID, amount)
	if err != nil {
		if errors.Is(err, common.ErrInvalidArgument) || errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: donate: %w", common.ErrStorage, err)
	}

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"from":    fromUserID,
		"to":      to.UserID,
		"amount":  amount,
	}).Info("Donation completed")

	return &Result{From: fromRec, To: toRec, Amount: amount}, nil
}
