// Package ranking — service.go holds the business logic: the daily play,
// the leaderboard and the personal panel.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/metrics"
)

// Service runs the ranking game on top of a Repository.
type Service struct {
	repo   Repository
	roller Roller
	loc    *time.Location // zone whose calendar date is "today"
	now    func() time.Time
}

// NewService creates the ranking service.
func NewService(repo Repository, roller Roller, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:   repo,
		roller: roller,
		loc:    loc,
		now:    time.Now,
	}
}

// SetClock replaces the clock used by Now.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the current time of the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Location returns the zone of the daily window.
func (s *Service) Location() *time.Location {
	return s.loc
}

// CanPlay reports whether a play at now is inside a new eligibility window:
// never played, or last play on a strictly earlier local date.
func (s *Service) CanPlay(lastPlayAt *time.Time, now time.Time) bool {
	if lastPlayAt == nil {
		return true
	}
	return common.IsEarlierDate(*lastPlayAt, now, s.loc)
}

// Play applies the daily play for the requesting user.
//
// Algorithm:
//  1. Lock the record (zero-valued if the user never played in the chat)
//  2. Reject with common.ErrAlreadyPlayedToday inside the same local date
//  3. Draw the delta, update score/last_play_at/total_plays/names
//  4. Persist atomically
//
// A storage failure returns an error wrapping common.ErrStorage.
func (s *Service) Play(ctx context.Context, req PlayRequest, now time.Time) (*Outcome, error) {
	var delta int64
	player, err := s.repo.Mutate(ctx, req.ChatID, req.UserID, func(p *Player, _ bool) error {
		if !s.CanPlay(p.LastPlayAt, now) {
			return common.ErrAlreadyPlayedToday
		}

		delta = s.roller.Roll()
		playedAt := now
		p.Score += delta
		p.LastPlayAt = &playedAt
		p.TotalPlays++
		p.Username = req.Username
		p.DisplayName = req.DisplayName
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyPlayedToday) {
			metrics.RecordPlay(metrics.PlayRejected)
			return &Outcome{Accepted: false, Reason: common.ErrAlreadyPlayedToday}, nil
		}
		metrics.RecordPlay(metrics.PlayFailed)
		return nil, fmt.Errorf("%w: play: %w", common.ErrStorage, err)
	}

	if delta > 0 {
		metrics.RecordPlay(metrics.PlayWon)
	} else {
		metrics.RecordPlay(metrics.PlayLost)
	}

	log.WithFields(log.Fields{
		"chat_id":     req.ChatID,
		"user_id":     req.UserID,
		"delta":       delta,
		"score":       player.Score,
		"total_plays": player.TotalPlays,
	}).Info("Play accepted")

	return &Outcome{Accepted: true, Delta: delta, Player: player}, nil
}

// Top returns up to limit records of the chat by score, highest first.
// Ties keep record order (stable, otherwise arbitrary).
func (s *Service) Top(ctx context.Context, chatID int64, limit int) ([]*Player, error) {
	players, err := s.repo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: ranking: %w", common.ErrStorage, err)
	}

	slices.SortStableFunc(players, func(a, b *Player) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

// Resolve finds the record a Target points at inside the chat.
// Unknown users give common.ErrNotFound, an empty target common.ErrMissingTarget.
func (s *Service) Resolve(ctx context.Context, chatID int64, target Target) (*Player, error) {
	var (
		p   *Player
		err error
	)
	switch {
	case target.UserID != 0:
		p, err = s.repo.Get(ctx, chatID, target.UserID)
	case target.Username != "":
		p, err = s.repo.FindByUsername(ctx, chatID, target.Username)
	default:
		return nil, common.ErrMissingTarget
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: resolve target: %w", common.ErrStorage, err)
	}
	return p, nil
}

// Stats returns the player's record or common.ErrNotFound if they never played.
func (s *Service) Stats(ctx context.Context, chatID, userID int64) (*Player, error) {
	p, err := s.repo.Get(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: stats: %w", common.ErrStorage, err)
	}
	return p, nil
}
