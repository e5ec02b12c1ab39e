package duel

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
)

const challengeUsage = "❌ Formato: /duelar @usuario"

// Handler renders /duelar and /aceitar.
type Handler struct {
	service *Service
}

// NewHandler creates the duel command handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleChallenge handles /duelar @usuario.
func (h *Handler) HandleChallenge(ctx context.Context, chatID, challengerID int64, target ranking.Target) string {
	if target.IsZero() {
		return challengeUsage
	}

	inv, err := h.service.Challenge(ctx, chatID, challengerID, target)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSelfDuel):
			return "❌ Você não pode duelar consigo mesmo."
		case errors.Is(err, common.ErrInsufficientScore):
			return fmt.Sprintf("❌ Você precisa de pelo menos %s para desafiar alguém.",
				common.FormatPoints(h.service.Stake()))
		case errors.Is(err, common.ErrMissingTarget):
			return challengeUsage
		case errors.Is(err, common.ErrDuelAlreadyPending):
			return "⏳ Esse usuário já tem um duelo pendente."
		case errors.Is(err, common.ErrCallerNotFound):
			return "ℹ️ Use /jogar para começar!"
		case errors.Is(err, common.ErrNotFound):
			return "❌ Usuário não encontrado neste grupo. Ele precisa usar /jogar primeiro."
		default:
			log.WithError(err).WithField("chat_id", chatID).Error("Duel challenge failed")
			return common.MsgStorageFailure
		}
	}

	return fmt.Sprintf("⚔️ %s desafiou %s para um duelo valendo %s!\n%s, use /aceitar para aceitar.",
		inv.Challenger.DisplayName, inv.Defender.DisplayName,
		common.FormatPoints(inv.Duel.Stake), inv.Defender.DisplayName)
}

// HandleAccept handles /aceitar.
func (h *Handler) HandleAccept(ctx context.Context, chatID, defenderID int64) string {
	res, err := h.service.Accept(ctx, chatID, defenderID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrDuelNotPending):
			return "ℹ️ Você não tem nenhum duelo pendente."
		case errors.Is(err, common.ErrInsufficientScore):
			return "❌ O duelo não pôde ser pago agora. Tente /aceitar novamente."
		default:
			log.WithError(err).WithField("chat_id", chatID).Error("Duel accept failed")
			return common.MsgStorageFailure
		}
	}

	challenger, defender := res.Loser, res.Winner
	if *res.Duel.WinnerID == res.Duel.ChallengerID {
		challenger, defender = res.Winner, res.Loser
	}
	header := fmt.Sprintf("⚔️ Duelo entre %s e %s!\n", challenger.DisplayName, defender.DisplayName)
	if res.Paid == 0 {
		return header + fmt.Sprintf("🏆 %s venceu, mas %s não tinha pontos para pagar.",
			res.Winner.DisplayName, res.Loser.DisplayName)
	}
	return header + fmt.Sprintf("🏆 %s venceu e levou %s de %s!\n📊 Saldo: %s %s | %s %s",
		res.Winner.DisplayName, common.FormatPoints(res.Paid), res.Loser.DisplayName,
		res.Winner.DisplayName, common.FormatPoints(res.Winner.Score),
		res.Loser.DisplayName, common.FormatPoints(res.Loser.Score))
}
