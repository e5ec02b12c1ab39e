// Package donation — handlers.go handles /doar @usuario quantia.
package donation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
)

const usage = "❌ Formato: /doar @usuario quantia"

// Handler turns /doar into a reply text.
type Handler struct {
	service *Service
}

// NewHandler creates the donation command handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleDonate handles /doar. The amount is the last argument, so a text
// mention spanning several words ("/doar Ana Souza 4") still parses.
//
// Reply on success:
//
//	✅ @joao doou 4 pontos para @maria!
//	📊 Saldo de @joao: 6 pontos
func (h *Handler) HandleDonate(ctx context.Context, chatID, fromUserID int64, target ranking.Target, args []string) string {
	if len(args) < 2 || target.IsZero() {
		return usage
	}

	amount, err := strconv.ParseInt(args[len(args)-1], 10, 64)
	if err != nil {
		return "❌ A quantia deve ser um número inteiro positivo."
	}

	res, err := h.service.Donate(ctx, chatID, fromUserID, target, amount)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidAmount):
			return "❌ A quantia deve ser um número inteiro positivo."
		case errors.Is(err, common.ErrSelfTransfer):
			return "❌ Você não pode doar pontos para si mesmo."
		case errors.Is(err, common.ErrInsufficientScore):
			return "❌ Você não tem pontos suficientes para essa doação."
		case errors.Is(err, common.ErrMissingTarget):
			return usage
		case errors.Is(err, common.ErrCallerNotFound):
			return "ℹ️ Use /jogar para começar!"
		case errors.Is(err, common.ErrNotFound):
			return "❌ Usuário não encontrado neste grupo. Ele precisa usar /jogar primeiro."
		default:
			log.WithError(err).WithField("chat_id", chatID).Error("Donation failed")
			return common.MsgStorageFailure
		}
	}

	return fmt.Sprintf("✅ %s doou %s para %s!\n📊 Saldo de %s: %s",
		res.From.DisplayName, common.FormatPoints(res.Amount), res.To.DisplayName,
		res.From.DisplayName, common.FormatPoints(res.From.Score))
}
