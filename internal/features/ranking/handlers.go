// Package ranking — handlers.go renders /jogar, /ranking, /meupainel and
// the help text. Handlers return the reply; the bot sends it.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/common"
)

// HelpText answers /start and /ajuda.
const HelpText = `🎮 BOT DE RANKING DIÁRIO 🎮

Comandos:
/jogar - Jogue uma vez por dia
/ranking - Ver ranking do grupo
/meupainel - Suas estatísticas
/doar @usuario quantia - Doe pontos para alguém
/duelar @usuario - Desafie alguém para um duelo
/aceitar - Aceite o duelo pendente

📝 Regras:
- Uma jogada por dia
- Ganhe ou perca pontos
- Compita com os amigos!`

var medals = []string{"🥇", "🥈", "🥉"}

// Handler turns ranking commands into reply texts.
type Handler struct {
	service *Service
	limit   int // leaderboard size
}

// NewHandler creates the ranking command handler.
func NewHandler(service *Service, limit int) *Handler {
	if limit <= 0 {
		limit = 10
	}
	return &Handler{service: service, limit: limit}
}

// HandlePlay handles /jogar.
//
// Reply format (win):
//
//	🎉 @joao! Ganhou +7 pontos!
//	📊 Saldo: 12 pontos
func (h *Handler) HandlePlay(ctx context.Context, req PlayRequest) string {
	outcome, err := h.service.Play(ctx, req, h.service.Now())
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id": req.ChatID,
			"user_id": req.UserID,
		}).Error("Play failed")
		return common.MsgStorageFailure
	}

	if !outcome.Accepted {
		return fmt.Sprintf("❌ %s, você já jogou hoje! Volte amanhã.", req.DisplayName)
	}

	var text string
	if outcome.Delta > 0 {
		text = fmt.Sprintf("🎉 %s! Ganhou %s!", req.DisplayName, common.FormatSignedPoints(outcome.Delta))
	} else {
		text = fmt.Sprintf("😞 %s! Perdeu %s.", req.DisplayName, common.FormatPoints(-outcome.Delta))
	}
	return text + fmt.Sprintf("\n📊 Saldo: %s", common.FormatPoints(outcome.Player.Score))
}

// HandleRanking handles /ranking: top players of this chat.
func (h *Handler) HandleRanking(ctx context.Context, chatID int64) string {
	players, err := h.service.Top(ctx, chatID, h.limit)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ranking failed")
		return common.MsgStorageFailure
	}
	if len(players) == 0 {
		return "📊 Ranking vazio. Use /jogar para começar!"
	}

	var sb strings.Builder
	sb.WriteString("🏆 RANKING 🏆\n\n")
	for i, p := range players {
		medal := "🏅"
		if i < len(medals) {
			medal = medals[i]
		}
		fmt.Fprintf(&sb, "%s %dº - %s: %s pts\n", medal, i+1, p.DisplayName, common.FormatNumber(p.Score))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// HandleStats handles /meupainel.
//
// Reply format:
//
//	👤 Painel de @joao
//
//	📊 Pontuação: 12 pontos
//	🎯 Total de jogadas: 3
//	🕒 Última jogada: 01/03/2024 10:07
//	📅 Status: ✅ Pode jogar hoje!
func (h *Handler) HandleStats(ctx context.Context, chatID, userID int64) string {
	p, err := h.service.Stats(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "ℹ️ Use /jogar para começar!"
		}
		log.WithError(err).WithFields(log.Fields{
			"chat_id": chatID,
			"user_id": userID,
		}).Error("Stats failed")
		return common.MsgStorageFailure
	}

	lastPlay := "Nunca"
	if p.LastPlayAt != nil {
		lastPlay = common.FormatDateTime(*p.LastPlayAt, h.service.Location())
	}
	status := "❌ Já jogou hoje"
	if h.service.CanPlay(p.LastPlayAt, h.service.Now()) {
		status = "✅ Pode jogar hoje!"
	}

	return fmt.Sprintf(
		"👤 Painel de %s\n\n"+
			"📊 Pontuação: %s\n"+
			"🎯 Total de jogadas: %d\n"+
			"🕒 Última jogada: %s\n"+
			"📅 Status: %s",
		p.DisplayName, common.FormatPoints(p.Score), p.TotalPlays, lastPlay, status,
	)
}
