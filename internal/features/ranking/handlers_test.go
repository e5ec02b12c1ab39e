package ranking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cresceminha.bot/ranking-bot/internal/common"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestHandler_HandlePlay(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), queueRoller(t, 7, -3), brt)
	h := NewHandler(svc, 10)
	req := playReq(1, "joao")

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, brt)
	svc.SetClock(fixedClock(now))
	assert.Equal(t, "🎉 @joao! Ganhou +7 pontos!\n📊 Saldo: 7 pontos", h.HandlePlay(ctx, req))
	assert.Equal(t, "❌ @joao, você já jogou hoje! Volte amanhã.", h.HandlePlay(ctx, req))

	svc.SetClock(fixedClock(now.AddDate(0, 0, 1)))
	assert.Equal(t, "😞 @joao! Perdeu 3 pontos.\n📊 Saldo: 4 pontos", h.HandlePlay(ctx, req))
}

func TestHandler_HandleRanking(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	h := NewHandler(NewService(repo, nil, brt), 4)

	assert.Equal(t, "📊 Ranking vazio. Use /jogar para começar!", h.HandleRanking(ctx, testChat))

	seedPlayers(t, repo,
		&Player{ChatID: testChat, UserID: 1, DisplayName: "@a", Score: 1},
		&Player{ChatID: testChat, UserID: 2, DisplayName: "@b", Score: 9},
		&Player{ChatID: testChat, UserID: 3, DisplayName: "@c", Score: 4},
		&Player{ChatID: testChat, UserID: 4, DisplayName: "@d", Score: -2},
		&Player{ChatID: testChat, UserID: 5, DisplayName: "@e", Score: -7},
	)

	want := strings.Join([]string{
		"🏆 RANKING 🏆",
		"",
		"🥇 1º - @b: 9 pts",
		"🥈 2º - @c: 4 pts",
		"🥉 3º - @a: 1 pts",
		"🏅 4º - @d: -2 pts",
	}, "\n")
	assert.Equal(t, want, h.HandleRanking(ctx, testChat))
}

func TestHandler_HandleStats(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), queueRoller(t, 5), brt)
	h := NewHandler(svc, 10)

	assert.Equal(t, "ℹ️ Use /jogar para começar!", h.HandleStats(ctx, testChat, 1))

	now := time.Date(2024, 3, 1, 10, 7, 0, 0, brt)
	svc.SetClock(fixedClock(now))
	h.HandlePlay(ctx, playReq(1, "joao"))

	text := h.HandleStats(ctx, testChat, 1)
	assert.Contains(t, text, "👤 Painel de @joao")
	assert.Contains(t, text, "📊 Pontuação: 5 pontos")
	assert.Contains(t, text, "🎯 Total de jogadas: 1")
	assert.Contains(t, text, "🕒 Última jogada: 01/03/2024 10:07")
	assert.Contains(t, text, "❌ Já jogou hoje")

	svc.SetClock(fixedClock(now.AddDate(0, 0, 1)))
	assert.Contains(t, h.HandleStats(ctx, testChat, 1), "✅ Pode jogar hoje!")
}

func TestHandler_StorageFailureApologizes(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(NewService(failingRepository{err: errors.New("timeout")}, queueRoller(t), brt), 10)

	assert.Equal(t, common.MsgStorageFailure, h.HandlePlay(ctx, playReq(1, "a")))
	assert.Equal(t, common.MsgStorageFailure, h.HandleRanking(ctx, testChat))
	assert.Equal(t, common.MsgStorageFailure, h.HandleStats(ctx, testChat, 1))
}
