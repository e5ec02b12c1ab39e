package donation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
)

func TestHandler_HandleDonate(t *testing.T) {
	testCases := []struct {
		name   string
		from   int64
		target ranking.Target
		args   []string
		want   string
	}{
		{
			name:   "success",
			from:   1,
			target: ranking.Target{Username: "y"},
			args:   []string{"@y", "4"},
			want:   "✅ @x doou 4 pontos para @y!\n📊 Saldo de @x: 6 pontos",
		},
		{
			name:   "one point",
			from:   1,
			target: ranking.Target{UserID: 2},
			args:   []string{"Y", "Silva", "1"},
			want:   "✅ @x doou 1 ponto para @y!\n📊 Saldo de @x: 9 pontos",
		},
		{name: "no args", from: 1, args: nil, want: usage},
		{name: "missing amount", from: 1, target: ranking.Target{Username: "y"}, args: []string{"@y"}, want: usage},
		{name: "not a number", from: 1, target: ranking.Target{Username: "y"}, args: []string{"@y", "abc"}, want: "❌ A quantia deve ser um número inteiro positivo."},
		{name: "negative", from: 1, target: ranking.Target{Username: "y"}, args: []string{"@y", "-2"}, want: "❌ A quantia deve ser um número inteiro positivo."},
		{name: "self", from: 1, target: ranking.Target{Username: "x"}, args: []string{"@x", "2"}, want: "❌ Você não pode doar pontos para si mesmo."},
		{name: "too much", from: 1, target: ranking.Target{Username: "y"}, args: []string{"@y", "11"}, want: "❌ Você não tem pontos suficientes para essa doação."},
		{name: "unknown", from: 1, target: ranking.Target{Username: "ghost"}, args: []string{"@ghost", "1"}, want: "❌ Usuário não encontrado neste grupo. Ele precisa usar /jogar primeiro."},
		{name: "caller unknown", from: 9, target: ranking.Target{Username: "y"}, args: []string{"@y", "1"}, want: "ℹ️ Use /jogar para começar!"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := setup(t, xy()...)
			h := NewHandler(svc)

			got := h.HandleDonate(context.Background(), testChat, tc.from, tc.target, tc.args)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHandler_HandleDonateStorageFailure(t *testing.T) {
	repo := ranking.NewMemoryRepository()
	for _, p := range xy() {
		_ = repo.Upsert(context.Background(), p)
	}
	broken := brokenTransfer{repo}
	h := NewHandler(NewService(ranking.NewService(broken, ranking.RollerFunc(func() int64 { return 1 }), nil), broken))

	got := h.HandleDonate(context.Background(), testChat, 1, ranking.Target{UserID: 2}, []string{"y", "1"})
	assert.Equal(t, common.MsgStorageFailure, got)
}
