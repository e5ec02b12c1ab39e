package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"

	"cresceminha.bot/ranking-bot/internal/common"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func textTo(chatID int64, text string) any {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == chatID && msg.Text == text && msg.ParseMode == ""
	})
}

func newTestBot(t *testing.T, sender Sender) *Bot {
	t.Helper()
	return &Bot{
		sender:        sender,
		dispatcher:    newTestEnv(t, nil, true).dispatcher,
		handleTimeout: time.Second,
		inflight:      make(chan struct{}, 1),
	}
}

func TestBot_HandleUpdateSendsReply(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", textTo(groupChat, "📊 Ranking vazio. Use /jogar para começar!")).
		Return(tgbotapi.Message{}, nil).Once()

	b := newTestBot(t, sender)
	b.handleUpdate(context.Background(), tgbotapi.Update{Message: groupMessage(1, "joao", "/ranking")})

	sender.AssertExpectations(t)
}

func TestBot_HandleUpdateRefusesPrivateChats(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", textTo(7, common.MsgGroupOnly)).Return(tgbotapi.Message{}, nil).Once()

	b := newTestBot(t, sender)
	b.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "/jogar",
		Chat: &tgbotapi.Chat{ID: 7, Type: "private"},
		From: &tgbotapi.User{ID: 7},
	}})

	sender.AssertExpectations(t)
}

func TestBot_HandleUpdateRefusesChannelPosts(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", textTo(-200, common.MsgGroupOnly)).Return(tgbotapi.Message{}, nil).Once()

	b := newTestBot(t, sender)
	b.handleUpdate(context.Background(), tgbotapi.Update{ChannelPost: &tgbotapi.Message{
		Text: "/ranking",
		Chat: &tgbotapi.Chat{ID: -200, Type: "channel"},
	}})

	sender.AssertExpectations(t)
}

func TestBot_HandleUpdateIgnoresPlainText(t *testing.T) {
	sender := new(mockSender)

	b := newTestBot(t, sender)
	b.handleUpdate(context.Background(), tgbotapi.Update{Message: groupMessage(1, "joao", "alguém aí?")})
	b.handleUpdate(context.Background(), tgbotapi.Update{})

	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestBot_HandleUpdateSurvivesSendFailure(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("telegram down")).Once()

	b := newTestBot(t, sender)
	b.handleUpdate(context.Background(), tgbotapi.Update{Message: groupMessage(1, "joao", "/ajuda")})

	sender.AssertExpectations(t)
}
