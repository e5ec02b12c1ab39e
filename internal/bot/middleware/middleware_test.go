package middleware

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "çã...", Truncate("çãõ", 2))
}

func TestRecoverFromPanic(t *testing.T) {
	var got any
	func() {
		defer RecoverFromPanic(func(r any) { got = r })
		panic("boom")
	}()
	assert.Equal(t, "boom", got)
}

func TestRecoverFromPanicWithoutPanic(t *testing.T) {
	called := false
	func() {
		defer RecoverFromPanic(func(any) { called = true })
	}()
	assert.False(t, called)
}

func TestLogMessageToleratesMissingFields(t *testing.T) {
	assert.NotPanics(t, func() {
		LogMessage(nil)
		LogMessage(&tgbotapi.Message{})
		LogMessage(&tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "oi"})
	})
}
