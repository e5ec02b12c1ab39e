// Package bot runs the Telegram side: long polling, bounded concurrent
// handling of updates and sending the replies the dispatcher produces.
package bot

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/bot/middleware"
	"cresceminha.bot/ranking-bot/internal/config"
)

// Sender is the part of the Telegram API the bot uses to reply.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot ties the update stream to the dispatcher.
type Bot struct {
	api        *tgbotapi.BotAPI
	sender     Sender
	dispatcher *Dispatcher

	updateTimeout int           // long-poll timeout, seconds
	handleTimeout time.Duration // per update

	// limits concurrent update handling
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New creates the bot.
func New(api *tgbotapi.BotAPI, cfg *config.Config, dispatcher *Dispatcher) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}

	return &Bot{
		api:           api,
		sender:        api,
		dispatcher:    dispatcher,
		updateTimeout: cfg.BotUpdateTimeoutSeconds,
		handleTimeout: cfg.BotHandleTimeout,
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start polls updates until ctx is cancelled, then waits for the
// updates in flight.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.updateTimeout

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.updateTimeout,
		"bot":          b.api.Self.UserName,
	}).Info("Bot started, waiting for messages")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			log.Info("Bot stopping (ctx done)")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Updates channel closed, bot stopped")
				return
			}

			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate answers one update under the per-update timeout.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic(nil)

	message := update.Message
	if message == nil {
		message = update.ChannelPost
	}
	if message == nil || message.Chat == nil {
		return
	}

	middleware.LogMessage(message)

	if b.handleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.handleTimeout)
		defer cancel()
	}

	reply, ok := b.dispatcher.Dispatch(ctx, message)
	if !ok {
		return
	}
	b.sendMessage(message.Chat.ID, reply)
}

// sendMessage sends plain text; replies carry user names, so no parse mode.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}
