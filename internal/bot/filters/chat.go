// Package filters decides which incoming messages the bot answers.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Decision is the verdict of ChatFilter.Check.
type Decision int

const (
	// Drop: nothing to answer (service message, no sender).
	Drop Decision = iota
	// Refuse: private chat or channel, answer with the group-only notice.
	Refuse
	// Allow: group or supergroup message from a user.
	Allow
)

// ChatFilter lets through group and supergroup messages only.
type ChatFilter struct{}

// NewChatFilter creates the group-only filter.
func NewChatFilter() *ChatFilter {
	return &ChatFilter{}
}

// Check classifies a message.
func (f *ChatFilter) Check(message *tgbotapi.Message) Decision {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return Drop
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	})

	if !message.Chat.IsGroup() && !message.Chat.IsSuperGroup() {
		logger.Debug("refuse: not a group")
		return Refuse
	}
	if message.From == nil {
		logger.Debug("drop: message without sender")
		return Drop
	}
	return Allow
}
