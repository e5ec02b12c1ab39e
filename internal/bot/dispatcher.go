package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/bot/filters"
	"cresceminha.bot/ranking-bot/internal/bot/middleware"
	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/features/donation"
	"cresceminha.bot/ranking-bot/internal/features/duel"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
	"cresceminha.bot/ranking-bot/internal/metrics"
)

// Command statuses reported to metrics.
const (
	statusOK       = "ok"
	statusDisabled = "disabled"
	statusPanic    = "panic"
)

// Dispatcher maps a message to a reply. It holds no state of its own.
type Dispatcher struct {
	filter    *filters.ChatFilter
	ranking   *ranking.Handler
	donations *donation.Handler // nil: /doar disabled
	duels     *duel.Handler     // nil: /duelar and /aceitar disabled
}

// NewDispatcher creates the dispatcher. Pass a nil donation or duel
// handler to switch the feature off; its commands are then ignored.
func NewDispatcher(filter *filters.ChatFilter, rankingHandler *ranking.Handler, donationHandler *donation.Handler, duelHandler *duel.Handler) *Dispatcher {
	return &Dispatcher{
		filter:    filter,
		ranking:   rankingHandler,
		donations: donationHandler,
		duels:     duelHandler,
	}
}

// Dispatch returns the reply for message and whether there is one.
// Non-group chats get the group-only notice; text that is not a known
// command gets no reply. A panicking handler is answered with a generic
// failure message.
func (d *Dispatcher) Dispatch(ctx context.Context, message *tgbotapi.Message) (reply string, ok bool) {
	switch d.filter.Check(message) {
	case filters.Drop:
		return "", false
	case filters.Refuse:
		return common.MsgGroupOnly, true
	}

	cmd, args, isCommand := ParseCommand(message.Text)
	if !isCommand {
		return "", false
	}

	log.WithFields(log.Fields{
		"cmd":     cmd,
		"args":    args,
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Debug("routing command")

	start := time.Now()
	status := statusOK
	defer func() {
		metrics.RecordCommand(cmd, status, time.Since(start))
	}()
	defer middleware.RecoverFromPanic(func(any) {
		metrics.RecordPanic()
		status = statusPanic
		reply, ok = common.MsgUnexpected, true
	})

	reply, ok = d.route(ctx, message, cmd, args)
	if !ok {
		status = statusDisabled
	}
	return reply, ok
}

func (d *Dispatcher) route(ctx context.Context, message *tgbotapi.Message, cmd string, args []string) (string, bool) {
	chatID := message.Chat.ID
	from := message.From

	switch cmd {
	case CmdPlay:
		return d.ranking.HandlePlay(ctx, ranking.PlayRequest{
			ChatID:      chatID,
			UserID:      from.ID,
			Username:    from.UserName,
			DisplayName: common.DisplayName(from.UserName, from.FirstName, from.LastName),
		}), true

	case CmdRanking:
		return d.ranking.HandleRanking(ctx, chatID), true

	case CmdStats:
		return d.ranking.HandleStats(ctx, chatID, from.ID), true

	case CmdStart, CmdHelp:
		return ranking.HelpText, true

	case CmdDonate:
		if d.donations == nil {
			return "", false
		}
		return d.donations.HandleDonate(ctx, chatID, from.ID, ExtractTarget(message, args), args), true

	case CmdDuel:
		if d.duels == nil {
			return "", false
		}
		return d.duels.HandleChallenge(ctx, chatID, from.ID, ExtractTarget(message, args)), true

	case CmdAccept:
		if d.duels == nil {
			return "", false
		}
		return d.duels.HandleAccept(ctx, chatID, from.ID), true
	}
	return "", false
}
