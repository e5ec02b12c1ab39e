package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cresceminha.bot/ranking-bot/internal/features/ranking"
)

// Command names, without the leading slash.
const (
	CmdPlay    = "jogar"
	CmdRanking = "ranking"
	CmdStats   = "meupainel"
	CmdStart   = "start"
	CmdHelp    = "ajuda"
	CmdDonate  = "doar"
	CmdDuel    = "duelar"
	CmdAccept  = "aceitar"
)

// vocabulary is matched in order against the start of the message text.
var vocabulary = []string{
	CmdPlay, CmdRanking, CmdStats, CmdStart, CmdHelp, CmdDonate, CmdDuel, CmdAccept,
}

// ParseCommand matches the trimmed text against the vocabulary by
// case-sensitive prefix: "/jogar", "/jogar@SomeBot" and "/jogaragora" are
// all /jogar. Arguments are the whitespace separated words after the first.
func ParseCommand(text string) (cmd string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	for _, name := range vocabulary {
		if strings.HasPrefix(text, "/"+name) {
			cmd = name
			ok = true
			break
		}
	}
	if !ok {
		return "", nil, false
	}

	if parts := strings.Fields(text); len(parts) > 1 {
		args = parts[1:]
	}
	return cmd, args, true
}

// ExtractTarget finds the user a command points at. A text mention
// (user without @username) carries the id; otherwise the first "@name"
// argument is used.
func ExtractTarget(message *tgbotapi.Message, args []string) ranking.Target {
	if message != nil {
		for _, e := range message.Entities {
			if e.Type == "text_mention" && e.User != nil {
				return ranking.Target{UserID: e.User.ID}
			}
		}
	}
	for _, a := range args {
		if name, ok := strings.CutPrefix(a, "@"); ok && name != "" {
			return ranking.Target{Username: name}
		}
	}
	return ranking.Target{}
}
