// Package app wires every component of the bot together.
// app.go is the assembly point: storage, Telegram API, services,
// handlers, dispatcher and scheduler.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"cresceminha.bot/ranking-bot/internal/bot"
	"cresceminha.bot/ranking-bot/internal/bot/filters"
	"cresceminha.bot/ranking-bot/internal/common"
	"cresceminha.bot/ranking-bot/internal/config"
	"cresceminha.bot/ranking-bot/internal/db/postgres"
	"cresceminha.bot/ranking-bot/internal/features/donation"
	"cresceminha.bot/ranking-bot/internal/features/duel"
	"cresceminha.bot/ranking-bot/internal/features/ranking"
	"cresceminha.bot/ranking-bot/internal/jobs"
)

// App holds every long-lived component.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool // nil with the memory driver
	BotAPI    *tgbotapi.BotAPI
}

// Stores are the two repositories of the selected storage driver.
type Stores struct {
	Players ranking.Repository
	Duels   duel.Repository
}

// Components is everything built on top of the stores, without Telegram.
type Components struct {
	Dispatcher *bot.Dispatcher
	Scheduler  *jobs.Scheduler
}

// New creates and initializes the application.
// Order matters: storage, Telegram API, then the components.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Storage ===
	stores, pool, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Telegram Bot API ===
	// The client timeout must outlast the long poll.
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.BotUpdateTimeoutSeconds)*time.Second + cfg.BotRequestTimeout,
	}
	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramBotToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, fmt.Errorf("create Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Authorized as @%s", botAPI.Self.UserName)

	// === 3. Services, handlers, scheduler ===
	components, err := Build(cfg, stores)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	return &App{
		Bot:       bot.New(botAPI, cfg, components.Dispatcher),
		Scheduler: components.Scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// Build creates services, handlers, the dispatcher and the scheduler
// over the given stores.
func Build(cfg *config.Config, stores Stores) (*Components, error) {
	loc := common.LoadLocation(cfg.AppTimezone)

	scorer, err := ranking.NewScorer(ranking.Bounds{
		WinMin:         cfg.GameWinMin,
		WinMax:         cfg.GameWinMax,
		LossMin:        cfg.GameLossMin,
		LossMax:        cfg.GameLossMax,
		WinProbability: cfg.GameWinProbability,
	})
	if err != nil {
		return nil, fmt.Errorf("scoring bounds: %w", err)
	}

	rankingService := ranking.NewService(stores.Players, scorer, loc)
	rankingHandler := ranking.NewHandler(rankingService, cfg.RankingLimit)

	var donationHandler *donation.Handler
	if cfg.FeatureDonationsEnabled {
		donationHandler = donation.NewHandler(donation.NewService(rankingService, stores.Players))
	}

	var (
		duelHandler *duel.Handler
		expirer     jobs.DuelExpirer
	)
	if cfg.FeatureDuelsEnabled {
		duelService := duel.NewService(stores.Duels, rankingService, cfg.DuelStake, cfg.DuelTTL)
		duelHandler = duel.NewHandler(duelService)
		expirer = duelService
	}

	log.WithFields(log.Fields{
		"timezone":  loc.String(),
		"donations": cfg.FeatureDonationsEnabled,
		"duels":     cfg.FeatureDuelsEnabled,
	}).Info("Components ready")

	return &Components{
		Dispatcher: bot.NewDispatcher(filters.NewChatFilter(), rankingHandler, donationHandler, duelHandler),
		Scheduler:  jobs.NewScheduler(expirer, loc),
	}, nil
}

// openStores connects to the configured backend. The pool is nil for
// the memory driver.
func openStores(ctx context.Context, cfg *config.Config) (Stores, *pgxpool.Pool, error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("STORAGE_DRIVER=memory: records are lost on restart")
		return MemoryStores(), nil, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return Stores{}, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return Stores{}, nil, fmt.Errorf("run migrations: %w", err)
	}

	return Stores{
		Players: ranking.NewPostgresRepository(pool),
		Duels:   duel.NewPostgresRepository(pool),
	}, pool, nil
}

// MemoryStores returns empty in-memory stores.
func MemoryStores() Stores {
	players := ranking.NewMemoryRepository()
	return Stores{
		Players: players,
		Duels:   duel.NewMemoryRepository(players),
	}
}
