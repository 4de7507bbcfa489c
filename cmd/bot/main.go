// Package main is the entry point for the Oxide Coins bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"oxide-coins-bot/internal/bot"
	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/game"
	"oxide-coins-bot/internal/game/binary"
	"oxide-coins-bot/internal/game/guess"
	"oxide-coins-bot/internal/game/minefield"
	"oxide-coins-bot/internal/game/wheel"
	"oxide-coins-bot/internal/pkg/db"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log.Info().Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}

	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	taskRepo := repository.NewTaskRepository(dbPool.Pool)
	orderRepo := repository.NewOrderRepository(dbPool.Pool)
	withdrawalRepo := repository.NewWithdrawalRepository(dbPool.Pool)
	promoRepo := repository.NewPromoRepository(dbPool.Pool)
	marketRepo := repository.NewMarketRepository(dbPool.Pool)
	profileRepo := repository.NewProfileRepository(dbPool.Pool)
	statsRepo := repository.NewStatsRepository(dbPool.Pool)

	// Two lock domains: per-user for settlements, per-order for
	// lifecycle transitions.
	userLock := lock.NewKeyedLock()
	orderLock := lock.NewKeyedLock()

	rng := game.NewRand()
	mercy := cfg.Games.MercyChance
	limits := game.Limits{Min: cfg.Games.MinStake, Max: cfg.Games.MaxStake}

	registry := game.NewRegistry()
	mineGame := minefield.New(rng, mercy, limits)
	for _, g := range []game.Game{
		guess.New(rng, mercy, limits),
		binary.New(binary.Hoop, rng, mercy, limits),
		binary.New(binary.Darts, rng, mercy, limits),
		wheel.New(wheel.DefaultTable, rng, mercy, limits),
		mineGame,
	} {
		if err := registry.Register(g); err != nil {
			log.Fatal().Err(err).Str("game", g.Command()).Msg("failed to register game")
		}
	}
	log.Info().Strs("games", registry.Commands()).Msg("games registered")

	accountService := service.NewAccountService(accountRepo, txRepo, userLock,
		cfg.Economy.DemoStart, cfg.Economy.DailyBonus)
	taskService := service.NewTaskService(taskRepo, userLock)
	orderService := service.NewOrderService(orderRepo, userLock, orderLock,
		cfg.Economy.Commission)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, userLock)
	promoService := service.NewPromoService(promoRepo, userLock)
	marketService := service.NewMarketService(marketRepo, userLock)
	profileService := service.NewProfileService(profileRepo, cfg.Profiles.TTL)
	gameService := service.NewGameService(accountRepo, registry, mineGame, userLock)

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:      cfg,
		Accounts:    accountService,
		Tasks:       taskService,
		Orders:      orderService,
		Games:       gameService,
		Market:      marketService,
		Withdrawals: withdrawalService,
		Promos:      promoService,
		Profiles:    profileService,
		Stats:       statsRepo,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go telegramBot.Start()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("bot stopped")
}
