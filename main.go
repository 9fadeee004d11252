package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ClayCatalog/commands"
	"ClayCatalog/internal/config"
	"ClayCatalog/internal/game"
	"ClayCatalog/internal/logging"
	"ClayCatalog/internal/relocate"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML configuration file")
	addr := flag.String("addr", "", "TCP address to listen on (overrides the config file)")
	dataDir := flag.String("data", "", "Directory holding world records (overrides the config file)")
	accountsPath := flag.String("accounts", "", "Path to the player accounts database (overrides the config file)")
	adminAccount := flag.String("admin", "", "Account granted dungeonmaster privileges (overrides the config file)")
	flag.Parse()

	logger := logging.Configure(logging.ProfileRuntime)

	cfg := config.Default()
	if path := strings.TrimSpace(*configPath); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("failed to load config")
		}
		cfg = loaded
	}
	override := func(flagValue string, dst *string) {
		if v := strings.TrimSpace(flagValue); v != "" {
			*dst = v
		}
	}
	override(*addr, &cfg.Addr)
	override(*dataDir, &cfg.DataDir)
	override(*accountsPath, &cfg.Accounts)
	override(*adminAccount, &cfg.Admin)
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok && os.Getenv(logging.EnvLogLevel) == "" {
		logger = logger.Level(lvl)
	}

	store, err := game.NewStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to open store")
	}
	world, err := game.NewWorld(store,
		game.WithDefaultSegment(cfg.DefaultSegment),
		game.WithStartRoom(cfg.StartRoom),
		game.WithWorldLogger(logger),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load world")
	}
	accounts, err := game.NewAccountManager(cfg.Accounts)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Accounts).Msg("failed to load accounts")
	}

	loop := game.NewLoop(cfg.Tick)
	swaps := relocate.NewCoordinator(world, cfg.Relocation, relocate.WithLogger(logger))
	loop.OnTick(swaps.Poll)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("game loop stopped")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- game.ListenAndServe(cfg.Addr, world, accounts, loop, commands.NewDispatcher(swaps),
			game.WithServerLogger(logger),
			game.WithAdminAccount(cfg.Admin),
		)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}
}
