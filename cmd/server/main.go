package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/agenthands/roster/internal/config"
	"github.com/agenthands/roster/internal/core"
	"github.com/agenthands/roster/internal/logging"
	"github.com/agenthands/roster/internal/server"
	"github.com/agenthands/roster/internal/store"
)

func main() {
	envErr := godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.toml"
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		logging.Default().Fatal().Err(err).Msg("Failed to load config")
	}
	cfg.ApplyEnv()
	logging.Configure(cfg.Log.Level, cfg.Log.Format)
	log := logging.Default()

	if envErr != nil {
		log.Debug().Msg("No .env file found, using defaults")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	ctx := context.Background()
	s, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open store")
	}
	defer s.Close(ctx)

	opts, err := core.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid matching options")
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid request timeout")
	}

	srv := server.NewServer(core.NewEngine(s, opts), timeout)
	r := srv.SetupRouter()

	log.Info().
		Str("port", cfg.Server.Port).
		Str("backend", cfg.Store.Backend).
		Str("blocking", string(opts.Generation.Blocking)).
		Msg("Starting server")
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
