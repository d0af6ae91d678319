package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"fogcatalog/app"
	"fogcatalog/config"
	"fogcatalog/db"
	"fogcatalog/logger"
)

func main() {
	// Load .env file in development (ignores error if file doesn't exist).
	// In production, variables should be set directly.
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Overload(".env"); err != nil {
			log.Debug().Err(err).Msg(".env file not found, using system environment variables")
		}
	}

	cfg := config.FromEnv()

	if err := logger.Init(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}

	if err := app.Initialize(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer db.CloseDB()

	// Listen on 0.0.0.0 to accept connections from all interfaces
	addr := "0.0.0.0:" + cfg.HTTP.Port
	log.Info().Str("addr", addr).Str("base_url", cfg.HTTP.BaseURL).Msg("server starting")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
