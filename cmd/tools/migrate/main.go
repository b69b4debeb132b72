package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/db"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with the down command")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-steps N] up|down\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("cmd", "migrate").Logger()
	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	switch flag.Arg(0) {
	case "up":
		if err := db.Migrate(dbURL); err != nil {
			logger.Fatal().Err(err).Msg("migrate up")
		}
		logger.Info().Msg("migrations applied")
	case "down":
		if err := db.Rollback(dbURL, *steps); err != nil {
			logger.Fatal().Err(err).Int("steps", *steps).Msg("migrate down")
		}
		logger.Info().Int("steps", *steps).Msg("migrations rolled back")
	default:
		flag.Usage()
		os.Exit(2)
	}
}
