package main

import (
	"context"
	"flag"
	"os"

	"budgetplanner/backend/config"
	"budgetplanner/backend/database"
	"budgetplanner/backend/logger"
	"budgetplanner/backend/migrations"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	reset := flag.Bool("reset", false, "Drop all tables before migrating")
	seed := flag.Bool("seed", false, "Insert sample data into an empty ledger")
	flag.Parse()

	log := logger.New()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database.Driver, database.ResolveDSN(cfg.Database.Driver, cfg.Database.DSN))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if *reset {
		if err := migrations.Reset(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to reset database")
		}
	}
	if err := migrations.RunMigrations(ctx, db, log); err != nil {
		log.Error().Err(err).Msg("failed to run migrations")
		db.Close()
		os.Exit(1)
	}
	if *seed {
		if err := migrations.SeedTestData(ctx, db, log); err != nil {
			log.Fatal().Err(err).Msg("failed to seed sample data")
		}
	}

	log.Info().Msg("migrations completed successfully")
}
