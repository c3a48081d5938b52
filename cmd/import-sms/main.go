// Command import-sms loads an exported SMS inbox (a JSON array of
// {address, body, timestamp}) and records the bank messages as expenses.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"

	"budgetplanner/backend/config"
	"budgetplanner/backend/database"
	"budgetplanner/backend/logger"
	"budgetplanner/backend/migrations"
	"budgetplanner/backend/models"
	"budgetplanner/backend/prefs"
	"budgetplanner/backend/security"
	"budgetplanner/backend/services"
	"budgetplanner/backend/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	file := flag.String("file", "", "JSON file with exported messages")
	flag.Parse()

	log := logger.New()
	if *file == "" {
		log.Fatal().Msg("-file is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log = logger.NewWithOptions(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read messages")
	}
	var msgs []models.SMSMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		log.Fatal().Err(err).Msg("messages must be a JSON array")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database.Driver, database.ResolveDSN(cfg.Database.Driver, cfg.Database.DSN))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := migrations.RunMigrations(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	cipher, err := security.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init cipher")
	}
	st := store.New(db, cipher, nil)

	client := &http.Client{Timeout: cfg.Rates.Timeout}
	rates := services.NewRateService(prefs.NewSQLStore(db), cfg.Ledger.ReferenceCurrency, nil, log,
		services.DefaultRateSources(cfg.Rates.AggregatorURL, cfg.Rates.CentralBankURL, client)...)
	rules := services.NewRuleService(st, cfg.Ledger.BenefactorParty, cfg.Ledger.BenefactorPattern, log)
	if _, err := rules.SeedDefaultRulesIfEmpty(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed rules")
	}

	res, err := services.NewSMSService(st, rates, rules, log).Import(ctx, msgs)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	log.Info().
		Int("received", res.Received).
		Int("parsed", res.Parsed).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("sms import finished")
}
