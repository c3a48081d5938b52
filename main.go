package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"budgetplanner/backend/api"
	"budgetplanner/backend/archive"
	"budgetplanner/backend/config"
	"budgetplanner/backend/database"
	"budgetplanner/backend/events"
	"budgetplanner/backend/logger"
	"budgetplanner/backend/middleware"
	"budgetplanner/backend/migrations"
	"budgetplanner/backend/ocr"
	"budgetplanner/backend/prefs"
	"budgetplanner/backend/security"
	"budgetplanner/backend/services"
	"budgetplanner/backend/store"

	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default ./config.yaml)")
	noExit := flag.Bool("no-exit", false, "Don't exit after database reset")
	resetDB := flag.Bool("reset-db", false, "Drop and recreate the database schema")
	seed := flag.Bool("seed", false, "Insert sample data into an empty ledger")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithOptions(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *resetDB || os.Getenv("RESET_DB") == "true", *seed, *noExit); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, resetDB, seed, noExit bool) error {
	dsn := database.ResolveDSN(cfg.Database.Driver, cfg.Database.DSN)
	db, err := database.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("driver", cfg.Database.Driver).Str("dsn", database.MaskPassword(dsn)).Msg("database connected")

	if resetDB {
		log.Warn().Msg("resetting database")
		if err := migrations.Reset(ctx, db); err != nil {
			return fmt.Errorf("reset database: %w", err)
		}
	}
	if err := migrations.RunMigrations(ctx, db, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if seed {
		if err := migrations.SeedTestData(ctx, db, log); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
	}
	if resetDB && !noExit {
		log.Info().Msg("database reset completed, exiting")
		return nil
	}

	cipher, err := security.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}
	if cipher == nil {
		log.Warn().Msg("security.encryption_key not set, notes are stored in plain text")
	}

	broker := events.NewBroker()
	defer broker.Close()
	st := store.New(db, cipher, broker)

	var prefStore prefs.Store = prefs.NewSQLStore(db)
	if cfg.Prefs.Backend == "redis" {
		rs, err := prefs.NewRedisStore(cfg.Prefs.RedisAddr)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rs.Close()
		prefStore = rs
		log.Info().Str("addr", cfg.Prefs.RedisAddr).Msg("using redis preference store")
	}

	loc := cfg.Location()
	httpClient := &http.Client{Timeout: cfg.Rates.Timeout}
	rates := services.NewRateService(prefStore, cfg.Ledger.ReferenceCurrency, broker, log,
		services.DefaultRateSources(cfg.Rates.AggregatorURL, cfg.Rates.CentralBankURL, httpClient)...)
	rules := services.NewRuleService(st, cfg.Ledger.BenefactorParty, cfg.Ledger.BenefactorPattern, log)
	if _, err := rules.SeedDefaultRulesIfEmpty(ctx); err != nil {
		log.Error().Err(err).Msg("seeding default rules failed")
	}

	txs := services.NewTransactionService(st, rates, rules, loc)
	allocation := services.NewAllocationService(st, services.AllocationConfig{
		BenefactorParty: cfg.Ledger.BenefactorParty,
		SurplusPot:      cfg.Ledger.SurplusPot,
		LookbackDays:    cfg.Ledger.LookbackDays,
		Location:        loc,
	}, log)

	var recognizer services.TextRecognizer
	if cfg.Receipts.GeminiAPIKey != "" {
		g, err := ocr.NewGeminiRecognizer(ctx, cfg.Receipts.GeminiAPIKey, cfg.Receipts.GeminiModel)
		if err != nil {
			log.Error().Err(err).Msg("receipt OCR disabled")
		} else {
			recognizer = g
		}
	}
	var archiver services.Archiver
	if cfg.Receipts.ArchiveBucket != "" {
		a, err := archive.NewGCSArchiver(ctx, cfg.Receipts.ArchiveBucket)
		if err != nil {
			log.Error().Err(err).Msg("receipt archive disabled")
		} else {
			defer a.Close()
			archiver = a
		}
	}

	var verifier middleware.TokenVerifier
	if cfg.Auth.FirebaseProjectID != "" || cfg.Auth.FirebaseCredentialsJSON != "" {
		v, err := middleware.NewFirebaseVerifier(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentialsJSON)
		if err != nil {
			return err
		}
		verifier = v
	} else {
		log.Warn().Msg("firebase not configured, auth token verification is disabled")
	}

	if cfg.Scheduler.Enabled {
		services.NewScheduler(rates, rules, cfg.Rates.BaseCurrency, loc, log).Start(ctx)
	}

	srv := api.NewServer(api.Deps{
		Transactions: txs,
		Allocation:   allocation,
		Savings:      services.NewSavingsService(st),
		Rules:        rules,
		Rates:        rates,
		Recurring:    services.NewRecurringService(st, loc),
		Reports:      services.NewReportService(st, loc),
		SMS:          services.NewSMSService(st, rates, rules, log),
		Receipts:     services.NewReceiptService(txs, rules, recognizer, archiver, loc, cfg.Receipts.DraftTTL, log),
		Broker:       broker,
		Location:     loc,
		Verifier:     verifier,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Logger:       log,
	})
	serveFrontend(srv, log)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// serveFrontend serves the built SPA from ./dist when it exists.
func serveFrontend(srv *api.Server, log zerolog.Logger) {
	if _, err := os.Stat("./dist/index.html"); err != nil {
		return
	}
	r := srv.Router()
	fs := http.FileServer(http.Dir("./dist"))
	r.PathPrefix("/assets/").Handler(fs)
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.HasPrefix(req.URL.Path, "/assets/") {
			log.Debug().Str("path", req.URL.Path).Msg("serving index.html")
		}
		http.ServeFile(w, req, "./dist/index.html")
	}).Methods(http.MethodGet)
}
