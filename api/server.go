package api

import (
	"net/http"
	"time"

	"budgetplanner/backend/events"
	"budgetplanner/backend/handlers"
	"budgetplanner/backend/middleware"
	"budgetplanner/backend/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Transactions *services.TransactionService
	Allocation   *services.AllocationService
	Savings      *services.SavingsService
	Rules        *services.RuleService
	Rates        *services.RateService
	Recurring    *services.RecurringService
	Reports      *services.ReportService
	SMS          *services.SMSService
	Receipts     *services.ReceiptService
	Broker       *events.Broker

	Location    *time.Location           // month boundaries for rule runs; nil means local
	Verifier    middleware.TokenVerifier // nil disables token checks
	CORSOrigins []string
	Logger      zerolog.Logger
}

// Server represents the API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	auth    *middleware.Auth

	transactions *handlers.TransactionHandler
	savings      *handlers.SavingsHandler
	rules        *handlers.RuleHandler
	rates        *handlers.RateHandler
	recurring    *handlers.RecurringHandler
	reports      *handlers.ReportHandler
	capture      *handlers.CaptureHandler
	events       *handlers.EventsHandler
}

// NewServer creates a new API server
func NewServer(d Deps) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		auth:         middleware.NewAuth(d.Verifier),
		transactions: handlers.NewTransactionHandler(d.Transactions, d.Allocation),
		savings:      handlers.NewSavingsHandler(d.Savings),
		rules:        handlers.NewRuleHandler(d.Rules, d.Location),
		rates:        handlers.NewRateHandler(d.Rates),
		recurring:    handlers.NewRecurringHandler(d.Recurring),
		reports:      handlers.NewReportHandler(d.Reports),
		capture:      handlers.NewCaptureHandler(d.SMS, d.Receipts),
		events:       handlers.NewEventsHandler(d.Broker, d.CORSOrigins),
	}

	// Routes are served both at the root and under /api.
	s.registerRoutes(s.router)
	s.registerRoutes(s.router.PathPrefix("/api").Subrouter())

	var h http.Handler = s.router
	h = middleware.CORS(d.CORSOrigins)(h)
	h = middleware.Recovery(d.Logger)(h)
	h = middleware.Logger(d.Logger)(h)
	h = middleware.RequestID(d.Logger)(h)
	s.handler = h
	return s
}

func (s *Server) registerRoutes(r *mux.Router) {
	// Public routes (no auth required)
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	p := r.PathPrefix("").Subrouter()
	p.Use(s.auth.Middleware)

	p.HandleFunc("/events", s.events.Stream).Methods("GET")

	p.HandleFunc("/transactions", s.transactions.List).Methods("GET")
	p.HandleFunc("/transactions", s.transactions.Create).Methods("POST")
	p.HandleFunc("/transactions/{id:[0-9]+}", s.transactions.Get).Methods("GET")
	p.HandleFunc("/transactions/{id:[0-9]+}", s.transactions.Update).Methods("PUT")
	p.HandleFunc("/transactions/{id:[0-9]+}", s.transactions.Delete).Methods("DELETE")
	p.HandleFunc("/transactions/{id:[0-9]+}/party", s.transactions.SetParty).Methods("PUT")
	p.HandleFunc("/transactions/{id:[0-9]+}/exclude", s.transactions.SetExclude).Methods("PUT")
	p.HandleFunc("/transactions/{id:[0-9]+}/allocate-credit", s.transactions.AllocateCredit).Methods("POST")
	p.HandleFunc("/transactions/{id:[0-9]+}/allocate-expense", s.transactions.AllocateExpense).Methods("POST")
	p.HandleFunc("/transactions/{id:[0-9]+}/mark-benefactor-credit", s.transactions.MarkBenefactorCredit).Methods("POST")
	p.HandleFunc("/transactions/{id:[0-9]+}/links", s.transactions.Links).Methods("GET")
	p.HandleFunc("/links/{id:[0-9]+}", s.transactions.DeleteLink).Methods("DELETE")
	p.HandleFunc("/export/transactions.xlsx", s.transactions.ExportXLSX).Methods("GET")

	p.HandleFunc("/savings", s.savings.List).Methods("GET")
	p.HandleFunc("/savings", s.savings.Create).Methods("POST")
	p.HandleFunc("/savings/{id:[0-9]+}", s.savings.Update).Methods("PUT")
	p.HandleFunc("/savings/{id:[0-9]+}", s.savings.Delete).Methods("DELETE")
	p.HandleFunc("/savings/{name}/deposit", s.savings.Deposit).Methods("POST")

	p.HandleFunc("/categories", s.rules.Categories).Methods("GET")
	p.HandleFunc("/rules", s.rules.List).Methods("GET")
	p.HandleFunc("/rules", s.rules.Create).Methods("POST")
	p.HandleFunc("/rules/seed", s.rules.Seed).Methods("POST")
	p.HandleFunc("/rules/apply", s.rules.Apply).Methods("POST")
	p.HandleFunc("/rules/recategorize", s.rules.Recategorize).Methods("POST")
	p.HandleFunc("/rules/{id:[0-9]+}", s.rules.Update).Methods("PUT")
	p.HandleFunc("/rules/{id:[0-9]+}", s.rules.Delete).Methods("DELETE")

	p.HandleFunc("/rates/{currency}", s.rates.Latest).Methods("GET")

	p.HandleFunc("/recurring/{month}", s.recurring.List).Methods("GET")
	p.HandleFunc("/recurring/{month}", s.recurring.Save).Methods("PUT")

	p.HandleFunc("/reports/month/{month}", s.reports.MonthSummary).Methods("GET")

	p.HandleFunc("/sms/import", s.capture.ImportSMS).Methods("POST")
	p.HandleFunc("/receipts/scan", s.capture.ScanReceipt).Methods("POST")
	p.HandleFunc("/receipts/scan-text", s.capture.ScanText).Methods("POST")
	p.HandleFunc("/receipts/drafts/{id}", s.capture.GetDraft).Methods("GET")
	p.HandleFunc("/receipts/drafts/{id}/commit", s.capture.CommitDraft).Methods("POST")
}

// Handler returns the HTTP handler for the API server
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router exposes the router so callers can mount extra routes, such as
// static frontend files.
func (s *Server) Router() *mux.Router {
	return s.router
}
