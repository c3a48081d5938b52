package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgetplanner/backend/database"
	"budgetplanner/backend/events"
	"budgetplanner/backend/migrations"
	"budgetplanner/backend/models"
	"budgetplanner/backend/prefs"
	"budgetplanner/backend/services"
	"budgetplanner/backend/store"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type testServer struct {
	*httptest.Server
	store *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.RunMigrations(context.Background(), db, zerolog.Nop()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	broker := events.NewBroker()
	t.Cleanup(broker.Close)
	st := store.New(db, nil, broker)
	log := zerolog.Nop()

	rates := services.NewRateService(prefs.NewMemoryStore(), "RON", broker, log)
	rules := services.NewRuleService(st, "MOM", "", log)
	txs := services.NewTransactionService(st, rates, rules, time.Local)

	srv := NewServer(Deps{
		Transactions: txs,
		Allocation: services.NewAllocationService(st, services.AllocationConfig{
			BenefactorParty: "MOM", SurplusPot: "Mom surplus", LookbackDays: 14, Location: time.Local,
		}, log),
		Savings:   services.NewSavingsService(st),
		Rules:     rules,
		Rates:     rates,
		Recurring: services.NewRecurringService(st, time.Local),
		Reports:   services.NewReportService(st, time.Local),
		SMS:       services.NewSMSService(st, rates, rules, log),
		Receipts:  services.NewReceiptService(txs, rules, nil, nil, time.Local, time.Hour, log),
		Broker:    broker,
		Logger:    log,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: st}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode)
	}
}

func TestHealthUnderBothPrefixes(t *testing.T) {
	ts := newTestServer(t)
	for _, p := range []string{"/health", "/api/health"} {
		resp := ts.do(t, http.MethodGet, p, nil)
		expectStatus(t, resp, http.StatusOK)
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("%s: expected a request id header", p)
		}
	}
}

func TestReimbursementFlow(t *testing.T) {
	ts := newTestServer(t)

	exp := decode[models.Transaction](t, func() *http.Response {
		resp := ts.do(t, http.MethodPost, "/api/transactions", models.Transaction{
			Timestamp:      time.Date(2025, 3, 18, 12, 0, 0, 0, time.Local),
			OriginalAmount: -40,
			Merchant:       "CATENA",
			Category:       models.CategoryFarmacy,
		})
		expectStatus(t, resp, http.StatusCreated)
		return resp
	}())
	expectStatus(t, ts.do(t, http.MethodPut, fmt.Sprintf("/api/transactions/%d/exclude", exp.ID), map[string]bool{"excludePersonal": true}), http.StatusNoContent)

	resp := ts.do(t, http.MethodPost, "/transactions", models.Transaction{
		Timestamp:      time.Date(2025, 3, 20, 12, 0, 0, 0, time.Local),
		OriginalAmount: 70,
		Merchant:       "TRANSFER",
	})
	expectStatus(t, resp, http.StatusCreated)
	credit := decode[models.Transaction](t, resp)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/transactions/%d/mark-benefactor-credit", credit.ID), nil)
	expectStatus(t, resp, http.StatusOK)
	res := decode[models.BenefactorCreditResult](t, resp)
	if res.Allocation.Matched != 40 || res.Allocation.Count != 1 || res.Deposited != 30 {
		t.Errorf("Unexpected allocation %+v", res)
	}

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/transactions/%d/links", exp.ID), nil)
	expectStatus(t, resp, http.StatusOK)
	if links := decode[[]models.ReimbursementLink](t, resp); len(links) != 1 || links[0].Amount != 40 {
		t.Errorf("Unexpected links %+v", links)
	}

	resp = ts.do(t, http.MethodGet, "/savings", nil)
	expectStatus(t, resp, http.StatusOK)
	if pots := decode[[]models.SavingsPot](t, resp); len(pots) != 1 || pots[0].Amount != 30 {
		t.Errorf("Unexpected pots %+v", pots)
	}

	resp = ts.do(t, http.MethodGet, "/reports/month/2025-03", nil)
	expectStatus(t, resp, http.StatusOK)
	if sum := decode[models.MonthSummary](t, resp); sum.OpenForBenefactor != 0 || sum.NetTransactionsSum != 30 {
		t.Errorf("Unexpected summary %+v", sum)
	}

	resp = ts.do(t, http.MethodGet, "/transactions?month=2025-03", nil)
	expectStatus(t, resp, http.StatusOK)
	if txs := decode[[]models.Transaction](t, resp); len(txs) != 2 {
		t.Errorf("Expected 2 transactions, got %d", len(txs))
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"Missing transaction", http.MethodGet, "/transactions/999", nil, http.StatusNotFound},
		{"Allocate missing credit", http.MethodPost, "/transactions/999/allocate-credit", nil, http.StatusBadRequest},
		{"Bad lookback", http.MethodPost, "/transactions/1/allocate-credit?lookbackDays=x", nil, http.StatusBadRequest},
		{"Bad month", http.MethodGet, "/transactions?month=2025-13", nil, http.StatusBadRequest},
		{"Zero amount", http.MethodPost, "/transactions", map[string]any{"originalAmount": 0}, http.StatusBadRequest},
		{"No rate", http.MethodGet, "/rates/EUR", nil, http.StatusServiceUnavailable},
		{"Receipt OCR not configured", http.MethodPost, "/receipts/scan", nil, http.StatusServiceUnavailable},
		{"Unknown draft", http.MethodGet, "/receipts/drafts/nope", nil, http.StatusNotFound},
		{"Unknown route", http.MethodGet, "/nope", nil, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.do(t, tc.method, tc.path, tc.body)
			if resp.StatusCode != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestRulesAndSMSImport(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/rules/seed", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[map[string]bool](t, resp); !got["seeded"] {
		t.Error("Expected rules to be seeded")
	}

	resp = ts.do(t, http.MethodPost, "/sms/import", []models.SMSMessage{{
		Body:      "Tranz POS. Suma 53.96 RON. Comerciant: PENNY 4562 RM VL2 C3, RO,RAMNICU VALC",
		Timestamp: time.Date(2025, 3, 5, 10, 0, 0, 0, time.Local),
	}})
	expectStatus(t, resp, http.StatusOK)
	res := decode[models.ImportResult](t, resp)
	if res.Inserted != 1 {
		t.Fatalf("Expected 1 inserted, got %+v", res)
	}

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/transactions/%d", res.IDs[0]), nil)
	expectStatus(t, resp, http.StatusOK)
	if tx := decode[models.Transaction](t, resp); tx.Category != models.CategoryFood {
		t.Errorf("Expected FOOD, got %s", tx.Category)
	}

	resp = ts.do(t, http.MethodPost, "/rules/recategorize?month=2025-03", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[map[string]int](t, resp); got["changed"] != 0 {
		t.Errorf("Expected nothing to recategorize, got %v", got)
	}
}

func TestReceiptTextFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/receipts/scan-text", map[string]string{
		"text": "PROFI ROM FOOD\nTOTAL 23,40\n2025-03-07 18:02",
	})
	expectStatus(t, resp, http.StatusCreated)
	draft := decode[models.ReceiptDraft](t, resp)

	resp = ts.do(t, http.MethodPost, "/receipts/drafts/"+draft.ID+"/commit", nil)
	expectStatus(t, resp, http.StatusCreated)
	tx := decode[models.Transaction](t, resp)
	if tx.OriginalAmount != -23.4 || tx.Source != models.SourceReceipt {
		t.Errorf("Unexpected transaction %+v", tx)
	}

	resp = ts.do(t, http.MethodGet, "/export/transactions.xlsx?month=2025-03", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Unexpected content type %q", ct)
	}
}

func TestEventsWebsocket(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// The subscription is registered right after the upgrade; give the
	// handler a moment before mutating.
	time.Sleep(50 * time.Millisecond)

	resp := ts.do(t, http.MethodPost, "/savings", models.SavingsPot{Name: "Vacation", Amount: 100})
	expectStatus(t, resp, http.StatusCreated)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev models.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if ev.Entity != models.EntitySavings || ev.Action != models.ActionCreated {
		t.Errorf("Unexpected event %+v", ev)
	}
}
