package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"budgetplanner/backend/database"
	"budgetplanner/backend/middleware"
	"budgetplanner/backend/migrations"
	"budgetplanner/backend/prefs"
	"budgetplanner/backend/services"
	"budgetplanner/backend/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// TestUserID is attached to every request built by newAuthenticatedRequest.
const TestUserID = "test-user-id"

type testStack struct {
	txs     *TransactionHandler
	savings *SavingsHandler
	capture *CaptureHandler
	rules   *services.RuleService
}

// setupTestStack builds the handlers over a migrated in-memory database.
// No rate sources are configured, so only RON amounts normalize.
func setupTestStack(t *testing.T) *testStack {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.RunMigrations(context.Background(), db, zerolog.Nop()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	st := store.New(db, nil, nil)
	rates := services.NewRateService(prefs.NewMemoryStore(), "RON", nil, zerolog.Nop())
	rules := services.NewRuleService(st, "MOM", "", zerolog.Nop())
	txs := services.NewTransactionService(st, rates, rules, time.Local)
	alloc := services.NewAllocationService(st, services.AllocationConfig{Location: time.Local}, zerolog.Nop())

	return &testStack{
		txs:     NewTransactionHandler(txs, alloc),
		savings: NewSavingsHandler(services.NewSavingsService(st)),
		capture: NewCaptureHandler(services.NewSMSService(st, rates, rules, zerolog.Nop()), nil),
		rules:   rules,
	}
}

// newAuthenticatedRequest creates a request with a JSON body and the test
// user already in its context.
func newAuthenticatedRequest(method, url string, body interface{}) *http.Request {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, url, nil)
	case string:
		req = httptest.NewRequest(method, url, bytes.NewBufferString(b))
	default:
		buf, _ := json.Marshal(b)
		req = httptest.NewRequest(method, url, bytes.NewBuffer(buf))
	}
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, TestUserID)
	return req.WithContext(ctx)
}

func withVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}
