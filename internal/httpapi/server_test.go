package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pantry/internal/cache"
	"pantry/internal/core"
	"pantry/internal/groupctx"
	"pantry/internal/ledger"
	applog "pantry/internal/log"
	"pantry/internal/report"
	"pantry/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := applog.New(applog.Config{})
	led := ledger.New(memory.New(), cache.NewLRUCache[[]core.Transaction](64, time.Minute), groupctx.FromContext{}, nil, logger, ledger.Options{})
	reports := report.NewBuilder(led,
		cache.NewLRUCache[report.MonthlyReport](16, time.Minute),
		cache.NewLRUCache[report.YearlyReport](4, time.Hour),
		logger, report.Options{})
	return NewServer(":0", led, reports, logger)
}

func doRequest(s *Server, method, target, body string, identity bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if identity {
		req.Header.Set(headerUserID, "u1")
		req.Header.Set(headerUserName, "Sam")
		req.Header.Set(headerGroupID, "household")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestRecordAndListTransactions(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"productName": "Milk",
		"category": "dairy",
		"location": "fridge",
		"transactionType": "add",
		"quantityChange": 10,
		"previousQuantity": 0,
		"newQuantity": 10,
		"cost": 2.0
	}`
	rec := doRequest(s, http.MethodPost, "/transactions", body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /transactions status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created core.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created transaction: %v", err)
	}
	if created.ID == "" || created.Timestamp == 0 {
		t.Errorf("created transaction missing identity: %+v", created)
	}
	if created.GroupID != "household" {
		t.Errorf("GroupID = %q, want household", created.GroupID)
	}

	rec = doRequest(s, http.MethodGet, "/transactions", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /transactions status = %d", rec.Code)
	}
	var listed []core.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("listed = %+v, want the created transaction", listed)
	}
}

func TestRecordRequiresUserContext(t *testing.T) {
	s := newTestServer(t)

	body := `{"productName":"Milk","category":"dairy","location":"fridge","transactionType":"add","quantityChange":1,"previousQuantity":0,"newQuantity":1}`
	rec := doRequest(s, http.MethodPost, "/transactions", body, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown type",
			body: `{"productName":"Milk","category":"dairy","location":"fridge","transactionType":"teleport","quantityChange":1,"previousQuantity":0,"newQuantity":1}`,
		},
		{
			name: "quantity invariant broken",
			body: `{"productName":"Milk","category":"dairy","location":"fridge","transactionType":"add","quantityChange":1,"previousQuantity":0,"newQuantity":5}`,
		},
		{
			name: "not JSON",
			body: `{{{`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/transactions", tt.body, true)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMonthlyReportEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"productName":"Milk","category":"dairy","location":"fridge","transactionType":"add","quantityChange":10,"previousQuantity":0,"newQuantity":10,"cost":2.0}`
	if rec := doRequest(s, http.MethodPost, "/transactions", body, true); rec.Code != http.StatusCreated {
		t.Fatalf("seed transaction failed: %d", rec.Code)
	}

	now := time.Now()
	target := "/reports/monthly?year=" + now.Format("2006") + "&month=" + now.Format("1")
	rec := doRequest(s, http.MethodGet, target, "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, body = %s", target, rec.Code, rec.Body.String())
	}

	var rep report.MonthlyReport
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.TotalItemsAdded != 10 {
		t.Errorf("items added = %v, want 10", rep.TotalItemsAdded)
	}
	if rep.TotalValue != 20 {
		t.Errorf("total value = %v, want 20", rep.TotalValue)
	}
}

func TestTrendsRequireRange(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/trends", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/trends?start=2024-06-01&end=2024-06-30&bucket=fortnight", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid bucket status = %d, want 400", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/trends?start=2024-06-01&end=2024-06-30&bucket=week", "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("valid trend request status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/reports/monthly", "{}", true)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET" {
		t.Errorf("Allow = %q, want GET", allow)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode health payload: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("status field = %v, want ok", payload["status"])
	}
}

func TestMonthlyReportRejectsMalformedPeriod(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/reports/monthly?year=abc",
		"/reports/monthly?month=13",
		"/reports/monthly?month=0",
		"/reports/monthly?month=jan",
	} {
		rec := doRequest(s, http.MethodGet, target, "", true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}

	rec := doRequest(s, http.MethodGet, "/reports/monthly?year=2024&month=5", "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("valid period: status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterEvictsStaleClients(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	rl.allow("1.2.3.4")
	rl.allow("5.6.7.8")

	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastRequest = time.Now().Add(-15 * time.Minute)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["1.2.3.4"]; ok {
		t.Error("stale client entry survived cleanup")
	}
	if _, ok := rl.clients["5.6.7.8"]; !ok {
		t.Error("recent client entry was evicted")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newRateLimiter()
	rl.stop()
	rl.stop()
}
