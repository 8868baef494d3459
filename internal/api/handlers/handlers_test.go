package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fincoach/coach/internal/agent"
	"github.com/fincoach/coach/internal/demo"
	"github.com/fincoach/coach/internal/memory"
	"github.com/fincoach/coach/internal/narrator"
)

func fixedNow() time.Time {
	return time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
}

func newTestAgent(t *testing.T) *agent.Agent {
	t.Helper()
	a, err := agent.New(agent.Config{
		Sessions:     memory.NewInMemorySessionStore(),
		Customers:    memory.NewInMemoryCustomerStore(),
		Transactions: demo.Personas(fixedNow),
		Narrator:     narrator.Static{},
		Logger:       zerolog.Nop(),
		Clock:        fixedNow,
	})
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	return a
}

func TestCreateSessionAndChat(t *testing.T) {
	h := NewChatHandler(newTestAgent(t), zerolog.Nop())

	body := `{"customer_id": "CUST_001", "name": "Alex Johnson"}`
	rec := httptest.NewRecorder()
	h.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created["session_id"] == "" {
		t.Fatal("expected a session_id")
	}

	chatBody := `{"session_id": "` + created["session_id"] + `", "message": "How am I doing this month?"}`
	rec = httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(chatBody)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var reply agent.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Text == "" {
		t.Error("expected a reply")
	}
	if len(reply.ToolTrace) == 0 {
		t.Error("expected a tool trace")
	}
}

func TestCreateSessionValidation(t *testing.T) {
	h := NewChatHandler(newTestAgent(t), zerolog.Nop())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"customer_id": `},
		{"missing customer", `{"name": "Nobody"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestChatUnknownSession(t *testing.T) {
	h := NewChatHandler(newTestAgent(t), zerolog.Nop())

	body := `{"session_id": "nope", "message": "hello"}`
	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestInsightsEndpoint(t *testing.T) {
	h := NewInsightsHandler(demo.Personas(fixedNow), fixedNow, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Insights(rec, httptest.NewRequest(http.MethodGet, "/api/insights?customer_id=CUST_001&months=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["customer_id"] != "CUST_001" {
		t.Errorf("customer_id = %v", payload["customer_id"])
	}
	if payload["analysis_period_months"] != float64(3) {
		t.Errorf("analysis_period_months = %v", payload["analysis_period_months"])
	}

	rec = httptest.NewRecorder()
	h.Insights(rec, httptest.NewRequest(http.MethodGet, "/api/insights", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing customer_id: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = httptest.NewRecorder()
	h.Insights(rec, httptest.NewRequest(http.MethodGet, "/api/insights?customer_id=CUST_MISSING", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown customer: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
