package httpapi

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hiapplyco/apply-codes-sub006/internal/eventlog"
	"github.com/hiapplyco/apply-codes-sub006/internal/interview"
)

func newTestRouter(t *testing.T, cfg RouterConfig, sessions *SessionRegistry) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	handler := NewRouter(cfg, logger, nil, eventlog.New(nil), sessions)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func dialInterview(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/interview"
	if query != "" {
		url += "?" + query
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent reads the next outbound event as a loose map.
func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var v map[string]any
	if err := conn.ReadJSON(&v); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestRouter(t, RouterConfig{OpenAIAPIKey: "test-key"}, NewSessionRegistry())

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestInterviewWS_RequiresAPIKey(t *testing.T) {
	srv := newTestRouter(t, RouterConfig{}, NewSessionRegistry())

	resp, err := http.Get(srv.URL + "/ws/interview")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without an API key", resp.StatusCode)
	}
}

func TestInterviewWS_RejectsWhileDraining(t *testing.T) {
	sessions := NewSessionRegistry()
	sessions.StartDraining()
	srv := newTestRouter(t, RouterConfig{OpenAIAPIKey: "test-key"}, sessions)

	resp, err := http.Get(srv.URL + "/ws/interview")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 while draining", resp.StatusCode)
	}
}

func TestInterviewWS_RejectsBadToken(t *testing.T) {
	srv := newTestRouter(t, RouterConfig{OpenAIAPIKey: "test-key", JWTSecret: "secret"}, NewSessionRegistry())

	resp, err := http.Get(srv.URL + "/ws/interview?token=bogus")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 with a bad token", resp.StatusCode)
	}
}

func TestInterviewWS_Protocol(t *testing.T) {
	sessions := NewSessionRegistry()
	srv := newTestRouter(t, RouterConfig{OpenAIAPIKey: "test-key"}, sessions)
	conn := dialInterview(t, srv, "sessionId=ws-proto")

	connected := readEvent(t, conn)
	if connected["type"] != "connected" || connected["sessionId"] != "ws-proto" {
		t.Fatalf("first event = %v, want connected for ws-proto", connected)
	}
	if sessions.Get("ws-proto") == nil {
		t.Error("session should be registered while connected")
	}

	// context_update round-trips with an ack.
	update := map[string]any{
		"type": "context_update",
		"context": map[string]any{
			"jobRole": "Backend Engineer",
			"competencies": []map[string]any{
				{"id": "sd", "name": "System Design"},
			},
		},
	}
	if err := conn.WriteJSON(update); err != nil {
		t.Fatalf("write context_update: %v", err)
	}
	ack := readEvent(t, conn)
	if ack["type"] != "ack" || ack["action"] != "context_update" {
		t.Errorf("got %v, want context_update ack", ack)
	}

	// competency_check returns a synchronous coverage report.
	if err := conn.WriteJSON(map[string]any{"type": "competency_check"}); err != nil {
		t.Fatalf("write competency_check: %v", err)
	}
	report := readEvent(t, conn)
	if report["type"] != "coverage_report" {
		t.Errorf("got %v, want coverage_report", report)
	}
	competencies, ok := report["competencies"].([]any)
	if !ok || len(competencies) != 1 {
		t.Fatalf("competencies = %v, want one entry", report["competencies"])
	}

	// Protocol errors come back as error events without dropping the socket.
	cases := []struct {
		name string
		msg  map[string]any
	}{
		{"unknown type", map[string]any{"type": "bogus"}},
		{"context_update without context", map[string]any{"type": "context_update"}},
		{"transcript with bad speaker", map[string]any{"type": "transcript", "speaker": "narrator", "text": "hi"}},
		{"suggestion_action unknown id", map[string]any{"type": "suggestion_action", "id": "nope", "action": "accepted"}},
		{"suggestion_action bad action", map[string]any{"type": "suggestion_action", "id": "x", "action": "maybe"}},
	}
	for _, tc := range cases {
		if err := conn.WriteJSON(tc.msg); err != nil {
			t.Fatalf("%s: write: %v", tc.name, err)
		}
		ev := readEvent(t, conn)
		if ev["type"] != "error" {
			t.Errorf("%s: got %v, want error event", tc.name, ev)
		}
	}

	// Session unregisters after the client disconnects.
	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for sessions.Get("ws-proto") != nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if sessions.Get("ws-proto") != nil {
		t.Error("session should unregister after disconnect")
	}
}

func TestInterviewWS_RefusesDuplicateSessionID(t *testing.T) {
	sessions := NewSessionRegistry()
	srv := newTestRouter(t, RouterConfig{OpenAIAPIKey: "test-key"}, sessions)

	first := dialInterview(t, srv, "sessionId=dup")
	if ev := readEvent(t, first); ev["type"] != "connected" {
		t.Fatalf("first connect = %v", ev)
	}

	second := dialInterview(t, srv, "sessionId=dup")
	if ev := readEvent(t, second); ev["type"] != "error" {
		t.Errorf("duplicate connect = %v, want error event", ev)
	}
}

func TestInterviewWS_TranscriptUpdatesCoverage(t *testing.T) {
	sessions := NewSessionRegistry()
	cfg := RouterConfig{
		OpenAIAPIKey: "test-key",
		Engine: interview.Config{
			FlushIdle:      20 * time.Millisecond,
			DebounceWindow: 30 * time.Millisecond,
		},
	}
	srv := newTestRouter(t, cfg, sessions)
	conn := dialInterview(t, srv, "sessionId=ws-cov")

	if ev := readEvent(t, conn); ev["type"] != "connected" {
		t.Fatalf("first event = %v", ev)
	}

	update := map[string]any{
		"type": "context_update",
		"context": map[string]any{
			"competencies": []map[string]any{
				{"id": "sd", "name": "System Design", "description": "distributed systems scalability tradeoffs"},
			},
		},
	}
	if err := conn.WriteJSON(update); err != nil {
		t.Fatalf("write context_update: %v", err)
	}
	if ev := readEvent(t, conn); ev["type"] != "ack" {
		t.Fatalf("got %v, want ack", ev)
	}

	// Short enough to stay under the tip heuristic, so no model call happens.
	transcript := map[string]any{
		"type":    "transcript",
		"speaker": "candidate",
		"text":    "I designed a distributed caching layer for scalability needs.",
		"isFinal": true,
	}
	if err := conn.WriteJSON(transcript); err != nil {
		t.Fatalf("write transcript: %v", err)
	}

	ev := readEvent(t, conn)
	if ev["type"] != "coverage_update" || ev["competencyId"] != "sd" {
		t.Fatalf("got %v, want coverage_update for sd", ev)
	}
	if coverage, ok := ev["coverage"].(float64); !ok || int(coverage) != 25 {
		t.Errorf("coverage = %v, want 25", ev["coverage"])
	}
}
