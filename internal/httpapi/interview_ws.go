package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hiapplyco/apply-codes-sub006/internal/eventlog"
	"github.com/hiapplyco/apply-codes-sub006/internal/interview"
	"github.com/hiapplyco/apply-codes-sub006/internal/llm"
	"github.com/hiapplyco/apply-codes-sub006/internal/metrics"
	"github.com/hiapplyco/apply-codes-sub006/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var errAnalysisNotConfigured = errors.New("analysis engine not configured: missing OpenAI API key")

// inboundMessage is the tagged union carried by the interview websocket.
// Validated here at the boundary before anything reaches the engine.
type inboundMessage struct {
	Type string `json:"type"`

	// context_update
	Context *interview.ContextPatch `json:"context,omitempty"`

	// transcript
	Speaker   string `json:"speaker,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	IsFinal   bool   `json:"isFinal,omitempty"`

	// guidance_request
	CompetencyID string `json:"competencyId,omitempty"`
	Urgency      string `json:"urgency,omitempty"`

	// suggestion_action
	ID     string `json:"id,omitempty"`
	Action string `json:"action,omitempty"`
}

// interviewSession binds one websocket connection to one analysis engine.
type interviewSession struct {
	sessionID string
	userID    string

	conn   *websocket.Conn
	connMu sync.Mutex

	engine   *interview.Engine
	store    *store.Store
	eventLog *eventlog.Logger
	logger   *log.Logger
	sessions *SessionRegistry
}

// Emit serializes outbound events onto the websocket in call order.
func (s *interviewSession) Emit(v any) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (r *Router) handleInterviewWS(w http.ResponseWriter, req *http.Request) {
	if r.cfg.OpenAIAPIKey == "" {
		r.logger.Printf("interview_ws: missing OpenAI API key")
		captureError(req, errAnalysisNotConfigured, "interview_ws: configuration error")
		http.Error(w, "analysis engine not configured", http.StatusServiceUnavailable)
		return
	}
	if r.sessions.IsDraining() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	var userID string
	if r.cfg.JWTSecret != "" {
		var err error
		userID, err = verifySessionToken(req.URL.Query().Get("token"), r.cfg.JWTSecret)
		if err != nil {
			r.logger.Printf("interview_ws: rejected connect: %v", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	sessionID := req.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("interview_ws: upgrade failed: %v", err)
		return
	}

	session := &interviewSession{
		sessionID: sessionID,
		userID:    userID,
		conn:      conn,
		store:     r.store,
		eventLog:  r.eventLog,
		logger:    r.logger,
		sessions:  r.sessions,
	}

	generator := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey: r.cfg.OpenAIAPIKey,
		Model:  r.cfg.OpenAIModel,
	})
	session.engine = interview.NewEngine(sessionID, r.cfg.Engine, generator, session, r.eventLog, r.logger)

	if !r.sessions.Add(sessionID, session.engine) {
		r.logger.Printf("interview_ws: refused session %s (draining or duplicate)", sessionID)
		_ = conn.WriteJSON(interview.NewErrorEvent("session refused"))
		_ = conn.Close()
		return
	}
	metrics.ActiveSessions.Inc()

	if session.store != nil {
		startedAt := time.Now().UTC()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := session.store.InsertSession(ctx, sessionID, startedAt); err != nil {
				session.logger.Printf("interview_ws: failed to record session %s: %v", sessionID, err)
			}
		}()
	}

	r.logger.Printf("interview_ws: session %s connected", sessionID)
	session.engine.Start()
	session.run()
}

func (s *interviewSession) run() {
	defer s.cleanup()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("interview_ws: session %s closed by client", s.sessionID)
			} else {
				s.logger.Printf("interview_ws: session %s read error: %v", s.sessionID, err)
			}
			return
		}

		var in inboundMessage
		if err := json.Unmarshal(msg, &in); err != nil {
			s.sendError("malformed message")
			continue
		}
		metrics.InboundMessages.WithLabelValues(in.Type).Inc()
		s.dispatch(in)
	}
}

// dispatch routes one validated inbound message. Protocol errors go back as
// error events; the connection stays open.
func (s *interviewSession) dispatch(in inboundMessage) {
	switch in.Type {
	case "context_update":
		if in.Context == nil {
			s.sendError("context_update requires a context object")
			return
		}
		if err := s.engine.UpdateContext(*in.Context); err != nil {
			s.sendError(err.Error())
			return
		}
		s.sendEvent(interview.NewAckEvent("context_update"))

	case "transcript":
		speaker := interview.Speaker(in.Speaker)
		if speaker != interview.SpeakerInterviewer && speaker != interview.SpeakerCandidate {
			s.sendError("transcript requires speaker interviewer or candidate")
			return
		}
		if err := s.engine.AddTranscript(speaker, in.Text, in.IsFinal); err != nil {
			s.sendError(err.Error())
			return
		}

	case "guidance_request":
		if err := s.engine.RequestGuidance(in.CompetencyID, in.Urgency); err != nil {
			s.sendError(err.Error())
			return
		}
		s.sendEvent(interview.NewAckEvent("guidance_request"))

	case "competency_check":
		competencies, err := s.engine.CompetencyCheck()
		if err != nil {
			s.sendError(err.Error())
			return
		}
		s.sendEvent(interview.CoverageReportEvent{Type: "coverage_report", Competencies: competencies})

	case "suggestion_action":
		if in.ID == "" || (in.Action != "accepted" && in.Action != "dismissed") {
			s.sendError("suggestion_action requires id and action accepted or dismissed")
			return
		}
		if !s.engine.ConsumeSuggestion(in.ID) {
			s.sendError("unknown suggestion id")
			return
		}
		s.sendEvent(interview.NewAckEvent("suggestion_action"))

	default:
		s.sendError("unknown message type")
	}
}

func (s *interviewSession) sendEvent(v any) {
	if err := s.Emit(v); err != nil {
		s.logger.Printf("interview_ws: session %s write failed: %v", s.sessionID, err)
	}
}

func (s *interviewSession) sendError(message string) {
	s.sendEvent(interview.NewErrorEvent(message))
}

// cleanup tears down the session: the engine cancels its timers and buffers,
// the final report and competency scores are persisted fire-and-forget, and
// the registry slot is released.
func (s *interviewSession) cleanup() {
	s.engine.Close()
	report := s.engine.Report()

	s.connMu.Lock()
	_ = s.conn.Close()
	s.connMu.Unlock()

	s.sessions.Remove(s.sessionID)
	metrics.ActiveSessions.Dec()

	if s.store != nil {
		// Session context is gone; bounded background context for the audit
		// writes, logged on failure, never retried.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		for _, score := range report.Scores {
			if err := s.store.InsertCompetencyScore(ctx, s.sessionID, score); err != nil {
				s.logger.Printf("interview_ws: session %s failed to persist score for %s: %v",
					s.sessionID, score.CompetencyID, err)
			}
		}
		if err := s.store.InsertSessionReport(ctx, report); err != nil {
			s.logger.Printf("interview_ws: session %s failed to persist report: %v", s.sessionID, err)
		}
		if err := s.store.UpdateSessionStatus(ctx, s.sessionID, "completed", time.Now().UTC()); err != nil {
			s.logger.Printf("interview_ws: session %s failed to update status: %v", s.sessionID, err)
		}
	}

	s.logger.Printf("interview_ws: session %s cleaned up", s.sessionID)
}
