package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hiapplyco/apply-codes-sub006/internal/metrics"
)

// Session lifecycle states.
type State string

const (
	StateConnecting State = "connecting"
	StateReady      State = "ready"
	StateActive     State = "active"
	StateClosed     State = "closed"
)

// Engine tunables with their defaults.
const (
	defaultHistorySize       = 20
	defaultFlushMaxChars     = 100
	defaultFlushIdle         = time.Second
	defaultDebounceWindow    = 2 * time.Second
	defaultTipMinAnswerChars = 100
	defaultCoverageThreshold = 30
	defaultPromptHistorySize = 3
	defaultMaxTipsPerCycle   = 3
	defaultModelTimeout      = 15 * time.Second
)

// Config holds the engine tunables. Zero values take defaults.
type Config struct {
	HistorySize       int
	FlushMaxChars     int
	FlushIdle         time.Duration
	DebounceWindow    time.Duration
	TipMinAnswerChars int
	CoverageThreshold int
	PromptHistorySize int
	MaxTipsPerCycle   int
	ModelTimeout      time.Duration
}

func (c Config) withDefaults() Config {
	if c.HistorySize <= 0 {
		c.HistorySize = defaultHistorySize
	}
	if c.FlushMaxChars <= 0 {
		c.FlushMaxChars = defaultFlushMaxChars
	}
	if c.FlushIdle <= 0 {
		c.FlushIdle = defaultFlushIdle
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = defaultDebounceWindow
	}
	if c.TipMinAnswerChars <= 0 {
		c.TipMinAnswerChars = defaultTipMinAnswerChars
	}
	if c.CoverageThreshold <= 0 {
		c.CoverageThreshold = defaultCoverageThreshold
	}
	if c.PromptHistorySize <= 0 {
		c.PromptHistorySize = defaultPromptHistorySize
	}
	if c.MaxTipsPerCycle <= 0 {
		c.MaxTipsPerCycle = defaultMaxTipsPerCycle
	}
	if c.ModelTimeout <= 0 {
		c.ModelTimeout = defaultModelTimeout
	}
	return c
}

// Generator is the external completion service. A slow or failed call must
// never block transcript ingestion; the engine calls it off the hot path.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Emitter pushes outbound events to the connected client in call order.
type Emitter interface {
	Emit(v any) error
}

// AuditLog receives fire-and-forget engine events for the durable audit
// trail. Implementations must not block.
type AuditLog interface {
	LogAsync(sessionID, event string, data map[string]any)
}

// Protocol-level errors reported back to the client.
var (
	ErrClosed   = errors.New("session is closed")
	ErrNotReady = errors.New("session not initialized")
)

// Engine is one live interview's analysis state: context store, transcript
// buffer, debounce scheduler, coverage scorer and tip generator. Sessions
// never share engines; all mutable state is guarded by mu.
type Engine struct {
	cfg    Config
	logger *log.Logger
	gen    Generator
	emit   Emitter
	audit  AuditLog

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	ictx        InterviewContext
	history     *History
	suggestions map[string]Suggestion
	flags       map[string]InterviewFlag
	tipsIssued  int
	flagsRaised int
	startedAt   time.Time

	// guidance_request state consumed by the next cycle
	guidancePending bool
	guidanceTarget  string

	buffer    *TranscriptBuffer
	scheduler *Scheduler
}

// NewEngine builds the engine for one session. Call Start after the
// transport handshake completes and Close exactly once when the session ends.
func NewEngine(sessionID string, cfg Config, gen Generator, emit Emitter, audit AuditLog, logger *log.Logger) *Engine {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:    cfg,
		logger: logger,
		gen:    gen,
		emit:   emit,
		audit:  audit,
		ctx:    ctx,
		cancel: cancel,
		state:  StateConnecting,
		ictx: InterviewContext{
			SessionID: sessionID,
		},
		history:     NewHistory(cfg.HistorySize),
		suggestions: make(map[string]Suggestion),
		flags:       make(map[string]InterviewFlag),
		startedAt:   time.Now().UTC(),
	}
	e.buffer = NewTranscriptBuffer(cfg.FlushMaxChars, cfg.FlushIdle, e.onFlush)
	e.scheduler = NewScheduler(cfg.DebounceWindow, e.runCycle)
	return e
}

// Start moves the session to ready and announces it to the client.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state != StateConnecting {
		e.mu.Unlock()
		return
	}
	e.state = StateReady
	sessionID := e.ictx.SessionID
	e.mu.Unlock()

	e.send(ConnectedEvent{Type: "connected", SessionID: sessionID})
	e.logEvent("session_started", nil)
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SessionID returns the session identifier.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ictx.SessionID
}

// UpdateContext shallow-merges a context patch. Competency coverage is
// recomputed from the retained history so a replaced competency list starts
// from consistent levels instead of stale zeros.
func (e *Engine) UpdateContext(patch ContextPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateClosed:
		return ErrClosed
	case StateConnecting:
		return ErrNotReady
	}

	if patch.JobRole != nil {
		e.ictx.JobRole = *patch.JobRole
	}
	if patch.Stage != nil {
		e.ictx.Stage = *patch.Stage
	}
	if patch.CandidateID != nil {
		e.ictx.CandidateID = *patch.CandidateID
	}
	if patch.CurrentTopic != nil {
		e.ictx.CurrentTopic = *patch.CurrentTopic
	}
	if patch.Competencies != nil {
		e.ictx.Competencies = make([]Competency, len(patch.Competencies))
		copy(e.ictx.Competencies, patch.Competencies)
		entries := e.history.Entries()
		for i := range e.ictx.Competencies {
			e.ictx.Competencies[i].CoverageLevel = ComputeCoverage(entries, e.ictx.Competencies[i])
		}
	}
	return nil
}

// AddTranscript feeds one speech-to-text fragment into the transcript buffer.
// The first fragment moves the session to active.
func (e *Engine) AddTranscript(speaker Speaker, text string, isFinal bool) error {
	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return ErrClosed
	case StateConnecting:
		e.mu.Unlock()
		return ErrNotReady
	case StateReady:
		e.state = StateActive
	}
	e.mu.Unlock()

	e.buffer.Add(speaker, text, isFinal)
	return nil
}

// RequestGuidance forces a suggestion cycle without waiting for the debounce
// window. The single-cycle-in-flight rule still holds: if a cycle is running,
// the request is honored on that cycle's completion.
func (e *Engine) RequestGuidance(competencyID, urgency string) error {
	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return ErrClosed
	case StateConnecting:
		e.mu.Unlock()
		return ErrNotReady
	}
	e.guidancePending = true
	e.guidanceTarget = competencyID
	e.mu.Unlock()

	e.logEvent("guidance_request", map[string]any{"competency_id": competencyID, "urgency": urgency})
	e.scheduler.Kick()
	return nil
}

// CompetencyCheck returns a snapshot of all competencies with their cached
// coverage levels. Synchronous; never triggers a model call.
func (e *Engine) CompetencyCheck() ([]Competency, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateClosed:
		return nil, ErrClosed
	case StateConnecting:
		return nil, ErrNotReady
	}
	out := make([]Competency, len(e.ictx.Competencies))
	copy(out, e.ictx.Competencies)
	return out, nil
}

// ConsumeSuggestion removes a pending suggestion or flag from session state.
// Returns false if the id is unknown (already consumed or never issued).
func (e *Engine) ConsumeSuggestion(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.suggestions[id]; ok {
		delete(e.suggestions, id)
		return true
	}
	if _, ok := e.flags[id]; ok {
		delete(e.flags, id)
		return true
	}
	return false
}

// Close tears the session down: all timers are cancelled, buffers discarded
// and later emissions suppressed. An in-flight model call is not interrupted
// beyond context cancellation; whatever it returns is discarded. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	e.state = StateClosed
	e.mu.Unlock()

	e.buffer.Close()
	e.scheduler.Close()
	e.cancel()
	e.logEvent("session_closed", nil)
}

// Report assembles the final session report, including durable per-competency
// scores computed from the retained history.
func (e *Engine) Report() SessionReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.history.Entries()
	scores := make([]CompetencyScore, 0, len(e.ictx.Competencies))
	for _, c := range e.ictx.Competencies {
		scores = append(scores, scoreCompetency(entries, c))
	}
	return SessionReport{
		SessionID:   e.ictx.SessionID,
		JobRole:     e.ictx.JobRole,
		Stage:       e.ictx.Stage,
		CandidateID: e.ictx.CandidateID,
		EntryCount:  len(entries),
		TipsIssued:  e.tipsIssued,
		FlagsRaised: e.flagsRaised,
		Scores:      scores,
		StartedAt:   e.startedAt,
		EndedAt:     time.Now().UTC(),
	}
}

// onFlush receives finished entries from the transcript buffer: append to the
// bounded history and hand off to the debounce scheduler. Never blocks.
func (e *Engine) onFlush(entry TranscriptEntry) {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	e.history.Append(entry)
	e.mu.Unlock()

	e.scheduler.Enqueue(entry)
}

// runCycle is one analysis cycle over a debounced batch. The scheduler
// guarantees cycles never overlap. The model call is the only blocking step;
// new transcript entries keep queueing while it runs.
func (e *Engine) runCycle(batch []TranscriptEntry) {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	entries := e.history.Entries()
	e.mu.Unlock()

	if len(batch) > 0 {
		e.updateCoverage(entries)
		e.logEvent("analysis_cycle", map[string]any{"entries": len(batch)})
		metrics.AnalysisCycles.Inc()
	}

	if e.shouldGenerateTips(batch) {
		e.generateTips()
	}

	// Honor guidance requests that arrived while this cycle was running.
	for e.consumeGuidancePending() {
		e.generateTips()
	}
}

// updateCoverage recomputes every competency's coverage from the full history
// and emits coverage_update for each changed level.
func (e *Engine) updateCoverage(entries []TranscriptEntry) {
	type change struct {
		id       string
		coverage int
	}
	var changes []change

	e.mu.Lock()
	for i := range e.ictx.Competencies {
		c := &e.ictx.Competencies[i]
		level := ComputeCoverage(entries, *c)
		if level != c.CoverageLevel {
			c.CoverageLevel = level
			changes = append(changes, change{id: c.ID, coverage: level})
		}
	}
	e.mu.Unlock()

	for _, ch := range changes {
		e.send(CoverageUpdateEvent{Type: "coverage_update", CompetencyID: ch.id, Coverage: ch.coverage})
	}
}

// shouldGenerateTips implements the cycle heuristic: the candidate just gave
// a substantive answer, so it is a good moment to redirect the interviewer.
func (e *Engine) shouldGenerateTips(batch []TranscriptEntry) bool {
	if e.consumeGuidancePending() {
		return true
	}
	if len(batch) == 0 {
		return false
	}
	last := batch[len(batch)-1]
	return last.Speaker == SpeakerCandidate && len(last.Text) > e.cfg.TipMinAnswerChars
}

// consumeGuidancePending atomically claims a pending guidance request.
func (e *Engine) consumeGuidancePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.guidancePending {
		return false
	}
	e.guidancePending = false
	return true
}

// generateTips builds the guidance prompt, makes a single model call (no
// retries) and emits the parsed suggestions. A transport failure abandons the
// batch; malformed output yields exactly one fallback tip. Either way, the
// session keeps running.
func (e *Engine) generateTips() {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	ictx := e.ictx
	ictx.Competencies = make([]Competency, len(e.ictx.Competencies))
	copy(ictx.Competencies, e.ictx.Competencies)
	recent := e.history.Last(e.cfg.PromptHistorySize)
	target := e.guidanceTarget
	e.guidanceTarget = ""
	e.mu.Unlock()

	prompt := BuildGuidancePrompt(ictx, recent, e.cfg.MaxTipsPerCycle, e.cfg.CoverageThreshold)
	if target != "" {
		prompt += fmt.Sprintf("\nThe interviewer asked for guidance on competency id %q specifically.\n", target)
	}

	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.ModelTimeout)
	defer cancel()

	start := time.Now()
	raw, err := e.gen.Generate(ctx, prompt)
	metrics.ModelCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// Transport/model failure: log and abandon; the entries would be
		// stale by the time a retry could land.
		e.logger.Printf("interview: session %s model call failed: %v", ictx.SessionID, err)
		e.logEvent("model_error", map[string]any{"error": err.Error()})
		metrics.ModelCallErrors.Inc()
		return
	}

	tips, flags, err := ParseSuggestions(raw, e.cfg.MaxTipsPerCycle)
	if err != nil {
		e.logger.Printf("interview: session %s malformed model output: %v", ictx.SessionID, err)
		e.logEvent("fallback_tip", map[string]any{"error": err.Error()})
		tip := FallbackTip()
		e.storeTips([]Suggestion{tip}, nil)
		e.send(TipEvent{Type: "tip", Tip: tip})
		metrics.TipsGenerated.WithLabelValues("fallback").Inc()
		return
	}

	e.storeTips(tips, flags)
	for _, tip := range tips {
		e.send(TipEvent{Type: "tip", Tip: tip})
		metrics.TipsGenerated.WithLabelValues("model").Inc()
	}
	for _, flag := range flags {
		e.send(FlagEvent{Type: "flag", Flag: flag})
		metrics.FlagsRaised.Inc()
	}
	if len(tips) > 0 || len(flags) > 0 {
		e.logEvent("tip_generated", map[string]any{"tips": len(tips), "flags": len(flags)})
	}
}

// storeTips records issued tips and flags for the consumed-once lifecycle.
func (e *Engine) storeTips(tips []Suggestion, flags []InterviewFlag) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return
	}
	for _, t := range tips {
		e.suggestions[t.ID] = t
	}
	for _, f := range flags {
		e.flags[f.ID] = f
	}
	e.tipsIssued += len(tips)
	e.flagsRaised += len(flags)
}

// send emits an event unless the session closed. Emission errors are logged;
// a dead peer is handled by the transport's read loop, not here.
func (e *Engine) send(v any) {
	e.mu.Lock()
	closed := e.state == StateClosed
	sessionID := e.ictx.SessionID
	e.mu.Unlock()
	if closed {
		return
	}
	if err := e.emit.Emit(v); err != nil {
		e.logger.Printf("interview: session %s emit failed: %v", sessionID, err)
	}
}

// logEvent writes to the audit log when one is configured.
func (e *Engine) logEvent(event string, data map[string]any) {
	if e.audit == nil {
		return
	}
	e.mu.Lock()
	sessionID := e.ictx.SessionID
	e.mu.Unlock()
	e.audit.LogAsync(sessionID, event, data)
}
