// Package interview implements the per-session transcript analysis engine:
// transcript buffering, debounced analysis cycles, competency coverage
// scoring and LLM-backed guidance tips.
package interview

import "time"

// Speaker identifies who produced a transcript fragment.
type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

// Competency categories.
const (
	CategoryTechnical  = "technical"
	CategoryBehavioral = "behavioral"
	CategoryCultural   = "cultural"
)

// Competency is one evaluation axis for the interview. CoverageLevel is
// derived state owned by the coverage scorer; clients never set it.
type Competency struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category,omitempty"`
	Required      bool   `json:"required,omitempty"`
	CoverageLevel int    `json:"coverageLevel"`
}

// InterviewContext holds the mutable session context. It is owned by exactly
// one session and only replaced through context_update merges.
type InterviewContext struct {
	SessionID    string       `json:"sessionId"`
	JobRole      string       `json:"jobRole,omitempty"`
	Stage        string       `json:"stage,omitempty"`
	CandidateID  string       `json:"candidateId,omitempty"`
	Competencies []Competency `json:"competencies,omitempty"`
	CurrentTopic string       `json:"currentTopic,omitempty"`
}

// ContextPatch is a partial InterviewContext for shallow merges. Nil fields
// leave the current value untouched.
type ContextPatch struct {
	JobRole      *string      `json:"jobRole,omitempty"`
	Stage        *string      `json:"stage,omitempty"`
	CandidateID  *string      `json:"candidateId,omitempty"`
	Competencies []Competency `json:"competencies,omitempty"`
	CurrentTopic *string      `json:"currentTopic,omitempty"`
}

// TranscriptEntry is one flushed utterance. Immutable once created.
type TranscriptEntry struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Suggestion types.
const (
	SuggestionQuestion = "question"
	SuggestionFollowUp = "follow_up"
	SuggestionCoaching = "coaching"
)

// Suggestion priorities and timing.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	TimingImmediate = "immediate"
	TimingLater     = "later"
)

// Suggestion is a coaching tip for the interviewer. Consumed-once: accepting
// or dismissing removes it from session state and it is never replayed.
type Suggestion struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Priority     string    `json:"priority"`
	Timing       string    `json:"timing"`
	CompetencyID string    `json:"competencyId,omitempty"`
	Text         string    `json:"text"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Flag types.
const (
	FlagRedFlag = "red_flag"
	FlagNote    = "note"
)

// InterviewFlag marks something the interviewer should be aware of. Same
// consumed-once lifecycle as Suggestion.
type InterviewFlag struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CompetencyScore is the durable, human-auditable evaluation record written
// at session close. Distinct from the ephemeral CoverageLevel used for live
// UI feedback.
type CompetencyScore struct {
	CompetencyID    string   `json:"competencyId"`
	Score           int      `json:"score"`
	Confidence      float64  `json:"confidence"`
	Evidence        []string `json:"evidence,omitempty"`
	Rationale       string   `json:"rationale,omitempty"`
	HumanAdjustment *int     `json:"humanAdjustment,omitempty"`
}

// SessionReport summarizes a finished session for the audit store.
type SessionReport struct {
	SessionID   string            `json:"sessionId"`
	JobRole     string            `json:"jobRole,omitempty"`
	Stage       string            `json:"stage,omitempty"`
	CandidateID string            `json:"candidateId,omitempty"`
	EntryCount  int               `json:"entryCount"`
	TipsIssued  int               `json:"tipsIssued"`
	FlagsRaised int               `json:"flagsRaised"`
	Scores      []CompetencyScore `json:"scores,omitempty"`
	StartedAt   time.Time         `json:"startedAt"`
	EndedAt     time.Time         `json:"endedAt"`
}
