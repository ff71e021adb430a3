package interview

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

var systemDesign = Competency{
	ID:          "sd",
	Name:        "System Design",
	Description: "distributed systems scalability tradeoffs",
}

func TestComputeCoverage_SingleQualityMention(t *testing.T) {
	// One candidate entry, 62 chars, mentioned via two description keywords:
	// base = 15, quality bonus = 10, coverage = 25.
	text := "I designed a distributed caching layer for scalability needs."
	history := []TranscriptEntry{
		{Speaker: SpeakerCandidate, Text: text, Timestamp: time.Now().UTC()},
	}

	if got := ComputeCoverage(history, systemDesign); got != 25 {
		t.Errorf("coverage = %d, want 25", got)
	}
}

func TestComputeCoverage_EmptyHistory(t *testing.T) {
	if got := ComputeCoverage(nil, systemDesign); got != 0 {
		t.Errorf("coverage = %d, want 0 for empty history", got)
	}
}

func TestComputeCoverage_BaseCapsAtSixty(t *testing.T) {
	// Five short interviewer mentions: 5 mentions would be 75 base, capped at
	// 60, and no quality bonus.
	var history []TranscriptEntry
	for i := 0; i < 5; i++ {
		history = append(history, TranscriptEntry{
			Speaker: SpeakerInterviewer,
			Text:    "what about system design",
		})
	}

	if got := ComputeCoverage(history, systemDesign); got != 60 {
		t.Errorf("coverage = %d, want 60 (base cap)", got)
	}
}

func TestComputeCoverage_NeverExceedsHundred(t *testing.T) {
	long := "we discussed distributed systems and the scalability tradeoffs at length, including "
	long += strings.Repeat("sharding ", 5)

	var history []TranscriptEntry
	for i := 0; i < 50; i++ {
		history = append(history, TranscriptEntry{Speaker: SpeakerCandidate, Text: long})
	}

	got := ComputeCoverage(history, systemDesign)
	if got < 0 || got > 100 {
		t.Fatalf("coverage = %d, must stay within [0,100]", got)
	}
	if got != 100 {
		t.Errorf("coverage = %d, want saturation at 100", got)
	}
}

func TestComputeCoverage_Idempotent(t *testing.T) {
	var history []TranscriptEntry
	for i := 0; i < 8; i++ {
		history = append(history, TranscriptEntry{
			Speaker: SpeakerCandidate,
			Text:    fmt.Sprintf("answer %d about distributed systems and scalability concerns", i),
		})
	}

	first := ComputeCoverage(history, systemDesign)
	second := ComputeCoverage(history, systemDesign)
	if first != second {
		t.Errorf("recomputation changed score: %d then %d", first, second)
	}
}

func TestComputeCoverage_QualityRequiresCandidateAndLength(t *testing.T) {
	short := TranscriptEntry{Speaker: SpeakerCandidate, Text: "system design yes"}
	interviewer := TranscriptEntry{
		Speaker: SpeakerInterviewer,
		Text:    "let us dig into system design and the scalability tradeoffs involved here",
	}

	// Two mentions, neither qualifies for the bonus: short candidate answer,
	// long interviewer question.
	history := []TranscriptEntry{short, interviewer}
	if got := ComputeCoverage(history, systemDesign); got != 30 {
		t.Errorf("coverage = %d, want 30 (two mentions, no bonus)", got)
	}
}

func TestScoreCompetency_EvidenceAndBounds(t *testing.T) {
	history := []TranscriptEntry{
		{Speaker: SpeakerCandidate, Text: "I built a distributed queue and tuned it for scalability over a year"},
		{Speaker: SpeakerCandidate, Text: "scalability on the distributed tier mattered because of peak traffic"},
	}

	score := scoreCompetency(history, systemDesign)
	if score.CompetencyID != "sd" {
		t.Errorf("competency id = %q, want sd", score.CompetencyID)
	}
	if score.Score < 0 || score.Score > 100 {
		t.Errorf("score = %d, must stay within [0,100]", score.Score)
	}
	if len(score.Evidence) != 2 {
		t.Errorf("evidence count = %d, want 2", len(score.Evidence))
	}
	if score.Confidence <= 0 || score.Confidence > 0.8 {
		t.Errorf("confidence = %v, want in (0, 0.8]", score.Confidence)
	}
	if score.Rationale == "" {
		t.Error("rationale should not be empty")
	}
}
