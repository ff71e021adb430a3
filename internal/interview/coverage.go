package interview

import (
	"fmt"
	"strings"
)

// Coverage scoring constants. Coverage is recomputed from the full bounded
// history each cycle rather than kept as a running accumulator, so scores
// self-correct as old entries age out of the ring.
const (
	mentionPoints      = 15
	mentionPointsCap   = 60
	qualityBonusPoints = 10
	qualityMinChars    = 50
	maxCoverage        = 100
)

// ComputeCoverage returns the 0-100 coverage level for one competency given
// the current history. Pure: identical history yields identical scores.
func ComputeCoverage(history []TranscriptEntry, c Competency) int {
	mentions := 0
	quality := 0
	for _, e := range history {
		if !mentionsCompetency(strings.ToLower(e.Text), c) {
			continue
		}
		mentions++
		if e.Speaker == SpeakerCandidate && len(e.Text) > qualityMinChars {
			quality++
		}
	}
	base := mentions * mentionPoints
	if base > mentionPointsCap {
		base = mentionPointsCap
	}
	level := base + quality*qualityBonusPoints
	if level > maxCoverage {
		level = maxCoverage
	}
	return level
}

// competencyEvidence collects up to max substantive candidate answers that
// mention the competency, for the durable evaluation record.
func competencyEvidence(history []TranscriptEntry, c Competency, max int) []string {
	var evidence []string
	for _, e := range history {
		if e.Speaker != SpeakerCandidate || len(e.Text) <= qualityMinChars {
			continue
		}
		if !mentionsCompetency(strings.ToLower(e.Text), c) {
			continue
		}
		evidence = append(evidence, e.Text)
		if len(evidence) >= max {
			break
		}
	}
	return evidence
}

// scoreCompetency builds the durable CompetencyScore for one competency from
// the final history. Confidence scales with how much candidate evidence backs
// the score, capped well below certainty since scoring is heuristic.
func scoreCompetency(history []TranscriptEntry, c Competency) CompetencyScore {
	evidence := competencyEvidence(history, c, 3)
	level := ComputeCoverage(history, c)

	confidence := 0.2 + 0.2*float64(len(evidence))
	if confidence > 0.8 {
		confidence = 0.8
	}

	return CompetencyScore{
		CompetencyID: c.ID,
		Score:        level,
		Confidence:   confidence,
		Evidence:     evidence,
		Rationale: fmt.Sprintf("coverage %d/100 from %d substantive candidate answer(s) in the retained transcript window",
			level, len(evidence)),
	}
}
