package interview

import "strings"

// minKeywordLen filters description words down to content words.
const minKeywordLen = 5

// MentionedCompetencies returns the IDs of competencies the text plausibly
// addresses: the competency name appears case-insensitively, or at least two
// content words from its description co-occur in the text. False positives
// are acceptable; coverage is advisory, not authoritative.
func MentionedCompetencies(text string, competencies []Competency) []string {
	lower := strings.ToLower(text)
	var ids []string
	for _, c := range competencies {
		if mentionsCompetency(lower, c) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// mentionsCompetency reports whether lowerText (already lowercased) mentions
// the competency.
func mentionsCompetency(lowerText string, c Competency) bool {
	if c.Name != "" && strings.Contains(lowerText, strings.ToLower(c.Name)) {
		return true
	}
	hits := 0
	for _, word := range descriptionKeywords(c.Description) {
		if strings.Contains(lowerText, word) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

// descriptionKeywords extracts the lowercase content words (longer than four
// characters) from a competency description, deduplicated.
func descriptionKeywords(description string) []string {
	if description == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var words []string
	for _, w := range strings.Fields(strings.ToLower(description)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if len(w) < minKeywordLen {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}
