package interview

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// modelSuggestion is one item of the model's JSON array response.
type modelSuggestion struct {
	Type              string `json:"type"`
	Priority          string `json:"priority"`
	Message           string `json:"message"`
	SuggestedQuestion string `json:"suggestedQuestion,omitempty"`
	CompetencyID      string `json:"competencyId,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// ParseSuggestions parses the model output into suggestions and flags, each
// capped at max items. Markdown code fences around the JSON are tolerated.
// A parse error means the caller should fall back to a generic tip.
func ParseSuggestions(raw string, max int) ([]Suggestion, []InterviewFlag, error) {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var items []modelSuggestion
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		return nil, nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}

	now := time.Now().UTC()
	var tips []Suggestion
	var flags []InterviewFlag
	for _, item := range items {
		switch item.Type {
		case FlagRedFlag, FlagNote:
			if len(flags) >= max || item.Message == "" {
				continue
			}
			flags = append(flags, InterviewFlag{
				ID:          uuid.NewString(),
				Type:        item.Type,
				Severity:    normalizePriority(item.Priority),
				Description: item.Message,
				CreatedAt:   now,
			})
		case SuggestionQuestion, SuggestionFollowUp, SuggestionCoaching:
			if len(tips) >= max {
				continue
			}
			text := item.Message
			if text == "" {
				text = item.SuggestedQuestion
			}
			if text == "" {
				continue
			}
			reason := item.Reason
			if item.SuggestedQuestion != "" && item.SuggestedQuestion != text {
				// Surface the exact question alongside the advice.
				text = text + " Try: \"" + item.SuggestedQuestion + "\""
			}
			priority := normalizePriority(item.Priority)
			tips = append(tips, Suggestion{
				ID:           uuid.NewString(),
				Type:         item.Type,
				Priority:     priority,
				Timing:       timingForPriority(priority),
				CompetencyID: item.CompetencyID,
				Text:         text,
				Reason:       reason,
				CreatedAt:    now,
			})
		default:
			// Unknown type from the model; skip rather than guess.
		}
	}
	return tips, flags, nil
}

// FallbackTip is the single deterministic tip emitted when the model's output
// cannot be parsed. Malformed model output never reaches the client.
func FallbackTip() Suggestion {
	return Suggestion{
		ID:        uuid.NewString(),
		Type:      SuggestionCoaching,
		Priority:  PriorityLow,
		Timing:    TimingLater,
		Text:      "Consider asking a follow-up question to dig deeper into the candidate's last answer.",
		CreatedAt: time.Now().UTC(),
	}
}

func normalizePriority(p string) string {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

func timingForPriority(p string) string {
	if p == PriorityHigh {
		return TimingImmediate
	}
	return TimingLater
}
