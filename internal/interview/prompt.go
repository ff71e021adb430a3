package interview

import (
	"fmt"
	"strings"
)

// guidancePreamble frames the model as an interview coach and pins the output
// contract. The array is bounded so a rambling model cannot flood the
// interviewer with tips.
const guidancePreamble = `You are an expert interview coach assisting a live interviewer in real time.
Based on the interview so far, suggest what the interviewer should do next.

Respond with ONLY a valid JSON array of at most %d objects, no prose:

[
  {
    "type": "question|follow_up|coaching|red_flag|note",
    "priority": "high|medium|low",
    "message": "short actionable advice for the interviewer",
    "suggestedQuestion": "optional exact question to ask",
    "competencyId": "optional id of the competency this targets",
    "reason": "optional one-line justification"
  }
]

Rules:
- Prefer follow-ups that probe competencies with low coverage.
- Keep messages under 25 words; the interviewer is mid-conversation.
- Use type red_flag or note only for genuine concerns, not style nitpicks.`

// BuildGuidancePrompt assembles the model prompt from session state: role and
// stage, every competency with its live coverage, the most recent transcript
// entries and the competencies still under the coverage threshold.
func BuildGuidancePrompt(ictx InterviewContext, recent []TranscriptEntry, maxTips, coverageThreshold int) string {
	var b strings.Builder

	fmt.Fprintf(&b, guidancePreamble, maxTips)
	b.WriteString("\n\n")

	if ictx.JobRole != "" {
		fmt.Fprintf(&b, "Role: %s\n", ictx.JobRole)
	}
	if ictx.Stage != "" {
		fmt.Fprintf(&b, "Interview stage: %s\n", ictx.Stage)
	}
	if ictx.CurrentTopic != "" {
		fmt.Fprintf(&b, "Current topic: %s\n", ictx.CurrentTopic)
	}

	if len(ictx.Competencies) > 0 {
		b.WriteString("\nCompetencies to evaluate:\n")
		for _, c := range ictx.Competencies {
			fmt.Fprintf(&b, "- %s (id: %s, %s): coverage %d/100\n", c.Name, c.ID, c.Category, c.CoverageLevel)
		}

		var under []string
		for _, c := range ictx.Competencies {
			if c.CoverageLevel < coverageThreshold {
				under = append(under, c.Name)
			}
		}
		if len(under) > 0 {
			fmt.Fprintf(&b, "\nStill under-covered (below %d): %s\n", coverageThreshold, strings.Join(under, ", "))
		}
	}

	if len(recent) > 0 {
		b.WriteString("\nMost recent exchange:\n")
		for _, e := range recent {
			fmt.Fprintf(&b, "%s: %s\n", e.Speaker, e.Text)
		}
	}

	return b.String()
}
