package interview

// Outbound session events. Each carries its own type discriminator so the
// client can dispatch without inspecting payload shape.

type ConnectedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

type AckEvent struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

type CoverageUpdateEvent struct {
	Type         string `json:"type"`
	CompetencyID string `json:"competencyId"`
	Coverage     int    `json:"coverage"`
}

type TipEvent struct {
	Type string     `json:"type"`
	Tip  Suggestion `json:"tip"`
}

type FlagEvent struct {
	Type string        `json:"type"`
	Flag InterviewFlag `json:"flag"`
}

type CoverageReportEvent struct {
	Type         string       `json:"type"`
	Competencies []Competency `json:"competencies"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewAckEvent(action string) AckEvent {
	return AckEvent{Type: "ack", Action: action}
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}
