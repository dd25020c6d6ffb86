package domain

// StartOptions configures a new session.
type StartOptions struct {
	SessionID string `json:"session_id,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// ResumeOptions carries a validated handoff snapshot.
type ResumeOptions struct {
	SessionID string  `json:"session_id,omitempty"`
	Answers   Answers `json:"answers"`
	Stage     int     `json:"stage"`
}

// StagePrompt is what a client needs to render the current question.
type StagePrompt struct {
	Stage       int       `json:"stage"`
	Kind        InputKind `json:"kind"`
	Label       string    `json:"label"`
	Question    string    `json:"question"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
	FreeText    bool      `json:"free_text"`
	Progress    int       `json:"progress"`
	BackEnabled bool      `json:"back_enabled"`
	Hint        string    `json:"hint,omitempty"`
}
