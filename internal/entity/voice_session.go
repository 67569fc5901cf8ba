package entity

import "time"

const (
	SourceUser  = "user"
	SourceAgent = "agent"
)

type TranscriptEntry struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

type AgentConfig struct {
	Prompt       string `json:"prompt"`
	FirstMessage string `json:"first_message"`
	Language     string `json:"language"`
	VoiceID      string `json:"voice_id"`
}

// VoiceSession is an ordering conversation in progress. Version counts
// transcript entries; AppliedVersion is the transcript version the stored
// Order was extracted from.
type VoiceSession struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	Language       string            `json:"language"`
	Agent          AgentConfig       `json:"agent"`
	Menu           string            `json:"menu"`
	Transcript     []TranscriptEntry `json:"transcript"`
	Version        int64             `json:"version"`
	AppliedVersion int64             `json:"applied_version"`
	Order          *Order            `json:"order,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// OrderUpdate is pushed to dashboard subscribers when an extraction is
// applied.
type OrderUpdate struct {
	SessionID string `json:"session_id"`
	Version   int64  `json:"version"`
	Order     Order  `json:"order"`
}
