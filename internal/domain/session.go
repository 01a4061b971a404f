package domain

import "time"

// Summary is the in-memory view of a live session's state.
type Summary struct {
	SessionID         string    `json:"session_id"`
	Model             string    `json:"model"`
	Region            string    `json:"region"`
	UserMessages      int       `json:"user_messages"`
	AssistantMessages int       `json:"ai_messages"`
	CreatedAt         time.Time `json:"created_at"`
}

// ModelInfo describes one foundation model available for inference.
type ModelInfo struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Provider         string   `json:"provider"`
	InputModalities  []string `json:"input_modalities,omitempty"`
	OutputModalities []string `json:"output_modalities,omitempty"`
	Status           string   `json:"status,omitempty"`
}
