// Package dialogue talks to the conversational engine that turns a
// transcript into a reply. The gateway treats the engine as an opaque
// collaborator: it sends the user's words plus recent history and gets back
// text to speak along with routing metadata.
package dialogue

import "context"

// HistoryEntry is one prior exchange in the conversation
type HistoryEntry struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Identity carries caller details established during connection auth.
// All fields are optional; an unauthenticated session sends none.
type Identity struct {
	UserID    string `json:"user_id,omitempty"`
	PatientID string `json:"patient_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Request is a single turn sent to the dialogue engine
type Request struct {
	Text      string         `json:"text"`
	History   []HistoryEntry `json:"history,omitempty"`
	SessionID string         `json:"session_id"`
	Identity  *Identity      `json:"identity,omitempty"`
}

// Metadata describes how the reply should be handled beyond speaking it
type Metadata struct {
	Language  string `json:"language"`
	Emergency bool   `json:"is_emergency"`
	EndCall   bool   `json:"end_call"`
	Transfer  bool   `json:"transfer"`
	Intent    string `json:"intent,omitempty"`
}

// Result is the engine's reply for one turn
type Result struct {
	Spoken   string   `json:"spoken_response"`
	Metadata Metadata `json:"metadata"`
}

// Engine produces a reply for a user turn
type Engine interface {
	Respond(ctx context.Context, req *Request) (*Result, error)
}
