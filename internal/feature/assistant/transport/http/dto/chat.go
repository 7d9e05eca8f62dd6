// Package dto defines data transfer objects for the assistant HTTP API.
package dto

// ContentPart is one piece of a message turn. Only "text" parts are consulted.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is a single conversation turn.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// AgentRequest is the request body shared by /chat, /stream_chat and /stock_query.
type AgentRequest struct {
	Input     []Message `json:"input"`
	SessionID string    `json:"session_id"`
}

// FirstText returns the first text part of the first turn, or fallback when
// the turn list is empty or the first turn carries no text part.
func (r AgentRequest) FirstText(fallback string) string {
	if len(r.Input) == 0 {
		return fallback
	}
	for _, p := range r.Input[0].Content {
		if p.Type == "text" {
			return p.Text
		}
	}
	return fallback
}

// ChatResponse is the /chat response envelope.
type ChatResponse struct {
	Status    string `json:"status"`
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// StockQueryResponse acknowledges a /stock_query request by echoing it.
type StockQueryResponse struct {
	Status  string       `json:"status"`
	Payload AgentRequest `json:"payload"`
	Message string       `json:"message"`
}
