package models

// ChatRequest is the body of a send-chat request
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's reply and how long it took
type ChatResponse struct {
	Response       string `json:"response"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one bubble of a chat transcript
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
