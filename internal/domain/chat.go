package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// ChatRequest is one user interaction; it is passed by value and never retained.
type ChatRequest struct {
	Model    string
	Messages []Message
}
