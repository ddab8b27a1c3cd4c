package selector

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the generative conversation.
type Message struct {
	Role    Role
	Content string
}

// Request is a single generative call: a system instruction plus the
// ordered conversation so far.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// Capability is the external text-generation dependency. Implementations
// must treat each call as a single cancellable operation with no partial
// side effects on failure. Absence of a capability (nil) must never crash
// the engine.
type Capability interface {
	Complete(ctx context.Context, req Request) (string, error)
}
