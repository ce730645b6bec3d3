package domain

// InputMode tells an embedding provider how the text will be used.
// Providers may map this to model-specific input-type hints; others
// ignore it.
type InputMode string

// Embedding input modes.
const (
	// InputModeDocument marks text being indexed for later retrieval.
	InputModeDocument InputMode = "document"

	// InputModeQuery marks text used to search the index.
	InputModeQuery InputMode = "query"
)

// ChatMessage is a single turn in a generation conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Answer is the result of a RAG query. A nil *Answer with a nil error
// means the index holds no relevant knowledge for the query; a nil
// *Answer with a non-nil error means infrastructure failed. Callers
// that do not care about the distinction may treat both as "no answer".
type Answer struct {
	// Text is the generated answer.
	Text string

	// FullPrompt is the assembled document + footer prompt sent to the
	// generation model, kept for debugging and transparency.
	FullPrompt string

	// ChatHistory is the conversation context, currently a single
	// system-role turn.
	ChatHistory []ChatMessage
}
