package api

import "time"

// Message roles as the service emits them.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation transcript. Ordering is
// significant: transcripts are oldest-first and never reordered.
type Message struct {
	ID        int64     `json:"id,omitempty"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Conversation is a server-owned transcript of user/assistant turns.
type Conversation struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// LoginRequest carries login credentials. The email field also accepts
// a bare username; the server tries both.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest creates a new account. First and last name are optional.
type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// authResponse is the shared shape of login and signup responses.
// Only the token is consumed.
type authResponse struct {
	Token string `json:"token"`
}

// AskRequest submits one prompt to the answering endpoint.
// ConversationID is nil when no conversation is active; the server then
// allocates one and reports its id back.
type AskRequest struct {
	Language       string `json:"language"`
	Prompt         string `json:"prompt"`
	ConversationID *int64 `json:"conversation_id"`
}

// AskResponse is one resolved prompt-to-answer round trip.
type AskResponse struct {
	Answer         string  `json:"answer"`
	ResponseTime   float64 `json:"response_time"`
	ConversationID int64   `json:"conversation_id"`
}
