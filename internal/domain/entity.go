package domain

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type PromptRequest struct {
	Role    string `json:"role"`
	Context string `json:"context"`
	Task    string `json:"task"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerationRequest struct {
	Credential string
	Messages   []Message
}

// System and User return the content of the first message with that role.
func (r GenerationRequest) System() string {
	return r.content(RoleSystem)
}

func (r GenerationRequest) User() string {
	return r.content(RoleUser)
}

func (r GenerationRequest) content(role string) string {
	for _, m := range r.Messages {
		if m.Role == role {
			return m.Content
		}
	}
	return ""
}

// SessionState is the per-session view model. The zero value is the state a
// new session starts with.
type SessionState struct {
	EnhancedPrompt  string `json:"enhanced_prompt"`
	RatingSubmitted bool   `json:"rating_submitted"`
	Rating          Rating `json:"rating,omitempty"`
}

// Session is what the hosting layer keeps between interactions. Draft echoes
// the last submitted form back; Credential never leaves process memory.
type Session struct {
	Id         string        `json:"id"`
	State      SessionState  `json:"state"`
	Draft      PromptRequest `json:"draft"`
	Credential string        `json:"-"`
}
