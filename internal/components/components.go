package components

//go:generate templ generate

import (
	"embed"

	"github.com/felixbrock/promptenhancer/internal/domain"
)

//go:embed static
var Static embed.FS

const title = "AI Prompt Enhancer"

// FormData is what the form shows besides the view model. The stored
// credential is never written into the page, only whether one exists.
type FormData struct {
	Draft         domain.PromptRequest
	HasCredential bool
}

var howToSteps = []string{
	"Enter your OpenAI API key",
	"Define the role (who the AI should be)",
	"Add context (your situation/background)",
	"Describe your specific task",
	`Click "Enhance Prompt"`,
}

func credentialPlaceholder(f FormData) string {
	if f.HasCredential {
		return "Stored for this session"
	}
	return ""
}

// selected reports whether opt is the rating the session submitted. The
// options stay clickable after a rating; the last click wins.
func selected(v domain.View, opt domain.RatingOption) bool {
	return v.Display == domain.DisplayRated && opt.Value == v.Rating
}
