package domain

import (
	"fmt"
	"strings"
)

const systemInstruction = `You are a prompt engineering assistant. Your task is to take the user's inputs and
create an enhanced, well-structured prompt that they can use with any AI system.
Do not solve the task yourself - only create a better prompt.`

const userTemplate = `I want to create an enhanced prompt based on these components:

ROLE: %s
CONTEXT: %s
TASK: %s

Please format the enhanced prompt in a clear, structured way that I can copy and use with any AI system.
Focus only on creating the enhanced prompt, not on solving the task.`

// NewGenerationRequest validates a form submission and builds the fixed
// system/user message pair. Values are interpolated as submitted; trimming
// only decides emptiness.
func NewGenerationRequest(credential string, p PromptRequest) (GenerationRequest, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"credential", credential},
		{"role", p.Role},
		{"context", p.Context},
		{"task", p.Task},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return GenerationRequest{}, &ValidationError{Missing: missing}
	}

	return GenerationRequest{
		Credential: credential,
		Messages: []Message{
			{Role: RoleSystem, Content: systemInstruction},
			{Role: RoleUser, Content: fmt.Sprintf(userTemplate, p.Role, p.Context, p.Task)},
		},
	}, nil
}
