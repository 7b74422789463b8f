package shellcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contentstudio/internal/domain"
	"contentstudio/internal/providers/genai"
)

var responseSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "command": {
      "type": "STRING",
      "description": "The generated Unix/Linux shell command."
    },
    "explanation": {
      "type": "STRING",
      "description": "A brief, one or two-sentence explanation of the command."
    }
  },
  "required": ["command", "explanation"]
}`)

// Result pairs a shell command with its explanation.
type Result struct {
	Command     string `json:"command"`
	Explanation string `json:"explanation"`
}

// Generator translates task descriptions into shell commands.
type Generator struct {
	client *genai.Client
}

func NewGenerator(client *genai.Client) *Generator {
	return &Generator{client: client}
}

// Generate returns the best-fit command for the described task. Destructive
// tasks are answered with a warning echo per the system instruction.
func (g *Generator) Generate(ctx context.Context, taskDescription string) (*Result, error) {
	if strings.TrimSpace(taskDescription) == "" {
		return nil, fmt.Errorf("%w: task description is required", domain.ErrInvalidInput)
	}

	instruction := fmt.Sprintf(`You are an expert in Unix/Linux shell commands. Your task is to take a user's description of a task and provide the most appropriate and efficient shell command to accomplish it.

**Instructions:**
1.  **Analyze the User's Task:** Carefully understand the user's goal from their description: %q.
2.  **Provide the Command:** Generate the single, most accurate shell command.
3.  **Provide a Brief Explanation:** Write a concise, one or two-sentence explanation of what the command does and how it works.
4.  **Safety First:** If the described task is potentially destructive (e.g., involves 'rm -rf /' or other dangerous operations), instead of providing the command, your command should be an 'echo' statement warning the user, and the explanation should describe the potential danger.

**Output Format:**
- You MUST return a single, valid JSON object with two string keys: "command" and "explanation".
- Do not include any other text, notes, or markdown formatting outside of the JSON object itself.`, taskDescription)

	var result Result
	err := g.client.GenerateJSON(ctx, genai.GenerateRequest{
		Parts:             []genai.Part{genai.TextPart(fmt.Sprintf("Generate the Unix command for the following task: %q", taskDescription))},
		SystemInstruction: instruction,
		ResponseSchema:    responseSchema,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Command == "" {
		return nil, fmt.Errorf("%w: missing command", domain.ErrMalformedResponse)
	}
	return &result, nil
}
