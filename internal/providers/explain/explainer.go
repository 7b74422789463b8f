package explain

import (
	"context"
	"fmt"
	"strings"

	"contentstudio/internal/domain"
	"contentstudio/internal/providers/genai"
)

const systemInstruction = `You are an expert code reviewer and teacher. Your goal is to explain code snippets in a way that is easy for other developers to understand.
- Use clear and concise language.
- Break down complex parts into simple steps.
- Use markdown for formatting, including bullet points for lists and backticks for inline code. Do not use markdown code blocks (` + "```" + `) as the entire output will be rendered in a pre-formatted block.`

// Explainer streams plain-language explanations of code snippets.
type Explainer struct {
	client *genai.Client
}

func NewExplainer(client *genai.Client) *Explainer {
	return &Explainer{client: client}
}

// ExplainStream sends the snippet to the model and delivers
// explanation chunks to onChunk as they arrive.
func (e *Explainer) ExplainStream(ctx context.Context, code string, onChunk func(string)) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: code snippet is required", domain.ErrInvalidInput)
	}
	return e.client.GenerateStream(ctx, genai.GenerateRequest{
		Parts:             []genai.Part{genai.TextPart("Please explain the following code snippet:\n\n" + code)},
		SystemInstruction: systemInstruction,
	}, onChunk)
}
