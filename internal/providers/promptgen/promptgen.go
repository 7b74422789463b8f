package promptgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contentstudio/internal/domain"
	"contentstudio/internal/providers/genai"
)

const systemInstruction = `You are a world-class prompt engineer for generative AI models. Your task is to take a user's simple concept OR a provided image and expand it into two separate, but related, highly detailed and effective prompts: one for image generation and one for video generation.

**Core Relationship:**
The video prompt's primary purpose is to **animate the static scene** created by the image prompt. First, conceptualize the detailed image prompt. Then, create a video prompt that brings that exact scene to life with movement, action, and transitions, while maintaining the same core subject, environment, and style. The video prompt should explicitly state its goal is to animate the image.

**Source of Inspiration:**
- If an image is provided, base the prompts on the image's content, style, and composition. The user's text concept should be ignored.
- If only a text concept is provided, use that as the basis for the prompts.

You MUST incorporate the user's specific requirements for style, aspect ratio, and duration into the final prompts.

**Image Prompt Rules:**
-   The image prompt will define the static scene.
-   Format as a single, dense paragraph.
-   Be highly descriptive, focusing on visual details, lighting, and composition.
-   Incorporate the specified Art Style and Image Aspect Ratio.

**Video Prompt Rules:**
-   This prompt will animate the scene from the image prompt.
-   Use Markdown for formatting: use double asterisks for bolding (**text**) and a single asterisk followed by a space for unordered list items (* item).
-   Structure the prompt with bolded section titles on new lines (e.g., **Subject:**, **Action:**, **Style & Mood:**).
-   Use bullet points for sub-details where appropriate. Do not nest bullet points.

**Output Format:**
-   You MUST return the output as a single, valid JSON object with two string keys: "imagePrompt" and "videoPrompt".
-   Do not include any other text, explanations, or markdown formatting outside of the JSON object itself.`

var responseSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "imagePrompt": {
      "type": "STRING",
      "description": "A detailed prompt for a text-to-image model, formatted as a single dense paragraph."
    },
    "videoPrompt": {
      "type": "STRING",
      "description": "A detailed prompt for a text-to-video model, formatted with Markdown (bolding and bullet points), that animates the image prompt's scene."
    }
  },
  "required": ["imagePrompt", "videoPrompt"]
}`)

// Params carries the inputs for a prompt-pair generation. When Image is set
// the concept is ignored and the prompts are derived from the picture.
type Params struct {
	Concept     string
	Image       []byte
	ImageMime   string
	Style       string
	AspectRatio string
	Duration    string
}

func (p Params) validate() error {
	if len(p.Image) == 0 && strings.TrimSpace(p.Concept) == "" {
		return fmt.Errorf("%w: a concept or an image is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(p.Style) == "" {
		return fmt.Errorf("%w: art style is required", domain.ErrInvalidInput)
	}
	return nil
}

// PromptPair is the matched image/video prompt output.
type PromptPair struct {
	ImagePrompt string `json:"imagePrompt"`
	VideoPrompt string `json:"videoPrompt"`
}

// Generator turns concepts or reference images into production-ready prompt
// pairs, and renders preview images used as video seeds.
type Generator struct {
	client *genai.Client
}

func NewGenerator(client *genai.Client) *Generator {
	return &Generator{client: client}
}

// Generate produces the image/video prompt pair for the given params.
func (g *Generator) Generate(ctx context.Context, params Params) (*PromptPair, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	var parts []genai.Part
	if len(params.Image) > 0 {
		parts = append(parts, genai.ImagePart(params.Image, params.ImageMime))
		parts = append(parts, genai.TextPart(fmt.Sprintf(`Analyze the provided image and generate prompts based on the following details:
      - Art Style: %q
      - Image Aspect Ratio: %q
      - Video Duration: "%s seconds"`, params.Style, params.AspectRatio, params.Duration)))
	} else {
		parts = append(parts, genai.TextPart(fmt.Sprintf(`Generate prompts based on the following details:
      - Concept: %q
      - Art Style: %q
      - Image Aspect Ratio: %q
      - Video Duration: "%s seconds"`, params.Concept, params.Style, params.AspectRatio, params.Duration)))
	}

	var pair PromptPair
	err := g.client.GenerateJSON(ctx, genai.GenerateRequest{
		Parts:             parts,
		SystemInstruction: systemInstruction,
		ResponseSchema:    responseSchema,
	}, &pair)
	if err != nil {
		return nil, err
	}
	if pair.ImagePrompt == "" || pair.VideoPrompt == "" {
		return nil, fmt.Errorf("%w: incomplete prompt pair", domain.ErrMalformedResponse)
	}
	return &pair, nil
}

// RenderImage generates a still image from a previously produced image
// prompt. The result doubles as the seed frame for video generation.
func (g *Generator) RenderImage(ctx context.Context, prompt, aspectRatio string) ([]byte, string, error) {
	return g.client.GenerateImage(ctx, prompt, aspectRatio)
}
