package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contentstudio/internal/domain"
	"contentstudio/internal/providers/genai"
)

// Keyword formats accepted by the stock-metadata generator.
const (
	FormatSingle = "Single Only"
	FormatDouble = "Double Only"
	FormatMixed  = "Mixed"
)

var allowedFormats = map[string]struct{}{
	FormatSingle: {},
	FormatDouble: {},
	FormatMixed:  {},
}

// Settings tune the generated metadata for one image.
type Settings struct {
	TitleLength       int    `json:"title_length"`
	KeywordCount      int    `json:"keyword_count"`
	DescriptionLength int    `json:"description_length"`
	KeywordFormat     string `json:"keyword_format"`
	IncludeKeywords   string `json:"include_keywords"`
	ExcludeKeywords   string `json:"exclude_keywords"`
}

func (s Settings) validate() error {
	if s.TitleLength <= 0 || s.KeywordCount <= 0 || s.DescriptionLength <= 0 {
		return fmt.Errorf("%w: title, keyword and description lengths must be positive", domain.ErrInvalidInput)
	}
	if _, ok := allowedFormats[s.KeywordFormat]; !ok {
		return fmt.Errorf("%w: keyword format must be one of %q, %q, %q", domain.ErrInvalidInput, FormatSingle, FormatDouble, FormatMixed)
	}
	return nil
}

// Result is the generated metadata for a stock image.
type Result struct {
	Title       string   `json:"title"`
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
	ModelName   string   `json:"model_name"`
}

var responseSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "title": {"type": "STRING", "description": "The generated title for the image."},
    "keywords": {"type": "ARRAY", "items": {"type": "STRING"}, "description": "An array of generated keywords."},
    "description": {"type": "STRING", "description": "The generated description for the image."}
  },
  "required": ["title", "keywords", "description"]
}`)

// Generator produces stock-photography metadata from images.
type Generator struct {
	client *genai.Client
}

func NewGenerator(client *genai.Client) *Generator {
	return &Generator{client: client}
}

// Generate analyzes the image and returns metadata per the settings. The
// caller may pick a specific vision model; empty means the client default.
func (g *Generator) Generate(ctx context.Context, image []byte, mimeType, model string, settings Settings) (*Result, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}

	var result Result
	err := g.client.GenerateJSON(ctx, genai.GenerateRequest{
		Model: model,
		Parts: []genai.Part{
			genai.ImagePart(image, mimeType),
			genai.TextPart("Generate metadata for the provided image based on my system instructions."),
		},
		SystemInstruction: buildInstruction(settings),
		ResponseSchema:    responseSchema,
	}, &result)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = g.client.TextModel()
	}
	result.ModelName = model
	return &result, nil
}

func buildInstruction(s Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert AI assistant specializing in generating high-quality metadata for stock photography and digital assets. Your task is to analyze an image and produce a compelling title, a set of relevant keywords, and a detailed description based on the user's specific requirements.

**Instructions:**
1.  **Analyze the Image:** Carefully examine the image content, including subjects, setting, colors, mood, and potential concepts.
2.  **Generate Title:** Create a concise, descriptive title. The title should be approximately %d characters long.
3.  **Generate Keywords:** Produce a list of approximately %d keywords.
    - The keywords must be highly relevant to the image.
    - Adhere to the specified Keyword Format: %q.
    - 'Single Only' means each keyword must be a single word.
    - 'Double Only' means each keyword should be a two-word phrase.
    - 'Mixed' means you can use a combination of single and multi-word keywords.
`, s.TitleLength, s.KeywordCount, s.KeywordFormat)
	if strings.TrimSpace(s.IncludeKeywords) != "" {
		fmt.Fprintf(&b, "    - You MUST include keywords related to: %q.\n", s.IncludeKeywords)
	}
	if strings.TrimSpace(s.ExcludeKeywords) != "" {
		fmt.Fprintf(&b, "    - You MUST NOT include keywords related to: %q.\n", s.ExcludeKeywords)
	}
	fmt.Fprintf(&b, `4.  **Generate Description:** Write a detailed description of the image. The description should be approximately %d characters long.

**Output Format:**
- You MUST return a single, valid JSON object with three keys: "title", "keywords" (an array of strings), and "description".
- Do not include any other text, explanations, or markdown formatting outside of the JSON object itself.`, s.DescriptionLength)
	return b.String()
}
