package social

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"contentstudio/internal/domain"
	"contentstudio/internal/providers/genai"
)

// Platforms the generator knows how to write for.
const (
	PlatformTwitter   = "Twitter/X"
	PlatformLinkedIn  = "LinkedIn"
	PlatformFacebook  = "Facebook"
	PlatformInstagram = "Instagram"
)

var allowedPlatforms = map[string]struct{}{
	PlatformTwitter:   {},
	PlatformLinkedIn:  {},
	PlatformFacebook:  {},
	PlatformInstagram: {},
}

// Params carries the inputs for one social post generation.
type Params struct {
	Topic           string `json:"topic"`
	Platform        string `json:"platform"`
	Tone            string `json:"tone"`
	IncludeHashtags bool   `json:"include_hashtags"`
	IncludeEmojis   bool   `json:"include_emojis"`
}

func (p Params) validate() error {
	if strings.TrimSpace(p.Topic) == "" {
		return fmt.Errorf("%w: topic is required", domain.ErrInvalidInput)
	}
	if _, ok := allowedPlatforms[p.Platform]; !ok {
		return fmt.Errorf("%w: unsupported platform %q", domain.ErrInvalidInput, p.Platform)
	}
	if strings.TrimSpace(p.Tone) == "" {
		return fmt.Errorf("%w: tone is required", domain.ErrInvalidInput)
	}
	return nil
}

// Writer generates ready-to-paste social media posts.
type Writer struct {
	client *genai.Client
}

func NewWriter(client *genai.Client) *Writer {
	return &Writer{client: client}
}

// Write returns the post text for the given parameters.
func (w *Writer) Write(ctx context.Context, params Params) (string, error) {
	if err := params.validate(); err != nil {
		return "", err
	}

	text, err := w.client.GenerateText(ctx, genai.GenerateRequest{
		Parts:             []genai.Part{genai.TextPart("Generate a social media post for me.")},
		SystemInstruction: buildInstruction(params),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func buildInstruction(p Params) string {
	tone := cases.Title(language.English).String(strings.TrimSpace(p.Tone))

	hashtags := "Do not include any hashtags."
	if p.IncludeHashtags {
		hashtags = "Include relevant and popular hashtags. For Twitter and Instagram, place them at the end. For LinkedIn, integrate them naturally or at the end."
	}
	emojis := "Do not include any emojis."
	if p.IncludeEmojis {
		emojis = "Include a few relevant emojis to increase engagement."
	}

	return fmt.Sprintf(`You are an expert social media manager. Your task is to generate a compelling social media post based on user-defined parameters.

**Instructions:**
1.  **Analyze the User's Topic:** Understand the core message and goal of the user's topic: %q.
2.  **Adhere to Platform Constraints:**
    -   **Platform:** %s. This is the most important constraint.
    -   **Twitter/X:** Be concise and impactful, strictly under 280 characters.
    -   **LinkedIn:** Use a professional and structured tone. Use line breaks for readability. Ideal for career, tech, and business topics.
    -   **Facebook:** Use a conversational and engaging tone. Can be slightly longer than Twitter.
    -   **Instagram:** Write a caption that is visually oriented and encourages engagement. Ask questions.
3.  **Apply Tone of Voice:** The tone must be %q.
4.  **Hashtags:** %s
5.  **Emojis:** %s

**Output:**
-   You MUST return only the text content of the post.
-   Do not include any other text, explanations, titles, or markdown formatting like quotes or code blocks.
-   The output should be a single block of text ready to be copied and pasted.`, p.Topic, p.Platform, tone, hashtags, emojis)
}
