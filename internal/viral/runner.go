package viral

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contentstudio/internal/domain"
	"contentstudio/internal/providers/genai"
)

// StageRunner is the model-facing side of the pipeline. The controller
// depends on this interface so stage semantics can be tested without network
// calls.
type StageRunner interface {
	Titles(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error)
	Narrative(ctx context.Context, title string, durationSeconds int, country string) (*domain.Narrative, error)
	ProductionAssets(ctx context.Context, narrative domain.Narrative, title, country string) ([]domain.ProductionAsset, error)
	Thumbnail(ctx context.Context, title, country string) (*domain.ThumbnailDesign, error)
}

var titlesSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "titles": {"type": "ARRAY", "items": {"type": "STRING"}},
    "analysis": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "rank": {"type": "INTEGER"},
          "title": {"type": "STRING"},
          "recommendation": {"type": "STRING"}
        },
        "required": ["rank", "title", "recommendation"]
      }
    }
  },
  "required": ["titles", "analysis"]
}`)

var narrativeSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "hook": {"type": "STRING"},
    "conflict_1": {"type": "STRING"},
    "conflict_2": {"type": "STRING"},
    "twist": {"type": "STRING"},
    "conflict_3": {"type": "STRING"},
    "closing": {"type": "STRING"},
    "production_notes": {"type": "STRING"}
  },
  "required": ["hook", "conflict_1", "conflict_2", "twist", "conflict_3", "closing", "production_notes"]
}`)

var assetsSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "assets": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "segment_name": {"type": "STRING"},
          "timestamp": {"type": "STRING"},
          "text_to_image_prompt": {"type": "STRING"},
          "image_to_video_prompt": {"type": "STRING"}
        },
        "required": ["segment_name", "timestamp", "text_to_image_prompt", "image_to_video_prompt"]
      }
    }
  },
  "required": ["assets"]
}`)

var thumbnailSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "analysis": {
      "type": "OBJECT",
      "properties": {
        "clickable": {"type": "STRING"},
        "emotional": {"type": "STRING"},
        "visual": {"type": "STRING"},
        "optimized": {"type": "STRING"}
      },
      "required": ["clickable", "emotional", "visual", "optimized"]
    },
    "prompt": {"type": "STRING"},
    "notes": {
      "type": "OBJECT",
      "properties": {
        "iteration": {"type": "STRING"},
        "ab_testing": {"type": "STRING"},
        "adjust": {"type": "STRING"}
      },
      "required": ["iteration", "ab_testing", "adjust"]
    }
  },
  "required": ["analysis", "prompt", "notes"]
}`)

// GeminiRunner implements StageRunner over the shared Gemini client.
type GeminiRunner struct {
	client *genai.Client
}

func NewGeminiRunner(client *genai.Client) *GeminiRunner {
	return &GeminiRunner{client: client}
}

func (r *GeminiRunner) Titles(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error) {
	lang := domain.WorkingLanguage(params.Country)
	instruction := fmt.Sprintf(`You are a short-form video strategist who understands what makes titles go viral in %s. Work entirely in %s: every title and every recommendation must be written in %s.

**Instructions:**
1. Generate exactly %d distinct video titles for a %d-second short video in the %q category with the specific niche %q, aimed at viewers in %s.
2. Titles must trigger curiosity, urgency, or strong emotion, and fit short-form platforms (under 100 characters each).
3. Pick the 3 titles with the highest viral potential. For each, provide its rank (1 to 3), the exact title text, and a two or three sentence recommendation explaining why it will perform.

**Output Format:**
- Return a single valid JSON object with "titles" (array of %d strings) and "analysis" (array of 3 ranked objects).
- The title field of each analysis entry must repeat one of the generated titles verbatim.`, params.Country, lang, lang, params.Count, params.Duration, params.Category, params.Niche, params.Country, params.Count)

	var set domain.TitleSet
	err := r.client.GenerateJSON(ctx, genai.GenerateRequest{
		Parts:             []genai.Part{genai.TextPart("Generate the viral video titles now.")},
		SystemInstruction: instruction,
		ResponseSchema:    titlesSchema,
		Temperature:       0.9,
	}, &set)
	if err != nil {
		return nil, err
	}
	if len(set.Titles) == 0 || len(set.Analysis) == 0 {
		return nil, fmt.Errorf("%w: empty title set", domain.ErrMalformedResponse)
	}
	return &set, nil
}

func (r *GeminiRunner) Narrative(ctx context.Context, title string, durationSeconds int, country string) (*domain.Narrative, error) {
	lang := domain.WorkingLanguage(country)
	instruction := fmt.Sprintf(`You are a scriptwriter for viral short videos targeting %s. Write entirely in %s.

**Instructions:**
1. Build a six-beat narrative for a %d-second video titled %q: an opening hook, three escalating conflicts, a twist before the third conflict, and a closing.
2. Each beat is the narrator's spoken text for that segment, paced so the full narration fits %d seconds.
3. Add production notes: tone of voice, pacing, and music direction for the whole video.

**Output Format:**
- Return a single valid JSON object with the keys "hook", "conflict_1", "conflict_2", "twist", "conflict_3", "closing", and "production_notes".`, country, lang, durationSeconds, title, durationSeconds)

	var narrative domain.Narrative
	err := r.client.GenerateJSON(ctx, genai.GenerateRequest{
		Parts:             []genai.Part{genai.TextPart("Write the narrative now.")},
		SystemInstruction: instruction,
		ResponseSchema:    narrativeSchema,
		Temperature:       0.8,
	}, &narrative)
	if err != nil {
		return nil, err
	}
	for _, segment := range narrative.Segments() {
		if strings.TrimSpace(segment.Script) == "" {
			return nil, fmt.Errorf("%w: narrative beat %q is empty", domain.ErrMalformedResponse, segment.Name)
		}
	}
	return &narrative, nil
}

type rawAsset struct {
	SegmentName string `json:"segment_name"`
	Timestamp   string `json:"timestamp"`
	ImagePrompt string `json:"text_to_image_prompt"`
	VideoPrompt string `json:"image_to_video_prompt"`
}

type rawAssetList struct {
	Assets []rawAsset `json:"assets"`
}

// ProductionAssets asks the model for timestamps and English generation
// prompts per narrative beat. The narration text is never sent back through
// the model: each returned asset carries the stored beat verbatim, which
// keeps narration in the working language and prompts in English.
func (r *GeminiRunner) ProductionAssets(ctx context.Context, narrative domain.Narrative, title, country string) ([]domain.ProductionAsset, error) {
	lang := domain.WorkingLanguage(country)
	segments := narrative.Segments()

	var listing strings.Builder
	for i, segment := range segments {
		fmt.Fprintf(&listing, "%d. %s: %s\n", i+1, segment.Name, segment.Script)
	}

	instruction := fmt.Sprintf(`You are a production planner for viral short videos. The video is titled %q and narrated in %s for viewers in %s.

**Instructions:**
1. For each of the %d narration segments below (in order), produce:
   - "segment_name": the segment's name exactly as given.
   - "timestamp": the segment's time range (e.g. "0:00 - 0:08"), written in %s conventions.
   - "text_to_image_prompt": a highly detailed ENGLISH prompt for a text-to-image model depicting that segment's scene.
   - "image_to_video_prompt": a detailed ENGLISH prompt for an image-to-video model that animates that exact scene.
2. Both prompts MUST be written in English regardless of the narration language. Never mix languages inside one field.
3. Return exactly %d asset objects, one per segment, in the same order.

**Output Format:**
- Return a single valid JSON object with an "assets" array.`, title, lang, country, len(segments), lang, len(segments))

	var parsed rawAssetList
	err := r.client.GenerateJSON(ctx, genai.GenerateRequest{
		Parts:             []genai.Part{genai.TextPart("Narration segments:\n" + listing.String())},
		SystemInstruction: instruction,
		ResponseSchema:    assetsSchema,
		Temperature:       0.7,
	}, &parsed)
	if err != nil {
		return nil, err
	}
	if len(parsed.Assets) != len(segments) {
		return nil, fmt.Errorf("%w: expected %d assets, got %d", domain.ErrMalformedResponse, len(segments), len(parsed.Assets))
	}

	assets := make([]domain.ProductionAsset, len(segments))
	for i, segment := range segments {
		raw := parsed.Assets[i]
		if strings.TrimSpace(raw.ImagePrompt) == "" || strings.TrimSpace(raw.VideoPrompt) == "" {
			return nil, fmt.Errorf("%w: segment %q is missing prompts", domain.ErrMalformedResponse, segment.Name)
		}
		assets[i] = domain.ProductionAsset{
			SegmentName:    segment.Name,
			Timestamp:      raw.Timestamp,
			NarratorScript: segment.Script,
			ImagePrompt:    raw.ImagePrompt,
			VideoPrompt:    raw.VideoPrompt,
		}
	}
	return assets, nil
}

func (r *GeminiRunner) Thumbnail(ctx context.Context, title, country string) (*domain.ThumbnailDesign, error) {
	lang := domain.WorkingLanguage(country)
	instruction := fmt.Sprintf(`You are a thumbnail designer for viral videos targeting %s. Analysis and notes are written in %s; the image generation prompt is written in ENGLISH.

**Instructions:**
1. Design one high-click-through thumbnail for the video titled %q.
2. Provide an analysis with four fields: "clickable" (why viewers will click), "emotional" (the emotion it triggers), "visual" (composition and color choices), "optimized" (how it is optimized for small screens).
3. Provide "prompt": a single detailed ENGLISH text-to-image prompt for the thumbnail, including any overlay text rendered in %s.
4. Provide notes with "iteration" (how to iterate on the design), "ab_testing" (what to A/B test), and "adjust" (what to adjust per platform).

**Output Format:**
- Return a single valid JSON object with "analysis", "prompt", and "notes".`, country, lang, title, lang)

	var design domain.ThumbnailDesign
	err := r.client.GenerateJSON(ctx, genai.GenerateRequest{
		Parts:             []genai.Part{genai.TextPart("Design the thumbnail now.")},
		SystemInstruction: instruction,
		ResponseSchema:    thumbnailSchema,
		Temperature:       0.8,
	}, &design)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(design.Prompt) == "" {
		return nil, fmt.Errorf("%w: thumbnail prompt is empty", domain.ErrMalformedResponse)
	}
	return &design, nil
}

var _ StageRunner = (*GeminiRunner)(nil)
