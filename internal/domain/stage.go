package domain

import (
	"fmt"
	"strings"
)

// TitleParams carries the inputs of the title ideation stage.
type TitleParams struct {
	Count    int    `json:"count"`
	Duration int    `json:"duration"`
	Country  string `json:"country"`
	Category string `json:"category"`
	Niche    string `json:"niche"`
}

var allowedTitleCounts = map[int]struct{}{
	10: {},
	20: {},
	30: {},
	40: {},
	50: {},
}

var allowedDurations = map[int]struct{}{
	15: {},
	30: {},
	60: {},
}

// Validate ensures the title parameters satisfy the stage contract before any
// provider call is made.
func (p TitleParams) Validate() error {
	if _, ok := allowedTitleCounts[p.Count]; !ok {
		return fmt.Errorf("%w: count must be one of 10, 20, 30, 40, 50", ErrInvalidInput)
	}
	if _, ok := allowedDurations[p.Duration]; !ok {
		return fmt.Errorf("%w: duration must be one of 15, 30, 60 seconds", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Country) == "" {
		return fmt.Errorf("%w: country is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Niche) == "" {
		return fmt.Errorf("%w: niche is required", ErrInvalidInput)
	}
	return nil
}

// TitleAnalysis ranks one generated title with the model's reasoning.
type TitleAnalysis struct {
	Rank           int    `json:"rank"`
	Title          string `json:"title"`
	Recommendation string `json:"recommendation"`
}

// TitleSet is the complete output of the title ideation stage.
type TitleSet struct {
	Titles   []string        `json:"titles"`
	Analysis []TitleAnalysis `json:"analysis"`
}

// Contains reports whether title is a member of the generated set, including
// the ranked analysis entries.
func (t TitleSet) Contains(title string) bool {
	for _, candidate := range t.Titles {
		if candidate == title {
			return true
		}
	}
	for _, item := range t.Analysis {
		if item.Title == title {
			return true
		}
	}
	return false
}

// Narrative is the six-beat story structure produced for a selected title,
// plus free-form production notes.
type Narrative struct {
	Hook            string `json:"hook"`
	Conflict1       string `json:"conflict_1"`
	Conflict2       string `json:"conflict_2"`
	Twist           string `json:"twist"`
	Conflict3       string `json:"conflict_3"`
	Closing         string `json:"closing"`
	ProductionNotes string `json:"production_notes"`
}

// NarrativeSegment pairs a beat name with its narration text.
type NarrativeSegment struct {
	Name   string
	Script string
}

// Segments returns the narrative beats in playback order. Production notes
// are metadata, not a beat, and are excluded.
func (n Narrative) Segments() []NarrativeSegment {
	return []NarrativeSegment{
		{Name: "Hook", Script: n.Hook},
		{Name: "Conflict 1", Script: n.Conflict1},
		{Name: "Conflict 2", Script: n.Conflict2},
		{Name: "Twist", Script: n.Twist},
		{Name: "Conflict 3", Script: n.Conflict3},
		{Name: "Closing", Script: n.Closing},
	}
}

// ProductionAsset describes one video segment ready for production. The
// narration and timestamp stay in the pipeline's working language while both
// generation prompts are always English.
type ProductionAsset struct {
	SegmentName    string `json:"segment_name"`
	Timestamp      string `json:"timestamp"`
	NarratorScript string `json:"narrator_script"`
	ImagePrompt    string `json:"text_to_image_prompt"`
	VideoPrompt    string `json:"image_to_video_prompt"`
}

// ThumbnailAnalysis explains why the proposed thumbnail should perform.
type ThumbnailAnalysis struct {
	Clickable string `json:"clickable"`
	Emotional string `json:"emotional"`
	Visual    string `json:"visual"`
	Optimized string `json:"optimized"`
}

// ThumbnailNotes carries follow-up advice attached to a thumbnail design.
type ThumbnailNotes struct {
	Iteration string `json:"iteration"`
	ABTesting string `json:"ab_testing"`
	Adjust    string `json:"adjust"`
}

// ThumbnailDesign is the output of the final pipeline stage.
type ThumbnailDesign struct {
	Analysis ThumbnailAnalysis `json:"analysis"`
	Prompt   string            `json:"prompt"`
	Notes    ThumbnailNotes    `json:"notes"`
}
