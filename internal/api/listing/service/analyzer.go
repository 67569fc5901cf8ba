package listingService

import (
	"Replicaide/internal/api/listing"
	"Replicaide/internal/entity"
	"Replicaide/pkg/generation"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lithammer/dedent"
)

var ErrMalformedAnalysis = errors.New("malformed analysis response")

var analysisInstruction = strings.TrimSpace(dedent.Dedent(`
	You write menu listings for a restaurant located in %s.
	The person describing the dish is the %s, and their manner is %s. Write the copy the
	way they would present the dish to their own guests.

	You receive the transcript of a short voice note describing one menu item and a photo of it.
	Reply with a single JSON object and nothing else, shaped exactly like this:
	{
	  "eng": {"title": "...", "description": "...", "marketing_description": "..."},
	  "esp": {"title": "...", "description": "...", "marketing_description": "..."},
	  "price": "<ISO currency code> <amount>"
	}

	Rules:
	- "eng" is written in English and "esp" in Spanish. Translate meaning, not word by word.
	- "description" is one factual sentence about ingredients and preparation.
	- "marketing_description" is two or three sentences meant to be read aloud.
	- Never open with "This is a" and never use the word "delicious" or its translations.
	- Take the price from the transcript. If none is stated, estimate one that fits the location.
	- If the recording is unusable, the photo is not food, or you cannot comply for any other
	  reason, reply with {"error": "<short reason>"} instead.
`))

// AnalysisResult is the validated copy for both languages. EnhancedAudio is
// left empty for the synthesizer to fill.
type AnalysisResult struct {
	English entity.LanguageContent
	Spanish entity.LanguageContent
	Price   entity.Price
}

type Analyzer interface {
	Analyze(ctx context.Context, transcript string, imageURL string, profile entity.Profile) (AnalysisResult, error)
}

type mediaAnalyzer struct {
	generator   generation.Generator
	temperature float32
	maxTokens   int
}

func NewAnalyzer(generator generation.Generator) Analyzer {
	return &mediaAnalyzer{
		generator:   generator,
		temperature: 0.7,
		maxTokens:   1200,
	}
}

func (a *mediaAnalyzer) Analyze(ctx context.Context, transcript string, imageURL string, profile entity.Profile) (AnalysisResult, error) {
	raw, err := a.generator.Complete(ctx, generation.CompletionRequest{
		System:      buildAnalysisInstruction(profile),
		Prompt:      "Voice note transcript:\n" + transcript,
		ImageURL:    imageURL,
		JSON:        true,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return AnalysisResult{}, err
	}

	return ParseAnalysis(raw)
}

func buildAnalysisInstruction(profile entity.Profile) string {
	return fmt.Sprintf(analysisInstruction,
		describeLocation(profile.Location),
		orDefault(profile.Persona.Role, "restaurant manager"),
		orDefault(profile.Persona.Temperament, "friendly and professional"),
	)
}

func describeLocation(loc entity.Location) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{loc.City, loc.State, loc.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "an unspecified city"
	}
	return strings.Join(parts, ", ")
}

func orDefault(s string, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

type analysisContent struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	MarketingDescription string `json:"marketing_description"`
}

type analysisPayload struct {
	Error   *string          `json:"error"`
	English *analysisContent `json:"eng"`
	Spanish *analysisContent `json:"esp"`
	Price   interface{}      `json:"price"`
}

// ParseAnalysis validates a model reply. Replies wrapped in prose or code
// fences are reduced to their outermost JSON object first.
func ParseAnalysis(raw string) (AnalysisResult, error) {
	var payload analysisPayload
	if err := jsoniter.UnmarshalFromString(strings.TrimSpace(raw), &payload); err != nil {
		obj, ok := generation.ExtractJSONObject(raw)
		if !ok {
			return AnalysisResult{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedAnalysis)
		}
		payload = analysisPayload{}
		if err := jsoniter.UnmarshalFromString(obj, &payload); err != nil {
			return AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
		}
	}

	if payload.Error != nil && strings.TrimSpace(*payload.Error) != "" {
		return AnalysisResult{}, &listing.AnalysisRejectedError{Reason: strings.TrimSpace(*payload.Error)}
	}

	english, err := validContent("eng", payload.English)
	if err != nil {
		return AnalysisResult{}, err
	}
	spanish, err := validContent("esp", payload.Spanish)
	if err != nil {
		return AnalysisResult{}, err
	}

	price, err := entity.ParsePrice(priceString(payload.Price))
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}

	return AnalysisResult{English: english, Spanish: spanish, Price: price}, nil
}

func validContent(key string, c *analysisContent) (entity.LanguageContent, error) {
	if c == nil {
		return entity.LanguageContent{}, fmt.Errorf("%w: missing %q", ErrMalformedAnalysis, key)
	}

	content := entity.LanguageContent{
		Title:                strings.TrimSpace(c.Title),
		Description:          strings.TrimSpace(c.Description),
		MarketingDescription: strings.TrimSpace(c.MarketingDescription),
	}
	if content.Title == "" || content.MarketingDescription == "" {
		return entity.LanguageContent{}, fmt.Errorf("%w: %q has empty title or marketing text", ErrMalformedAnalysis, key)
	}

	return content, nil
}

func priceString(v interface{}) string {
	switch p := v.(type) {
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	}
	return ""
}
