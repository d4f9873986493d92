package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catatbuku/pkg/logger"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

const (
	extractPrompt = "Extract and transcribe all the text from this book page image. Maintain the paragraph structure. If there are headings, format them as markdown headings."

	analyzePrompt = `Analyze this image of a book page.
1. Extract a catchy, short title based on the chapter header or the main topic of the text.
2. Provide a 1-2 sentence summary of the content visible on the page to use as a description.
3. Return the response in strict JSON format with keys: "title" and "description".`
)

// generator sends one image plus an instruction to a model and returns the
// text of its answer.
type generator interface {
	generate(ctx context.Context, model string, image []byte, mimeType, prompt string, jsonOutput bool) (string, error)
}

type GeminiAnalyzer struct {
	model string
	gen   generator
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiAnalyzer{model: model, gen: genaiGenerator{client: client}}, nil
}

func (a *GeminiAnalyzer) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	text, err := a.gen.generate(ctx, a.model, image, mimeType, extractPrompt, false)
	if err != nil {
		logger.Sugar.Errorf("Error extracting text: %v", err)
		return "", fmt.Errorf("extracting text: %w", err)
	}
	return text, nil
}

func (a *GeminiAnalyzer) AnalyzePage(ctx context.Context, image []byte, mimeType string) (*PageSummary, error) {
	text, err := a.gen.generate(ctx, a.model, image, mimeType, analyzePrompt, true)
	if err != nil {
		logger.Sugar.Errorf("Error analyzing book page: %v", err)
		return nil, fmt.Errorf("analyzing page: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	var summary PageSummary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		logger.Sugar.Errorf("Error analyzing book page, bad JSON %q: %v", text, err)
		return nil, fmt.Errorf("decoding page analysis: %w", err)
	}
	return &summary, nil
}

type genaiGenerator struct {
	client *genai.Client
}

func (g genaiGenerator) generate(ctx context.Context, model string, image []byte, mimeType, prompt string, jsonOutput bool) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}
	var config *genai.GenerateContentConfig
	if jsonOutput {
		config = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
