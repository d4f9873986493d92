package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply string
	err   error

	model    string
	mimeType string
	prompt   string
	json     bool
}

func (f *fakeGenerator) generate(_ context.Context, model string, _ []byte, mimeType, prompt string, jsonOutput bool) (string, error) {
	f.model, f.mimeType, f.prompt, f.json = model, mimeType, prompt, jsonOutput
	return f.reply, f.err
}

func TestNewGeminiAnalyzerRequiresKey(t *testing.T) {
	_, err := NewGeminiAnalyzer(context.Background(), "", DefaultModel)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestExtractText(t *testing.T) {
	gen := &fakeGenerator{reply: "# Chapter One\n\nThe sun rose."}
	a := &GeminiAnalyzer{model: DefaultModel, gen: gen}

	text, err := a.ExtractText(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "# Chapter One\n\nThe sun rose.", text)
	assert.Equal(t, "gemini-2.5-flash", gen.model)
	assert.Equal(t, "image/jpeg", gen.mimeType)
	assert.Contains(t, gen.prompt, "Maintain the paragraph structure")
	assert.False(t, gen.json)
}

func TestExtractTextError(t *testing.T) {
	boom := errors.New("quota exceeded")
	a := &GeminiAnalyzer{model: DefaultModel, gen: &fakeGenerator{err: boom}}

	_, err := a.ExtractText(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, boom)
}

func TestAnalyzePage(t *testing.T) {
	gen := &fakeGenerator{reply: `{"title":"Dawn in the Old Town","description":"A quiet morning over rooftops."}`}
	a := &GeminiAnalyzer{model: DefaultModel, gen: gen}

	summary, err := a.AnalyzePage(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, &PageSummary{Title: "Dawn in the Old Town", Description: "A quiet morning over rooftops."}, summary)
	assert.True(t, gen.json)
	assert.Contains(t, gen.prompt, `"title" and "description"`)
}

func TestAnalyzePageEmptyResponse(t *testing.T) {
	a := &GeminiAnalyzer{model: DefaultModel, gen: &fakeGenerator{reply: "  "}}

	_, err := a.AnalyzePage(context.Background(), []byte("img"), "image/png")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnalyzePageBadJSON(t *testing.T) {
	a := &GeminiAnalyzer{model: DefaultModel, gen: &fakeGenerator{reply: "Title: Dawn"}}

	_, err := a.AnalyzePage(context.Background(), []byte("img"), "image/png")
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	a := Unavailable{Err: ErrNoAPIKey}

	_, err := a.ExtractText(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = a.AnalyzePage(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
