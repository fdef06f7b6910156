package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Gemini answers doubts with Google's Gemini API. A Gemini constructed
// without an API key is a valid value whose Answer always returns
// ErrUnavailable, so callers can wire the chain unconditionally.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini builds a Gemini provider. An empty apiKey yields a
// non-functional provider rather than an error, matching a deployment that
// simply has not enabled the model.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set; Gemini answers are disabled")
		return &Gemini{}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &Gemini{client: client, model: client.GenerativeModel(modelName)}, nil
}

// Close releases the underlying API client. Safe on a disabled provider.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Answer implements Provider.
func (g *Gemini) Answer(ctx context.Context, courseID, title, question string) (string, error) {
	if g.model == nil {
		return "", ErrUnavailable
	}

	var b strings.Builder
	b.WriteString("You are a teaching assistant answering a student's question on a university course forum.\n")
	b.WriteString("Answer concisely and concretely. If the question cannot be answered without more detail, say exactly what detail is missing.\n")
	b.WriteString("Do not invent course-specific policies or deadlines.\n\n")
	if courseID != "" {
		fmt.Fprintf(&b, "Course: %s\n", courseID)
	}
	if title != "" {
		fmt.Fprintf(&b, "Question title: %s\n", title)
	}
	b.WriteString("Question:\n---\n")
	b.WriteString(question)
	b.WriteString("\n---\n")

	resp, err := g.model.GenerateContent(ctx, genai.Text(b.String()))
	if err != nil {
		log.Error().Err(err).Str("course_id", courseID).Msg("Gemini API error while drafting answer")
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn().Msg("Gemini returned no candidates or parts in response")
		return "", ErrNoAnswer
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	ans := strings.TrimSpace(out.String())
	if ans == "" {
		return "", ErrNoAnswer
	}
	return ans, nil
}
