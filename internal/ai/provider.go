// Package ai produces the first-line draft answer for a newly asked doubt.
//
// The primary provider calls Gemini; when no API key is configured or the
// model comes back empty, a retrieval fallback over the course notes corpus
// can still produce something useful. Providers are composed with Chain, and
// the answer pipeline treats every error here as best-effort: a doubt is
// created whether or not a draft answer could be produced.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by a provider that is not configured to run,
// for example Gemini without an API key.
var ErrUnavailable = errors.New("ai provider unavailable")

// ErrNoAnswer is returned when a provider ran but produced nothing worth
// attaching to the doubt.
var ErrNoAnswer = errors.New("no answer available")

// Provider generates a draft answer for a question asked in a course.
// Implementations must be safe for concurrent use.
type Provider interface {
	Answer(ctx context.Context, courseID, title, question string) (string, error)
}

// Chain tries each provider in order and returns the first answer. A
// provider failing with any error just moves the chain along; the chain
// only reports ErrNoAnswer when every provider declined.
type Chain []Provider

// Answer implements Provider.
func (c Chain) Answer(ctx context.Context, courseID, title, question string) (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		ans, err := p.Answer(ctx, courseID, title, question)
		if err == nil && ans != "" {
			return ans, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", ErrNoAnswer
}
