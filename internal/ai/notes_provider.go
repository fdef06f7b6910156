package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/campusdesk/go-doubt-backend/internal/notes"
)

// NotesProvider answers from the course notes corpus. It is the offline
// fallback behind Gemini: purely local, deterministic, and good enough to
// point the student at the right paragraph while the doubt waits for a
// human.
type NotesProvider struct {
	Corpus notes.Corpus

	// MaxSnippets caps how many paragraphs are quoted. Zero means 3.
	MaxSnippets int

	// MinScore drops weak matches. Zero keeps everything Lookup returns.
	MinScore float64
}

// Answer implements Provider.
func (p *NotesProvider) Answer(ctx context.Context, courseID, title, question string) (string, error) {
	if p.Corpus == nil {
		return "", ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	k := p.MaxSnippets
	if k <= 0 {
		k = 3
	}

	q := strings.TrimSpace(title + " " + question)
	hits := p.Corpus.Lookup(courseID, q, k)

	kept := hits[:0]
	for _, h := range hits {
		if h.Score >= p.MinScore {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return "", ErrNoAnswer
	}

	var b strings.Builder
	b.WriteString("These course notes look relevant:\n")
	for _, h := range kept {
		fmt.Fprintf(&b, "\n- %s\n", h.Text)
	}
	return b.String(), nil
}
