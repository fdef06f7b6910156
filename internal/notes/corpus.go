// Package notes provides a deterministic, concurrency-safe in-memory corpus
// built from a Markdown file of course notes. Top-level headings partition the
// file into per-course sections ("# cs101"); paragraphs before the first
// heading are shared across all courses. The corpus is read-only after
// construction, so the AI fallback path can query it from many requests at
// once without locking.
//
// Lookup scores paragraphs with Jaccard similarity between the question token
// set and each paragraph's token set: score = |Q ∩ P| / |Q ∪ P|. Scoring and
// ordering are deterministic, ties break toward shorter snippets.
package notes

import (
	"bytes"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Snippet is a ranked course-note paragraph with its similarity score.
type Snippet struct {
	Course string
	Text   string
	Score  float64
}

// Corpus is the minimal interface the answer pipeline depends on.
type Corpus interface {
	Lookup(courseID, question string, k int) []Snippet
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minParagraphRunes int
	stopwords         map[string]struct{}
	maxParagraphs     int
}

func defaultConfig() config {
	return config{
		minParagraphRunes: 40,
		stopwords:         nil,
		maxParagraphs:     0,
	}
}

// WithMinParagraphRunes drops paragraphs shorter than n runes. Headings and
// stray fragments rarely make useful answers.
func WithMinParagraphRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minParagraphRunes = n
		}
	}
}

// WithStopwords removes the given words from both question and paragraph
// token sets before scoring.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxParagraphs caps the total number of indexed paragraphs.
func WithMaxParagraphs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxParagraphs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type entry struct {
	course string
	text   string
	tokens map[string]struct{}
	tLen   int
}

type corpus struct {
	cfg     config
	entries []entry
}

// NewCorpusFromMarkdown builds a Corpus by reading the Markdown notes at path
// and delegating to NewCorpusFromReader. Table rows are flattened into
// standalone facts first so tabular notes remain searchable.
func NewCorpusFromMarkdown(path string, opts ...Option) (Corpus, error) {
	b, err := flattenMarkdownFile(path)
	if err != nil {
		return &corpus{cfg: defaultConfig()}, err
	}
	return NewCorpusFromReader(bytes.NewReader(b), opts...)
}

// NewCorpusFromReader builds a Corpus from UTF-8 Markdown provided by r.
// The reader is fully consumed. A top-level heading ("# cs101") starts a
// course section; text before the first heading belongs to every course.
func NewCorpusFromReader(r io.Reader, opts ...Option) (Corpus, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	all, err := io.ReadAll(r)
	if err != nil {
		return &corpus{cfg: cfg}, err
	}
	return buildCorpus(splitSections(string(all)), cfg), nil
}

// section is one course's worth of raw paragraphs. course == "" means shared.
type section struct {
	course string
	paras  []string
}

var (
	headingRE   = regexp.MustCompile(`^#\s+(\S+)\s*$`)
	paraSplitRE = regexp.MustCompile(`\n\s*\n`)
)

func splitSections(raw string) []section {
	var (
		out []section
		cur = section{course: ""}
		buf strings.Builder
	)
	flush := func() {
		for _, c := range paraSplitRE.Split(buf.String(), -1) {
			if t := strings.TrimSpace(c); t != "" {
				cur.paras = append(cur.paras, t)
			}
		}
		buf.Reset()
		if len(cur.paras) > 0 {
			out = append(out, cur)
		}
	}
	for _, line := range strings.Split(raw, "\n") {
		if m := headingRE.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			flush()
			cur = section{course: strings.ToLower(m[1])}
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()
	return out
}

func buildCorpus(sections []section, cfg config) *corpus {
	var entries []entry
	count := 0
	for _, sec := range sections {
		for _, raw := range sec.paras {
			t := strings.TrimSpace(normalizeWhitespace(raw))
			if t == "" {
				continue
			}
			if cfg.minParagraphRunes > 0 && utf8.RuneCountInString(t) < cfg.minParagraphRunes {
				continue
			}
			toks := tokenize(t, cfg.stopwords)
			if len(toks) == 0 {
				continue
			}
			entries = append(entries, entry{course: sec.course, text: t, tokens: toks, tLen: len(toks)})
			count++
			if cfg.maxParagraphs > 0 && count >= cfg.maxParagraphs {
				return &corpus{cfg: cfg, entries: entries}
			}
		}
	}
	return &corpus{cfg: cfg, entries: entries}
}

// Lookup returns up to k best-matching paragraphs for the question, limited
// to the shared section plus the named course's section. An empty courseID
// searches every section.
func (c *corpus) Lookup(courseID, question string, k int) []Snippet {
	if len(c.entries) == 0 || strings.TrimSpace(question) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(question, c.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)
	courseID = strings.ToLower(strings.TrimSpace(courseID))

	type scored struct {
		course   string
		text     string
		score    float64
		lenRunes int
	}

	var buf []scored
	for _, e := range c.entries {
		if courseID != "" && e.course != "" && e.course != courseID {
			continue
		}
		over := overlap(qTokens, e.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + e.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, scored{
			course:   e.course,
			text:     e.text,
			score:    score,
			lenRunes: utf8.RuneCountInString(e.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].text < buf[b].text
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Snippet, k)
	for i := 0; i < k; i++ {
		out[i] = Snippet{Course: buf[i].course, Text: buf[i].text, Score: buf[i].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Tokenization helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
