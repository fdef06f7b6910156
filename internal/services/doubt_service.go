// Package services – DoubtService
//
// This file implements DoubtService, the application-level component that owns
// the lifecycle of doubts: asking (with a best-effort AI draft answer),
// student verdicts on that draft, replies from the forum, and the read paths.
// Status changes always go through the repo's guarded transition so a handler
// and the background sweeper can never double-apply a step.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include doubt/course identifiers and pagination parameters where applicable.

package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/campusdesk/go-doubt-backend/internal/ai"
	"github.com/campusdesk/go-doubt-backend/internal/domain"
	"github.com/campusdesk/go-doubt-backend/internal/escalation"
	"github.com/campusdesk/go-doubt-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultDoubtTitle = "Untitled doubt"

// DoubtRepo defines the repository contract required by DoubtService.
type DoubtRepo interface {
	// CreateDoubt inserts a new doubt with its initial history entry.
	CreateDoubt(ctx context.Context, db *gorm.DB, d *domain.Doubt) (*domain.Doubt, error)

	// GetDoubt fetches a doubt with replies and history preloaded.
	GetDoubt(ctx context.Context, db *gorm.DB, id string) (*domain.Doubt, error)

	// CountDoubts returns the total matching doubts for pagination.
	CountDoubts(ctx context.Context, db *gorm.DB, courseID string, status domain.Status) (int64, error)

	// ListDoubtsPage returns one page of matching doubts, newest first.
	ListDoubtsPage(ctx context.Context, db *gorm.DB, courseID string, status domain.Status, offset, limit int) ([]domain.Doubt, error)

	// AdvanceStatus applies one guarded status transition with its audit row.
	AdvanceStatus(ctx context.Context, db *gorm.DB, id string, expected, next domain.Status, note string, now time.Time) error

	// SetAIAnswer attaches the draft answer, first writer wins.
	SetAIAnswer(ctx context.Context, db *gorm.DB, id, answer string) error

	// IncrementViews bumps the doubt's view counter.
	IncrementViews(ctx context.Context, db *gorm.DB, id string) error

	// IncrementVotes bumps the doubt's vote counter.
	IncrementVotes(ctx context.Context, db *gorm.DB, id string) error
}

// ReplyRepo defines the reply persistence contract required by DoubtService.
type ReplyRepo interface {
	// AppendReply inserts one reply on a doubt.
	AppendReply(ctx context.Context, db *gorm.DB, doubtID, content string, by domain.Identity, role string, isAI, isAccepted bool) (*domain.Reply, error)

	// ListReplies returns the doubt's replies in chronological order.
	ListReplies(ctx context.Context, db *gorm.DB, doubtID string) ([]domain.Reply, error)

	// CountReplies returns the number of replies on the doubt.
	CountReplies(ctx context.Context, db *gorm.DB, doubtID string) (int64, error)

	// HasProfessorReply reports whether a professor has replied yet.
	HasProfessorReply(ctx context.Context, db *gorm.DB, doubtID string) (bool, error)

	// ResolveWithReply applies the guarded RESOLVED transition and accepts
	// the triggering reply in one transaction.
	ResolveWithReply(ctx context.Context, db *gorm.DB, doubtID string, expected domain.Status, replyID, note string, now time.Time) error
}

// DoubtService coordinates doubt persistence, the AI draft answer, and the
// event-driven edges of the status ladder.
type DoubtService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Doubts is the doubt repository used by this service.
	Doubts DoubtRepo
	// Replies is the reply repository used by this service.
	Replies ReplyRepo

	// AI drafts the first answer on Ask. Nil disables drafting entirely.
	AI ai.Provider
	// AITimeout bounds the synchronous draft call. Zero means no extra bound
	// beyond the request context.
	AITimeout time.Duration

	// Length guards, by rune count.
	MaxContentRunes int
	MaxReplyRunes   int

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int

	// Now is the transition clock. Nil means time.Now. Tests substitute a
	// fixed clock.
	Now func() time.Time
}

// NewDoubtService constructs a DoubtService with sane defaults.
func NewDoubtService(db *gorm.DB, doubts DoubtRepo, replies ReplyRepo, provider ai.Provider) *DoubtService {
	return &DoubtService{
		DB:              db,
		Doubts:          doubts,
		Replies:         replies,
		AI:              provider,
		AITimeout:       8 * time.Second,
		MaxContentRunes: 8000,
		MaxReplyRunes:   8000,
		TitleLocale:     language.Und,
		TitleMaxLen:     60,
	}
}

// Ask validates and stores a new doubt, then tries to attach an AI draft
// answer. The draft is best-effort: any provider failure leaves the doubt in
// AI triage with no answer, and the dwell timer escalates it from there.
func (s *DoubtService) Ask(ctx context.Context, by domain.Identity, courseID, title, content string) (*domain.Doubt, error) {
	tr := otel.Tracer("services/DoubtService")
	ctx, span := tr.Start(ctx, "Ask",
		trace.WithAttributes(
			attribute.String("course.id", courseID),
			attribute.String("user.id", by.UserID),
		),
	)
	defer span.End()

	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, ErrEmptyCourse
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, ErrTooLong
	}

	title = normalizeTitle(title)
	if title == "" {
		title = s.generateTitleFromContent(content)
	}
	if title == "" {
		title = defaultDoubtTitle
	}

	d, err := s.Doubts.CreateDoubt(ctx, s.DB, &domain.Doubt{
		CourseID: courseID,
		Title:    s.clipTitle(title),
		Content:  content,
		AskedBy:  by,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if ans := s.draftAnswer(ctx, courseID, d.Title, content); ans != "" {
		if err := s.Doubts.SetAIAnswer(ctx, s.DB, d.ID, ans); err == nil {
			d.AIAnswer = ans
		}
	}
	return d, nil
}

// draftAnswer runs the provider under the configured timeout. Failures are
// swallowed; the span carries the error for diagnosis.
func (s *DoubtService) draftAnswer(ctx context.Context, courseID, title, content string) string {
	if s.AI == nil {
		return ""
	}
	if s.AITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AITimeout)
		defer cancel()
	}
	ans, err := s.AI.Answer(ctx, courseID, title, content)
	if err != nil {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		return ""
	}
	return strings.TrimSpace(ans)
}

// MarkSolved records the asking student's confirmation that the AI draft
// answered the doubt, resolving it directly from AI triage.
func (s *DoubtService) MarkSolved(ctx context.Context, userID, doubtID string) error {
	tr := otel.Tracer("services/DoubtService")
	ctx, span := tr.Start(ctx, "MarkSolved",
		trace.WithAttributes(
			attribute.String("doubt.id", doubtID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	return s.studentVerdict(ctx, userID, doubtID, domain.StatusResolved, escalation.CauseAIConfirmed)
}

// MarkStillConfused records the asking student's rejection of the AI draft,
// promoting the doubt to the open forum without waiting for the dwell timer.
func (s *DoubtService) MarkStillConfused(ctx context.Context, userID, doubtID string) error {
	tr := otel.Tracer("services/DoubtService")
	ctx, span := tr.Start(ctx, "MarkStillConfused",
		trace.WithAttributes(
			attribute.String("doubt.id", doubtID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	return s.studentVerdict(ctx, userID, doubtID, domain.StatusOpen, escalation.CauseStudentEscalate)
}

// studentVerdict applies one of the two AI-triage outcomes. Both are only
// valid for the asker and only while the doubt is still in AI triage.
func (s *DoubtService) studentVerdict(ctx context.Context, userID, doubtID string, next domain.Status, cause string) error {
	d, err := s.Doubts.GetDoubt(ctx, s.DB, doubtID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDoubtNotFound
		}
		return err
	}
	if d.AskedBy.UserID != userID {
		return ErrNotOwner
	}
	switch {
	case d.Status == domain.StatusResolved:
		return ErrAlreadyResolved
	case d.Status != domain.StatusAI:
		return ErrInvalidState
	}

	err = s.Doubts.AdvanceStatus(ctx, s.DB, doubtID, domain.StatusAI, next, cause, s.now())
	switch {
	case err == nil:
		escalation.RecordTransition(string(domain.StatusAI), string(next), cause)
		return nil
	case errors.Is(err, repo.ErrConflict):
		return ErrStateChanged
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrDoubtNotFound
	default:
		return err
	}
}

// Reply appends a reply to a doubt. A professor reply resolves the doubt from
// whatever rung it is on, and the reply that wins the RESOLVED transition is
// the one marked accepted; replies from students and seniors never change
// status. Replies on resolved doubts are allowed so a thread can keep
// accumulating clarifications.
func (s *DoubtService) Reply(ctx context.Context, doubtID, content string, by domain.Identity, role string) (*domain.Reply, error) {
	tr := otel.Tracer("services/DoubtService")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(
			attribute.String("doubt.id", doubtID),
			attribute.String("user.id", by.UserID),
			attribute.String("reply.role", role),
		),
	)
	defer span.End()

	if role != domain.RoleStudent && role != domain.RoleSenior && role != domain.RoleProfessor {
		return nil, ErrInvalidRole
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if s.MaxReplyRunes > 0 && utf8.RuneCountInString(content) > s.MaxReplyRunes {
		return nil, ErrTooLong
	}

	d, err := s.Doubts.GetDoubt(ctx, s.DB, doubtID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoubtNotFound
		}
		return nil, err
	}

	// The reply lands unaccepted; acceptance rides the RESOLVED transition
	// below so racing professors can never both carry the flag.
	r, err := s.Replies.AppendReply(ctx, s.DB, doubtID, content, by, role, false, false)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if role == domain.RoleProfessor && s.resolveByProfessor(ctx, d, r.ID) {
		r.IsAccepted = true
	}
	return r, nil
}

// resolveByProfessor drives the doubt to RESOLVED after a professor reply,
// accepting that reply in the same transaction as the winning transition.
// The guarded update can lose to the sweeper moving the doubt one rung in
// between; one re-read retry covers that. Losing to another resolver means a
// different reply already carried the doubt to RESOLVED, so this one stays
// unaccepted. Reports whether this reply won.
func (s *DoubtService) resolveByProfessor(ctx context.Context, d *domain.Doubt, replyID string) bool {
	cur := d.Status
	for attempt := 0; attempt < 2; attempt++ {
		if cur == domain.StatusResolved {
			return false
		}
		err := s.Replies.ResolveWithReply(ctx, s.DB, d.ID, cur, replyID, escalation.CauseProfessorReply, s.now())
		if err == nil {
			escalation.RecordTransition(string(cur), string(domain.StatusResolved), escalation.CauseProfessorReply)
			return true
		}
		if !errors.Is(err, repo.ErrConflict) {
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			return false
		}
		fresh, gerr := s.Doubts.GetDoubt(ctx, s.DB, d.ID)
		if gerr != nil {
			return false
		}
		cur = fresh.Status
	}
	return false
}

// Thread returns one doubt's replies in chronological order together with
// the total count and whether a professor has weighed in yet.
func (s *DoubtService) Thread(ctx context.Context, doubtID string) ([]domain.Reply, int64, bool, error) {
	tr := otel.Tracer("services/DoubtService")
	ctx, span := tr.Start(ctx, "Thread",
		trace.WithAttributes(attribute.String("doubt.id", doubtID)),
	)
	defer span.End()

	if _, err := s.Doubts.GetDoubt(ctx, s.DB, doubtID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, false, ErrDoubtNotFound
		}
		return nil, 0, false, err
	}
	items, err := s.Replies.ListReplies(ctx, s.DB, doubtID)
	if err != nil {
		span.RecordError(err)
		return nil, 0, false, err
	}
	total, err := s.Replies.CountReplies(ctx, s.DB, doubtID)
	if err != nil {
		span.RecordError(err)
		return nil, 0, false, err
	}
	prof, err := s.Replies.HasProfessorReply(ctx, s.DB, doubtID)
	if err != nil {
		span.RecordError(err)
		return nil, 0, false, err
	}
	return items, total, prof, nil
}

// Get returns one doubt with replies and history, bumping its view counter
// best-effort.
func (s *DoubtService) Get(ctx context.Context, doubtID string) (*domain.Doubt, error) {
	tr := otel.Tracer("services/DoubtService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("doubt.id", doubtID)),
	)
	defer span.End()

	d, err := s.Doubts.GetDoubt(ctx, s.DB, doubtID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoubtNotFound
		}
		return nil, err
	}
	if err := s.Doubts.IncrementViews(ctx, s.DB, doubtID); err == nil {
		d.Views++
	}
	return d, nil
}

// ListPage returns one page of doubts for a course, optionally filtered by
// status, newest first. It applies defaults for invalid page/pageSize and
// returns the total count.
func (s *DoubtService) ListPage(ctx context.Context, courseID string, status domain.Status, page, pageSize int) ([]domain.Doubt, int64, error) {
	tr := otel.Tracer("services/DoubtService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("course.id", courseID),
			attribute.String("status", string(status)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatusFilter
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Doubts.CountDoubts(ctx, s.DB, courseID, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Doubt{}, 0, nil
	}

	items, err := s.Doubts.ListDoubtsPage(ctx, s.DB, courseID, status, offset, pageSize)
	return items, total, err
}

// Vote bumps a doubt's vote counter.
func (s *DoubtService) Vote(ctx context.Context, doubtID string) error {
	tr := otel.Tracer("services/DoubtService")
	ctx, span := tr.Start(ctx, "Vote",
		trace.WithAttributes(attribute.String("doubt.id", doubtID)),
	)
	defer span.End()

	err := s.Doubts.IncrementVotes(ctx, s.DB, doubtID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDoubtNotFound
	}
	return err
}

func (s *DoubtService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// --- Title generation ---

// generateTitleFromContent derives a concise title from the question text.
func (s *DoubtService) generateTitleFromContent(content string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(content), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(s.titleLocaleOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, " ")
}

// clipTitle truncates a title to the configured maximum rune length.
func (s *DoubtService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// titleLocaleOrDefault returns the configured locale for casing or English if unset.
func (s *DoubtService) titleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// Extract Unicode letters with optional trailing numbers (e.g., "cs101").
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"why": {}, "how": {}, "does": {}, "do": {}, "what": {}, "when": {}, "my": {}, "i": {},
}
