// Doubt HTTP handlers.
//
// This file exposes REST endpoints for doubt resources:
//   - POST /doubts                (ask, idempotent via Idempotency-Key)
//   - GET  /doubts                (list, paginated, ETag support)
//   - GET  /doubts/{id}           (fetch with replies and history)
//   - POST /doubts/{id}/solve     (asker confirms the AI draft)
//   - POST /doubts/{id}/escalate  (asker rejects the AI draft)
//   - POST /doubts/{id}/vote      ("me too" counter)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusdesk/go-doubt-backend/internal/domain"
	"github.com/campusdesk/go-doubt-backend/internal/repo"
	"github.com/campusdesk/go-doubt-backend/internal/services"
	"github.com/campusdesk/go-doubt-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// DoubtService defines the doubt lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DoubtService interface {
	// Ask stores a new doubt and tries to attach an AI draft answer.
	Ask(ctx context.Context, by domain.Identity, courseID, title, content string) (*domain.Doubt, error)
	// Get returns one doubt with replies and history.
	Get(ctx context.Context, doubtID string) (*domain.Doubt, error)
	// ListPage returns a page of doubts and the total count.
	ListPage(ctx context.Context, courseID string, status domain.Status, page, pageSize int) ([]domain.Doubt, int64, error)
	// MarkSolved resolves the doubt from AI triage, asker only.
	MarkSolved(ctx context.Context, userID, doubtID string) error
	// MarkStillConfused promotes the doubt to the open forum, asker only.
	MarkStillConfused(ctx context.Context, userID, doubtID string) error
	// Vote bumps the doubt's vote counter.
	Vote(ctx context.Context, doubtID string) error
}

// ReplyService defines the reply operations consumed by HTTP handlers.
type ReplyService interface {
	// Reply appends a reply; a professor reply resolves the doubt.
	Reply(ctx context.Context, doubtID, content string, by domain.Identity, role string) (*domain.Reply, error)
	// Thread returns the doubt's replies, their total, and whether a
	// professor has replied yet.
	Thread(ctx context.Context, doubtID string) ([]domain.Reply, int64, bool, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for doubts and replies. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	doubtSvc DoubtService
	replySvc ReplyService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(doubtSvc DoubtService, replySvc ReplyService) *Handlers {
	return &Handlers{doubtSvc: doubtSvc, replySvc: replySvc}
}

// identity extracts the authenticated caller from Gin context (set by
// upstream middleware). If absent, it falls back to the "X-User-ID" and
// "X-User-Name" headers (tests use them), and finally to "demo-user".
func identity(c *gin.Context) domain.Identity {
	id := domain.Identity{UserID: "demo-user"}
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			id.UserID = s
		}
	} else if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			id.UserID = h
		}
	}
	if c != nil && c.Request != nil {
		id.Name = strings.TrimSpace(c.GetHeader("X-User-Name"))
	}
	return id
}

// role extracts the caller's forum role from the X-User-Role header,
// defaulting to student. Role validation happens in the service layer.
func role(c *gin.Context) string {
	if c != nil && c.Request != nil {
		if h := strings.ToLower(strings.TrimSpace(c.GetHeader("X-User-Role"))); h != "" {
			return h
		}
	}
	return domain.RoleStudent
}

//
// DTOs
//

// AskDoubtRequest is the JSON payload for asking a doubt.
type AskDoubtRequest struct {
	// CourseID names the course the doubt belongs to.
	CourseID string `json:"course_id" binding:"required,min=1" example:"cs101"`
	// Title optionally names the doubt; one is generated from the content
	// when empty.
	Title string `json:"title" example:"Recursion depth limit"`
	// Content is the question text. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"Why does my recursive parser overflow the stack on deep inputs?"`
}

// PostReplyRequest is the JSON payload for replying to a doubt.
type PostReplyRequest struct {
	// Content is the reply text. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"Check the base case; it never terminates for empty input."`
}

// PostReplyResponse is the JSON envelope for a newly created reply.
type PostReplyResponse struct {
	// Reply is the stored reply, including acceptance state.
	Reply *domain.Reply `json:"reply"`
}

// ListRepliesResponse wraps one doubt's reply thread.
type ListRepliesResponse struct {
	Replies []domain.Reply `json:"replies"`
	Total   int64          `json:"total"`
	// ProfessorReplied tells students whether staff have weighed in yet.
	ProfessorReplied bool `json:"professor_replied"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListDoubtsResponse wraps a page of doubts and pagination information.
type ListDoubtsResponse struct {
	Doubts     []domain.Doubt `json:"doubts"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// serviceDB exposes the GORM handle of the concrete DoubtService for
// best-effort transport concerns (ETag stats, idempotency records). Returns
// nil when the handler is wired to a fake in tests.
func (h *Handlers) serviceDB() *gorm.DB {
	if svc, ok := h.doubtSvc.(*services.DoubtService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// AskDoubt godoc
// @ID          askDoubt
// @Summary     Ask a new doubt
// @Description Stores a doubt in AI triage and attaches a draft AI answer when
// @Description one can be produced. Supports idempotency via the
// @Description Idempotency-Key header (same key within a course → same doubt).
// @Tags        Doubts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(student42)
// @Param       X-User-Name      header  string  false "Display name"           example(Ada)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.AskDoubtRequest  true  "Ask payload"
//
// @Success     201  {object}  domain.Doubt
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /doubts [post]
func (h *Handlers) AskDoubt(c *gin.Context) {
	ctx := c.Request.Context()

	var req AskDoubtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "course_id and content required")
		return
	}
	by := identity(c)
	courseID := strings.TrimSpace(req.CourseID)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := idempotencyKey(c)
	if idemKey != "" {
		if db := h.serviceDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, by.UserID, courseID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := h.doubtSvc.Get(ctx, rec.ResultID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusCreated, prev)
					return
				}
			}
		}
	}

	d, err := h.doubtSvc.Ask(ctx, by, courseID, req.Title, req.Content)
	if err != nil {
		switch err {
		case services.ErrEmptyCourse, services.ErrEmptyContent:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "course_id and content required")
		case services.ErrTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content too long")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAskFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.serviceDB(); db != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, db, by.UserID, courseID, idemKey, d.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, d)
}

// ListDoubts godoc
// @ID          listDoubts
// @Summary     List doubts (paginated)
// @Description Returns a page of doubts, newest first, optionally filtered by
// @Description course and status. Supports weak ETag via If-None-Match and may
// @Description return 304.
// @Tags        Doubts
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       course_id      query   string  false "Only doubts in this course"  example(cs101)
// @Param       status         query   string  false "Only doubts in this status"  Enums(AI, OPEN, SENIOR_VISIBLE, PROFESSOR_VISIBLE, RESOLVED)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListDoubtsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /doubts [get]
func (h *Handlers) ListDoubts(c *gin.Context) {
	ctx := c.Request.Context()
	courseID := strings.TrimSpace(c.Query("course_id"))
	status := domain.Status(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.serviceDB(); db != nil {
		count, maxTS, err := repo.DoubtsStats(ctx, db, courseID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"doubts:%s:%d:%d"`, courseID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.doubtSvc.ListPage(ctx, courseID, status, page, pageSize)
	if err != nil {
		switch err {
		case services.ErrInvalidStatusFilter:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListDoubtsResponse{
		Doubts: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetDoubt godoc
// @ID          getDoubt
// @Summary     Fetch one doubt
// @Description Returns the doubt with its replies and full status history,
// @Description bumping its view counter.
// @Tags        Doubts
// @Produce     json
//
// @Param       id  path  string  true  "Doubt ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Doubt
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Doubt not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /doubts/{id} [get]
func (h *Handlers) GetDoubt(c *gin.Context) {
	doubtID := c.Param("id")
	if _, err := uuid.Parse(doubtID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "doubt id must be a UUID")
		return
	}

	d, err := h.doubtSvc.Get(c.Request.Context(), doubtID)
	if err != nil {
		switch err {
		case services.ErrDoubtNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "doubt not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, d)
}

// MarkSolved godoc
// @ID          markSolved
// @Summary     Confirm the AI answer
// @Description The asking student confirms the AI draft answered the doubt,
// @Description resolving it directly from AI triage.
// @Tags        Doubts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(student42)
// @Param       id         path    string  true  "Doubt ID (UUID)"        format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the asker"
// @Failure     404  {object} handlers.ErrorResponse "Doubt not found"
// @Failure     409  {object} handlers.ErrorResponse "Doubt no longer in AI triage"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /doubts/{id}/solve [post]
func (h *Handlers) MarkSolved(c *gin.Context) {
	h.studentVerdict(c, h.doubtSvc.MarkSolved)
}

// MarkStillConfused godoc
// @ID          markStillConfused
// @Summary     Reject the AI answer
// @Description The asking student rejects the AI draft; the doubt moves to the
// @Description open forum without waiting for the dwell timer.
// @Tags        Doubts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(student42)
// @Param       id         path    string  true  "Doubt ID (UUID)"        format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the asker"
// @Failure     404  {object} handlers.ErrorResponse "Doubt not found"
// @Failure     409  {object} handlers.ErrorResponse "Doubt no longer in AI triage"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /doubts/{id}/escalate [post]
func (h *Handlers) MarkStillConfused(c *gin.Context) {
	h.studentVerdict(c, h.doubtSvc.MarkStillConfused)
}

// studentVerdict shares the transport plumbing of the two AI-triage verdict
// endpoints; they differ only in the service call.
func (h *Handlers) studentVerdict(c *gin.Context, call func(ctx context.Context, userID, doubtID string) error) {
	doubtID := c.Param("id")
	if _, err := uuid.Parse(doubtID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "doubt id must be a UUID")
		return
	}

	err := call(c.Request.Context(), identity(c).UserID, doubtID)
	switch err {
	case nil:
		noContent(c)
	case services.ErrDoubtNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "doubt not found")
	case services.ErrNotOwner:
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only the asker can judge the AI answer")
	case services.ErrAlreadyResolved:
		fail(c, http.StatusConflict, ErrCodeConflict, "doubt already resolved")
	case services.ErrInvalidState, services.ErrStateChanged:
		fail(c, http.StatusConflict, ErrCodeConflict, "doubt is no longer in AI triage")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// VoteDoubt godoc
// @ID          voteDoubt
// @Summary     Vote on a doubt
// @Description Records a "me too" vote on the doubt.
// @Tags        Doubts
// @Produce     json
//
// @Param       id  path  string  true  "Doubt ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Doubt not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /doubts/{id}/vote [post]
func (h *Handlers) VoteDoubt(c *gin.Context) {
	doubtID := c.Param("id")
	if _, err := uuid.Parse(doubtID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "doubt id must be a UUID")
		return
	}

	switch err := h.doubtSvc.Vote(c.Request.Context(), doubtID); err {
	case nil:
		noContent(c)
	case services.ErrDoubtNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "doubt not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
