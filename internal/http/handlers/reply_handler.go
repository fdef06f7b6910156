// Reply HTTP handlers.
//
// This file exposes the reply endpoints:
//   - POST /doubts/{id}/replies  (append a reply; professor replies resolve)
//   - GET  /doubts/{id}/replies  (the thread, oldest first, ETag support)
//
// Handlers are transport-thin:
//   - validate & normalize inputs (including newline and length constraints)
//   - delegate to application services (DoubtService.Reply)
//   - implement idempotency semantics
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// reply exists for (user, doubt, key), the handler returns the stored doubt
// state and sets `Idempotency-Replayed: true` instead of appending again.
package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusdesk/go-doubt-backend/internal/http/middleware"
	"github.com/campusdesk/go-doubt-backend/internal/repo"
	"github.com/campusdesk/go-doubt-backend/internal/services"
)

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// idempotencyKey returns the validated key stashed by the idempotency
// middleware, falling back to the raw Idempotency-Key header when the
// middleware is not mounted (tests wire handlers directly).
func idempotencyKey(c *gin.Context) (string, bool) {
	if key, ok := middleware.GetIdempotencyKey(c); ok {
		return key, true
	}
	if v := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey)); v != "" {
		return v, true
	}
	return "", false
}

// maxReplyRunes inspects the concrete DoubtService for a configured reply
// length limit. If unavailable, it returns a conservative fallback.
func (h *Handlers) maxReplyRunes() int {
	const fallback = 4000
	if ds, ok := h.replySvc.(*services.DoubtService); ok {
		if ds.MaxReplyRunes > 0 {
			return ds.MaxReplyRunes
		}
	}
	return fallback
}

// PostReply godoc
// @ID          postReply
// @Summary     Reply to a doubt
// @Description Appends a reply to the doubt. A professor reply is marked
// @Description accepted and resolves the doubt immediately. Supports
// @Description idempotency via the Idempotency-Key header.
// @Tags        Replies
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"                          example(senior7)
// @Param       X-User-Name      header  string  false "Display name"                                   example(Grace)
// @Param       X-User-Role      header  string  false "Replier role: student, senior, or professor"    example(senior)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       id               path    string  true  "Doubt ID (UUID)"  format(uuid)
// @Param       body             body    handlers.PostReplyRequest  true  "Reply payload"
//
// @Success     201  {object}  handlers.PostReplyResponse  "Stored reply"
// @Failure     400  {object}  handlers.ErrorResponse      "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse      "Doubt not found"
// @Failure     500  {object}  handlers.ErrorResponse      "Internal error"
// @Router      /doubts/{id}/replies [post]
func (h *Handlers) PostReply(c *gin.Context) {
	ctx := c.Request.Context()
	doubtID := c.Param("id")

	if _, err := uuid.Parse(doubtID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "doubt id must be a UUID")
		return
	}

	var req PostReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	if max := h.maxReplyRunes(); max > 0 && utf8.RuneCountInString(content) > max {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", max))
		return
	}

	by := identity(c)

	// Idempotency (replay path) – a stored record means this reply already
	// landed; re-serve the current doubt state rather than double-posting.
	idemKey, _ := idempotencyKey(c)
	if idemKey != "" {
		if db := h.serviceDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, by.UserID, doubtID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if d, err2 := h.doubtSvc.Get(ctx, doubtID); err2 == nil {
					for i := range d.Replies {
						if d.Replies[i].ID == rec.ResultID {
							c.Header("Idempotency-Replayed", "true")
							ok(c, http.StatusCreated, PostReplyResponse{Reply: &d.Replies[i]})
							return
						}
					}
				}
			}
		}
	}

	r, err := h.replySvc.Reply(ctx, doubtID, content, by, role(c))
	if err != nil {
		switch err {
		case services.ErrDoubtNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "doubt not found")
		case services.ErrEmptyContent:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case services.ErrTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content too long")
		case services.ErrInvalidRole:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role must be student, senior, or professor")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeReplyFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.serviceDB(); db != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, db, by.UserID, doubtID, idemKey, r.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, PostReplyResponse{Reply: r})
}

// ListReplies godoc
// @ID          listReplies
// @Summary     List replies on a doubt
// @Description Returns the doubt's reply thread in chronological order, with
// @Description the total count and whether a professor has replied. Supports
// @Description weak ETag via If-None-Match.
// @Tags        Replies
// @Produce     json
//
// @Param       id             path    string  true  "Doubt ID (UUID)"  format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListRepliesResponse
// @Header      200  {string} ETag "Weak ETag for current thread"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Doubt not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /doubts/{id}/replies [get]
func (h *Handlers) ListReplies(c *gin.Context) {
	ctx := c.Request.Context()
	doubtID := c.Param("id")

	if _, err := uuid.Parse(doubtID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "doubt id must be a UUID")
		return
	}

	// ETag pre-check (best effort).
	if db := h.serviceDB(); db != nil {
		count, maxTS, err := repo.RepliesStats(ctx, db, doubtID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"replies:%s:%d:%d"`, doubtID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	replies, total, prof, err := h.replySvc.Thread(ctx, doubtID)
	if err != nil {
		switch err {
		case services.ErrDoubtNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "doubt not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, ListRepliesResponse{
		Replies:          replies,
		Total:            total,
		ProfessorReplied: prof,
	})
}
