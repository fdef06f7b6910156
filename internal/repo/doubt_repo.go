// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Doubt model,
// including the conditional status-transition primitive shared by the doubt
// lifecycle service and the escalation sweeper.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a doubt is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - AdvanceStatus returns ErrConflict when the optimistic status guard does
//     not match; callers treat that as "someone else already advanced this
//     doubt", not as a failure.
//   - On other DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusdesk/go-doubt-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrConflict is returned by AdvanceStatus when the doubt's stored status no
// longer equals the expected status the decision was computed against. It is
// the optimistic concurrency guard firing, which callers treat as a benign
// no-op: exactly one of the racing writers won.
var ErrConflict = errors.New("status changed concurrently")

// CreateDoubt inserts a new Doubt row together with its initial history entry
// in one transaction. The doubt starts in StatusAI (history length is 1 from
// birth), and LastStatusChangeAt anchors the first dwell timer.
func CreateDoubt(ctx context.Context, db *gorm.DB, d *domain.Doubt) (*domain.Doubt, error) {
	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Status = domain.StatusAI
	d.CreatedAt = now
	d.LastStatusChangeAt = now

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		h := &domain.Transition{
			ID:        uuid.NewString(),
			DoubtID:   d.ID,
			Status:    domain.StatusAI,
			Note:      "doubt created",
			CreatedAt: now,
		}
		return tx.Create(h).Error
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetDoubt fetches a single doubt by ID with its replies and history
// preloaded in chronological order. Returns ErrNotFound if the record
// does not exist.
func GetDoubt(ctx context.Context, db *gorm.DB, id string) (*domain.Doubt, error) {
	var d domain.Doubt
	err := db.WithContext(ctx).
		Preload("Replies", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Preload("History", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListNonResolved returns every doubt that is still on the escalation ladder,
// oldest transition first so the most overdue doubts are evaluated early in
// a sweep. Replies are preloaded so the policy engine can honor reply-based
// resolution in the same evaluation. An empty courseID means all courses.
func ListNonResolved(ctx context.Context, db *gorm.DB, courseID string) ([]domain.Doubt, error) {
	q := db.WithContext(ctx).
		Preload("Replies", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Where("status <> ?", domain.StatusResolved).
		Order("last_status_change_at ASC")
	if courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}
	var out []domain.Doubt
	err := q.Find(&out).Error
	return out, err
}

// CountDoubts returns the total number of doubts matching the course/status
// filter (empty values mean "any"). On DB error, it returns the error.
func CountDoubts(ctx context.Context, db *gorm.DB, courseID string, status domain.Status) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Doubt{})
	if courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListDoubtsPage returns a paginated slice of doubts matching the
// course/status filter, newest first. Use CountDoubts to obtain the total for
// pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListDoubtsPage(ctx context.Context, db *gorm.DB, courseID string, status domain.Status, offset, limit int) ([]domain.Doubt, error) {
	q := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit)
	if courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Doubt
	err := q.Find(&out).Error
	return out, err
}

// AdvanceStatus is the single conditional-transition primitive. In one
// transaction it:
//
//  1. updates status and last_status_change_at only where the stored status
//     still equals expected (the optimistic guard), and
//  2. appends exactly one history row recording the accepted transition.
//
// When the guard misses, no history row is written and ErrConflict is
// returned. When the doubt does not exist at all, ErrNotFound is returned.
// Both the lifecycle service and the escalation sweeper go through this
// function, so two racing writers produce exactly one transition and one
// audit entry.
func AdvanceStatus(ctx context.Context, db *gorm.DB, id string, expected, next domain.Status, note string, now time.Time) error {
	now = now.UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Doubt{}).
			Where("id = ? AND status = ?", id, expected).
			Updates(map[string]any{
				"status":                next,
				"last_status_change_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Distinguish "gone" from "lost the race".
			var cnt int64
			if err := tx.Model(&domain.Doubt{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt == 0 {
				return ErrNotFound
			}
			return ErrConflict
		}
		h := &domain.Transition{
			ID:        uuid.NewString(),
			DoubtID:   id,
			Status:    next,
			Note:      note,
			CreatedAt: now,
		}
		return tx.Create(h).Error
	})
}

// SetAIAnswer records the provider's first-pass answer. It is written at most
// once: the update only applies while ai_answer is still empty.
func SetAIAnswer(ctx context.Context, db *gorm.DB, id, answer string) error {
	res := db.WithContext(ctx).Model(&domain.Doubt{}).
		Where("id = ? AND ai_answer = ''", id).
		Update("ai_answer", answer)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the monotonic view counter. Missing doubts surface as
// ErrNotFound.
func IncrementViews(ctx context.Context, db *gorm.DB, id string) error {
	return incrementCounter(ctx, db, id, "views")
}

// IncrementVotes bumps the monotonic vote counter. Missing doubts surface as
// ErrNotFound.
func IncrementVotes(ctx context.Context, db *gorm.DB, id string) error {
	return incrementCounter(ctx, db, id, "votes")
}

func incrementCounter(ctx context.Context, db *gorm.DB, id, col string) error {
	res := db.WithContext(ctx).Model(&domain.Doubt{}).
		Where("id = ?", id).
		UpdateColumn(col, gorm.Expr(col+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
