// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Reply model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusdesk/go-doubt-backend/internal/domain"
)

// AppendReply inserts a reply row for the given doubt. Replies are append-only
// and never mutated afterwards; chronological order is insertion order.
func AppendReply(ctx context.Context, db *gorm.DB, doubtID, content string, by domain.Identity, role string, isAI, isAccepted bool) (*domain.Reply, error) {
	r := &domain.Reply{
		ID:         uuid.NewString(),
		DoubtID:    doubtID,
		Content:    content,
		RepliedBy:  by,
		Role:       role,
		IsAI:       isAI,
		IsAccepted: isAccepted,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListReplies returns replies ordered deterministically (CreatedAt ASC, ID ASC).
func ListReplies(ctx context.Context, db *gorm.DB, doubtID string) ([]domain.Reply, error) {
	var out []domain.Reply
	err := db.WithContext(ctx).
		Where("doubt_id = ?", doubtID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountReplies uses a raw COUNT so a missing table surfaces as an error.
func CountReplies(ctx context.Context, db *gorm.DB, doubtID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM replies WHERE doubt_id = ?", doubtID).
		Scan(&n).Error
	return n, err
}

// HasProfessorReply reports whether the doubt already carries at least one
// professor reply. Backs the thread read path; the authoritative resolution
// happens through AdvanceStatus.
func HasProfessorReply(ctx context.Context, db *gorm.DB, doubtID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Reply{}).
		Where("doubt_id = ? AND role = ?", doubtID, domain.RoleProfessor).
		Count(&n).Error
	return n > 0, err
}

// AcceptReply flips the accepted flag on one reply. Callers must hold the
// winning RESOLVED transition in the same transaction, which is what keeps
// the flag unique per doubt.
func AcceptReply(ctx context.Context, db *gorm.DB, replyID string) error {
	res := db.WithContext(ctx).Model(&domain.Reply{}).
		Where("id = ?", replyID).
		Update("is_accepted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResolveWithReply applies the guarded transition to RESOLVED and marks the
// reply that triggered it accepted, atomically. When two resolvers race,
// exactly one passes the status guard, so at most one reply per doubt ends up
// accepted. A guard miss surfaces as ErrConflict and leaves the reply
// untouched.
func ResolveWithReply(ctx context.Context, db *gorm.DB, doubtID string, expected domain.Status, replyID, note string, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AdvanceStatus(ctx, tx, doubtID, expected, domain.StatusResolved, note, now); err != nil {
			return err
		}
		return AcceptReply(ctx, tx, replyID)
	})
}
