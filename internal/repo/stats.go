// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campusdesk/go-doubt-backend/internal/domain"
)

// DoubtsStats returns aggregate metadata for a course's doubts: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
// An empty courseID means all courses.
//
// When there are no matching doubts, the returned count is 0 and
// maxUpdatedAt is nil.
//
// Return values:
//   - count:        total doubts for courseID
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func DoubtsStats(ctx context.Context, db *gorm.DB, courseID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Doubt{})
	if courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// RepliesStats returns aggregate metadata for replies within a given doubt:
// the total number of rows and the latest CreatedAt among those rows
// (replies are immutable, so CreatedAt is the freshness signal).
//
// Return values:
//   - count:         total replies for doubtID
//   - maxCreatedAt:  pointer to the greatest CreatedAt, or nil if no rows
//   - err:           database error, if any
func RepliesStats(ctx context.Context, db *gorm.DB, doubtID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Reply{}).Where("doubt_id = ?", doubtID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
