package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campusdesk/go-doubt-backend/internal/domain"
)

func newDoubtRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("doubt_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA busy_timeout=5000;")

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedDoubt(t *testing.T, db *gorm.DB, id string) *domain.Doubt {
	t.Helper()
	d := &domain.Doubt{
		ID:       id,
		CourseID: "cs101",
		Content:  "how does WAL interact with busy_timeout?",
		AskedBy:  domain.Identity{Name: "Ada", UserID: "u1"},
	}
	out, err := CreateDoubt(context.Background(), db, d)
	if err != nil {
		t.Fatalf("CreateDoubt: %v", err)
	}
	return out
}

func TestCreateDoubt_Error_NoTable(t *testing.T) {
	db := newDoubtRepoDB(t /* no migrations */)
	d, err := CreateDoubt(context.Background(), db, &domain.Doubt{CourseID: "c", Content: "q"})
	if err == nil || d != nil {
		t.Fatalf("expected error creating without table, got doubt=%v err=%v", d, err)
	}
}

func TestCreateDoubt_SeedsStatusAndHistory(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Transition{})

	start := time.Now().UTC().Add(-time.Minute)
	d := seedDoubt(t, db, "")

	if d.ID == "" {
		t.Fatalf("expected generated UUID, got empty ID")
	}
	if d.Status != domain.StatusAI {
		t.Fatalf("new doubt status = %s; want AI", d.Status)
	}
	if !d.LastStatusChangeAt.After(start) {
		t.Fatalf("LastStatusChangeAt not set: %v", d.LastStatusChangeAt)
	}

	var hist []domain.Transition
	if err := db.Where("doubt_id = ?", d.ID).Find(&hist).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(hist) != 1 || hist[0].Status != domain.StatusAI {
		t.Fatalf("expected exactly one AI history row, got %+v", hist)
	}
	if !hist[0].CreatedAt.Equal(d.LastStatusChangeAt) {
		t.Fatalf("history timestamp %v != LastStatusChangeAt %v", hist[0].CreatedAt, d.LastStatusChangeAt)
	}
}

func TestGetDoubt_NotFound(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Reply{}, &domain.Transition{})
	if _, err := GetDoubt(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDoubt_PreloadsRepliesAndHistoryInOrder(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Reply{}, &domain.Transition{})
	d := seedDoubt(t, db, "d1")

	now := time.Now().UTC()
	for i, content := range []string{"first", "second", "third"} {
		r := &domain.Reply{
			ID:        fmt.Sprintf("r%d", i),
			DoubtID:   d.ID,
			Content:   content,
			RepliedBy: domain.Identity{Name: "Max", UserID: "u2"},
			Role:      domain.RoleStudent,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed reply: %v", err)
		}
	}

	got, err := GetDoubt(context.Background(), db, d.ID)
	if err != nil {
		t.Fatalf("GetDoubt: %v", err)
	}
	if len(got.Replies) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(got.Replies))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got.Replies[i].Content != want {
			t.Fatalf("reply[%d] = %q; want %q", i, got.Replies[i].Content, want)
		}
	}
	if len(got.History) != 1 || got.History[0].Status != domain.StatusAI {
		t.Fatalf("unexpected history: %+v", got.History)
	}
}

func TestAdvanceStatus_Success_AppendsOneHistoryRow(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Transition{})
	d := seedDoubt(t, db, "d1")

	now := time.Now().UTC()
	if err := AdvanceStatus(context.Background(), db, d.ID, domain.StatusAI, domain.StatusOpen, "dwell elapsed", now); err != nil {
		t.Fatalf("AdvanceStatus: %v", err)
	}

	var got domain.Doubt
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Status != domain.StatusOpen {
		t.Fatalf("status = %s; want OPEN", got.Status)
	}
	if !got.LastStatusChangeAt.Equal(now) {
		t.Fatalf("LastStatusChangeAt = %v; want %v", got.LastStatusChangeAt, now)
	}

	var hist []domain.Transition
	if err := db.Where("doubt_id = ?", d.ID).Order("created_at ASC").Find(&hist).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(hist))
	}
	last := hist[len(hist)-1]
	if last.Status != domain.StatusOpen || last.Note != "dwell elapsed" {
		t.Fatalf("unexpected last history row: %+v", last)
	}
}

func TestAdvanceStatus_GuardMiss_ReturnsConflict_NoHistory(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Transition{})
	d := seedDoubt(t, db, "d1")

	// Someone else already advanced AI → OPEN.
	if err := AdvanceStatus(context.Background(), db, d.ID, domain.StatusAI, domain.StatusOpen, "first", time.Now().UTC()); err != nil {
		t.Fatalf("setup advance: %v", err)
	}

	err := AdvanceStatus(context.Background(), db, d.ID, domain.StatusAI, domain.StatusOpen, "stale decision", time.Now().UTC())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on guard miss, got %v", err)
	}

	var cnt int64
	if err := db.Model(&domain.Transition{}).Where("doubt_id = ?", d.ID).Count(&cnt).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if cnt != 2 { // creation + first advance only
		t.Fatalf("guard miss must not append history, got %d rows", cnt)
	}
}

func TestAdvanceStatus_MissingDoubt_ReturnsNotFound(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Transition{})
	err := AdvanceStatus(context.Background(), db, "missing", domain.StatusAI, domain.StatusOpen, "x", time.Now().UTC())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdvanceStatus_ConcurrentWriters_ExactlyOneWins(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Transition{})
	d := seedDoubt(t, db, "d1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = AdvanceStatus(context.Background(), db, d.ID, domain.StatusAI, domain.StatusOpen, "sweep", time.Now().UTC())
		}(i)
	}
	wg.Wait()

	var okN, conflictN int
	for _, err := range errs {
		switch {
		case err == nil:
			okN++
		case errors.Is(err, ErrConflict):
			conflictN++
		default:
			t.Fatalf("unexpected error from concurrent advance: %v", err)
		}
	}
	if okN != 1 || conflictN != 1 {
		t.Fatalf("expected exactly one winner and one conflict, got ok=%d conflict=%d", okN, conflictN)
	}

	var cnt int64
	if err := db.Model(&domain.Transition{}).Where("doubt_id = ?", d.ID).Count(&cnt).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if cnt != 2 { // creation row + exactly one transition row
		t.Fatalf("expected exactly one transition appended, history rows = %d", cnt)
	}
}

func TestSetAIAnswer_WriteOnce(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Transition{})
	d := seedDoubt(t, db, "d1")

	if err := SetAIAnswer(context.Background(), db, d.ID, "42"); err != nil {
		t.Fatalf("SetAIAnswer: %v", err)
	}
	// Second write must not overwrite.
	if err := SetAIAnswer(context.Background(), db, d.ID, "43"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second write, got %v", err)
	}
	var got domain.Doubt
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil || got.AIAnswer != "42" {
		t.Fatalf("ai answer = %q err=%v; want 42", got.AIAnswer, err)
	}
}

func TestListNonResolved_ExcludesResolved_OrdersOldestFirst(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Reply{}, &domain.Transition{})

	old := seedDoubt(t, db, "old")
	fresh := seedDoubt(t, db, "fresh")
	done := seedDoubt(t, db, "done")

	// Backdate "old" so it sorts first, resolve "done" so it drops out.
	if err := db.Model(&domain.Doubt{}).Where("id = ?", old.ID).
		Update("last_status_change_at", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	if err := AdvanceStatus(context.Background(), db, done.ID, domain.StatusAI, domain.StatusResolved, "resolved", time.Now().UTC()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	got, err := ListNonResolved(context.Background(), db, "")
	if err != nil {
		t.Fatalf("ListNonResolved: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 non-resolved doubts, got %d", len(got))
	}
	if got[0].ID != old.ID || got[1].ID != fresh.ID {
		t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}

	// Course filter
	byCourse, err := ListNonResolved(context.Background(), db, "other-course")
	if err != nil || len(byCourse) != 0 {
		t.Fatalf("course filter: got %d err=%v", len(byCourse), err)
	}
}

func TestListDoubtsPage_And_Count(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Transition{})
	for i := 0; i < 5; i++ {
		d := &domain.Doubt{
			ID:       fmt.Sprintf("d%d", i),
			CourseID: "cs101",
			Content:  fmt.Sprintf("q%d", i),
			AskedBy:  domain.Identity{Name: "Ada", UserID: "u1"},
		}
		if _, err := CreateDoubt(context.Background(), db, d); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	total, err := CountDoubts(context.Background(), db, "cs101", "")
	if err != nil || total != 5 {
		t.Fatalf("CountDoubts = %d err=%v; want 5", total, err)
	}
	totalAI, err := CountDoubts(context.Background(), db, "cs101", domain.StatusAI)
	if err != nil || totalAI != 5 {
		t.Fatalf("CountDoubts(AI) = %d err=%v; want 5", totalAI, err)
	}

	page, err := ListDoubtsPage(context.Background(), db, "cs101", "", 0, 2)
	if err != nil || len(page) != 2 {
		t.Fatalf("ListDoubtsPage = %d items err=%v; want 2", len(page), err)
	}
	rest, err := ListDoubtsPage(context.Background(), db, "cs101", "", 4, 2)
	if err != nil || len(rest) != 1 {
		t.Fatalf("last page = %d items err=%v; want 1", len(rest), err)
	}
}

func TestIncrementCounters(t *testing.T) {
	db := newDoubtRepoDB(t, &domain.Doubt{}, &domain.Transition{})
	d := seedDoubt(t, db, "d1")

	for i := 0; i < 3; i++ {
		if err := IncrementViews(context.Background(), db, d.ID); err != nil {
			t.Fatalf("IncrementViews: %v", err)
		}
	}
	if err := IncrementVotes(context.Background(), db, d.ID); err != nil {
		t.Fatalf("IncrementVotes: %v", err)
	}

	var got domain.Doubt
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Views != 3 || got.Votes != 1 {
		t.Fatalf("views=%d votes=%d; want 3/1", got.Views, got.Votes)
	}

	if err := IncrementViews(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing doubt, got %v", err)
	}
}
