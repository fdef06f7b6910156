// Package domain defines the persistence models for doubts, replies, and
// the escalation audit trail. These types are mapped with GORM and form the
// core data layer of the campus backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Identity is the claimed author of a doubt or reply. It is embedded into
// the owning row (no users table here; identity is owned by the external
// auth collaborator and only echoed back).
type Identity struct {
	Name   string `json:"name"    gorm:"type:varchar(128);not null"`
	UserID string `json:"user_id" gorm:"type:varchar(64);not null;index"`
}

// Doubt is the central entity: a student question tracked through the
// escalation ladder until it is resolved.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - CourseID: scoping tag, immutable after creation; indexed for feeds.
//   - Title: short display title derived from the question text.
//   - Content: full question text, immutable after creation (no edit feature).
//   - AskedBy: claimed identity of the author, immutable.
//   - Status: current escalation state; mutated only through the conditional
//     transition primitive (repo.AdvanceStatus).
//   - AIAnswer: best-effort first-pass answer, set at most once at creation.
//     Empty when the provider was unavailable.
//   - Votes / Views: monotonic non-negative counters.
//   - LastStatusChangeAt: dwell-time anchor for the policy engine. Always
//     equals the timestamp of the last History entry.
//   - Replies: append-only, chronological.
//   - History: append-only audit trail, one row per accepted transition;
//     seeded with the initial AI entry at creation, so len >= 1 always.
type Doubt struct {
	ID       string   `json:"id"        gorm:"type:char(36);primaryKey"`
	CourseID string   `json:"course_id" gorm:"type:varchar(64);not null;index:idx_course_doubts"`
	Title    string   `json:"title"     gorm:"type:varchar(255);not null;default:''"`
	Content  string   `json:"content"   gorm:"type:text;not null"`
	AskedBy  Identity `json:"asked_by"  gorm:"embedded;embeddedPrefix:asked_by_"`

	Status   Status `json:"status"     gorm:"type:varchar(24);not null;index;check:status IN ('AI','OPEN','SENIOR_VISIBLE','PROFESSOR_VISIBLE','RESOLVED')"`
	AIAnswer string `json:"ai_answer"  gorm:"type:text;not null;default:''"`

	Votes int64 `json:"votes" gorm:"not null;default:0;check:votes >= 0"`
	Views int64 `json:"views" gorm:"not null;default:0;check:views >= 0"`

	LastStatusChangeAt time.Time      `json:"last_status_change_at" gorm:"not null;index"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`

	Replies []Reply      `json:"replies,omitempty" gorm:"foreignKey:DoubtID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	History []Transition `json:"history,omitempty" gorm:"foreignKey:DoubtID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Doubt.
func (Doubt) TableName() string { return "doubts" }

// Reply is a single answer posted on a doubt. Replies are immutable once
// appended and are never reordered or deleted.
//
// IsAccepted is true for at most the first professor reply received while the
// doubt was not yet RESOLVED; accepting a reply resolves the doubt.
type Reply struct {
	ID        string   `json:"id"         gorm:"type:char(36);primaryKey"`
	DoubtID   string   `json:"doubt_id"   gorm:"type:char(36);not null;index:idx_doubt_replies,priority:1"`
	Content   string   `json:"content"    gorm:"type:text;not null"`
	RepliedBy Identity `json:"replied_by" gorm:"embedded;embeddedPrefix:replied_by_"`
	Role      string   `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('student','senior','professor')"`

	IsAI       bool `json:"is_ai"       gorm:"not null;default:false"`
	IsAccepted bool `json:"is_accepted" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_doubt_replies,priority:2"`

	// Doubt is the parent question. Replies are cascade-deleted if their
	// doubt is removed.
	Doubt Doubt `json:"-" gorm:"foreignKey:DoubtID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Reply.
func (Reply) TableName() string { return "replies" }

// Transition is one row of a doubt's append-only audit trail: the status the
// doubt entered, when, and why. The first row of every doubt records the
// initial AI state.
type Transition struct {
	ID      string `json:"-"      gorm:"type:char(36);primaryKey"`
	DoubtID string `json:"-"      gorm:"type:char(36);not null;index:idx_doubt_history,priority:1"`
	Status  Status `json:"status" gorm:"type:varchar(24);not null"`
	Note    string `json:"note"   gorm:"type:varchar(255);not null;default:''"`

	CreatedAt time.Time `json:"timestamp" gorm:"index:idx_doubt_history,priority:2"`

	Doubt Doubt `json:"-" gorm:"foreignKey:DoubtID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Transition.
func (Transition) TableName() string { return "doubt_history" }
