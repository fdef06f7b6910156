// Package escalation implements the visibility ladder for unanswered doubts.
//
// A doubt climbs AI -> OPEN -> SENIOR_VISIBLE -> PROFESSOR_VISIBLE one rung
// at a time when it has sat in its current status longer than the configured
// dwell timer, and drops straight to RESOLVED the moment a professor replies.
// The decision logic lives in Evaluate, a pure function over a doubt snapshot
// and a clock reading, so it can be tested without a database or a ticker.
// The Sweeper in this package drives Evaluate periodically and applies its
// decisions through guarded status updates.
package escalation

import (
	"fmt"
	"time"

	"github.com/campusdesk/go-doubt-backend/internal/domain"
)

// Transition causes recorded in the audit trail. Handlers reuse the
// event-driven ones so history rows read the same no matter which code path
// produced them.
const (
	CauseAIConfirmed     = "student confirmed AI answer"
	CauseStudentEscalate = "student still confused, escalated to open forum"
	CauseProfessorReply  = "professor replied"
	CauseTimerOpen       = "no resolution in AI triage, escalated to open forum"
	CauseTimerSenior     = "no resolution in open forum, escalated to seniors"
	CauseTimerProfessor  = "no resolution from seniors, escalated to professors"
)

// Thresholds holds the dwell timers for the three timed rungs of the ladder.
type Thresholds struct {
	// OpenAfter is how long a doubt may sit in AI triage before it is
	// promoted to the open forum.
	OpenAfter time.Duration

	// SeniorAfter is how long a doubt may sit in the open forum before it
	// becomes visible to senior students.
	SeniorAfter time.Duration

	// ProfessorAfter is how long a doubt may sit with seniors before it
	// becomes visible to professors.
	ProfessorAfter time.Duration
}

// Decision is the outcome of evaluating one doubt at one instant.
//
// When Advance is true the doubt should move From -> Next with Cause recorded
// in its history. When Advance is false and Fault is non-empty the doubt is in
// a state the policy does not understand and should be skipped and logged, not
// advanced. Otherwise the doubt simply has nothing to do yet.
type Decision struct {
	Advance bool
	From    domain.Status
	Next    domain.Status
	Cause   string
	Fault   string
}

// noop is the zero Decision, returned when a doubt needs no action.
var noop = Decision{}

// Evaluate inspects a single doubt against the clock and the dwell timers and
// returns the one step, if any, the doubt should take right now.
//
// Evaluate never proposes more than one rung per call. A doubt that has been
// stuck for hours still climbs one status per sweep, so every intermediate
// audience gets at least one sweep interval to see it. A professor reply
// preloaded on the doubt wins over any elapsed timer and resolves the doubt
// directly from whatever rung it is on.
func Evaluate(d *domain.Doubt, now time.Time, t Thresholds) Decision {
	if !d.Status.Valid() {
		return Decision{Fault: fmt.Sprintf("unknown status %q", d.Status)}
	}
	if d.Status.Terminal() {
		return noop
	}

	// A professor reply resolves the doubt no matter which rung it is on,
	// and beats any dwell timer that expired in the same evaluation.
	for i := range d.Replies {
		if d.Replies[i].Role == domain.RoleProfessor {
			return Decision{
				Advance: true,
				From:    d.Status,
				Next:    domain.StatusResolved,
				Cause:   CauseProfessorReply,
			}
		}
	}

	elapsed := now.Sub(d.LastStatusChangeAt)

	switch d.Status {
	case domain.StatusAI:
		if elapsed >= t.OpenAfter {
			return Decision{Advance: true, From: d.Status, Next: domain.StatusOpen, Cause: CauseTimerOpen}
		}
	case domain.StatusOpen:
		if elapsed >= t.SeniorAfter {
			return Decision{Advance: true, From: d.Status, Next: domain.StatusSeniorVisible, Cause: CauseTimerSenior}
		}
	case domain.StatusSeniorVisible:
		if elapsed >= t.ProfessorAfter {
			return Decision{Advance: true, From: d.Status, Next: domain.StatusProfessorVisible, Cause: CauseTimerProfessor}
		}
	case domain.StatusProfessorVisible:
		// Top of the ladder. Only a professor reply or the student marking
		// the doubt solved moves it from here.
	}

	return noop
}
