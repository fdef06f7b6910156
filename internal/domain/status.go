// Package domain defines the persistence models for doubts, replies, and
// the escalation audit trail. These types are mapped with GORM and form the
// core data layer of the campus backend.
package domain

// Status is the escalation state of a doubt. It is a closed enumeration:
// a doubt only ever moves forward along the ladder
// AI → OPEN → SENIOR_VISIBLE → PROFESSOR_VISIBLE → RESOLVED, or jumps
// directly to RESOLVED from any earlier state.
type Status string

const (
	// StatusAI is the initial state: the doubt has (at most) an AI answer
	// and is visible only to its author.
	StatusAI Status = "AI"
	// StatusOpen means the doubt is visible on the open course forum.
	StatusOpen Status = "OPEN"
	// StatusSeniorVisible means the doubt has been flagged for senior students.
	StatusSeniorVisible Status = "SENIOR_VISIBLE"
	// StatusProfessorVisible means the doubt has been flagged for faculty.
	// This is the last escalation tier; the doubt stays here until resolved.
	StatusProfessorVisible Status = "PROFESSOR_VISIBLE"
	// StatusResolved is terminal. No further status transitions are accepted.
	StatusResolved Status = "RESOLVED"
)

// rank orders statuses along the escalation ladder. Unknown statuses rank -1.
var rank = map[Status]int{
	StatusAI:               0,
	StatusOpen:             1,
	StatusSeniorVisible:    2,
	StatusProfessorVisible: 3,
	StatusResolved:         4,
}

// Rank returns the position of s on the escalation ladder (0..4), or -1 when
// s is not one of the five enumerated values.
func (s Status) Rank() int {
	if r, ok := rank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the five enumerated statuses.
func (s Status) Valid() bool { return s.Rank() >= 0 }

// Terminal reports whether s accepts no further status transitions.
func (s Status) Terminal() bool { return s == StatusResolved }

// CanAdvanceTo reports whether a transition from s to next is legal:
// exactly one step up the ladder, or a direct jump to RESOLVED.
func (s Status) CanAdvanceTo(next Status) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == StatusResolved {
		return true
	}
	return next.Rank() == s.Rank()+1
}

// Replier roles. Role is advisory at this layer; identity is owned by the
// external auth collaborator.
const (
	RoleStudent   = "student"
	RoleSenior    = "senior"
	RoleProfessor = "professor"
)
