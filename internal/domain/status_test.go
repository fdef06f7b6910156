package domain

import "testing"

func TestStatusRankAndValid(t *testing.T) {
	ladder := []Status{StatusAI, StatusOpen, StatusSeniorVisible, StatusProfessorVisible, StatusResolved}
	for i, s := range ladder {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
		if s.Rank() != i {
			t.Fatalf("%s rank = %d; want %d", s, s.Rank(), i)
		}
	}
	if Status("WAITING").Valid() {
		t.Fatalf("unknown status should be invalid")
	}
	if Status("").Rank() != -1 {
		t.Fatalf("empty status rank = %d; want -1", Status("").Rank())
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusResolved.Terminal() {
		t.Fatalf("RESOLVED must be terminal")
	}
	for _, s := range []Status{StatusAI, StatusOpen, StatusSeniorVisible, StatusProfessorVisible} {
		if s.Terminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func TestCanAdvanceTo(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusAI, StatusOpen, true},
		{StatusOpen, StatusSeniorVisible, true},
		{StatusSeniorVisible, StatusProfessorVisible, true},
		{StatusProfessorVisible, StatusResolved, true},

		// direct jumps to RESOLVED from every non-terminal state
		{StatusAI, StatusResolved, true},
		{StatusOpen, StatusResolved, true},
		{StatusSeniorVisible, StatusResolved, true},

		// skips other than RESOLVED are illegal
		{StatusAI, StatusSeniorVisible, false},
		{StatusOpen, StatusProfessorVisible, false},

		// never regress
		{StatusOpen, StatusAI, false},
		{StatusProfessorVisible, StatusOpen, false},

		// terminal accepts nothing
		{StatusResolved, StatusResolved, false},
		{StatusResolved, StatusOpen, false},

		// unknown statuses are rejected both ways
		{Status("WAITING"), StatusOpen, false},
		{StatusAI, Status("WAITING"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
			t.Errorf("CanAdvanceTo(%s → %s) = %v; want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
