package domain

import "testing"

func TestAttemptName(t *testing.T) {
	got := AttemptName("pdl1", 65, 412345)
	want := "pdl1_l65_s412345"
	if got != want {
		t.Errorf("AttemptName = %q, want %q", got, want)
	}
}

func TestAttemptName_Deterministic(t *testing.T) {
	a := AttemptName("binder", 50, 7)
	b := AttemptName("binder", 50, 7)
	if a != b {
		t.Errorf("identical inputs gave %q and %q", a, b)
	}
}

func TestAttemptName_DistinctLengths(t *testing.T) {
	a := AttemptName("binder", 50, 7)
	b := AttemptName("binder", 51, 7)
	if a == b {
		t.Errorf("distinct lengths collided: %q", a)
	}
}

func TestVerdict_Accepted(t *testing.T) {
	tests := []struct {
		name    string
		verdict Verdict
		want    bool
	}{
		{"clean success", Verdict{Success: true}, true},
		{"early terminate", Verdict{Success: true, TerminateReason: "low_confidence"}, false},
		{"failure", Verdict{Success: false, FailureReason: "oom"}, false},
	}

	for _, tt := range tests {
		if got := tt.verdict.Accepted(); got != tt.want {
			t.Errorf("%s: Accepted = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestVerdict_Status(t *testing.T) {
	if got := (Verdict{Success: true}).Status(); got != TrajectoryAccepted {
		t.Errorf("Status = %q, want %q", got, TrajectoryAccepted)
	}
	if got := (Verdict{Success: true, TerminateReason: "clash"}).Status(); got != TrajectoryAborted {
		t.Errorf("Status = %q, want %q", got, TrajectoryAborted)
	}
	if got := (Verdict{}).Status(); got != TrajectoryFailed {
		t.Errorf("Status = %q, want %q", got, TrajectoryFailed)
	}
}
