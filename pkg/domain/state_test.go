package domain

import "testing"

func TestNewWorkflowState_InitializesEmptySlices(t *testing.T) {
	q := Query{Text: "does metformin treat breast cancer?"}
	s := NewWorkflowState(q, "req-1", "user-1", GraphContext{})

	if s.RequestID != "req-1" || s.UserID != "user-1" {
		t.Errorf("RequestID/UserID = %q/%q, want req-1/user-1", s.RequestID, s.UserID)
	}
	if s.StageHistory == nil || len(s.StageHistory) != 0 {
		t.Errorf("StageHistory = %v, want empty non-nil slice", s.StageHistory)
	}
	if s.Errors == nil || len(s.Errors) != 0 {
		t.Errorf("Errors = %v, want empty non-nil slice", s.Errors)
	}
}

func TestWorkflowState_RecordError(t *testing.T) {
	s := NewWorkflowState(Query{}, "req-1", "user-1", GraphContext{})
	s.RecordError("literature", errTest{"literature search failed"})

	if len(s.Errors) != 1 {
		t.Fatalf("Errors len = %d, want 1", len(s.Errors))
	}
	want := "literature: literature search failed"
	if s.Errors[0] != want {
		t.Errorf("Errors[0] = %q, want %q", s.Errors[0], want)
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }
