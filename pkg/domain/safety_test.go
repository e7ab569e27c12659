package domain

import "testing"

func TestSafetyVerdict_HasCriticalAndCounts(t *testing.T) {
	v := &SafetyVerdict{
		Flags: []SafetyFlag{
			{ID: "f1", Kind: "low_confidence", Severity: SeverityWarning, Message: "low confidence candidate"},
			{ID: "f2", Kind: "unverified_citation", Severity: SeverityCritical, Message: "citation could not be verified"},
			{ID: "f3", Kind: "no_safety_issue", Severity: SeverityInfo, Message: "looks fine"},
		},
	}

	if !v.HasCritical() {
		t.Error("HasCritical() = false, want true")
	}
	if got := v.CriticalCount(); got != 1 {
		t.Errorf("CriticalCount() = %d, want 1", got)
	}
	msgs := v.WarningMessages()
	if len(msgs) != 1 || msgs[0] != "low confidence candidate" {
		t.Errorf("WarningMessages() = %v, want [\"low confidence candidate\"]", msgs)
	}
}

func TestSafetyVerdict_NoCritical(t *testing.T) {
	v := &SafetyVerdict{Flags: []SafetyFlag{
		{ID: "f1", Severity: SeverityInfo},
	}}
	if v.HasCritical() {
		t.Error("HasCritical() = true, want false")
	}
	if got := v.CriticalCount(); got != 0 {
		t.Errorf("CriticalCount() = %d, want 0", got)
	}
}
