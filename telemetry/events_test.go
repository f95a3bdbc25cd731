package telemetry

import (
	"errors"
	"testing"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventSpawn, "spawn"},
		{EventSuffocate, "suffocate"},
		{EventRecover, "recover"},
		{EventDeath, "death"},
		{EventStepFailure, "step_failure"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.typ, got, tt.want)
		}
		if got, err := tt.typ.MarshalCSV(); err != nil || got != tt.want {
			t.Errorf("%d.MarshalCSV() = %q, %v", tt.typ, got, err)
		}
	}
}

func TestNewStepFailureEvent(t *testing.T) {
	e := NewStepFailureEvent(5, 9, 2, errors.New("boom"))
	if e.Type != EventStepFailure || e.OrganismID != 9 || e.Region != 2 || e.Detail != "boom" {
		t.Errorf("unexpected event: %+v", e)
	}
	if NewStepFailureEvent(5, 9, 2, nil).Detail != "" {
		t.Error("nil error should leave detail empty")
	}
}
