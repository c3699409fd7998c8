package electiondomain

import (
	"errors"
	"testing"
)

func TestPlanTransition(t *testing.T) {
	tests := []struct {
		from    Status
		action  Action
		want    Transition
		wantErr error
	}{
		{from: StatusClosed, action: ActionOpen, want: Transition{From: StatusClosed, To: StatusOpen, Change: ChangeOpened}},
		{from: StatusOpen, action: ActionOpen, want: Transition{From: StatusOpen, To: StatusOpen, NoOp: true}},
		{from: StatusOpen, action: ActionClose, want: Transition{From: StatusOpen, To: StatusClosed, Change: ChangeClosed}},
		{from: StatusClosed, action: ActionClose, want: Transition{From: StatusClosed, To: StatusClosed, NoOp: true}},
		{from: StatusClosed, action: ActionDelete, want: Transition{From: StatusClosed, To: StatusDeleted, Change: ChangeDeleted}},
		{from: StatusOpen, action: ActionDelete, want: Transition{From: StatusOpen, To: StatusDeleted, Change: ChangeDeleted}},
		{from: StatusDeleted, action: ActionDelete, want: Transition{From: StatusDeleted, To: StatusDeleted, NoOp: true}},
		{from: StatusDeleted, action: ActionOpen, wantErr: ErrElectionDeleted},
		{from: StatusDeleted, action: ActionClose, wantErr: ErrElectionDeleted},
		{from: StatusOpen, action: Action("archive"), wantErr: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := PlanTransition(tt.from, tt.action)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestChangeTypeRoundTrip(t *testing.T) {
	types := ChangeTypes()
	if len(types) != 16 {
		t.Fatalf("expected 16 change types, got %d", len(types))
	}
	for _, ct := range types {
		text, err := ct.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", ct, err)
		}
		var back ChangeType
		if err := back.UnmarshalText(text); err != nil || back != ct {
			t.Fatalf("round trip of %s gave %v (%v)", ct, back, err)
		}
	}
	if _, err := ParseChangeType("RENAMED"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
	if _, err := ChangeType(0).MarshalText(); err == nil {
		t.Fatal("expected zero change type to be rejected")
	}
}
