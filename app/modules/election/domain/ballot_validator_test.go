package electiondomain

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func openElection(system VotingSystem, minimum int) *Election {
	e, err := NewElection("Mayor", system, minimum, "admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	e.ID = 1
	e.Status = StatusOpen
	e.Candidates = []Candidate{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
	e.Voters = []Voter{{ID: 1, Name: "V"}, {ID: 2, Name: "W"}}
	return e
}

func TestCheckBallotPreconditionsOrder(t *testing.T) {
	submitted := time.Now()
	tests := []struct {
		name       string
		mutate     func(e *Election) *Election
		system     VotingSystem
		voter      VoterID
		selections []CandidateID
		want       error
	}{
		{name: "missing election", mutate: func(*Election) *Election { return nil }, system: SystemBlock, voter: 1, want: ErrElectionNotFound},
		{name: "closed beats wrong system", mutate: func(e *Election) *Election { e.Status = StatusClosed; return e }, system: SystemPreferential, voter: 1, want: ErrElectionNotOpen},
		{name: "deleted", mutate: func(e *Election) *Election { e.Status = StatusDeleted; return e }, system: SystemBlock, voter: 1, want: ErrElectionNotOpen},
		{name: "wrong system beats unknown voter", mutate: func(e *Election) *Election { return e }, system: SystemPreferential, voter: 99, want: ErrWrongVotingSystem},
		{name: "unknown voter beats nil selections", mutate: func(e *Election) *Election { return e }, system: SystemBlock, voter: 99, want: ErrVoterNotEligible},
		{
			name: "already voted beats nil selections",
			mutate: func(e *Election) *Election {
				e.Ballots = []Ballot{{ID: 1, VoterID: 1, Selections: []CandidateID{1, 2}, SubmittedAt: &submitted}}
				return e
			},
			system: SystemBlock, voter: 1, want: ErrAlreadyVoted,
		},
		{name: "nil selections", mutate: func(e *Election) *Election { return e }, system: SystemBlock, voter: 1, want: ErrMalformedSelections},
		{name: "ok", mutate: func(e *Election) *Election { return e }, system: SystemBlock, voter: 1, selections: []CandidateID{}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.mutate(openElection(SystemBlock, 2))
			err := CheckBallotPreconditions(e, tt.system, tt.voter, tt.selections)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidatePreferential(t *testing.T) {
	tests := []struct {
		name       string
		minimum    int
		selections []CandidateID
		want       []CandidateID
		wantErr    error
	}{
		{name: "dedup keeps first occurrence", minimum: 2, selections: []CandidateID{2, 2, 1}, want: []CandidateID{2, 1}},
		{name: "later duplicate never displaces", minimum: 1, selections: []CandidateID{3, 1, 3, 2, 1}, want: []CandidateID{3, 1, 2}},
		{name: "blank slots dropped", minimum: 2, selections: []CandidateID{0, 1, 0, 3}, want: []CandidateID{1, 3}},
		{name: "more than minimum is fine", minimum: 1, selections: []CandidateID{1, 2, 3}, want: []CandidateID{1, 2, 3}},
		{name: "too few after dedup", minimum: 2, selections: []CandidateID{1, 1}, wantErr: ErrTooFewSelections},
		{name: "empty list", minimum: 1, selections: []CandidateID{}, wantErr: ErrTooFewSelections},
		{name: "zero minimum treated as one", minimum: 0, selections: []CandidateID{0}, wantErr: ErrTooFewSelections},
		{name: "unknown candidate", minimum: 1, selections: []CandidateID{1, 9}, wantErr: ErrUnknownCandidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := openElection(SystemPreferential, tt.minimum)
			e.MinimumVotes = tt.minimum
			got, err := ValidatePreferential(e, 1, tt.selections)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected a validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValidatePreferentialUnknownReportedBeforeCount(t *testing.T) {
	e := openElection(SystemPreferential, 1)
	e.Candidates = e.Candidates[:2]
	_, err := ValidatePreferential(e, 1, []CandidateID{1, 2, 3})
	if !errors.Is(err, ErrUnknownCandidate) {
		t.Fatalf("expected unknown candidate, got %v", err)
	}
}

func TestValidateBlockExactCount(t *testing.T) {
	e := openElection(SystemBlock, 3)
	e.Candidates = append(e.Candidates, Candidate{ID: 4, Name: "D"})

	for _, sel := range [][]CandidateID{{1, 2}, {1, 2, 3, 4}, {1, 1, 2}} {
		if _, err := ValidateBlock(e, 1, sel); !errors.Is(err, ErrWrongSelectionCount) {
			t.Fatalf("selections %v: expected wrong count, got %v", sel, err)
		}
	}

	got, err := ValidateBlock(e, 1, []CandidateID{3, 0, 1, 4, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 stored selections, got %v", got)
	}
}

func TestValidateBlockRemovedCandidate(t *testing.T) {
	e := openElection(SystemBlock, 2)
	e.Candidates = e.Candidates[1:]
	if _, err := ValidateBlock(e, 1, []CandidateID{1, 2}); !errors.Is(err, ErrUnknownCandidate) {
		t.Fatalf("expected unknown candidate, got %v", err)
	}
}

func TestValidateBallotDispatch(t *testing.T) {
	e := openElection(SystemBlock, 2)
	if _, err := ValidateBallot(e, SystemPreferential, 1, []CandidateID{1, 2}); !errors.Is(err, ErrWrongVotingSystem) {
		t.Fatalf("expected wrong system, got %v", err)
	}
	if _, err := ValidateBallot(e, VotingSystem("STV"), 1, []CandidateID{1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(ErrWrongVotingSystem, ErrState) {
		t.Fatal("wrong system should be a state error")
	}
}
