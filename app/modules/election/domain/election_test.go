package electiondomain

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestNewElection(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e, err := NewElection("  Council  ", SystemBlock, -4, "admin", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Title != "Council" || e.Status != StatusClosed || e.MinimumVotes != 1 {
		t.Fatalf("unexpected election %+v", e)
	}
	if len(e.StatusChanges) != 1 || e.StatusChanges[0].Type != ChangeCreated || e.StatusChanges[0].Actor != "admin" {
		t.Fatalf("expected a single CREATED entry, got %+v", e.StatusChanges)
	}

	if _, err := NewElection("   ", SystemBlock, 1, "admin", now); !errors.Is(err, ErrBlankTitle) {
		t.Fatalf("expected blank title, got %v", err)
	}
	if _, err := NewElection(strings.Repeat("x", MaxTitleLength+1), SystemBlock, 1, "admin", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := NewElection("t", VotingSystem("STV"), 1, "admin", now); !errors.Is(err, ErrUnknownVotingSystem) {
		t.Fatalf("expected unknown system, got %v", err)
	}
	if _, err := NewElection("t", SystemBlock, 1, " ", now); !errors.Is(err, ErrBlankActor) {
		t.Fatalf("expected blank actor, got %v", err)
	}
}

func TestClampMinimumVotes(t *testing.T) {
	for in, want := range map[int]int{-10: 1, 0: 1, 1: 1, 7: 7} {
		if got := ClampMinimumVotes(in); got != want {
			t.Fatalf("ClampMinimumVotes(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDerivedTimes(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e, _ := NewElection("t", SystemBlock, 1, "admin", created)

	if _, ok := e.ClosesAt(); ok {
		t.Fatal("closesAt must be absent without a duration")
	}
	d, _ := NewDuration(1, 0, 0, 0)
	e.Duration = &d
	if _, ok := e.ClosesAt(); ok {
		t.Fatal("closesAt must be absent before the election is opened")
	}

	first := created.Add(time.Hour)
	second := created.Add(5 * time.Hour)
	e.StatusChanges = append(e.StatusChanges,
		NewStatusChange(first, ChangeOpened, "admin", ""),
		NewStatusChange(first.Add(time.Minute), ChangeClosed, "admin", ""),
		NewStatusChange(second, ChangeOpened, "admin", ""),
	)
	e.Status = StatusOpen

	closesAt, ok := e.ClosesAt()
	if !ok || !closesAt.Equal(second.Add(24*time.Hour)) {
		t.Fatalf("expected closesAt from latest opening, got %v", closesAt)
	}
	if e.DueForAutoClose(closesAt.Add(-time.Second)) {
		t.Fatal("not due before closesAt")
	}
	if !e.DueForAutoClose(closesAt) {
		t.Fatal("due exactly at closesAt")
	}
}

func TestDueForPurge(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e, _ := NewElection("t", SystemBlock, 1, "admin", created)
	deleted := created.Add(time.Hour)
	e.StatusChanges = append(e.StatusChanges, NewStatusChange(deleted, ChangeDeleted, "admin", ""))

	retention := 30 * 24 * time.Hour
	if e.DueForPurge(deleted.Add(retention), retention) {
		t.Fatal("a non-deleted election is never due")
	}
	e.Status = StatusDeleted
	if e.DueForPurge(deleted.Add(retention-time.Second), retention) {
		t.Fatal("not due inside the retention window")
	}
	if !e.DueForPurge(deleted.Add(retention), retention) {
		t.Fatal("due once retention has elapsed")
	}
	if !e.DueForPurge(deleted, 0) {
		t.Fatal("zero retention purges immediately")
	}
}

func TestCloneIsDeep(t *testing.T) {
	at := time.Now()
	e := openElection(SystemPreferential, 1)
	e.Ballots = []Ballot{{ID: 1, VoterID: 1, Selections: []CandidateID{1, 2}, SubmittedAt: &at}}
	e.Requirements = Requirements{Permissions: []string{"vote"}}

	c := e.Clone()
	c.Ballots[0].Selections[0] = 3
	c.Candidates[0].Name = "Z"
	c.Requirements.Permissions[0] = "other"

	if e.Ballots[0].Selections[0] != 1 || e.Candidates[0].Name != "A" || e.Requirements.Permissions[0] != "vote" {
		t.Fatal("clone shares state with the original")
	}
}

func TestLookups(t *testing.T) {
	e := openElection(SystemBlock, 1)
	if v, ok := e.VoterByName("v"); !ok || v.ID != 1 {
		t.Fatalf("expected case-insensitive voter lookup, got %+v %v", v, ok)
	}
	if _, ok := e.CandidateByName("a"); ok {
		t.Fatal("candidate names are case-sensitive")
	}
	if e.NextCandidateID() != 4 || e.NextVoterID() != 3 || e.NextBallotID() != 1 {
		t.Fatalf("unexpected next ids %d %d %d", e.NextCandidateID(), e.NextVoterID(), e.NextBallotID())
	}
}

func TestNextCandidateIDSkipsRemovedIDs(t *testing.T) {
	e := &Election{LastCandidateID: 5, Candidates: []Candidate{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}}
	if got := e.NextCandidateID(); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
	e.LastCandidateID = 0
	if got := e.NextCandidateID(); got != 3 {
		t.Fatalf("expected 3 without a recorded high-water mark, got %d", got)
	}
}

func TestNewRequirements(t *testing.T) {
	r, err := NewRequirements([]string{" b.vote ", "a.vote", "b.vote"}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(r.Permissions, []string{"a.vote", "b.vote"}) || r.ActivePlaytimeMinutes != 30 {
		t.Fatalf("unexpected requirements %+v", r)
	}
	if _, err := NewRequirements(nil, -1); !errors.Is(err, ErrInvalidRequirements) {
		t.Fatalf("expected invalid requirements, got %v", err)
	}
	if _, err := NewRequirements([]string{""}, 0); !errors.Is(err, ErrInvalidRequirements) {
		t.Fatalf("expected invalid requirements, got %v", err)
	}
	if _, err := NewRequirements([]string{strings.Repeat("p", MaxPermissionLength+1)}, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected long permission to fail validation, got %v", err)
	}
	if _, err := NewRequirements([]string{strings.Repeat("p", MaxPermissionLength)}, 0); err != nil {
		t.Fatalf("permission at the limit rejected: %v", err)
	}
}

func TestNormalizers(t *testing.T) {
	if _, _, err := NormalizeCandidate(" ", ""); !errors.Is(err, ErrBlankCandidateName) {
		t.Fatalf("expected blank candidate, got %v", err)
	}
	if _, _, err := NormalizeCandidate("A", strings.Repeat("p", MaxPartyLength+1)); !errors.Is(err, ErrPartyTooLong) {
		t.Fatalf("expected long party, got %v", err)
	}
	if _, err := NormalizeVoterName(strings.Repeat("v", MaxVoterNameLength+1)); !errors.Is(err, ErrVoterNameTooLong) {
		t.Fatalf("expected long voter name, got %v", err)
	}
	if _, err := NormalizePoll(Poll{World: " "}); !errors.Is(err, ErrBlankWorld) {
		t.Fatalf("expected blank world, got %v", err)
	}
	if _, err := NormalizePoll(Poll{World: strings.Repeat("w", MaxWorldLength+1)}); !errors.Is(err, ErrWorldTooLong) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected long world, got %v", err)
	}
	if _, err := NormalizeActor(strings.Repeat("a", MaxActorLength+1)); !errors.Is(err, ErrActorTooLong) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected long actor, got %v", err)
	}
	if got, err := NormalizeActor(" " + strings.Repeat("a", MaxActorLength) + " "); err != nil || len(got) != MaxActorLength {
		t.Fatalf("actor at the limit rejected: %q %v", got, err)
	}
}

func TestTally(t *testing.T) {
	at := time.Now()
	e := openElection(SystemPreferential, 1)
	e.Ballots = []Ballot{
		{ID: 1, VoterID: 1, Selections: []CandidateID{2, 1}, SubmittedAt: &at},
		{ID: 2, VoterID: 2, Selections: []CandidateID{2, 3}, SubmittedAt: &at},
		{ID: 3, VoterID: 3, Selections: []CandidateID{1}},
	}
	got := Tally(e)
	if got[0].Candidate.ID != 2 || got[0].Votes != 2 || got[1].Candidate.ID != 1 || got[1].Votes != 0 {
		t.Fatalf("unexpected preferential tally %+v", got)
	}

	e.System = SystemBlock
	got = Tally(e)
	if got[0].Candidate.ID != 2 || got[0].Votes != 2 || got[1].Candidate.ID != 1 || got[1].Votes != 1 {
		t.Fatalf("unexpected block tally %+v", got)
	}
	if SubmittedBallots(e) != 2 {
		t.Fatalf("expected 2 submitted ballots")
	}
}

func TestErrorKinds(t *testing.T) {
	cases := map[error]error{
		ErrBlankTitle:                         ErrValidation,
		ErrElectionNotFound:                   ErrNotFound,
		ErrDuplicateBallot:                    ErrConflict,
		ErrElectionNotOpen:                    ErrState,
		StorageError("x", errors.New("boom")): ErrStorage,
	}
	for err, kind := range cases {
		if Kind(err) != kind {
			t.Fatalf("%v: expected kind %v, got %v", err, kind, Kind(err))
		}
	}
	if Kind(errors.New("plain")) != nil {
		t.Fatal("plain errors carry no kind")
	}
}
