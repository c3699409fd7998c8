package electiondomain

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Field limits.
const (
	MaxTitleLength         = 100
	MaxCandidateNameLength = 64
	MaxPartyLength         = 64
	MaxVoterNameLength     = 32
	MaxWorldLength         = 64
	MaxActorLength         = 64
	MaxPermissionLength    = 128
	MaxHeadItemBytes       = 64 * 1024
)

// SystemActor attributes changes made by background sweeps.
const SystemActor = "SYSTEM"

type (
	// ElectionID is assigned by the store and never reused.
	ElectionID int64
	// CandidateID is unique within one election. Zero marks a blank ballot slot.
	CandidateID int
	// VoterID is unique within one election.
	VoterID int
	// BallotID is unique within one election.
	BallotID int
)

// Status is the lifecycle state of an election.
type Status string

const (
	StatusClosed  Status = "CLOSED"
	StatusOpen    Status = "OPEN"
	StatusDeleted Status = "DELETED"
)

// ParseStatus converts a stored status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusClosed, StatusOpen, StatusDeleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown election status %q", s)
}

// VotingSystem selects the ballot rules of an election.
type VotingSystem string

const (
	SystemPreferential VotingSystem = "PREFERENTIAL"
	SystemBlock        VotingSystem = "BLOCK"
)

// ParseVotingSystem converts a system name, case-insensitively.
func ParseVotingSystem(s string) (VotingSystem, error) {
	switch vs := VotingSystem(strings.ToUpper(strings.TrimSpace(s))); vs {
	case SystemPreferential, SystemBlock:
		return vs, nil
	}
	return "", ErrUnknownVotingSystem
}

// BallotMode is how the ballot is presented to the voter. It has no effect on
// validation.
type BallotMode string

const (
	BallotModeManual BallotMode = "MANUAL"
	BallotModeGUI    BallotMode = "GUI"
)

// ParseBallotMode converts a mode name, case-insensitively.
func ParseBallotMode(s string) (BallotMode, error) {
	switch m := BallotMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case BallotModeManual, BallotModeGUI:
		return m, nil
	}
	return "", ErrUnknownBallotMode
}

// Requirements gate who may vote. Enforcement belongs to the host.
type Requirements struct {
	Permissions           []string
	ActivePlaytimeMinutes int
}

// NewRequirements trims, deduplicates and sorts permission nodes.
func NewRequirements(permissions []string, activePlaytimeMinutes int) (Requirements, error) {
	if activePlaytimeMinutes < 0 {
		return Requirements{}, ErrInvalidRequirements
	}
	perms := make([]string, 0, len(permissions))
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		if p == "" {
			return Requirements{}, ErrInvalidRequirements
		}
		if utf8.RuneCountInString(p) > MaxPermissionLength {
			return Requirements{}, ErrPermissionTooLong
		}
		perms = append(perms, p)
	}
	slices.Sort(perms)
	return Requirements{
		Permissions:           slices.Compact(perms),
		ActivePlaytimeMinutes: activePlaytimeMinutes,
	}, nil
}

// Equal reports whether two requirement sets are the same.
func (r Requirements) Equal(o Requirements) bool {
	return r.ActivePlaytimeMinutes == o.ActivePlaytimeMinutes && slices.Equal(r.Permissions, o.Permissions)
}

func (r Requirements) clone() Requirements {
	return Requirements{Permissions: slices.Clone(r.Permissions), ActivePlaytimeMinutes: r.ActivePlaytimeMinutes}
}

// Candidate stands in an election.
type Candidate struct {
	ID    CandidateID
	Name  string
	Party string
}

// Poll is a ballot-casting location. A location serves one election at a time.
type Poll struct {
	World string
	X     int
	Y     int
	Z     int
}

// SameLocation reports whether two polls occupy the same block.
func (p Poll) SameLocation(o Poll) bool {
	return p.World == o.World && p.X == o.X && p.Y == o.Y && p.Z == o.Z
}

func (p Poll) String() string {
	return fmt.Sprintf("%s(%d, %d, %d)", p.World, p.X, p.Y, p.Z)
}

// Voter is registered in one election.
type Voter struct {
	ID   VoterID
	Name string
}

// NormalizeTitle trims and validates an election title.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return "", ErrBlankTitle
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return "", ErrTitleTooLong
	}
	return title, nil
}

// NormalizeCandidate trims and validates a candidate's name and party.
func NormalizeCandidate(name, party string) (string, string, error) {
	name = strings.TrimSpace(name)
	party = strings.TrimSpace(party)
	switch {
	case name == "":
		return "", "", ErrBlankCandidateName
	case utf8.RuneCountInString(name) > MaxCandidateNameLength:
		return "", "", ErrCandidateNameTooLong
	case utf8.RuneCountInString(party) > MaxPartyLength:
		return "", "", ErrPartyTooLong
	}
	return name, party, nil
}

// NormalizeVoterName trims and validates a voter name.
func NormalizeVoterName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", ErrBlankVoterName
	case utf8.RuneCountInString(name) > MaxVoterNameLength:
		return "", ErrVoterNameTooLong
	}
	return name, nil
}

// NormalizePoll trims and validates a poll location.
func NormalizePoll(p Poll) (Poll, error) {
	p.World = strings.TrimSpace(p.World)
	switch {
	case p.World == "":
		return Poll{}, ErrBlankWorld
	case utf8.RuneCountInString(p.World) > MaxWorldLength:
		return Poll{}, ErrWorldTooLong
	}
	return p, nil
}

// ClampMinimumVotes returns n, or 1 when n is below 1.
func ClampMinimumVotes(n int) int {
	return max(n, 1)
}

// NormalizeActor trims the audit actor.
func NormalizeActor(actor string) (string, error) {
	actor = strings.TrimSpace(actor)
	switch {
	case actor == "":
		return "", ErrBlankActor
	case utf8.RuneCountInString(actor) > MaxActorLength:
		return "", ErrActorTooLong
	}
	return actor, nil
}
