package electiondb

import (
	"context"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/uptrace/bun"
)

// UpdateFields represents the updateable columns of an election row.
// Pointer fields distinguish "not provided" (nil) from "set to zero value".
type UpdateFields struct {
	Title         *string
	Status        *electiondomain.Status
	System        *electiondomain.VotingSystem
	MinimumVotes  *int
	BallotMode    *electiondomain.BallotMode
	Duration      *electiondomain.Duration
	ClearDuration bool
}

// IsEmpty reports whether any fields are set for update.
func (u *UpdateFields) IsEmpty() bool {
	if u == nil {
		return true
	}
	return u.Title == nil &&
		u.Status == nil &&
		u.System == nil &&
		u.MinimumVotes == nil &&
		u.BallotMode == nil &&
		u.Duration == nil &&
		!u.ClearDuration
}

// Repository defines the contract for election persistence.
// Every method accepts a bun.IDB so it can run inside a caller's transaction;
// a nil db falls back to the repository's own connection.
//
// Error semantics:
//   - ErrNotFound: the election or child row does not exist
//   - *ConstraintError wrapping ErrUniqueViolation / ErrForeignKeyViolation:
//     a schema constraint rejected the write
//   - Other errors: infrastructure failures (connection, timeout, query errors)
type Repository interface {
	// RunInTx runs fn in a single transaction, rolling back when fn fails.
	RunInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error

	// AcquireElectionLock serializes writers of one election across processes.
	// Must be called within a transaction.
	AcquireElectionLock(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) error

	// LoadElection assembles the full aggregate, children included.
	LoadElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) (*electiondomain.Election, error)

	// LoadElections assembles every election, ordered by id.
	LoadElections(ctx context.Context, db bun.IDB) ([]*electiondomain.Election, error)

	// InsertElection stores a new election, its empty requirements row and its
	// audit entries, and returns the assigned id.
	InsertElection(ctx context.Context, db bun.IDB, e *electiondomain.Election) (electiondomain.ElectionID, error)

	// UpdateElection applies partial updates to the election row.
	// Returns ErrNotFound if the election does not exist.
	UpdateElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, updates *UpdateFields) error

	// ReplaceRequirements overwrites the requirements and permission rows.
	ReplaceRequirements(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, req electiondomain.Requirements) error

	// InsertCandidate assigns the next candidate id and stores the candidate.
	InsertCandidate(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, c electiondomain.Candidate) (electiondomain.Candidate, error)

	// DeleteCandidate removes a candidate and its head item. Candidates
	// referenced by ballot selections are protected by a RESTRICT key.
	DeleteCandidate(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) error

	// SaveCandidateHeadItem creates or replaces a candidate's head item.
	SaveCandidateHeadItem(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID, item []byte) error

	// GetCandidateHeadItem returns ErrNotFound when no item is stored.
	GetCandidateHeadItem(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) ([]byte, error)

	// InsertPoll binds a location to an election. Locations are globally unique.
	InsertPoll(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, p electiondomain.Poll) error

	// DeletePoll unbinds a location from the election.
	DeletePoll(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, p electiondomain.Poll) error

	// InsertVoter assigns the next voter id and stores the voter.
	InsertVoter(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, name string) (electiondomain.Voter, error)

	// InsertBallot assigns the next ballot id and stores the ballot with its
	// selections at positions 1..N.
	InsertBallot(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, b electiondomain.Ballot) (electiondomain.Ballot, error)

	// AppendStatusChange adds an audit entry.
	AppendStatusChange(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, sc electiondomain.StatusChange) error

	// PurgeElection hard-deletes the election and every child row in
	// dependency order.
	PurgeElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) error
}
