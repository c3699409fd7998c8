package electiondomain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the election engine wraps exactly one
// of these so callers can present a uniform "not found / failed" outcome with
// errors.Is instead of matching messages.
var (
	// ErrValidation marks input rejected before any I/O.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown election, candidate, voter or poll.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness clash (duplicate ballot, name or location).
	ErrConflict = errors.New("conflict")
	// ErrState marks an operation that is not allowed in the current state.
	ErrState = errors.New("invalid state")
	// ErrStorage marks an infrastructure failure (connectivity, timeout).
	ErrStorage = errors.New("storage failure")
)

// kindError binds a specific failure to its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Validation errors.
var (
	ErrBlankTitle           = newKindError(ErrValidation, "title must not be blank")
	ErrTitleTooLong         = newKindError(ErrValidation, fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	ErrBlankCandidateName   = newKindError(ErrValidation, "candidate name must not be blank")
	ErrCandidateNameTooLong = newKindError(ErrValidation, fmt.Sprintf("candidate name must be at most %d characters", MaxCandidateNameLength))
	ErrPartyTooLong         = newKindError(ErrValidation, fmt.Sprintf("party must be at most %d characters", MaxPartyLength))
	ErrBlankVoterName       = newKindError(ErrValidation, "voter name must not be blank")
	ErrVoterNameTooLong     = newKindError(ErrValidation, fmt.Sprintf("voter name must be at most %d characters", MaxVoterNameLength))
	ErrBlankWorld           = newKindError(ErrValidation, "poll world must not be blank")
	ErrWorldTooLong         = newKindError(ErrValidation, fmt.Sprintf("poll world must be at most %d characters", MaxWorldLength))
	ErrPermissionTooLong    = newKindError(ErrValidation, fmt.Sprintf("permission must be at most %d characters", MaxPermissionLength))
	ErrInvalidDuration      = newKindError(ErrValidation, "duration must be positive with no negative components")
	ErrDurationTooLong      = newKindError(ErrValidation, fmt.Sprintf("duration must be at most %s", MaxDuration))
	ErrInvalidRequirements  = newKindError(ErrValidation, "requirements must not contain negative playtime or blank permissions")
	ErrUnknownVotingSystem  = newKindError(ErrValidation, "unknown voting system")
	ErrUnknownBallotMode    = newKindError(ErrValidation, "unknown ballot mode")
	ErrUnknownChangeType    = newKindError(ErrValidation, "unknown status change type")
	ErrBlankActor           = newKindError(ErrValidation, "actor must not be blank")
	ErrActorTooLong         = newKindError(ErrValidation, fmt.Sprintf("actor must be at most %d characters", MaxActorLength))
	ErrMalformedSelections  = newKindError(ErrValidation, "selections must be provided")
	ErrTooFewSelections     = newKindError(ErrValidation, "not enough candidates selected")
	ErrTooManySelections    = newKindError(ErrValidation, "more candidates selected than exist")
	ErrWrongSelectionCount  = newKindError(ErrValidation, "selection count must equal the required number of votes")
	ErrUnknownCandidate     = newKindError(ErrValidation, "selection is not a current candidate")
	ErrHeadItemTooLarge     = newKindError(ErrValidation, fmt.Sprintf("head item must be at most %d bytes", MaxHeadItemBytes))
)

// Not found errors.
var (
	ErrElectionNotFound  = newKindError(ErrNotFound, "election not found")
	ErrCandidateNotFound = newKindError(ErrNotFound, "candidate not found")
	ErrVoterNotFound     = newKindError(ErrNotFound, "voter not found")
	ErrPollNotFound      = newKindError(ErrNotFound, "poll not found")
	ErrHeadItemNotFound  = newKindError(ErrNotFound, "candidate head item not found")
)

// Conflict errors.
var (
	ErrDuplicateBallot        = newKindError(ErrConflict, "voter has already submitted a ballot")
	ErrDuplicateCandidateName = newKindError(ErrConflict, "candidate name already used in this election")
	ErrDuplicatePoll          = newKindError(ErrConflict, "poll location already in use")
	ErrDuplicateVoterName     = newKindError(ErrConflict, "voter name already registered")
	ErrCandidateInUse         = newKindError(ErrConflict, "candidate is referenced by submitted ballots")
)

// State errors.
var (
	ErrElectionNotOpen   = newKindError(ErrState, "election is not open")
	ErrElectionDeleted   = newKindError(ErrState, "election is deleted")
	ErrWrongVotingSystem = newKindError(ErrState, "ballot type does not match the election's voting system")
	ErrVoterNotEligible  = newKindError(ErrState, "voter is not registered in this election")
	ErrAlreadyVoted      = newKindError(ErrState, "voter has already voted")
	ErrNotDeleted        = newKindError(ErrState, "election is not deleted")
)

// StorageError wraps an infrastructure failure with the storage kind.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storageError{op: op, err: err}
}

type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage.Error(), e.op, e.err)
}

func (e *storageError) Unwrap() []error { return []error{ErrStorage, e.err} }

// Kind returns the kind an error belongs to, or nil when it carries none.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrState, ErrStorage} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
