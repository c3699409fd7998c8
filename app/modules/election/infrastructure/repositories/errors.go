package electiondb

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Sentinel errors for the repository layer.
// These represent infrastructure-level conditions callers may want
// to handle specially (not business-domain errors).
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUniqueViolation indicates a UNIQUE or PRIMARY KEY constraint rejected a write.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation indicates a RESTRICT foreign key rejected a write or delete.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// Constraint names declared by the schema migration. The service maps them to
// domain conflicts.
const (
	ConstraintBallotVoter           = "election_ballots_voter_key"
	ConstraintCandidateName         = "election_candidates_name_key"
	ConstraintPollLocation          = "election_polls_pkey"
	ConstraintPollElectionLocation  = "election_polls_election_location_key"
	ConstraintVoterName             = "election_voters_name_key"
	ConstraintSelectionCandidateFK  = "election_ballot_selections_candidate_fkey"
	ConstraintSelectionBallotUnique = "election_ballot_selections_candidate_key"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

// ConstraintError reports which constraint rejected a write.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (%s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%v (%s)", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newConstraintError(kind error, constraint string) error {
	return &ConstraintError{Kind: kind, Constraint: constraint}
}

// ConstraintName returns the violated constraint carried by err, or "".
func ConstraintName(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// translateError converts driver integrity errors into ConstraintError and
// wraps everything else with the operation name. Both bun's pgdriver and pgx
// are recognised so either can back the *bun.DB.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		code, constraint string
		pgErr            pgdriver.Error
		pgxErr           *pgconn.PgError
	)
	switch {
	case errors.As(err, &pgErr):
		code, constraint = pgErr.Field('C'), pgErr.Field('n')
	case errors.As(err, &pgxErr):
		code, constraint = pgxErr.Code, pgxErr.ConstraintName
	}

	switch code {
	case sqlStateUniqueViolation:
		return &ConstraintError{Kind: ErrUniqueViolation, Constraint: constraint, Err: fmt.Errorf("%s: %w", op, err)}
	case sqlStateForeignKeyViolation:
		return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: constraint, Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("%s: %w", op, err)
}
