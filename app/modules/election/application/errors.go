package electionservice

import (
	"errors"
	"fmt"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
)

// constraintFailures maps schema constraints to the conflict callers see.
var constraintFailures = map[string]error{
	electiondb.ConstraintBallotVoter:           electiondomain.ErrDuplicateBallot,
	electiondb.ConstraintCandidateName:         electiondomain.ErrDuplicateCandidateName,
	electiondb.ConstraintPollLocation:          electiondomain.ErrDuplicatePoll,
	electiondb.ConstraintPollElectionLocation:  electiondomain.ErrDuplicatePoll,
	electiondb.ConstraintVoterName:             electiondomain.ErrDuplicateVoterName,
	electiondb.ConstraintSelectionCandidateFK:  electiondomain.ErrCandidateInUse,
	electiondb.ConstraintSelectionBallotUnique: electiondomain.ErrMalformedSelections,
}

// constraintFailure converts a constraint violation into a domain failure. It
// returns nil for errors that are not constraint violations.
func constraintFailure(err error) error {
	if !errors.Is(err, electiondb.ErrUniqueViolation) && !errors.Is(err, electiondb.ErrForeignKeyViolation) {
		return nil
	}
	name := electiondb.ConstraintName(err)
	if failure, ok := constraintFailures[name]; ok {
		return failure
	}
	return fmt.Errorf("%w: constraint %s", electiondomain.ErrConflict, name)
}

// asDomainError makes sure anything leaving the façade carries a kind.
func asDomainError(operation string, err error) error {
	if err == nil || electiondomain.Kind(err) != nil {
		return err
	}
	return electiondomain.StorageError(operation, err)
}
