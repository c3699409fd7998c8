package electiondomain

// CheckBallotPreconditions runs the checks shared by both voting systems, in
// order, stopping at the first failure: the election exists, it is OPEN, its
// system matches, the voter is registered, the voter has not voted yet and
// the selection list is present.
//
// The already-voted check is a fast path only. The store's unique
// (election, voter) constraint is what actually prevents double voting.
func CheckBallotPreconditions(e *Election, system VotingSystem, voter VoterID, selections []CandidateID) error {
	switch {
	case e == nil:
		return ErrElectionNotFound
	case e.Status != StatusOpen:
		return ErrElectionNotOpen
	case e.System != system:
		return ErrWrongVotingSystem
	}
	if _, ok := e.Voter(voter); !ok {
		return ErrVoterNotEligible
	}
	if e.HasVoted(voter) {
		return ErrAlreadyVoted
	}
	if selections == nil {
		return ErrMalformedSelections
	}
	return nil
}

// uniqueSelections drops blank slots and keeps the first occurrence of every
// candidate, preserving order.
func uniqueSelections(selections []CandidateID) []CandidateID {
	seen := make(map[CandidateID]struct{}, len(selections))
	out := make([]CandidateID, 0, len(selections))
	for _, id := range selections {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requireCurrentCandidates(e *Election, ids []CandidateID) error {
	for _, id := range ids {
		if _, ok := e.Candidate(id); !ok {
			return ErrUnknownCandidate
		}
	}
	return nil
}

// ValidatePreferential checks a ranked ballot and returns the selections to
// store, in rank order. Repeated candidates keep their first position; later
// repeats are discarded rather than rejected.
func ValidatePreferential(e *Election, voter VoterID, selections []CandidateID) ([]CandidateID, error) {
	if err := CheckBallotPreconditions(e, SystemPreferential, voter, selections); err != nil {
		return nil, err
	}
	ranked := uniqueSelections(selections)
	if len(ranked) < ClampMinimumVotes(e.MinimumVotes) {
		return nil, ErrTooFewSelections
	}
	if err := requireCurrentCandidates(e, ranked); err != nil {
		return nil, err
	}
	if len(ranked) > len(e.Candidates) {
		return nil, ErrTooManySelections
	}
	return ranked, nil
}

// ValidateBlock checks a block ballot. The number of distinct candidates must
// equal the election's minimum exactly.
func ValidateBlock(e *Election, voter VoterID, selections []CandidateID) ([]CandidateID, error) {
	if err := CheckBallotPreconditions(e, SystemBlock, voter, selections); err != nil {
		return nil, err
	}
	chosen := uniqueSelections(selections)
	if len(chosen) != ClampMinimumVotes(e.MinimumVotes) {
		return nil, ErrWrongSelectionCount
	}
	if err := requireCurrentCandidates(e, chosen); err != nil {
		return nil, err
	}
	return chosen, nil
}

// ValidateBallot dispatches to the validator of the requested system.
func ValidateBallot(e *Election, system VotingSystem, voter VoterID, selections []CandidateID) ([]CandidateID, error) {
	switch system {
	case SystemPreferential:
		return ValidatePreferential(e, voter, selections)
	case SystemBlock:
		return ValidateBlock(e, voter, selections)
	}
	return nil, ErrUnknownVotingSystem
}
