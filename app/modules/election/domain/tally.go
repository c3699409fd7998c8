package electiondomain

import "sort"

// TallyEntry is one candidate's count: first preferences in a preferential
// election, selections in a block election.
type TallyEntry struct {
	Candidate Candidate
	Votes     int
}

// Tally counts submitted ballots for every current candidate, highest first,
// ties broken by candidate id.
func Tally(e *Election) []TallyEntry {
	if e == nil {
		return nil
	}
	counts := make(map[CandidateID]int, len(e.Candidates))
	for _, b := range e.Ballots {
		if !b.Submitted() || len(b.Selections) == 0 {
			continue
		}
		if e.System == SystemPreferential {
			counts[b.Selections[0]]++
			continue
		}
		for _, id := range b.Selections {
			counts[id]++
		}
	}

	out := make([]TallyEntry, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		out = append(out, TallyEntry{Candidate: c, Votes: counts[c.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].Candidate.ID < out[j].Candidate.ID
	})
	return out
}

// SubmittedBallots counts finalized ballots.
func SubmittedBallots(e *Election) int {
	n := 0
	for _, b := range e.Ballots {
		if b.Submitted() {
			n++
		}
	}
	return n
}
