package electiondb

import (
	"time"

	"github.com/uptrace/bun"
)

// Election is one row of the elections table. The closing time is derived
// from the OPENED audit entry plus the duration columns and is never stored.
type Election struct {
	bun.BaseModel `bun:"table:elections,alias:e"`

	ID              int64     `bun:"id,pk,autoincrement"`
	Title           string    `bun:"title,notnull,type:varchar(100)"`
	Status          string    `bun:"status,notnull,type:varchar(16)"`
	System          string    `bun:"voting_system,notnull,type:varchar(16)"`
	MinimumVotes    int       `bun:"minimum_votes,notnull,default:1"`
	BallotMode      string    `bun:"ballot_mode,notnull,type:varchar(16),default:'MANUAL'"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	DurationDays    *int      `bun:"duration_days"`
	DurationHours   *int      `bun:"duration_hours"`
	DurationMinutes *int      `bun:"duration_minutes"`
	DurationSeconds *int      `bun:"duration_seconds"`
	LastCandidateID int       `bun:"last_candidate_id,notnull,default:0"`
}

// Requirements holds the 1:1 voting requirements of an election.
type Requirements struct {
	bun.BaseModel `bun:"table:election_requirements,alias:er"`

	ElectionID            int64 `bun:"election_id,pk"`
	ActivePlaytimeMinutes int   `bun:"active_playtime_minutes,notnull,default:0"`
}

// RequirementPermission is one permission node required to vote.
type RequirementPermission struct {
	bun.BaseModel `bun:"table:election_requirement_permissions,alias:erp"`

	ElectionID int64  `bun:"election_id,pk"`
	Permission string `bun:"permission,pk,type:varchar(128)"`
}

// Candidate is keyed by (election_id, id). Ids come from
// elections.last_candidate_id and are never reused within an election.
type Candidate struct {
	bun.BaseModel `bun:"table:election_candidates,alias:ec"`

	ElectionID int64  `bun:"election_id,pk"`
	ID         int    `bun:"id,pk"`
	Name       string `bun:"name,notnull,type:varchar(64)"`
	Party      string `bun:"party,nullzero,type:varchar(64)"`
}

// CandidateHeadItem is the optional serialized head item shown for a
// candidate.
type CandidateHeadItem struct {
	bun.BaseModel `bun:"table:election_candidate_head_items,alias:ech"`

	ElectionID  int64  `bun:"election_id,pk"`
	CandidateID int    `bun:"candidate_id,pk"`
	Item        []byte `bun:"item,notnull,type:bytea"`
}

// Poll is a location bound to one election.
type Poll struct {
	bun.BaseModel `bun:"table:election_polls,alias:ep"`

	ElectionID int64  `bun:"election_id,notnull"`
	World      string `bun:"world,pk,type:varchar(64)"`
	X          int    `bun:"x,pk"`
	Y          int    `bun:"y,pk"`
	Z          int    `bun:"z,pk"`
}

// Voter is keyed by (election_id, id); names are unique ignoring case.
type Voter struct {
	bun.BaseModel `bun:"table:election_voters,alias:ev"`

	ElectionID int64  `bun:"election_id,pk"`
	ID         int    `bun:"id,pk"`
	Name       string `bun:"name,notnull,type:varchar(32)"`
}

// Ballot is keyed by (election_id, id) with one ballot per voter.
type Ballot struct {
	bun.BaseModel `bun:"table:election_ballots,alias:eb"`

	ElectionID  int64      `bun:"election_id,pk"`
	ID          int        `bun:"id,pk"`
	VoterID     int        `bun:"voter_id,notnull"`
	SubmittedAt *time.Time `bun:"submitted_at,nullzero"`
}

// BallotSelection is one selected candidate at a 1-based position.
type BallotSelection struct {
	bun.BaseModel `bun:"table:election_ballot_selections,alias:ebs"`

	ElectionID  int64 `bun:"election_id,pk"`
	BallotID    int   `bun:"ballot_id,pk"`
	Position    int   `bun:"position,pk"`
	CandidateID int   `bun:"candidate_id,notnull"`
}

// StatusChange is one audit entry.
type StatusChange struct {
	bun.BaseModel `bun:"table:election_status_changes,alias:esc"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ElectionID int64     `bun:"election_id,notnull"`
	ChangedAt  time.Time `bun:"changed_at,notnull"`
	Type       string    `bun:"change_type,notnull,type:varchar(32)"`
	Actor      string    `bun:"actor,notnull,type:varchar(64)"`
	Details    *string   `bun:"details"`
}
