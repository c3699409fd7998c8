package electiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db *bun.DB
}

// NewRepository creates a new election repository.
func NewRepository(db *bun.DB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) RunInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func (r *Impl) AcquireElectionLock(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) error {
	db = r.resolveDB(db)
	// hashtext() gives a stable int4 key per election.
	_, err := db.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", fmt.Sprintf("election:%d", id)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("election.AcquireElectionLock: %w", err)
	}
	return nil
}

func (r *Impl) LoadElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) (*electiondomain.Election, error) {
	db = r.resolveDB(db)
	var rows electionRows
	err := db.NewSelect().Model(&rows.election).Where("id = ?", int64(id)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("election.LoadElection: %w", err)
	}
	if err := r.loadChildren(ctx, db, []int64{int64(id)}, map[int64]*electionRows{int64(id): &rows}); err != nil {
		return nil, err
	}
	return toDomain(rows)
}

func (r *Impl) LoadElections(ctx context.Context, db bun.IDB) ([]*electiondomain.Election, error) {
	db = r.resolveDB(db)
	var elections []Election
	if err := db.NewSelect().Model(&elections).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("election.LoadElections: %w", err)
	}
	if len(elections) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(elections))
	byID := make(map[int64]*electionRows, len(elections))
	ordered := make([]*electionRows, 0, len(elections))
	for _, e := range elections {
		rows := &electionRows{election: e}
		ids = append(ids, e.ID)
		byID[e.ID] = rows
		ordered = append(ordered, rows)
	}
	if err := r.loadChildren(ctx, db, ids, byID); err != nil {
		return nil, err
	}

	out := make([]*electiondomain.Election, 0, len(ordered))
	for _, rows := range ordered {
		e, err := toDomain(*rows)
		if err != nil {
			return nil, fmt.Errorf("election.LoadElections: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// loadChildren fetches every child table for the given elections with one
// query per table.
func (r *Impl) loadChildren(ctx context.Context, db bun.IDB, ids []int64, byID map[int64]*electionRows) error {
	var requirements []Requirements
	if err := db.NewSelect().Model(&requirements).Where("election_id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return fmt.Errorf("election.loadChildren requirements: %w", err)
	}
	for i := range requirements {
		byID[requirements[i].ElectionID].requirements = &requirements[i]
	}

	var permissions []RequirementPermission
	if err := db.NewSelect().Model(&permissions).Where("election_id IN (?)", bun.In(ids)).Order("election_id", "permission").Scan(ctx); err != nil {
		return fmt.Errorf("election.loadChildren permissions: %w", err)
	}
	for _, p := range permissions {
		rows := byID[p.ElectionID]
		rows.permissions = append(rows.permissions, p)
	}

	var candidates []Candidate
	if err := db.NewSelect().Model(&candidates).Where("election_id IN (?)", bun.In(ids)).Order("election_id", "id").Scan(ctx); err != nil {
		return fmt.Errorf("election.loadChildren candidates: %w", err)
	}
	for _, c := range candidates {
		rows := byID[c.ElectionID]
		rows.candidates = append(rows.candidates, c)
	}

	var polls []Poll
	if err := db.NewSelect().Model(&polls).Where("election_id IN (?)", bun.In(ids)).Order("election_id", "world", "x", "y", "z").Scan(ctx); err != nil {
		return fmt.Errorf("election.loadChildren polls: %w", err)
	}
	for _, p := range polls {
		rows := byID[p.ElectionID]
		rows.polls = append(rows.polls, p)
	}

	var voters []Voter
	if err := db.NewSelect().Model(&voters).Where("election_id IN (?)", bun.In(ids)).Order("election_id", "id").Scan(ctx); err != nil {
		return fmt.Errorf("election.loadChildren voters: %w", err)
	}
	for _, v := range voters {
		rows := byID[v.ElectionID]
		rows.voters = append(rows.voters, v)
	}

	var ballots []Ballot
	if err := db.NewSelect().Model(&ballots).Where("election_id IN (?)", bun.In(ids)).Order("election_id", "id").Scan(ctx); err != nil {
		return fmt.Errorf("election.loadChildren ballots: %w", err)
	}
	for _, b := range ballots {
		rows := byID[b.ElectionID]
		rows.ballots = append(rows.ballots, b)
	}

	var selections []BallotSelection
	if err := db.NewSelect().Model(&selections).Where("election_id IN (?)", bun.In(ids)).Order("election_id", "ballot_id", "position").Scan(ctx); err != nil {
		return fmt.Errorf("election.loadChildren selections: %w", err)
	}
	for _, s := range selections {
		rows := byID[s.ElectionID]
		rows.selections = append(rows.selections, s)
	}

	var changes []StatusChange
	if err := db.NewSelect().Model(&changes).Where("election_id IN (?)", bun.In(ids)).Order("election_id", "changed_at", "id").Scan(ctx); err != nil {
		return fmt.Errorf("election.loadChildren status changes: %w", err)
	}
	for _, sc := range changes {
		rows := byID[sc.ElectionID]
		rows.changes = append(rows.changes, sc)
	}
	return nil
}

func (r *Impl) InsertElection(ctx context.Context, db bun.IDB, e *electiondomain.Election) (electiondomain.ElectionID, error) {
	db = r.resolveDB(db)
	row := toElectionModel(e)
	if _, err := db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return 0, translateError("election.InsertElection", err)
	}
	id := electiondomain.ElectionID(row.ID)

	if err := r.ReplaceRequirements(ctx, db, id, e.Requirements); err != nil {
		return 0, err
	}
	for _, sc := range e.StatusChanges {
		if err := r.AppendStatusChange(ctx, db, id, sc); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *Impl) UpdateElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, updates *UpdateFields) error {
	if updates.IsEmpty() {
		return nil
	}
	db = r.resolveDB(db)
	q := db.NewUpdate().Model((*Election)(nil)).Where("id = ?", int64(id))
	if updates.Title != nil {
		q = q.Set("title = ?", *updates.Title)
	}
	if updates.Status != nil {
		q = q.Set("status = ?", string(*updates.Status))
	}
	if updates.System != nil {
		q = q.Set("voting_system = ?", string(*updates.System))
	}
	if updates.MinimumVotes != nil {
		q = q.Set("minimum_votes = ?", electiondomain.ClampMinimumVotes(*updates.MinimumVotes))
	}
	if updates.BallotMode != nil {
		q = q.Set("ballot_mode = ?", string(*updates.BallotMode))
	}
	if updates.Duration != nil || updates.ClearDuration {
		var d *electiondomain.Duration
		if !updates.ClearDuration {
			d = updates.Duration
		}
		days, hours, minutes, seconds := durationColumns(d)
		q = q.Set("duration_days = ?", days).
			Set("duration_hours = ?", hours).
			Set("duration_minutes = ?", minutes).
			Set("duration_seconds = ?", seconds)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return translateError("election.UpdateElection", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) ReplaceRequirements(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, req electiondomain.Requirements) error {
	db = r.resolveDB(db)
	row := &Requirements{ElectionID: int64(id), ActivePlaytimeMinutes: req.ActivePlaytimeMinutes}
	_, err := db.NewInsert().
		Model(row).
		On("CONFLICT (election_id) DO UPDATE").
		Set("active_playtime_minutes = EXCLUDED.active_playtime_minutes").
		Exec(ctx)
	if err != nil {
		return translateError("election.ReplaceRequirements", err)
	}

	if _, err := db.NewDelete().Model((*RequirementPermission)(nil)).Where("election_id = ?", int64(id)).Exec(ctx); err != nil {
		return translateError("election.ReplaceRequirements", err)
	}
	if len(req.Permissions) == 0 {
		return nil
	}
	perms := make([]RequirementPermission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		perms = append(perms, RequirementPermission{ElectionID: int64(id), Permission: p})
	}
	if _, err := db.NewInsert().Model(&perms).Exec(ctx); err != nil {
		return translateError("election.ReplaceRequirements", err)
	}
	return nil
}

// nextID returns max(id)+1 of a per-election child table. Callers hold the
// election lock, so the value cannot be taken concurrently.
func nextID(ctx context.Context, db bun.IDB, model any, column string, id electiondomain.ElectionID) (int, error) {
	var next int
	err := db.NewSelect().
		Model(model).
		ColumnExpr("COALESCE(MAX(?), 0) + 1", bun.Ident(column)).
		Where("election_id = ?", int64(id)).
		Scan(ctx, &next)
	return next, err
}

// InsertCandidate takes the next id from elections.last_candidate_id. The
// counter only moves forward, so a removed candidate's id is never handed to
// a later candidate and stale ballot selections stay unknown.
func (r *Impl) InsertCandidate(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, c electiondomain.Candidate) (electiondomain.Candidate, error) {
	db = r.resolveDB(db)
	var next int
	err := db.NewRaw(
		`UPDATE elections
		SET last_candidate_id = GREATEST(last_candidate_id,
			(SELECT COALESCE(MAX(id), 0) FROM election_candidates WHERE election_id = ?)) + 1
		WHERE id = ?
		RETURNING last_candidate_id`,
		int64(id), int64(id),
	).Scan(ctx, &next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return electiondomain.Candidate{}, newConstraintError(ErrForeignKeyViolation, "election_candidates_election_id_fkey")
		}
		return electiondomain.Candidate{}, translateError("election.InsertCandidate", err)
	}
	row := &Candidate{ElectionID: int64(id), ID: next, Name: c.Name, Party: c.Party}
	if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
		return electiondomain.Candidate{}, translateError("election.InsertCandidate", err)
	}
	c.ID = electiondomain.CandidateID(next)
	return c, nil
}

func (r *Impl) DeleteCandidate(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Candidate)(nil)).
		Where("election_id = ?", int64(id)).
		Where("id = ?", int(candidate)).
		Exec(ctx)
	if err != nil {
		return translateError("election.DeleteCandidate", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) SaveCandidateHeadItem(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID, item []byte) error {
	db = r.resolveDB(db)
	row := &CandidateHeadItem{ElectionID: int64(id), CandidateID: int(candidate), Item: item}
	_, err := db.NewInsert().
		Model(row).
		On("CONFLICT (election_id, candidate_id) DO UPDATE").
		Set("item = EXCLUDED.item").
		Exec(ctx)
	if err != nil {
		return translateError("election.SaveCandidateHeadItem", err)
	}
	return nil
}

func (r *Impl) GetCandidateHeadItem(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) ([]byte, error) {
	db = r.resolveDB(db)
	row := new(CandidateHeadItem)
	err := db.NewSelect().
		Model(row).
		Where("election_id = ?", int64(id)).
		Where("candidate_id = ?", int(candidate)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("election.GetCandidateHeadItem: %w", err)
	}
	return row.Item, nil
}

func (r *Impl) InsertPoll(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, p electiondomain.Poll) error {
	db = r.resolveDB(db)
	row := &Poll{ElectionID: int64(id), World: p.World, X: p.X, Y: p.Y, Z: p.Z}
	if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
		return translateError("election.InsertPoll", err)
	}
	return nil
}

func (r *Impl) DeletePoll(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, p electiondomain.Poll) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Poll)(nil)).
		Where("election_id = ?", int64(id)).
		Where("world = ?", p.World).
		Where("x = ? AND y = ? AND z = ?", p.X, p.Y, p.Z).
		Exec(ctx)
	if err != nil {
		return translateError("election.DeletePoll", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) InsertVoter(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, name string) (electiondomain.Voter, error) {
	db = r.resolveDB(db)
	next, err := nextID(ctx, db, (*Voter)(nil), "id", id)
	if err != nil {
		return electiondomain.Voter{}, translateError("election.InsertVoter", err)
	}
	row := &Voter{ElectionID: int64(id), ID: next, Name: name}
	if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
		return electiondomain.Voter{}, translateError("election.InsertVoter", err)
	}
	return electiondomain.Voter{ID: electiondomain.VoterID(next), Name: name}, nil
}

func (r *Impl) InsertBallot(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, b electiondomain.Ballot) (electiondomain.Ballot, error) {
	db = r.resolveDB(db)
	next, err := nextID(ctx, db, (*Ballot)(nil), "id", id)
	if err != nil {
		return electiondomain.Ballot{}, translateError("election.InsertBallot", err)
	}
	row := &Ballot{ElectionID: int64(id), ID: next, VoterID: int(b.VoterID), SubmittedAt: b.SubmittedAt}
	if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
		return electiondomain.Ballot{}, translateError("election.InsertBallot", err)
	}

	if len(b.Selections) > 0 {
		selections := make([]BallotSelection, 0, len(b.Selections))
		for i, c := range b.Selections {
			selections = append(selections, BallotSelection{ElectionID: int64(id), BallotID: next, Position: i + 1, CandidateID: int(c)})
		}
		if _, err := db.NewInsert().Model(&selections).Exec(ctx); err != nil {
			return electiondomain.Ballot{}, translateError("election.InsertBallot selections", err)
		}
	}
	b.ID = electiondomain.BallotID(next)
	return b, nil
}

func (r *Impl) AppendStatusChange(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, sc electiondomain.StatusChange) error {
	if !sc.Type.Valid() {
		return electiondomain.ErrUnknownChangeType
	}
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(toStatusChangeModel(id, sc)).Exec(ctx); err != nil {
		return translateError("election.AppendStatusChange", err)
	}
	return nil
}

// purgeOrder lists the child tables in the order the RESTRICT keys require.
var purgeOrder = []struct {
	name  string
	model any
}{
	{"selections", (*BallotSelection)(nil)},
	{"ballots", (*Ballot)(nil)},
	{"voters", (*Voter)(nil)},
	{"polls", (*Poll)(nil)},
	{"candidate head items", (*CandidateHeadItem)(nil)},
	{"candidates", (*Candidate)(nil)},
	{"requirement permissions", (*RequirementPermission)(nil)},
	{"requirements", (*Requirements)(nil)},
	{"status changes", (*StatusChange)(nil)},
}

func (r *Impl) PurgeElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) error {
	db = r.resolveDB(db)
	for _, table := range purgeOrder {
		if _, err := db.NewDelete().Model(table.model).Where("election_id = ?", int64(id)).Exec(ctx); err != nil {
			return translateError("election.PurgeElection "+table.name, err)
		}
	}
	result, err := db.NewDelete().Model((*Election)(nil)).Where("id = ?", int64(id)).Exec(ctx)
	if err != nil {
		return translateError("election.PurgeElection", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
