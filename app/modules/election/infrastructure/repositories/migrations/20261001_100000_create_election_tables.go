package electionmigrations

import (
	"context"
	"fmt"

	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	"github.com/uptrace/bun"
)

const restrictElection = `("election_id") REFERENCES "elections" ("id") ON DELETE RESTRICT`

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating election tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*electiondb.Election)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create elections table: %w", err)
			}

			tables := []struct {
				model any
				fks   []string
			}{
				{(*electiondb.Requirements)(nil), []string{restrictElection}},
				{(*electiondb.RequirementPermission)(nil), []string{restrictElection}},
				{(*electiondb.Candidate)(nil), []string{restrictElection}},
				{(*electiondb.CandidateHeadItem)(nil), []string{
					`("election_id", "candidate_id") REFERENCES "election_candidates" ("election_id", "id") ON DELETE CASCADE`,
				}},
				{(*electiondb.Poll)(nil), []string{restrictElection}},
				{(*electiondb.Voter)(nil), []string{restrictElection}},
				{(*electiondb.Ballot)(nil), []string{
					restrictElection,
					`("election_id", "voter_id") REFERENCES "election_voters" ("election_id", "id") ON DELETE RESTRICT`,
				}},
				{(*electiondb.BallotSelection)(nil), []string{
					`("election_id", "ballot_id") REFERENCES "election_ballots" ("election_id", "id") ON DELETE CASCADE`,
				}},
				{(*electiondb.StatusChange)(nil), []string{restrictElection}},
			}
			for _, table := range tables {
				q := tx.NewCreateTable().Model(table.model).IfNotExists()
				for _, fk := range table.fks {
					q = q.ForeignKey(fk)
				}
				if _, err := q.Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table: %w", err)
				}
			}

			statements := []string{
				`ALTER TABLE election_candidates ADD CONSTRAINT ` + electiondb.ConstraintCandidateName + ` UNIQUE (election_id, name)`,
				`ALTER TABLE election_polls ADD CONSTRAINT ` + electiondb.ConstraintPollElectionLocation + ` UNIQUE (election_id, world, x, y, z)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS ` + electiondb.ConstraintVoterName + ` ON election_voters (election_id, lower(name))`,
				`ALTER TABLE election_ballots ADD CONSTRAINT ` + electiondb.ConstraintBallotVoter + ` UNIQUE (election_id, voter_id)`,
				`ALTER TABLE election_ballot_selections ADD CONSTRAINT ` + electiondb.ConstraintSelectionBallotUnique + ` UNIQUE (election_id, ballot_id, candidate_id)`,
				`ALTER TABLE election_ballot_selections ADD CONSTRAINT ` + electiondb.ConstraintSelectionCandidateFK +
					` FOREIGN KEY (election_id, candidate_id) REFERENCES election_candidates (election_id, id) ON DELETE RESTRICT`,
				`CREATE INDEX IF NOT EXISTS idx_election_status_changes_election_time ON election_status_changes (election_id, changed_at)`,
				`CREATE INDEX IF NOT EXISTS idx_elections_status ON elections (status)`,
			}
			for _, stmt := range statements {
				if _, err := tx.NewRaw(stmt).Exec(ctx); err != nil {
					return fmt.Errorf("failed to apply %q: %w", stmt, err)
				}
			}

			fmt.Println("Election tables created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping election tables...")

		models := []any{
			(*electiondb.BallotSelection)(nil),
			(*electiondb.Ballot)(nil),
			(*electiondb.Voter)(nil),
			(*electiondb.Poll)(nil),
			(*electiondb.CandidateHeadItem)(nil),
			(*electiondb.Candidate)(nil),
			(*electiondb.RequirementPermission)(nil),
			(*electiondb.Requirements)(nil),
			(*electiondb.StatusChange)(nil),
			(*electiondb.Election)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Election tables dropped successfully!")
		return nil
	})
}
