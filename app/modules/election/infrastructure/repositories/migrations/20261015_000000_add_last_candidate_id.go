package electionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding elections.last_candidate_id...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			statements := []string{
				`ALTER TABLE elections ADD COLUMN IF NOT EXISTS last_candidate_id integer NOT NULL DEFAULT 0`,
				`UPDATE elections e SET last_candidate_id = GREATEST(e.last_candidate_id,
					(SELECT COALESCE(MAX(c.id), 0) FROM election_candidates c WHERE c.election_id = e.id))`,
			}
			for _, stmt := range statements {
				if _, err := tx.NewRaw(stmt).Exec(ctx); err != nil {
					return fmt.Errorf("failed to apply %q: %w", stmt, err)
				}
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping elections.last_candidate_id...")

		_, err := db.NewRaw(`ALTER TABLE elections DROP COLUMN IF EXISTS last_candidate_id`).Exec(ctx)
		return err
	})
}
