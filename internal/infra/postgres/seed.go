package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"timed-quiz/internal/domain"
)

// SeedQuestions upserts questions under source in a single transaction.
func SeedQuestions(ctx context.Context, db *bun.DB, source string, questions []domain.Question) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, q := range questions {
			if err := q.Validate(); err != nil {
				return err
			}
			data, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal question %s: %w", q.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO questions (source, id, category, data) VALUES (?, ?, ?, ?::jsonb)
				 ON CONFLICT (source, id) DO UPDATE SET category=EXCLUDED.category, data=EXCLUDED.data, updated_at=now()`,
				source, q.ID, string(q.Category), string(data),
			); err != nil {
				return fmt.Errorf("insert question %s: %w", q.ID, err)
			}
		}
		return nil
	})
}
