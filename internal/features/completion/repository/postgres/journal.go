package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"onchain-leveling-backend/internal/features/completion/models"
	"onchain-leveling-backend/internal/features/completion/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS completion_transitions (
	id          BIGSERIAL PRIMARY KEY,
	attempt_id  TEXT        NOT NULL,
	address     TEXT        NOT NULL,
	task_id     BIGINT      NOT NULL,
	from_state  TEXT        NOT NULL,
	to_state    TEXT        NOT NULL,
	tx_hash     TEXT        NOT NULL DEFAULT '',
	reason      TEXT        NOT NULL DEFAULT '',
	at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS completion_transitions_address_idx ON completion_transitions (address, at DESC);
`

type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) repository.Journal {
	return &Journal{db: db}
}

// Migrate creates the journal table if needed.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate completion journal: %w", err)
	}
	return nil
}

func (j *Journal) Append(ctx context.Context, t models.Transition) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO completion_transitions (attempt_id, address, task_id, from_state, to_state, tx_hash, reason, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.AttemptID, strings.ToLower(t.Address), int64(t.TaskID), string(t.From), string(t.To), t.TxHash, t.Reason, t.At,
	)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

func (j *Journal) History(ctx context.Context, address string, limit int) ([]models.Transition, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT attempt_id, address, task_id, from_state, to_state, tx_hash, reason, at
		FROM completion_transitions
		WHERE address = $1
		ORDER BY at DESC, id DESC
		LIMIT $2`, strings.ToLower(address), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.Transition
	for rows.Next() {
		var (
			t        models.Transition
			taskID   int64
			from, to string
		)
		if err := rows.Scan(&t.AttemptID, &t.Address, &taskID, &from, &to, &t.TxHash, &t.Reason, &t.At); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.TaskID = uint64(taskID)
		t.From = models.State(from)
		t.To = models.State(to)
		out = append(out, t)
	}
	return out, rows.Err()
}
