package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onchain-leveling-backend/internal/features/completion/models"
)

func TestAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completion_transitions")).
		WithArgs("a1", "0xabc", int64(3), "submitting", "confirming", "0xfeed", "", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	j := NewJournal(db)
	err = j.Append(context.Background(), models.Transition{
		AttemptID: "a1", Address: "0xABC", TaskID: 3,
		From: models.StateSubmitting, To: models.StateConfirming, TxHash: "0xfeed", At: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"attempt_id", "address", "task_id", "from_state", "to_state", "tx_hash", "reason", "at"}).
		AddRow("a1", "0xabc", int64(3), "confirming", "completed", "0xfeed", "", at).
		AddRow("a1", "0xabc", int64(3), "submitting", "confirming", "0xfeed", "", at.Add(-time.Second))

	mock.ExpectQuery(regexp.QuoteMeta("FROM completion_transitions")).
		WithArgs("0xabc", 200).
		WillReturnRows(rows)

	history, err := NewJournal(db).History(context.Background(), "0xABC", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StateCompleted, history[0].To)
	assert.Equal(t, uint64(3), history[1].TaskID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS completion_transitions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
