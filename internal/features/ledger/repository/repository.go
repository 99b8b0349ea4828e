package repository

import (
	"context"
	"strings"
	"time"

	"onchain-leveling-backend/internal/features/progression/models"
)

type TxState string

const (
	TxPending   TxState = "pending"
	TxConfirmed TxState = "confirmed"
	TxReverted  TxState = "reverted"
)

// TxHandle identifies a submitted ledger transaction.
type TxHandle struct {
	Hash        string    `json:"hash"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type TxStatus struct {
	Hash          string  `json:"hash"`
	State         TxState `json:"state"`
	BlockNumber   uint64  `json:"block_number,omitempty"`
	Confirmations uint64  `json:"confirmations"`
	// Call is set once the transaction is confirmed, when the ledger can decode it.
	Call *TxCall `json:"call,omitempty"`
}

// TxCall is what a transaction invoked. Method is empty unless the
// transaction called the leveling contract with a known method.
type TxCall struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Method string `json:"method,omitempty"`
	TaskID uint64 `json:"task_id,omitempty"`
}

// CompletesTask reports whether the call is completeTask(taskID) sent by address.
func (c *TxCall) CompletesTask(address string, taskID uint64) bool {
	return c.Method == MethodCompleteTask && c.TaskID == taskID && strings.EqualFold(c.From, address)
}

const (
	MethodCompleteTask = "completeTask"
	MethodRegister     = "register"
)

// NextLevel is the ledger's own view of the next level boundary.
type NextLevel struct {
	Remaining           uint64 `json:"remaining"`
	NextLevelCumulative uint64 `json:"next_level_cumulative"`
}

// Ledger is the read side of the authoritative system of record.
type Ledger interface {
	GetProfile(ctx context.Context, address string) (*models.Profile, error)
	ListTasks(ctx context.Context, offset, limit uint64) ([]models.Task, error)
	NextLevelXP(ctx context.Context, address string) (*NextLevel, error)
	TxStatus(ctx context.Context, hash string) (*TxStatus, error)
}

// Submitter sends state-changing transactions as a single signing identity.
type Submitter interface {
	Address() string
	SubmitCompletion(ctx context.Context, taskID uint64) (*TxHandle, error)
	Register(ctx context.Context, name string, cosmetic models.Cosmetic) (*TxHandle, error)
}

// FindTask pages through the catalog until it finds id.
func FindTask(ctx context.Context, l Ledger, id uint64) (*models.Task, error) {
	const page = 50
	for offset := uint64(0); ; offset += page {
		tasks, err := l.ListTasks(ctx, offset, page)
		if err != nil {
			return nil, err
		}
		for i := range tasks {
			if tasks[i].ID == id {
				return &tasks[i], nil
			}
		}
		if len(tasks) < page {
			return nil, ErrTaskNotFound
		}
	}
}

// WaitMined polls TxStatus until hash is confirmed or reverted. Retryable
// errors keep polling until ctx is done.
func WaitMined(ctx context.Context, l Ledger, hash string, interval time.Duration) (*TxStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := l.TxStatus(ctx, hash)
		switch {
		case err != nil && !IsRetryable(err):
			return nil, err
		case err == nil && status.State != TxPending:
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
