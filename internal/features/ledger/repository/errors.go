package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrInvalidAddress = errors.New("invalid address")
)

// LedgerError wraps every failure that comes back from the authoritative ledger.
type LedgerError struct {
	Op        string
	Cause     error
	Retryable bool
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Cause)
}

func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// Classify wraps err into a LedgerError, deciding whether a user retry makes sense.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *LedgerError
	if errors.As(err, &le) {
		return err
	}
	return &LedgerError{Op: op, Cause: err, Retryable: retryable(err)}
}

// Permanent wraps err as a non-retryable ledger failure.
func Permanent(op string, err error) error {
	return &LedgerError{Op: op, Cause: err}
}

func IsRetryable(err error) bool {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Retryable
	}
	return false
}

func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "execution reverted"),
		strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "no contract code"):
		return false
	}
	return true
}
