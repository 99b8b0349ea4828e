package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "onchain-leveling-backend/internal/common/errors"
	"onchain-leveling-backend/internal/common/logger"
	"onchain-leveling-backend/internal/features/completion/models"
	"onchain-leveling-backend/internal/features/completion/repository"
	ledger "onchain-leveling-backend/internal/features/ledger/repository"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	progression "onchain-leveling-backend/internal/features/progression/service"
)

var (
	ErrAttemptNotFound = errors.New("completion attempt not found")
	ErrNotSubmitting   = errors.New("attempt is not awaiting submission")
	ErrAbandoned       = errors.New("attempt was abandoned")
	ErrSignerMismatch  = errors.New("signer does not match the player address")

	// ErrSubmitExpired is returned once an attempt has waited too long for its
	// transaction, or has lost its in-flight slot.
	ErrSubmitExpired = fmt.Errorf("%w: no transaction was acknowledged in time", progression.ErrTimeout)

	errReverted    = errors.New("transaction reverted")
	errForeignTx   = errors.New("transaction does not complete this task for this player")
	errNotCredited = errors.New("confirmed transaction did not credit the task reward")
)

const (
	defaultSubmitTimeout  = 2 * time.Minute
	defaultConfirmTimeout = 45 * time.Second
	defaultPollInterval   = 2 * time.Second
	retainFinished        = time.Hour
	pruneInterval         = 5 * time.Minute
	rereadTimeout         = 10 * time.Second
	rereadAttempts        = 3
)

type Config struct {
	// SubmitTimeout bounds the Submitting state.
	SubmitTimeout time.Duration
	// ConfirmTimeout bounds the Confirming state.
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	// GuardTTL must outlive both timeouts. The slot is refreshed on acknowledge,
	// so it only lapses for attempts a crashed replica left behind.
	GuardTTL time.Duration
}

// FreshProfileReader is implemented by ledgers that cache reads.
type FreshProfileReader interface {
	GetFreshProfile(ctx context.Context, address string) (*progmodels.Profile, error)
}

type entry struct {
	attempt models.Attempt
	err     error
	done    chan struct{}
	// expiry fails the attempt if it is still Submitting after SubmitTimeout.
	expiry *time.Timer
}

// Service coordinates task completions against the authoritative ledger.
type Service struct {
	ledger    ledger.Ledger
	guard     repository.InFlightGuard
	records   repository.CompletionRecords
	journal   repository.Journal
	publisher repository.EventPublisher
	broker    *Broker
	clock     *progression.ResetClock
	cfg       Config
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	attempts map[string]*entry
}

type Option func(*Service)

func WithJournal(j repository.Journal) Option {
	return func(s *Service) { s.journal = j }
}

func WithPublisher(p repository.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithBroker(b *Broker) Option {
	return func(s *Service) { s.broker = b }
}

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(l ledger.Ledger, guard repository.InFlightGuard, records repository.CompletionRecords, clock *progression.ResetClock, cfg Config, opts ...Option) *Service {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = defaultSubmitTimeout
	}
	longest := cfg.ConfirmTimeout
	if cfg.SubmitTimeout > longest {
		longest = cfg.SubmitTimeout
	}
	if cfg.GuardTTL <= longest {
		cfg.GuardTTL = longest + 2*time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		ledger:   l,
		guard:    guard,
		records:  records,
		clock:    clock,
		cfg:      cfg,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		attempts: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs housekeeping for finished attempts until Stop.
func (s *Service) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.prune()
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop fails every attempt still confirming and waits for watchers to exit.
func (s *Service) Stop() {
	s.cancel()
	s.mu.Lock()
	for _, e := range s.attempts {
		if e.expiry != nil {
			e.expiry.Stop()
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
	logger.Info().Msg("Completion service stopped")
}

// Begin validates a completion request and moves it to Submitting. Rejections
// are returned before anything is sent to the ledger.
func (s *Service) Begin(ctx context.Context, address string, taskID uint64) (*models.Attempt, error) {
	id := uuid.New().String()

	acquired, err := s.guard.Acquire(ctx, address, taskID, id, s.cfg.GuardTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire in-flight slot: %w", err)
	}
	if !acquired {
		return nil, progression.ErrAlreadyInFlight
	}

	profile, task, err := s.validate(ctx, address, taskID)
	if err != nil {
		s.release(address, taskID, id)
		return nil, err
	}

	now := s.now()
	a := models.Attempt{
		ID:           id,
		Address:      profile.Address,
		TaskID:       taskID,
		State:        models.StateAvailable,
		BaselineXP:   profile.XPTotal,
		OptimisticXP: progression.ApplyCompletion(*profile, *task).XPTotal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.Address == "" {
		a.Address = address
	}
	tr, err := a.Advance(models.StateSubmitting, now)
	if err != nil {
		s.release(address, taskID, id)
		return nil, err
	}

	e := &entry{attempt: a, done: make(chan struct{})}
	s.mu.Lock()
	s.attempts[id] = e
	e.expiry = time.AfterFunc(s.cfg.SubmitTimeout, func() { s.expire(id) })
	s.mu.Unlock()

	s.record(tr, a)
	return &a, nil
}

func (s *Service) validate(ctx context.Context, address string, taskID uint64) (*progmodels.Profile, *progmodels.Task, error) {
	profile, err := s.ledger.GetProfile(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	if !profile.Registered {
		return nil, nil, progression.ErrNotRegistered
	}

	task, err := ledger.FindTask(ctx, s.ledger, taskID)
	if err != nil {
		return nil, nil, err
	}

	last, err := s.records.LastCompleted(ctx, address, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("read completion record: %w", err)
	}

	if err := progression.CanCompleteTask(*task, *profile, s.clock.Status(last)); err != nil {
		return nil, nil, err
	}
	return profile, task, nil
}

// Acknowledge attaches the ledger's transaction handle and starts waiting for
// finality. The attempt must still hold its in-flight slot.
func (s *Service) Acknowledge(ctx context.Context, attemptID, address, txHash string) (*models.Attempt, error) {
	s.mu.Lock()
	e, err := s.submittingLocked(attemptID, address)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	owner, taskID := e.attempt.Address, e.attempt.TaskID
	s.mu.Unlock()

	held, err := s.guard.Refresh(ctx, owner, taskID, attemptID, s.cfg.GuardTTL)
	if err != nil {
		return nil, fmt.Errorf("refresh in-flight slot: %w", err)
	}
	if !held {
		s.failIf(attemptID, ErrSubmitExpired, models.StateSubmitting)
		return nil, ErrSubmitExpired
	}

	s.mu.Lock()
	if e, err = s.submittingLocked(attemptID, address); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	e.attempt.TxHash = txHash
	tr, err := e.attempt.Advance(models.StateConfirming, s.now())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if e.expiry != nil {
		e.expiry.Stop()
	}
	snapshot := e.attempt
	s.wg.Add(1)
	s.mu.Unlock()

	s.record(tr, snapshot)
	go s.watch(snapshot)

	logger.Info().
		Str("attempt_id", attemptID).
		Str("address", snapshot.Address).
		Uint64("task_id", snapshot.TaskID).
		Str("tx_hash", txHash).
		Msg("Completion submitted, awaiting confirmation")

	return &snapshot, nil
}

func (s *Service) submittingLocked(attemptID, address string) (*entry, error) {
	e, ok := s.attempts[attemptID]
	if !ok || !strings.EqualFold(e.attempt.Address, address) {
		return nil, ErrAttemptNotFound
	}
	if e.attempt.Abandoned {
		return nil, ErrAbandoned
	}
	if e.attempt.State == models.StateAvailable && errors.Is(e.err, ErrSubmitExpired) {
		return nil, ErrSubmitExpired
	}
	if e.attempt.State != models.StateSubmitting {
		return nil, ErrNotSubmitting
	}
	return e, nil
}

// expire fails an attempt that was begun but never acknowledged.
func (s *Service) expire(attemptID string) {
	s.failIf(attemptID, ErrSubmitExpired, models.StateSubmitting)
}

// Submit runs the whole flow with a server-side signer.
func (s *Service) Submit(ctx context.Context, address string, taskID uint64, submitter ledger.Submitter) (*models.Attempt, error) {
	if !strings.EqualFold(submitter.Address(), address) {
		return nil, ErrSignerMismatch
	}

	a, err := s.Begin(ctx, address, taskID)
	if err != nil {
		return nil, err
	}

	handle, err := submitter.SubmitCompletion(ctx, taskID)
	if err != nil {
		s.fail(a.ID, err)
		snapshot, _ := s.Get(a.ID, address)
		return snapshot, err
	}

	acked, err := s.Acknowledge(ctx, a.ID, address, handle.Hash)
	if errors.Is(err, ErrAbandoned) {
		logger.Info().
			Str("attempt_id", a.ID).
			Str("tx_hash", handle.Hash).
			Msg("Discarding ledger result of abandoned completion")
		snapshot, _ := s.Get(a.ID, address)
		return snapshot, err
	}
	return acked, err
}

// Abandon drops an attempt that is still Submitting. Whatever the ledger
// returns for it later is discarded.
func (s *Service) Abandon(ctx context.Context, attemptID, address string) (*models.Attempt, error) {
	s.mu.Lock()
	e, ok := s.attempts[attemptID]
	if !ok || !strings.EqualFold(e.attempt.Address, address) {
		s.mu.Unlock()
		return nil, ErrAttemptNotFound
	}
	if e.attempt.State != models.StateSubmitting {
		s.mu.Unlock()
		return nil, ErrNotSubmitting
	}

	if e.expiry != nil {
		e.expiry.Stop()
	}
	now := s.now()
	e.attempt.Abandoned = true
	e.attempt.FailureReason = ErrAbandoned.Error()
	failed, _ := e.attempt.Advance(models.StateFailed, now)
	failed.Reason = ErrAbandoned.Error()
	reopened, _ := e.attempt.Advance(models.StateAvailable, now)
	e.err = ErrAbandoned
	snapshot := e.attempt
	s.mu.Unlock()

	s.release(snapshot.Address, snapshot.TaskID, attemptID)
	s.record(failed, snapshot)
	s.record(reopened, snapshot)
	close(e.done)
	return &snapshot, nil
}

func (s *Service) Get(attemptID, address string) (*models.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.attempts[attemptID]
	if !ok || !strings.EqualFold(e.attempt.Address, address) {
		return nil, ErrAttemptNotFound
	}
	snapshot := e.attempt
	return &snapshot, nil
}

// Await blocks until the attempt leaves the in-flight states. The returned
// error is the failure cause, or nil once the ledger confirmed.
func (s *Service) Await(ctx context.Context, attemptID string) (*models.Attempt, error) {
	s.mu.Lock()
	e, ok := s.attempts[attemptID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrAttemptNotFound
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := e.attempt
	return &snapshot, e.err
}

// List returns the player's retained attempts, newest first.
func (s *Service) List(address string) []models.Attempt {
	s.mu.Lock()
	var out []models.Attempt
	for _, e := range s.attempts {
		if strings.EqualFold(e.attempt.Address, address) {
			out = append(out, e.attempt)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// States reports where each task stands for address in the current period.
func (s *Service) States(ctx context.Context, address string, taskIDs []uint64) (map[uint64]models.State, error) {
	states := make(map[uint64]models.State, len(taskIDs))

	s.mu.Lock()
	for _, e := range s.attempts {
		a := e.attempt
		if strings.EqualFold(a.Address, address) && (a.State == models.StateSubmitting || a.State == models.StateConfirming) {
			states[a.TaskID] = a.State
		}
	}
	s.mu.Unlock()

	for _, id := range taskIDs {
		if _, inFlight := states[id]; inFlight {
			continue
		}
		last, err := s.records.LastCompleted(ctx, address, id)
		if err != nil {
			return nil, err
		}
		if s.clock.Status(last).Satisfied() {
			states[id] = models.StateCompleted
		} else {
			states[id] = models.StateAvailable
		}
	}
	return states, nil
}

// History reads the audit journal when one is configured.
func (s *Service) History(ctx context.Context, address string, limit int) ([]models.Transition, error) {
	if s.journal == nil {
		return []models.Transition{}, nil
	}
	return s.journal.History(ctx, address, limit)
}

func (s *Service) watch(a models.Attempt) {
	defer s.wg.Done()
	attemptID, txHash := a.ID, a.TxHash

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, err := s.ledger.TxStatus(ctx, txHash)
		switch {
		case err != nil && !ledger.IsRetryable(err):
			s.fail(attemptID, err)
			return
		case err != nil:
			if ctx.Err() == nil {
				logger.Warn().Err(err).Str("attempt_id", attemptID).Msg("Transaction status poll failed, retrying")
			}
		case status.State == ledger.TxConfirmed && status.Call != nil && !status.Call.CompletesTask(a.Address, a.TaskID):
			logger.Warn().
				Str("attempt_id", attemptID).
				Str("tx_hash", txHash).
				Str("method", status.Call.Method).
				Str("from", status.Call.From).
				Uint64("call_task_id", status.Call.TaskID).
				Msg("Acknowledged transaction does not complete the attempted task")
			s.fail(attemptID, ledger.Permanent(ledger.MethodCompleteTask, errForeignTx))
			return
		case status.State == ledger.TxConfirmed:
			s.complete(attemptID)
			return
		case status.State == ledger.TxReverted:
			s.fail(attemptID, ledger.Permanent(ledger.MethodCompleteTask, errReverted))
			return
		}

		select {
		case <-ctx.Done():
			if s.ctx.Err() != nil {
				s.fail(attemptID, fmt.Errorf("%w: shutting down", progression.ErrTimeout))
			} else {
				s.fail(attemptID, progression.ErrTimeout)
			}
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) complete(attemptID string) {
	s.mu.Lock()
	e, ok := s.attempts[attemptID]
	if !ok || e.attempt.State != models.StateConfirming {
		s.mu.Unlock()
		return
	}
	address, taskID, optimistic := e.attempt.Address, e.attempt.TaskID, e.attempt.OptimisticXP
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), rereadTimeout)
	defer cancel()

	profile, err := s.credited(ctx, attemptID, address, optimistic)
	if err != nil {
		s.fail(attemptID, err)
		return
	}

	now := s.now()
	if err := s.records.MarkCompleted(ctx, address, taskID, now); err != nil {
		logger.Error().Err(err).Str("attempt_id", attemptID).Msg("Failed to record completion")
	}

	s.mu.Lock()
	e.attempt.ConfirmedXP = profile.XPTotal
	tr, err := e.attempt.Advance(models.StateCompleted, now)
	if err != nil {
		s.mu.Unlock()
		return
	}
	snapshot := e.attempt
	s.mu.Unlock()

	s.release(address, taskID, attemptID)

	if s.publisher != nil {
		event := models.ProgressEvent{
			Address: snapshot.Address,
			Name:    profile.Name,
			TaskID:  taskID,
			XPTotal: snapshot.ConfirmedXP,
			TxHash:  snapshot.TxHash,
			At:      now,
		}
		if err := s.publisher.PublishProgress(ctx, event); err != nil {
			logger.Error().Err(err).Str("attempt_id", attemptID).Msg("Failed to publish progress event")
		}
	}

	s.record(tr, snapshot)
	close(e.done)

	logger.Info().
		Str("attempt_id", attemptID).
		Str("address", address).
		Uint64("task_id", taskID).
		Uint64("xp_total", snapshot.ConfirmedXP).
		Msg("Completion confirmed")
}

// fail returns the attempt to Available. No XP is kept from the preview.
func (s *Service) fail(attemptID string, cause error) {
	s.failIf(attemptID, cause, models.StateSubmitting, models.StateConfirming)
}

// failIf fails the attempt only while it is in one of the given states.
func (s *Service) failIf(attemptID string, cause error, from ...models.State) {
	s.mu.Lock()
	e, ok := s.attempts[attemptID]
	if !ok || !inState(e.attempt.State, from) {
		s.mu.Unlock()
		return
	}
	if e.expiry != nil {
		e.expiry.Stop()
	}

	now := s.now()
	code, retryable := failureCode(cause)
	e.attempt.FailureCode = string(code)
	e.attempt.FailureReason = cause.Error()
	e.attempt.Retryable = retryable

	failed, err := e.attempt.Advance(models.StateFailed, now)
	if err != nil {
		s.mu.Unlock()
		return
	}
	failed.Reason = cause.Error()
	reopened, _ := e.attempt.Advance(models.StateAvailable, now)
	e.err = cause
	snapshot := e.attempt
	s.mu.Unlock()

	s.release(snapshot.Address, snapshot.TaskID, attemptID)
	s.record(failed, snapshot)
	s.record(reopened, snapshot)
	close(e.done)

	logger.Warn().
		Err(cause).
		Str("attempt_id", attemptID).
		Str("address", snapshot.Address).
		Uint64("task_id", snapshot.TaskID).
		Str("code", snapshot.FailureCode).
		Bool("retryable", retryable).
		Msg("Completion failed")
}

func failureCode(cause error) (apperrors.ErrorCode, bool) {
	if errors.Is(cause, progression.ErrTimeout) {
		return apperrors.ErrCodeTimeout, true
	}
	var le *ledger.LedgerError
	if errors.As(cause, &le) {
		return apperrors.ErrCodeExternalLedger, le.Retryable
	}
	return apperrors.ErrCodeExternalLedger, true
}

func inState(st models.State, states []models.State) bool {
	for _, want := range states {
		if st == want {
			return true
		}
	}
	return false
}

// credited re-reads the profile until the ledger shows at least the optimistic
// total. A confirmed transaction that never shows the reward is not a completion.
func (s *Service) credited(ctx context.Context, attemptID, address string, optimistic uint64) (*progmodels.Profile, error) {
	var (
		profile *progmodels.Profile
		err     error
	)
	for i := 0; i < rereadAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.PollInterval):
			}
		}
		profile, err = s.freshProfile(ctx, address)
		if err == nil && profile.XPTotal >= optimistic {
			return profile, nil
		}
	}
	if err != nil {
		logger.Warn().Err(err).Str("attempt_id", attemptID).Msg("Re-read after confirmation failed")
		return nil, err
	}
	logger.Warn().
		Str("attempt_id", attemptID).
		Uint64("optimistic_xp", optimistic).
		Uint64("ledger_xp", profile.XPTotal).
		Msg("Ledger total is below the optimistic preview")
	return nil, ledger.Permanent(ledger.MethodCompleteTask, errNotCredited)
}

func (s *Service) freshProfile(ctx context.Context, address string) (*progmodels.Profile, error) {
	if fr, ok := s.ledger.(FreshProfileReader); ok {
		return fr.GetFreshProfile(ctx, address)
	}
	return s.ledger.GetProfile(ctx, address)
}

func (s *Service) release(address string, taskID uint64, attemptID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.guard.Release(ctx, address, taskID, attemptID); err != nil {
		logger.Error().Err(err).Str("attempt_id", attemptID).Msg("Failed to release in-flight slot")
	}
}

func (s *Service) record(tr models.Transition, snapshot models.Attempt) {
	if s.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.journal.Append(ctx, tr); err != nil {
			logger.Error().Err(err).Str("attempt_id", tr.AttemptID).Msg("Failed to journal transition")
		}
		cancel()
	}
	if s.broker != nil {
		s.broker.Publish(snapshot)
	}
}

func (s *Service) prune() {
	cutoff := s.now().Add(-retainFinished)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.attempts {
		if e.attempt.State.Terminal() && e.attempt.UpdatedAt.Before(cutoff) {
			delete(s.attempts, id)
		}
	}
}
