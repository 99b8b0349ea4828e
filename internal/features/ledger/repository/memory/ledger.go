// Package memory is an in-process stand-in for the leveling contract, used for
// local development (CHAIN_RPC_URL=memory) and in tests.
package memory

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"onchain-leveling-backend/internal/features/ledger/repository"
	"onchain-leveling-backend/internal/features/progression/models"
	progression "onchain-leveling-backend/internal/features/progression/service"
)

var errReverted = errors.New("execution reverted")

// DefaultTasks seeds the development catalog.
func DefaultTasks() []models.Task {
	return []models.Task{
		{ID: 1, Name: "Morning run", GoalType: models.GoalDistance, GoalValue: 3000, XPReward: 100, Enabled: true},
		{ID: 2, Name: "Evening walk", GoalType: models.GoalDistance, GoalValue: 2000, XPReward: 50, Enabled: true},
		{ID: 3, Name: "Active minutes", GoalType: models.GoalTime, GoalValue: 30, XPReward: 75, Enabled: true},
		{ID: 4, Name: "Push-ups", GoalType: models.GoalCount, GoalValue: 20, XPReward: 40, Enabled: false},
	}
}

type pendingTx struct {
	call    repository.TxCall
	state   repository.TxState
	polls   int
	apply   func() error
	applied bool
}

type Ledger struct {
	mu       sync.Mutex
	schedule *progression.Schedule
	tasks    []models.Task
	profiles map[string]*models.Profile
	txs      map[string]*pendingTx
	seq      uint64
	// autoConfirmAfter confirms a pending tx on that many TxStatus polls; 0 disables it.
	autoConfirmAfter int
	err              error
}

func NewLedger(schedule *progression.Schedule, tasks []models.Task) *Ledger {
	return &Ledger{
		schedule: schedule,
		tasks:    append([]models.Task(nil), tasks...),
		profiles: make(map[string]*models.Profile),
		txs:      make(map[string]*pendingTx),
	}
}

// AutoConfirm makes pending transactions settle after n status polls.
func (l *Ledger) AutoConfirm(n int) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.autoConfirmAfter = n
	return l
}

// FailWith makes every subsequent call fail with err until cleared with nil.
func (l *Ledger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func key(address string) string {
	return strings.ToLower(address)
}

// Seed registers a profile directly, bypassing transactions.
func (l *Ledger) Seed(p models.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := p
	cp.Address = common.HexToAddress(p.Address).Hex()
	cp.Level = l.schedule.LevelFor(cp.XPTotal).Level
	l.profiles[key(p.Address)] = &cp
}

func (l *Ledger) GetProfile(ctx context.Context, address string) (*models.Profile, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidAddress, address)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, repository.Classify("getProfile", l.err)
	}
	p, ok := l.profiles[key(address)]
	if !ok {
		return &models.Profile{Address: common.HexToAddress(address).Hex()}, nil
	}
	cp := *p
	return &cp, nil
}

func (l *Ledger) ListTasks(ctx context.Context, offset, limit uint64) ([]models.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, repository.Classify("listTaskDefs", l.err)
	}
	n := uint64(len(l.tasks))
	if offset >= n || limit == 0 {
		return []models.Task{}, nil
	}
	end := offset + limit
	if end > n || end < offset {
		end = n
	}
	return append([]models.Task(nil), l.tasks[offset:end]...), nil
}

func (l *Ledger) NextLevelXP(ctx context.Context, address string) (*repository.NextLevel, error) {
	p, err := l.GetProfile(ctx, address)
	if err != nil {
		return nil, err
	}
	progress := l.schedule.LevelFor(p.XPTotal)
	return &repository.NextLevel{
		Remaining:           progress.XPToNextLevel,
		NextLevelCumulative: p.XPTotal + progress.XPToNextLevel,
	}, nil
}

func (l *Ledger) TxStatus(ctx context.Context, hash string) (*repository.TxStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, repository.Classify("txStatus", l.err)
	}

	tx, ok := l.txs[key(hash)]
	if !ok {
		return &repository.TxStatus{Hash: hash, State: repository.TxPending}, nil
	}

	tx.polls++
	if tx.state == repository.TxPending && l.autoConfirmAfter > 0 && tx.polls >= l.autoConfirmAfter {
		l.settleLocked(tx)
	}

	status := &repository.TxStatus{Hash: hash, State: tx.state}
	if tx.state == repository.TxConfirmed {
		status.Confirmations = 1
		call := tx.call
		status.Call = &call
	}
	return status, nil
}

// Confirm settles a pending transaction, applying it or reverting it when the
// contract rules reject it.
func (l *Ledger) Confirm(hash string) repository.TxState {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.txs[key(hash)]
	if !ok {
		return repository.TxPending
	}
	if tx.state == repository.TxPending {
		l.settleLocked(tx)
	}
	return tx.state
}

// Revert fails a pending transaction without applying it.
func (l *Ledger) Revert(hash string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tx, ok := l.txs[key(hash)]; ok && tx.state == repository.TxPending {
		tx.state = repository.TxReverted
	}
}

func (l *Ledger) settleLocked(tx *pendingTx) {
	if err := tx.apply(); err != nil {
		tx.state = repository.TxReverted
		return
	}
	tx.applied = true
	tx.state = repository.TxConfirmed
}

func (l *Ledger) enqueueLocked(call repository.TxCall, apply func() error) *repository.TxHandle {
	l.seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], l.seq)
	hash := crypto.Keccak256Hash([]byte("memory-ledger"), buf[:]).Hex()
	l.txs[key(hash)] = &pendingTx{call: call, state: repository.TxPending, apply: apply}
	return &repository.TxHandle{Hash: hash, SubmittedAt: time.Now().UTC()}
}

// SubmitterFor returns a submitter acting as address.
func (l *Ledger) SubmitterFor(address string) repository.Submitter {
	return &submitter{ledger: l, address: common.HexToAddress(address).Hex()}
}

type submitter struct {
	ledger  *Ledger
	address string
}

func (s *submitter) Address() string {
	return s.address
}

func (s *submitter) SubmitCompletion(ctx context.Context, taskID uint64) (*repository.TxHandle, error) {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, repository.Classify("completeTask", l.err)
	}

	call := repository.TxCall{From: s.address, Method: repository.MethodCompleteTask, TaskID: taskID}
	return l.enqueueLocked(call, func() error {
		p, ok := l.profiles[key(s.address)]
		if !ok || !p.Registered {
			return errReverted
		}
		for _, t := range l.tasks {
			if t.ID == taskID {
				if !t.Enabled {
					return errReverted
				}
				p.XPTotal += uint64(t.XPReward)
				p.Level = l.schedule.LevelFor(p.XPTotal).Level
				return nil
			}
		}
		return errReverted
	}), nil
}

func (s *submitter) Register(ctx context.Context, name string, cosmetic models.Cosmetic) (*repository.TxHandle, error) {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, repository.Classify("register", l.err)
	}

	call := repository.TxCall{From: s.address, Method: repository.MethodRegister}
	return l.enqueueLocked(call, func() error {
		if p, ok := l.profiles[key(s.address)]; ok && p.Registered {
			return errReverted
		}
		l.profiles[key(s.address)] = &models.Profile{
			Address:    s.address,
			Name:       name,
			Cosmetic:   cosmetic,
			Level:      1,
			Registered: true,
		}
		return nil
	}), nil
}
