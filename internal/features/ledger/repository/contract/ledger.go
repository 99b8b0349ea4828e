package contract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"onchain-leveling-backend/internal/features/ledger/repository"
	"onchain-leveling-backend/internal/features/progression/models"
)

var (
	parsedABI   = mustParseABI()
	hashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(LevelingABI))
	if err != nil {
		panic(fmt.Sprintf("leveling abi: %v", err))
	}
	return parsed
}

// ReceiptReader is the part of an RPC client needed to follow transactions.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Ledger reads the leveling contract through eth_call.
type Ledger struct {
	address       common.Address
	contract      *bind.BoundContract
	receipts      ReceiptReader
	confirmations uint64
	timeout       time.Duration
}

func NewLedger(address string, caller bind.ContractCaller, receipts ReceiptReader, confirmations uint64, timeout time.Duration) (*Ledger, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidAddress, address)
	}
	if confirmations == 0 {
		confirmations = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Ledger{
		address:       common.HexToAddress(address),
		contract:      bind.NewBoundContract(common.HexToAddress(address), parsedABI, caller, nil, nil),
		receipts:      receipts,
		confirmations: confirmations,
		timeout:       timeout,
	}, nil
}

func (l *Ledger) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, repository.Classify(method, err)
	}
	return out, nil
}

func (l *Ledger) GetProfile(ctx context.Context, address string) (*models.Profile, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	out, err := l.call(ctx, "getProfile", addr)
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, decodeError("getProfile", "expected 5 outputs, got %d", len(out))
	}

	name, ok1 := out[0].(string)
	character, ok2 := out[1].(uint8)
	level, ok3 := out[2].(*big.Int)
	xp, ok4 := out[3].(*big.Int)
	registered, ok5 := out[4].(bool)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, decodeError("getProfile", "unexpected output types %T %T %T %T %T", out[0], out[1], out[2], out[3], out[4])
	}

	return &models.Profile{
		Address:    addr.Hex(),
		Name:       name,
		Cosmetic:   models.Cosmetic(character),
		Level:      toUint64(level),
		XPTotal:    toUint64(xp),
		Registered: registered,
	}, nil
}

func (l *Ledger) ListTasks(ctx context.Context, offset, limit uint64) ([]models.Task, error) {
	if limit == 0 {
		return []models.Task{}, nil
	}

	out, err := l.call(ctx, "listTaskDefs", new(big.Int).SetUint64(offset), new(big.Int).SetUint64(limit))
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, decodeError("listTaskDefs", "expected 6 outputs, got %d", len(out))
	}

	ids, ok1 := out[0].([]*big.Int)
	names, ok2 := out[1].([]string)
	kinds, ok3 := out[2].([]uint8)
	goals, ok4 := out[3].([]uint32)
	rewards, ok5 := out[4].([]uint32)
	enabled, ok6 := out[5].([]bool)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return nil, decodeError("listTaskDefs", "unexpected output types")
	}

	n := len(ids)
	if len(names) != n || len(kinds) != n || len(goals) != n || len(rewards) != n || len(enabled) != n {
		return nil, decodeError("listTaskDefs", "column lengths differ")
	}

	tasks := make([]models.Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, models.Task{
			ID:        toUint64(ids[i]),
			Name:      names[i],
			GoalType:  models.GoalType(kinds[i]),
			GoalValue: goals[i],
			XPReward:  rewards[i],
			Enabled:   enabled[i],
		})
	}
	return tasks, nil
}

func (l *Ledger) NextLevelXP(ctx context.Context, address string) (*repository.NextLevel, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	out, err := l.call(ctx, "nextLevelXp", addr)
	if err != nil {
		return nil, err
	}
	if len(out) != 2 {
		return nil, decodeError("nextLevelXp", "expected 2 outputs, got %d", len(out))
	}
	remaining, ok1 := out[0].(*big.Int)
	cumulative, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return nil, decodeError("nextLevelXp", "unexpected output types")
	}

	return &repository.NextLevel{
		Remaining:           toUint64(remaining),
		NextLevelCumulative: toUint64(cumulative),
	}, nil
}

// TxStatus reports pending until the receipt has the configured number of confirmations.
func (l *Ledger) TxStatus(ctx context.Context, hash string) (*repository.TxStatus, error) {
	if !hashPattern.MatchString(hash) {
		return nil, repository.Permanent("txStatus", fmt.Errorf("malformed transaction hash %q", hash))
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	status := &repository.TxStatus{Hash: hash, State: repository.TxPending}

	receipt, err := l.receipts.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return status, nil
		}
		return nil, repository.Classify("txStatus", err)
	}

	if receipt.BlockNumber != nil {
		status.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusFailed {
		status.State = repository.TxReverted
		return status, nil
	}

	head, err := l.receipts.BlockNumber(ctx)
	if err != nil {
		return nil, repository.Classify("blockNumber", err)
	}
	if head >= status.BlockNumber {
		status.Confirmations = head - status.BlockNumber + 1
	}
	if status.Confirmations < l.confirmations {
		return status, nil
	}

	call, err := l.describe(ctx, common.HexToHash(hash))
	if err != nil {
		return nil, err
	}
	status.State = repository.TxConfirmed
	status.Call = call
	return status, nil
}

// describe decodes the sender, target and leveling method of a mined transaction.
func (l *Ledger) describe(ctx context.Context, hash common.Hash) (*repository.TxCall, error) {
	tx, _, err := l.receipts.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, repository.Classify("txByHash", err)
	}

	call := &repository.TxCall{}
	if from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		call.From = from.Hex()
	}
	if tx.To() == nil {
		return call, nil
	}
	call.To = tx.To().Hex()

	data := tx.Data()
	if *tx.To() != l.address || len(data) < 4 {
		return call, nil
	}
	method, err := parsedABI.MethodById(data[:4])
	if err != nil {
		return call, nil
	}
	if method.Name == repository.MethodCompleteTask {
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil || len(args) != 1 {
			return call, nil
		}
		id, ok := args[0].(*big.Int)
		if !ok {
			return call, nil
		}
		call.TaskID = toUint64(id)
	}
	call.Method = method.Name
	return call, nil
}

// Submitter signs leveling transactions with a single key.
type Submitter struct {
	mu       sync.Mutex
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	timeout  time.Duration
}

func NewSubmitter(address string, backend bind.ContractBackend, privateKeyHex string, chainID int64, timeout time.Duration) (*Submitter, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidAddress, address)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(chainID))
	if err != nil {
		return nil, fmt.Errorf("create transactor: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Submitter{
		contract: bind.NewBoundContract(common.HexToAddress(address), parsedABI, backend, backend, backend),
		auth:     auth,
		timeout:  timeout,
	}, nil
}

func (s *Submitter) Address() string {
	return s.auth.From.Hex()
}

func (s *Submitter) SubmitCompletion(ctx context.Context, taskID uint64) (*repository.TxHandle, error) {
	return s.transact(ctx, repository.MethodCompleteTask, new(big.Int).SetUint64(taskID))
}

func (s *Submitter) Register(ctx context.Context, name string, cosmetic models.Cosmetic) (*repository.TxHandle, error) {
	return s.transact(ctx, repository.MethodRegister, name, uint8(cosmetic))
}

// transact is serialized so pending nonces are not reused.
func (s *Submitter) transact(ctx context.Context, method string, params ...interface{}) (*repository.TxHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := *s.auth
	opts.Context = ctx

	tx, err := s.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, repository.Classify(method, err)
	}
	return &repository.TxHandle{Hash: tx.Hash().Hex(), SubmittedAt: time.Now().UTC()}, nil
}

func parseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %q", repository.ErrInvalidAddress, address)
	}
	return common.HexToAddress(address), nil
}

func decodeError(method, format string, args ...interface{}) error {
	return repository.Permanent(method, fmt.Errorf("decode: "+format, args...))
}

func toUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}
