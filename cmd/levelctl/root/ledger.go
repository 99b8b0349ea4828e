package root

import (
	"context"
	"errors"

	"github.com/joho/godotenv"

	"onchain-leveling-backend/internal/common/config"
	ledger "onchain-leveling-backend/internal/features/ledger/repository"
	"onchain-leveling-backend/internal/features/ledger/repository/contract"
	memledger "onchain-leveling-backend/internal/features/ledger/repository/memory"
	progression "onchain-leveling-backend/internal/features/progression/service"
	"onchain-leveling-backend/internal/platform/chain"
)

var errNoKey = errors.New("no signing key: set RELAYER_PRIVATE_KEY or pass --key")

type env struct {
	cfg      *config.Config
	schedule *progression.Schedule
	ledger   ledger.Ledger
	// signer returns a submitter for a hex private key.
	signer  func(key string) (ledger.Submitter, error)
	cleanup func()
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Parse()
}

func loadSchedule(cfg *config.Config) (*progression.Schedule, error) {
	if cfg.Progression.ScheduleFile != "" {
		return progression.LoadSchedule(cfg.Progression.ScheduleFile)
	}
	return progression.NewSchedule(cfg.Progression.Thresholds)
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	schedule, err := loadSchedule(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Chain.RPCURL == chain.MemoryRPC {
		mem := memledger.NewLedger(schedule, memledger.DefaultTasks()).AutoConfirm(1)
		return &env{
			cfg:      cfg,
			schedule: schedule,
			ledger:   mem,
			// the in-process ledger takes the player address in place of a key
			signer: func(key string) (ledger.Submitter, error) {
				return mem.SubmitterFor(key), nil
			},
			cleanup: func() {},
		}, nil
	}

	client, err := chain.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	l, err := contract.NewLedger(cfg.Chain.ContractAddress, client, client, cfg.Chain.Confirmations, cfg.Chain.RequestTimeout)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &env{
		cfg:      cfg,
		schedule: schedule,
		ledger:   l,
		signer: func(key string) (ledger.Submitter, error) {
			return contract.NewSubmitter(cfg.Chain.ContractAddress, client, key, cfg.Chain.ChainID, cfg.Chain.RequestTimeout)
		},
		cleanup: client.Close,
	}, nil
}

// submitter picks --key over the configured relayer key.
func (e *env) submitter(flagKey string) (ledger.Submitter, error) {
	key := flagKey
	if key == "" {
		key = e.cfg.Chain.RelayerKey
	}
	if key == "" {
		return nil, errNoKey
	}
	return e.signer(key)
}
