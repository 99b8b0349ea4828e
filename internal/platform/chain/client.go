package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"onchain-leveling-backend/internal/common/config"
	"onchain-leveling-backend/internal/common/logger"
)

// MemoryRPC selects the in-process ledger instead of dialing a node.
const MemoryRPC = "memory"

type Client struct {
	*ethclient.Client
}

// Dial connects to the configured RPC endpoint and checks that it serves the expected chain.
func Dial(ctx context.Context, cfg *config.Config) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ec, err := ethclient.DialContext(dialCtx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.Chain.RPCURL, err)
	}

	chainID, err := ec.ChainID(dialCtx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	if chainID.Cmp(big.NewInt(cfg.Chain.ChainID)) != 0 {
		ec.Close()
		return nil, fmt.Errorf("rpc serves chain %s, expected %d", chainID, cfg.Chain.ChainID)
	}

	logger.Info().
		Str("rpc", cfg.Chain.RPCURL).
		Str("chain_id", chainID.String()).
		Str("contract", cfg.Chain.ContractAddress).
		Msg("Chain client initialized")

	return &Client{Client: ec}, nil
}

// HealthCheck fetches the head block number.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BlockNumber(ctx)
	return err
}
