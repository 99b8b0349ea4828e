package service

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onchain-leveling-backend/internal/features/walletproof/models"
	"onchain-leveling-backend/internal/features/walletproof/repository"
	walletredis "onchain-leveling-backend/internal/features/walletproof/repository/redis"
	"onchain-leveling-backend/internal/platform/redis/redistest"
)

func sign(t *testing.T, message string) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestVerifyFlow(t *testing.T) {
	client, _ := redistest.NewClient(t)
	svc := NewService(walletredis.NewRepository(client), Config{Domain: "leveling.example", NonceTTL: time.Minute, SessionTTL: time.Hour})
	ctx := context.Background()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	challenge, err := svc.IssueNonce(ctx, address)
	require.NoError(t, err)
	assert.Contains(t, challenge.Message, address)
	assert.Contains(t, challenge.Message, "leveling.example")

	sig, err := crypto.Sign(accounts.TextHash([]byte(challenge.Message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	req := &models.VerifyRequest{Address: address, Nonce: challenge.Nonce, Signature: hexutil.Encode(sig)}
	session, err := svc.Verify(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, address, session.Address)

	resolved, err := svc.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, address, resolved.Address)

	// nonces are single use
	_, err = svc.Verify(ctx, req)
	assert.ErrorIs(t, err, repository.ErrNonceNotFound)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.Resolve(ctx, session.Token)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestVerifyRejects(t *testing.T) {
	client, mr := redistest.NewClient(t)
	svc := NewService(walletredis.NewRepository(client), Config{Domain: "leveling.example", NonceTTL: time.Minute})
	ctx := context.Background()

	victim := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	t.Run("signature from another key", func(t *testing.T) {
		challenge, err := svc.IssueNonce(ctx, victim)
		require.NoError(t, err)
		_, sig := sign(t, challenge.Message)
		_, err = svc.Verify(ctx, &models.VerifyRequest{Address: victim, Nonce: challenge.Nonce, Signature: sig})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("nonce issued for another address", func(t *testing.T) {
		challenge, err := svc.IssueNonce(ctx, victim)
		require.NoError(t, err)
		attacker, sig := sign(t, challenge.Message)
		_, err = svc.Verify(ctx, &models.VerifyRequest{Address: attacker, Nonce: challenge.Nonce, Signature: sig})
		assert.ErrorIs(t, err, ErrAddressMismatch)
	})

	t.Run("expired nonce", func(t *testing.T) {
		challenge, err := svc.IssueNonce(ctx, victim)
		require.NoError(t, err)
		mr.FastForward(2 * time.Minute)
		_, err = svc.Verify(ctx, &models.VerifyRequest{Address: victim, Nonce: challenge.Nonce, Signature: "0x00"})
		assert.ErrorIs(t, err, repository.ErrNonceNotFound)
	})

	t.Run("malformed signature", func(t *testing.T) {
		challenge, err := svc.IssueNonce(ctx, victim)
		require.NoError(t, err)
		_, err = svc.Verify(ctx, &models.VerifyRequest{Address: victim, Nonce: challenge.Nonce, Signature: "0xdeadbeef"})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("bad address", func(t *testing.T) {
		_, err := svc.IssueNonce(ctx, "not-an-address")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}
