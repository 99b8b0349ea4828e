package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"onchain-leveling-backend/internal/features/walletproof/models"
	"onchain-leveling-backend/internal/features/walletproof/repository"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrAddressMismatch  = errors.New("nonce was issued for another address")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Config struct {
	Domain     string
	NonceTTL   time.Duration
	SessionTTL time.Duration
}

type Service struct {
	repo repository.Repository
	cfg  Config
	now  func() time.Time
}

func NewService(repo repository.Repository, cfg Config) *Service {
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = 5 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Service{repo: repo, cfg: cfg, now: time.Now}
}

// Message is the text the wallet signs for nonce.
func Message(domain, address, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf("%s wants you to sign in with your Ethereum account:\n%s\n\nNonce: %s\nIssued At: %s",
		domain, address, nonce, issuedAt.UTC().Format(time.RFC3339))
}

func (s *Service) IssueNonce(ctx context.Context, address string) (*models.NonceResponse, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	checksummed := common.HexToAddress(address).Hex()

	now := s.now().UTC().Truncate(time.Second)
	nonce := strings.ReplaceAll(uuid.New().String(), "-", "")
	record := &models.NonceRecord{
		Address:  checksummed,
		Message:  Message(s.cfg.Domain, checksummed, nonce, now),
		IssuedAt: now,
	}
	if err := s.repo.SaveNonce(ctx, nonce, record, s.cfg.NonceTTL); err != nil {
		return nil, err
	}

	return &models.NonceResponse{
		Nonce:     nonce,
		Message:   record.Message,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.NonceTTL),
	}, nil
}

// Verify consumes the nonce and opens a session when the signature recovers to the claimed address.
func (s *Service) Verify(ctx context.Context, req *models.VerifyRequest) (*models.Session, error) {
	if !common.IsHexAddress(req.Address) {
		return nil, ErrInvalidAddress
	}

	record, err := s.repo.TakeNonce(ctx, req.Nonce)
	if err != nil {
		return nil, err
	}
	claimed := common.HexToAddress(req.Address)
	if common.HexToAddress(record.Address) != claimed {
		return nil, ErrAddressMismatch
	}

	signer, err := RecoverSigner(record.Message, req.Signature)
	if err != nil {
		return nil, err
	}
	if signer != claimed {
		return nil, ErrInvalidSignature
	}

	now := s.now().UTC()
	session := &models.Session{
		Token:     uuid.New().String(),
		Address:   claimed.Hex(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.repo.SaveSession(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) Resolve(ctx context.Context, token string) (*models.Session, error) {
	return s.repo.GetSession(ctx, token)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// RecoverSigner returns the address that produced an EIP-191 personal_sign signature.
func RecoverSigner(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	// wallets return v as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
