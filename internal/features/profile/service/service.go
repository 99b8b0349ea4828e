package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"onchain-leveling-backend/internal/common/logger"
	"onchain-leveling-backend/internal/common/validation"
	"onchain-leveling-backend/internal/features/ledger/repository"
	"onchain-leveling-backend/internal/features/profile/models"
	profilerepo "onchain-leveling-backend/internal/features/profile/repository"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	progression "onchain-leveling-backend/internal/features/progression/service"
)

var (
	ErrAlreadyRegistered   = errors.New("wallet is already registered")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidCosmetic     = errors.New("character must be degen or runner")
	ErrInvalidDevice       = errors.New("invalid device id")
	ErrRegistrationMissing = errors.New("registration transaction confirmed but profile is not registered")
)

// Observer is told about every fresh authoritative profile read.
type Observer interface {
	Observe(ctx context.Context, profile *progmodels.Profile) error
}

// freshReader is implemented by caching ledgers.
type freshReader interface {
	GetFreshProfile(ctx context.Context, address string) (*progmodels.Profile, error)
}

type Config struct {
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

type Service struct {
	ledger    repository.Ledger
	schedule  *progression.Schedule
	cosmetics profilerepo.CosmeticStore
	observer  Observer
	cfg       Config
}

func NewService(l repository.Ledger, schedule *progression.Schedule, cosmetics profilerepo.CosmeticStore, observer Observer, cfg Config) *Service {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 45 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Service{ledger: l, schedule: schedule, cosmetics: cosmetics, observer: observer, cfg: cfg}
}

// Me returns the profile with levels computed from the cumulative schedule.
func (s *Service) Me(ctx context.Context, address string) (*models.ProfileView, error) {
	profile, err := s.ledger.GetProfile(ctx, address)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, profile), nil
}

func (s *Service) view(ctx context.Context, profile *progmodels.Profile) *models.ProfileView {
	v := &models.ProfileView{
		Profile:  *profile,
		Progress: s.schedule.LevelFor(profile.XPTotal),
	}
	if !profile.Registered {
		return v
	}

	next, err := s.ledger.NextLevelXP(ctx, profile.Address)
	if err != nil {
		logger.Warn().Err(err).Str("address", profile.Address).Msg("Ledger next-level read failed")
	} else {
		v.NextLevel = next
	}

	var chainNext uint64
	if next != nil {
		chainNext = next.NextLevelCumulative
	}
	if err := s.schedule.CheckAgainstChain(profile.XPTotal, profile.Level, chainNext); err != nil {
		v.Drift = err.Error()
		logger.Warn().Err(err).Str("address", profile.Address).Msg("Level schedule drift")
	}
	return v
}

// ValidateRegistration runs the checks the contract would revert on, before
// the wallet is asked to sign.
func (s *Service) ValidateRegistration(ctx context.Context, address, name string, cosmetic progmodels.Cosmetic) error {
	if err := validation.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if !cosmetic.Valid() {
		return ErrInvalidCosmetic
	}

	profile, err := s.ledger.GetProfile(ctx, address)
	if err != nil {
		return err
	}
	if profile.Registered {
		return ErrAlreadyRegistered
	}
	return nil
}

// ConfirmRegistration waits for the register transaction and returns the
// re-read profile.
func (s *Service) ConfirmRegistration(ctx context.Context, address, txHash string) (*models.ProfileView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	status, err := repository.WaitMined(ctx, s.ledger, txHash, s.cfg.PollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, progression.ErrTimeout
		}
		return nil, err
	}
	if status.State == repository.TxReverted {
		return nil, repository.Permanent("register", errors.New("transaction reverted"))
	}

	profile, err := s.Refresh(ctx, address)
	if err != nil {
		return nil, err
	}
	if !profile.Registered {
		return nil, ErrRegistrationMissing
	}

	logger.Info().Str("address", profile.Address).Str("name", profile.Name).Msg("Registration confirmed")
	return s.view(ctx, profile), nil
}

// Register signs and sends register() with submitter, then confirms it.
func (s *Service) Register(ctx context.Context, submitter repository.Submitter, name string, cosmetic progmodels.Cosmetic) (*models.ProfileView, error) {
	address := submitter.Address()
	if err := s.ValidateRegistration(ctx, address, name, cosmetic); err != nil {
		return nil, err
	}
	tx, err := submitter.Register(ctx, strings.TrimSpace(name), cosmetic)
	if err != nil {
		return nil, err
	}
	return s.ConfirmRegistration(ctx, address, tx.Hash)
}

// Refresh bypasses any cache and reports the read to the observer.
func (s *Service) Refresh(ctx context.Context, address string) (*progmodels.Profile, error) {
	var (
		profile *progmodels.Profile
		err     error
	)
	if fr, ok := s.ledger.(freshReader); ok {
		profile, err = fr.GetFreshProfile(ctx, address)
	} else {
		profile, err = s.ledger.GetProfile(ctx, address)
	}
	if err != nil {
		return nil, err
	}

	if s.observer != nil && profile.Registered {
		if err := s.observer.Observe(ctx, profile); err != nil {
			logger.Warn().Err(err).Str("address", profile.Address).Msg("Profile observer failed")
		}
	}
	return profile, nil
}

// Cosmetic reads the local fallback character for a device.
func (s *Service) Cosmetic(ctx context.Context, deviceID string) (*models.CosmeticResponse, error) {
	if err := validation.ValidateDeviceID(deviceID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDevice, err)
	}
	cosmetic, found, err := s.cosmetics.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return &models.CosmeticResponse{DeviceID: deviceID, Character: cosmetic, Found: found}, nil
}

func (s *Service) SetCosmetic(ctx context.Context, deviceID string, cosmetic progmodels.Cosmetic) (*models.CosmeticResponse, error) {
	if err := validation.ValidateDeviceID(deviceID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDevice, err)
	}
	if !cosmetic.Valid() {
		return nil, ErrInvalidCosmetic
	}
	if err := s.cosmetics.Set(ctx, deviceID, cosmetic); err != nil {
		return nil, err
	}
	return &models.CosmeticResponse{DeviceID: deviceID, Character: cosmetic, Found: true}, nil
}
