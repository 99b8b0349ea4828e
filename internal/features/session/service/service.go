package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"onchain-leveling-backend/internal/common/logger"
	"onchain-leveling-backend/internal/common/validation"
	profilerepo "onchain-leveling-backend/internal/features/profile/repository"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
	"onchain-leveling-backend/internal/features/session/models"
	"onchain-leveling-backend/internal/features/session/repository"
)

var (
	ErrInvalidDevice   = errors.New("invalid device id")
	ErrEventNotAllowed = errors.New("event cannot be sent by the client")
	ErrWalletMismatch  = errors.New("session belongs to another wallet")
)

// clientEvents are the events a client may report itself. The rest are
// driven by wallet proof and ledger reads.
var clientEvents = map[models.Event]bool{
	models.EventConnect:               true,
	models.EventConnectFailed:         true,
	models.EventRegistrationSubmitted: true,
	models.EventDisconnect:            true,
}

// RegistrationReader returns an authoritative, uncached profile.
type RegistrationReader interface {
	Refresh(ctx context.Context, address string) (*progmodels.Profile, error)
}

type Service struct {
	store     repository.Store
	cosmetics profilerepo.CosmeticStore
	profiles  RegistrationReader
	ttl       time.Duration
	now       func() time.Time
}

func NewService(store repository.Store, cosmetics profilerepo.CosmeticStore, profiles RegistrationReader, ttl time.Duration) *Service {
	return &Service{
		store:     store,
		cosmetics: cosmetics,
		profiles:  profiles,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Snapshot returns the device's state. Unknown devices are disconnected.
func (s *Service) Snapshot(ctx context.Context, device string) (*models.Snapshot, error) {
	if err := validation.ValidateDeviceID(device); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDevice, err)
	}
	snapshot, err := s.store.Get(ctx, device)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return &models.Snapshot{Device: device, State: models.StateDisconnected}, nil
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Apply records a client-reported event.
func (s *Service) Apply(ctx context.Context, device string, event models.Event) (*models.Snapshot, error) {
	if !clientEvents[event] {
		return nil, fmt.Errorf("%w: %s", ErrEventNotAllowed, event)
	}
	snapshot, err := s.Snapshot(ctx, device)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, snapshot, event); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Connect binds a proven wallet to the device and checks its registration.
// A device bound to another wallet is disconnected first.
func (s *Service) Connect(ctx context.Context, device, address string) (*models.Snapshot, error) {
	snapshot, err := s.Snapshot(ctx, device)
	if err != nil {
		return nil, err
	}

	if snapshot.Address != "" && !strings.EqualFold(snapshot.Address, address) {
		if err := s.transition(ctx, snapshot, models.EventDisconnect); err != nil {
			return nil, err
		}
	}

	switch snapshot.State {
	case models.StateDisconnected:
		if err := s.transition(ctx, snapshot, models.EventConnect); err != nil {
			return nil, err
		}
		fallthrough
	case models.StateConnecting:
		snapshot.Address = address
		if err := s.transition(ctx, snapshot, models.EventWalletConnected); err != nil {
			return nil, err
		}
	case models.StateRegistered, models.StateUnregistered:
		return snapshot, nil
	}

	return s.check(ctx, snapshot)
}

// Check resolves a pending registration check for the device's wallet.
func (s *Service) Check(ctx context.Context, device, address string) (*models.Snapshot, error) {
	snapshot, err := s.Snapshot(ctx, device)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(snapshot.Address, address) {
		return nil, ErrWalletMismatch
	}
	if snapshot.State != models.StateCheckingRegistration {
		return nil, fmt.Errorf("%w: %s is not checking registration", ErrInvalidTransition, snapshot.State)
	}
	return s.check(ctx, snapshot)
}

// check leaves the snapshot in CheckingRegistration when the ledger read
// fails, so the client can retry.
func (s *Service) check(ctx context.Context, snapshot *models.Snapshot) (*models.Snapshot, error) {
	profile, err := s.profiles.Refresh(ctx, snapshot.Address)
	if err != nil {
		logger.Warn().Err(err).
			Str("device", snapshot.Device).
			Str("address", snapshot.Address).
			Msg("Registration check failed")
		return snapshot, err
	}

	event := models.EventRegistrationMissing
	if profile.Registered {
		event = models.EventRegistrationFound
		cosmetic := profile.Cosmetic
		snapshot.Cosmetic = &cosmetic
	}
	if err := s.transition(ctx, snapshot, event); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Guard evaluates route for the device from its stored state.
func (s *Service) Guard(ctx context.Context, device, route string) (*models.GuardResponse, error) {
	snapshot, err := s.Snapshot(ctx, device)
	if err != nil {
		return nil, err
	}
	_, hasLocal, err := s.cosmetics.Get(ctx, device)
	if err != nil {
		return nil, err
	}

	route = NormalizeRoute(route)
	return &models.GuardResponse{
		Session:          snapshot,
		HasLocalCosmetic: hasLocal,
		Route:            route,
		Decision:         Guard(snapshot.State, hasLocal, route),
	}, nil
}

func (s *Service) transition(ctx context.Context, snapshot *models.Snapshot, event models.Event) error {
	next, err := Next(snapshot.State, event)
	if err != nil {
		return err
	}

	logger.Debug().
		Str("device", snapshot.Device).
		Str("from", string(snapshot.State)).
		Str("to", string(next)).
		Str("event", string(event)).
		Msg("Session transition")

	snapshot.State = next
	snapshot.UpdatedAt = s.now().UTC()
	if next == models.StateDisconnected {
		snapshot.Address = ""
		snapshot.Cosmetic = nil
	}
	if err := s.store.Save(ctx, snapshot, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
