package service

import (
	"errors"
	"fmt"

	"onchain-leveling-backend/internal/features/session/models"
)

var ErrInvalidTransition = errors.New("invalid session transition")

var transitions = map[models.State]map[models.Event]models.State{
	models.StateDisconnected: {
		models.EventConnect: models.StateConnecting,
	},
	models.StateConnecting: {
		models.EventWalletConnected: models.StateCheckingRegistration,
		models.EventConnectFailed:   models.StateDisconnected,
	},
	models.StateCheckingRegistration: {
		models.EventRegistrationFound:   models.StateRegistered,
		models.EventRegistrationMissing: models.StateUnregistered,
	},
	models.StateUnregistered: {
		models.EventRegistrationSubmitted: models.StateCheckingRegistration,
	},
	models.StateRegistered: {},
}

// Next returns the state reached from s on e. Disconnect is accepted from
// every state.
func Next(s models.State, e models.Event) (models.State, error) {
	if e == models.EventDisconnect {
		return models.StateDisconnected, nil
	}
	if next, ok := transitions[s][e]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, e)
}
