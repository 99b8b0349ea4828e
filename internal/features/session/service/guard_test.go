package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"onchain-leveling-backend/internal/features/session/models"
)

func TestGuard(t *testing.T) {
	allowed := models.Decision{Action: models.ActionAllow}
	waiting := models.Decision{Action: models.ActionWait}
	toOnboarding := models.Decision{Action: models.ActionRedirect, Target: RouteOnboarding}

	tests := []struct {
		name     string
		state    models.State
		local    bool
		route    string
		expected models.Decision
	}{
		{"leaderboard is public", models.StateDisconnected, false, "/leaderboard", allowed},

		{"onboarding when disconnected", models.StateDisconnected, false, "/onboarding", allowed},
		{"onboarding when unregistered", models.StateUnregistered, true, "/onboarding", allowed},
		{"onboarding while checking", models.StateCheckingRegistration, false, "/onboarding", waiting},
		{"onboarding when registered", models.StateRegistered, false, "/onboarding", models.Decision{Action: models.ActionRedirect, Target: RouteHome}},

		{"tasks need registration", models.StateUnregistered, true, "/tasks", toOnboarding},
		{"tasks while connecting", models.StateConnecting, true, "/tasks", waiting},
		{"tasks when registered", models.StateRegistered, false, "/tasks?character=runner", allowed},
		{"profile when disconnected", models.StateDisconnected, true, "/profile/", toOnboarding},

		{"activity with local character", models.StateDisconnected, true, "/activity", allowed},
		{"activity with on-chain character", models.StateRegistered, false, "/activity", allowed},
		{"activity without character", models.StateUnregistered, false, "/activity", toOnboarding},
		{"quest while checking", models.StateCheckingRegistration, false, "/quest", waiting},
		{"root without character", models.StateDisconnected, false, "", toOnboarding},

		{"unknown route", models.StateRegistered, true, "/admin", models.Decision{Action: models.ActionRedirect, Target: RouteRoot}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Guard(tt.state, tt.local, tt.route))
		})
	}
}

func TestNormalizeRoute(t *testing.T) {
	assert.Equal(t, "/", NormalizeRoute(""))
	assert.Equal(t, "/", NormalizeRoute("/?x=1"))
	assert.Equal(t, "/tasks", NormalizeRoute("tasks/"))
	assert.Equal(t, "/activity", NormalizeRoute("/Activity#top"))
}
