package models

import (
	"time"

	progmodels "onchain-leveling-backend/internal/features/progression/models"
)

// State is where a client is between wallet connection and registration.
type State string

const (
	StateDisconnected         State = "disconnected"
	StateConnecting           State = "connecting"
	StateCheckingRegistration State = "checking_registration"
	StateRegistered           State = "registered"
	StateUnregistered         State = "unregistered"
)

type Event string

const (
	EventConnect               Event = "connect"
	EventConnectFailed         Event = "connect_failed"
	EventWalletConnected       Event = "wallet_connected"
	EventRegistrationFound     Event = "registration_found"
	EventRegistrationMissing   Event = "registration_missing"
	EventRegistrationSubmitted Event = "registration_submitted"
	EventDisconnect            Event = "disconnect"
)

// Snapshot is the persisted state of one client device.
// @Description Client session state
type Snapshot struct {
	Device  string `json:"device" example:"7f3c2a"`
	State   State  `json:"state" enums:"disconnected,connecting,checking_registration,registered,unregistered" example:"registered"`
	Address string `json:"address,omitempty" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	// Cosmetic is the on-chain character, known once registered.
	Cosmetic  *progmodels.Cosmetic `json:"character,omitempty" swaggertype:"string" enums:"degen,runner"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
	ActionWait     Action = "wait"
)

// Decision is the routing guard's single answer for a route.
// @Description Routing decision
type Decision struct {
	Action Action `json:"action" enums:"allow,redirect,wait" example:"redirect"`
	Target string `json:"target,omitempty" example:"/onboarding"`
}

// @Description Client event
type EventRequest struct {
	Event Event `json:"event" binding:"required" enums:"connect,connect_failed,registration_submitted,disconnect" example:"connect"`
}

// @Description Routing decision with the state it was made from
type GuardResponse struct {
	Session          *Snapshot `json:"session"`
	HasLocalCosmetic bool      `json:"has_local_character"`
	Route            string    `json:"route" example:"/tasks"`
	Decision         Decision  `json:"decision"`
}
