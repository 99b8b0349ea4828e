package models

import (
	ledger "onchain-leveling-backend/internal/features/ledger/repository"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
)

// ProfileView is the authoritative profile with its level breakdown.
// @Description Player profile and level progress
type ProfileView struct {
	Profile   progmodels.Profile       `json:"profile"`
	Progress  progmodels.LevelProgress `json:"progress"`
	NextLevel *ledger.NextLevel        `json:"chain_next_level,omitempty"`
	// Drift is set when the local schedule disagrees with the ledger.
	Drift string `json:"drift,omitempty"`
}

// RegistrationRequest validates a name and character before the wallet signs register().
// @Description Registration data
type RegistrationRequest struct {
	Name      string              `json:"name" binding:"required" example:"satoshi"`
	Character progmodels.Cosmetic `json:"character" binding:"required" swaggertype:"string" enums:"degen,runner" example:"degen"`
}

// ConfirmRequest reports the hash of a wallet-signed register transaction.
// @Description Registration transaction
type ConfirmRequest struct {
	TxHash string `json:"tx_hash" binding:"required" example:"0x9fc76417374aa880d4449a1f7f31ec597f00b1f6f3dd2d66f4c9c6c445836d8b"`
}

// CosmeticRequest sets the local fallback character for a device.
// @Description Local character choice
type CosmeticRequest struct {
	Character progmodels.Cosmetic `json:"character" binding:"required" swaggertype:"string" enums:"degen,runner" example:"runner"`
}

// CosmeticResponse is the locally stored character for a device. It never carries XP.
// @Description Local character choice
type CosmeticResponse struct {
	DeviceID  string              `json:"device_id" example:"a1b2c3"`
	Character progmodels.Cosmetic `json:"character" swaggertype:"string" enums:"degen,runner"`
	Found     bool                `json:"found"`
}
