package models

import (
	"time"

	completion "onchain-leveling-backend/internal/features/completion/models"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
)

// Page is one slice of the ledger's task catalog.
// @Description Task catalog page
type Page struct {
	Tasks  []progmodels.Task `json:"tasks"`
	Offset uint64            `json:"offset" example:"0"`
	Limit  uint64            `json:"limit" example:"20"`
	// HasMore is a hint: the ledger returned a full page.
	HasMore bool `json:"has_more"`
}

// BoardItem is a task with the caller's state in the current period.
// @Description Task with the player's state
type BoardItem struct {
	Task  progmodels.Task  `json:"task"`
	State completion.State `json:"state" example:"available"`
}

// Board is the caller's daily task list.
// @Description Daily task board
type Board struct {
	Items       []BoardItem `json:"items"`
	PeriodStart time.Time   `json:"period_start"`
	NextReset   time.Time   `json:"next_reset"`
}
