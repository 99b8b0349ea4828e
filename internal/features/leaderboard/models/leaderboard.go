package models

// Entry is one ranked player.
// @Description Leaderboard row
type Entry struct {
	Rank    int64  `json:"rank" example:"1"`
	Address string `json:"address" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	Name    string `json:"name" example:"satoshi"`
	XPTotal uint64 `json:"xp_total" example:"1420"`
	Level   uint64 `json:"level" example:"6"`
}
