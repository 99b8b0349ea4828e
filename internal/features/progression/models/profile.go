package models

import (
	"fmt"
	"strings"
)

// Cosmetic is the character picked at onboarding. It has no gameplay effect.
type Cosmetic uint8

const (
	CosmeticUnknown Cosmetic = 0
	CosmeticDegen   Cosmetic = 1
	CosmeticRunner  Cosmetic = 2
)

func (c Cosmetic) Valid() bool {
	return c == CosmeticDegen || c == CosmeticRunner
}

func (c Cosmetic) String() string {
	switch c {
	case CosmeticDegen:
		return "degen"
	case CosmeticRunner:
		return "runner"
	default:
		return "unknown"
	}
}

func ParseCosmetic(s string) (Cosmetic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "degen", "1":
		return CosmeticDegen, nil
	case "runner", "2":
		return CosmeticRunner, nil
	default:
		return CosmeticUnknown, fmt.Errorf("unknown character %q", s)
	}
}

func (c Cosmetic) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cosmetic) UnmarshalText(text []byte) error {
	if string(text) == "unknown" || len(text) == 0 {
		*c = CosmeticUnknown
		return nil
	}
	parsed, err := ParseCosmetic(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Profile is the ledger's view of a player.
type Profile struct {
	Address    string   `json:"address" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	Name       string   `json:"name" example:"satoshi"`
	Cosmetic   Cosmetic `json:"character" swaggertype:"string" example:"runner"`
	Level      uint64   `json:"level" example:"3"`
	XPTotal    uint64   `json:"xp_total" example:"420"`
	Registered bool     `json:"registered" example:"true"`
}
