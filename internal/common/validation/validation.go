package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength     = 3
	MaxNameLength     = 32
	MaxPageLimit      = 50
	DefaultPageLimit  = 20
	MaxDeviceIDLength = 64
)

var (
	addressRegex  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashRegex   = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	deviceIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidateName checks a display name chosen at registration.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < MinNameLength {
		return fmt.Errorf("name must be at least %d characters long", MinNameLength)
	}
	if n > MaxNameLength {
		return fmt.Errorf("name cannot exceed %d characters", MaxNameLength)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("name contains control characters")
		}
	}
	return nil
}

func ValidateAddress(address string) error {
	if !addressRegex.MatchString(address) {
		return fmt.Errorf("address must be 0x followed by 40 hex characters")
	}
	return nil
}

func ValidateTxHash(hash string) error {
	if !txHashRegex.MatchString(hash) {
		return fmt.Errorf("tx hash must be 0x followed by 64 hex characters")
	}
	return nil
}

func ValidateDeviceID(id string) error {
	if id == "" || len(id) > MaxDeviceIDLength || !deviceIDRegex.MatchString(id) {
		return fmt.Errorf("device id must be 1-%d characters of letters, digits, '-' or '_'", MaxDeviceIDLength)
	}
	return nil
}

// NormalizePage applies the default page size and clamps it to MaxPageLimit.
func NormalizePage(offset, limit int) (uint64, uint64, error) {
	if offset < 0 {
		return 0, 0, fmt.Errorf("offset cannot be negative")
	}
	if limit < 0 {
		return 0, 0, fmt.Errorf("limit cannot be negative")
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return uint64(offset), uint64(limit), nil
}
