// Package ais provides extra functions for AIS devices.
package ais

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxMMSI is the largest value a 30-bit AIS user ID can carry.
const MaxMMSI = 1<<30 - 1

// FormatMMSI renders a numeric MMSI as the conventional nine digits.
// Leading zeros are significant (coast stations, group calls).
func FormatMMSI(mmsi uint32) string {
	return fmt.Sprintf("%09d", mmsi)
}

// ParseMMSI accepts an MMSI written with or without zero padding.
func ParseMMSI(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid MMSI %q: %v", s, err)
	}
	if v > MaxMMSI {
		return 0, fmt.Errorf("invalid MMSI %q: out of range", s)
	}
	return uint32(v), nil
}

// NormalizeMMSI returns the nine digit form of s when it is numeric and the
// trimmed input unchanged otherwise.
func NormalizeMMSI(s string) string {
	s = strings.TrimSpace(s)
	if v, err := ParseMMSI(s); err == nil {
		return FormatMMSI(v)
	}
	return s
}
