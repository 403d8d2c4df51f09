// Package util provides common helpers for parsing host command arguments.
package util

import (
	"strconv"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// ParseAccountID parses a stable account id argument, tolerating quoting.
func ParseAccountID(s string) (uint64, error) {
	return strconv.ParseUint(TrimQuotes(strings.TrimSpace(s)), 10, 64)
}

// ParseSlot parses a player slot argument, tolerating quoting.
func ParseSlot(s string) (int, error) {
	return strconv.Atoi(TrimQuotes(strings.TrimSpace(s)))
}
