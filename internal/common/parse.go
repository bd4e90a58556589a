package common

import (
	"strconv"
	"strings"
)

// ParseUint64orHex converts the given string into a uint64.
// Accepts both decimal numbers and 0x-prefixed hex, which is how block
// numbers show up on the command line and in RPC payloads.
func ParseUint64orHex(val *string) (uint64, error) {
	if val == nil {
		return 0, nil
	}

	str := *val
	base := 10

	if strings.HasPrefix(str, "0x") {
		str = str[2:]
		base = 16
	}

	return strconv.ParseUint(str, base, 64)
}

// ToLowerWithTrim normalizes user-supplied identifiers for comparison.
func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BytesToMB converts bytes to megabytes for log output.
func BytesToMB(bytes uint64) uint64 {
	return bytes / (1024 * 1024) //nolint:mnd
}
