package server

import (
	"strconv"
	"strings"
)

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// flagEnabled is parseOptionalBool collapsed to a plain bool; absent is false.
func flagEnabled(value string) (bool, error) {
	parsed, err := parseOptionalBool(value)
	if err != nil || parsed == nil {
		return false, err
	}
	return *parsed, nil
}
