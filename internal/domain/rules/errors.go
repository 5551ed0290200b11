package rules

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrRuleNotFound = errors.New("rule not found")
	ErrInvalidTable = errors.New("invalid points table")
	ErrInvalidKey   = errors.New("invalid rule key")
)
