package rules

import "errors"

// Sentinel errors for the §7 error taxonomy entries this package produces.
// Callers use errors.Is/errors.As against these; wrapped with %w so the
// underlying parse/validation detail is never lost.
var (
	// ErrConfigParse is a syntactic error in the config file.
	ErrConfigParse = errors.New("rules: config parse error")

	// ErrConfigValidation is a semantic error (unresolved mode target,
	// out-of-range id, empty mode list).
	ErrConfigValidation = errors.New("rules: config validation error")
)
