// ABOUTME: Sentinel errors shared by storage, segmentation, and sampling
// ABOUTME: Callers classify failures with errors.Is against these values
package models

import "errors"

var (
	// ErrConnection indicates the storage backend could not be opened or reached.
	ErrConnection = errors.New("topicseg: storage connection failed")

	// ErrSchema indicates a missing or malformed table.
	ErrSchema = errors.New("topicseg: schema error")

	// ErrOracle indicates the decision oracle or retrieval collaborator failed.
	ErrOracle = errors.New("topicseg: oracle call failed")

	// ErrValidation indicates required input was empty or out of range. No I/O was performed.
	ErrValidation = errors.New("topicseg: invalid input")

	// ErrNotFound indicates a lookup by identifier matched nothing.
	ErrNotFound = errors.New("topicseg: not found")
)
