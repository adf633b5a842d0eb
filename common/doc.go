// Package common provides shared constants, sentinel errors, and the
// application logger used throughout mullvad-ping.
//
// It covers the cross-cutting concerns:
//
//   - Constants: application name, file names, probe defaults
//   - Errors: sentinel errors checked with errors.Is
//   - Logger: leveled logging to stderr with optional rotated file output
//   - Utils: config/cache directory helpers and small string helpers
//
// # Usage
//
//	common.LogInfo("Probing %d relays", len(candidates))
//
//	if errors.Is(err, common.ErrEmptyCandidateSet) {
//	    // every relay was filtered out
//	}
package common
