// Package constants centralizes defaults shared across the CLI.
//
// File permissions, simulated latencies, storage keys, and snippet limits
// live here so cmd/ and internal/ packages can reference them without
// introducing import cycles.
package constants
