//go:build tools
// +build tools

// Package tools imports dependencies that are used by this project but not directly
// imported in the main codebase. This ensures they are tracked in go.mod.
package tools

import (
	// Database. The migrate postgres driver speaks lib/pq under the hood.
	_ "github.com/lib/pq"
)
