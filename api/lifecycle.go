// Package api defines public API contracts for plugin-vault.
package api

import (
	"context"
	"time"
)

// Lifecycle is the surface a command dispatcher drives: start, stop,
// restart and status of one vault.
type Lifecycle interface {
	StartVault(ctx context.Context) error
	StopVault(ctx context.Context) error
	RestartVault(ctx context.Context) error
	Status() Status
}

// Status is a snapshot of a vault for status reporting.
type Status struct {
	State     string
	HasHandle bool
	StartedAt time.Time
	// Installed and Activated count baseline artifacts of the last start.
	Installed int
	Activated int
	Failed    int
}
