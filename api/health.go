// Package api defines public API contracts for plugin-vault.
package api

// Health exposes liveness and readiness of a vault.
type Health interface {
	// Live fails when the vault is wedged in a transition.
	Live() error
	// Ready fails unless the vault is running.
	Ready() error
}
