// Package api defines public API contracts for plugin-vault.
package api

import "time"

// EventType names a vault lifecycle event.
type EventType string

const (
	EventStarted              EventType = "started"
	EventStartFailed          EventType = "start-failed"
	EventStopped              EventType = "stopped"
	EventUpdated              EventType = "updated"
	EventUpdateFailed         EventType = "update-failed"
	EventUnitActivated        EventType = "unit-activated"
	EventUnitActivationFailed EventType = "unit-activation-failed"
)

// Event is delivered to every registered PluginCallback.
type Event struct {
	Type EventType
	Time time.Time
	// Unit is the symbolic name for unit events.
	Unit string
	Err  error
}

// PluginCallback receives service activation and lifecycle callbacks.
// Callbacks run on the dispatcher goroutine, never under the vault lock.
type PluginCallback interface {
	OnVaultEvent(e Event)
}

// CallbackFunc adapts a function to PluginCallback.
type CallbackFunc func(e Event)

func (f CallbackFunc) OnVaultEvent(e Event) { f(e) }
