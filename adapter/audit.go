// Package adapter connects a vault to external systems.
package adapter

import (
	"github.com/srediag/plugin-vault/api"
)

// AuditCallback forwards every vault event to an audit sink as
// "event.<type>", so unit activations reach the same trail as transitions.
type AuditCallback struct {
	Audit api.Audit
}

var _ api.PluginCallback = AuditCallback{}

func (a AuditCallback) OnVaultEvent(e api.Event) {
	details := map[string]interface{}{"time": e.Time}
	if e.Unit != "" {
		details["unit"] = e.Unit
	}
	if e.Err != nil {
		details["error"] = e.Err.Error()
	}
	_ = a.Audit.LogEvent("event."+string(e.Type), details)
}
