// Package api defines public API contracts for plugin-vault.
package api

// Audit is a passive sink for vault lifecycle records.
type Audit interface {
	LogEvent(event string, details map[string]interface{}) error
}

// NopAudit discards every record.
type NopAudit struct{}

func (NopAudit) LogEvent(string, map[string]interface{}) error { return nil }
