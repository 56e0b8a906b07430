// Package audit provides sinks for vault audit records.
package audit

import (
	"io"
	"sync"
	"time"

	"github.com/srediag/plugin-vault/api"
	internalaudit "github.com/srediag/plugin-vault/internal/audit"
	"github.com/srediag/plugin-vault/internal/logger"
)

// LogAudit writes every record to a logger at info level.
type LogAudit struct {
	log *logger.Logger
}

// NewLogAudit returns an audit sink logging to w.
func NewLogAudit(w io.Writer) *LogAudit {
	return &LogAudit{log: logger.New("audit", w)}
}

func (a *LogAudit) LogEvent(event string, details map[string]interface{}) error {
	a.log.Infof("%s", internalaudit.FormatEvent(event, details))
	return nil
}

// Record is one audit entry kept by Recorder.
type Record struct {
	Event   string
	Details map[string]interface{}
	Time    time.Time
}

// Recorder keeps records in memory, newest last.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *Recorder) LogEvent(event string, details map[string]interface{}) error {
	cp := make(map[string]interface{}, len(details))
	for k, v := range details {
		cp[k] = v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Event: event, Details: cp, Time: time.Now()})
	return nil
}

// Records returns a copy of everything recorded so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Events returns the event names recorded so far.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Event
	}
	return out
}

// Multi fans a record out to several sinks and returns the first error.
type Multi []api.Audit

func (m Multi) LogEvent(event string, details map[string]interface{}) error {
	var first error
	for _, a := range m {
		if err := a.LogEvent(event, details); err != nil && first == nil {
			first = err
		}
	}
	return first
}
