// Package health serves liveness and readiness of a vault over HTTP.
package health

import (
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/plugin-vault/api"
)

const (
	LivePath  = "/live"
	ReadyPath = "/ready"

	// DefaultGoroutineLimit fails liveness when the process leaks goroutines.
	DefaultGoroutineLimit = 10000
)

type options struct {
	goroutines int
	registerer prometheus.Registerer
	namespace  string
}

// Option configures NewHandler.
type Option func(*options)

// WithGoroutineLimit sets the goroutine count above which liveness fails.
// Zero disables the check.
func WithGoroutineLimit(n int) Option {
	return func(o *options) { o.goroutines = n }
}

// WithMetrics also exports every check result as a gauge on reg.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(o *options) {
		o.registerer = reg
		o.namespace = namespace
	}
}

// NewHandler returns an http.Handler answering LivePath and ReadyPath from h.
// Readiness includes every liveness check.
func NewHandler(h api.Health, opts ...Option) healthcheck.Handler {
	o := options{goroutines: DefaultGoroutineLimit}
	for _, opt := range opts {
		opt(&o)
	}

	var hc healthcheck.Handler
	if o.registerer != nil {
		hc = healthcheck.NewMetricsHandler(o.registerer, o.namespace)
	} else {
		hc = healthcheck.NewHandler()
	}
	hc.AddLivenessCheck("vault-live", h.Live)
	if o.goroutines > 0 {
		hc.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(o.goroutines))
	}
	hc.AddReadinessCheck("vault-ready", h.Ready)
	return hc
}
