/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics holds the Prometheus collectors of a vault.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "plugin_vault"

// Metrics is the set of collectors one vault updates.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Operations    *prometheus.CounterVec
	Provisioning  *prometheus.CounterVec
	State         prometheus.Gauge
	StartDuration prometheus.Histogram
}

// New builds the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests and embedded vaults want.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Vault state transitions.",
		}, []string{"from", "to"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Lifecycle operations by result.",
		}, []string{"operation", "result"}),
		Provisioning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisioning_outcomes_total",
			Help:      "Baseline artifact outcomes by phase reached.",
		}, []string{"outcome"}),
		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current vault state (0 stopped, 1 starting, 2 running, 3 stopping).",
		}),
		StartDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "start_duration_seconds",
			Help:      "Time spent booting and provisioning.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Transitions, m.Operations, m.Provisioning, m.State, m.StartDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Transition records a state change.
func (m *Metrics) Transition(from, to string, toValue int) {
	m.Transitions.WithLabelValues(from, to).Inc()
	m.State.Set(float64(toValue))
}

// Operation records the result of a lifecycle call.
func (m *Metrics) Operation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

// Outcome records one provisioning outcome.
func (m *Metrics) Outcome(outcome string) {
	m.Provisioning.WithLabelValues(outcome).Inc()
}

// ObserveStart records how long a start took.
func (m *Metrics) ObserveStart(d time.Duration) {
	m.StartDuration.Observe(d.Seconds())
}
