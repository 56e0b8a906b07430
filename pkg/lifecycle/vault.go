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

// Package lifecycle runs a vault: it boots a module container, provisions the
// baseline management agent, applies updates and shuts the container down.
package lifecycle

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/srediag/plugin-vault/api"
	"github.com/srediag/plugin-vault/internal/container"
	"github.com/srediag/plugin-vault/internal/logger"
	"github.com/srediag/plugin-vault/internal/metrics"
	"github.com/srediag/plugin-vault/pkg/agent"
	"github.com/srediag/plugin-vault/pkg/artifact"
	"github.com/srediag/plugin-vault/pkg/events"
	"github.com/srediag/plugin-vault/pkg/installer"
	"github.com/srediag/plugin-vault/pkg/runtime"
)

// Vault orchestrates one module container. Start, Update and Stop are
// serialized; State, Status, Live and Ready never block on them.
type Vault struct {
	workDir string
	opts    options
	log     *logger.Logger

	runtime   *runtime.Runtime
	installer *installer.Installer
	events    *events.Dispatcher
	metrics   *metrics.Metrics

	mu     sync.Mutex
	handle Handle

	state atomic.Int32
	since atomic.Int64

	smu        sync.RWMutex
	startedAt  time.Time
	lastReport installer.Report

	cbMu      sync.Mutex
	callbacks []registered
}

type registered struct {
	cb         api.PluginCallback
	unregister func()
}

// New returns a stopped vault rooted at workDir.
func New(workDir string, resolver artifact.Resolver, opts ...Option) (*Vault, error) {
	if workDir == "" {
		return nil, fmt.Errorf("%w: work directory must not be empty", ErrInvalidArgument)
	}
	if resolver == nil {
		return nil, fmt.Errorf("%w: resolver must not be nil", ErrInvalidArgument)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.factorySet {
		o.factory = container.Factory{Activators: agent.Activators(o.logOut), LogOut: o.logOut}
	}

	m, err := metrics.New(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	v := &Vault{
		workDir:   workDir,
		opts:      o,
		log:       logger.New("lifecycle", o.logOut),
		runtime:   runtime.New(o.factory, o.logOut),
		installer: installer.New(resolver, installer.WithWorkers(o.workers), installer.WithLogOutput(o.logOut)),
		events:    events.NewDispatcher(o.logOut),
		metrics:   m,
	}
	v.since.Store(time.Now().UnixNano())
	for _, cb := range o.listeners {
		v.RegisterCallbacks(cb)
	}
	return v, nil
}

// State returns the current state without waiting for a running operation.
func (v *Vault) State() State {
	return State(v.state.Load())
}

func (v *Vault) setState(to State) {
	from := State(v.state.Swap(int32(to)))
	v.since.Store(time.Now().UnixNano())
	v.metrics.Transition(from.String(), to.String(), int(to))
	v.log.Debugf("%s -> %s", from, to)
}

// Start boots the container and provisions the baseline manifest.
func (v *Vault) Start(ctx context.Context) (h Handle, src *ConfigurationSource, err error) {
	ctx, span := v.opts.telemetry.StartSpan(ctx, "vault.start")
	defer func() {
		span.SetError(err)
		span.End()
		v.operation(ctx, "start", err)
	}()

	v.mu.Lock()
	defer v.mu.Unlock()

	if s := v.State(); s != Stopped {
		return Handle{}, nil, &WorkflowError{Op: "start", State: s, Err: ErrAlreadyRunning}
	}

	began := time.Now()
	v.handle = newHandle()
	v.setState(Starting)

	props, err := v.runtimeConfig()
	if err != nil {
		return Handle{}, nil, v.abortStart(&FatalBootError{Err: err})
	}
	if err := v.runtime.Boot(props); err != nil {
		return Handle{}, nil, v.abortStart(&FatalBootError{Err: err})
	}
	fc, err := v.runtime.Context()
	if err != nil {
		return Handle{}, nil, v.abortStart(&FatalBootError{Err: err})
	}

	report := v.installer.InstallBaseline(ctx, fc, v.opts.manifest)
	v.recordReport(ctx, report)
	if perr := v.opts.policy(report); perr != nil {
		return Handle{}, nil, v.abortStart(&ProvisioningError{Report: report, Err: perr})
	}

	src = &ConfigurationSource{
		Handle:     v.handle,
		Report:     report,
		Properties: props,
		StartedAt:  began,
	}
	v.smu.Lock()
	v.startedAt = began
	v.smu.Unlock()

	v.setState(Running)
	v.metrics.ObserveStart(time.Since(began))
	v.log.Infof("vault started: %s", report)
	v.publish(api.Event{Type: api.EventStarted})
	v.record("vault.started", map[string]interface{}{
		"handle":    v.handle.String(),
		"installed": report.Installed(),
		"activated": report.Activated(),
		"failed":    len(report.Failures()),
	})
	return v.handle, src, nil
}

// abortStart releases whatever the failed start left behind and returns cause.
func (v *Vault) abortStart(cause error) error {
	if err := v.runtime.Shutdown(); err != nil {
		v.log.Debugf("cleanup after failed start: %v", err)
	}
	v.handle = Handle{}
	v.setState(Stopped)
	v.log.Errorf("%v", cause)
	v.publish(api.Event{Type: api.EventStartFailed, Err: cause})
	v.record("vault.start-failed", map[string]interface{}{"error": cause.Error()})
	return cause
}

func (v *Vault) recordReport(ctx context.Context, report installer.Report) {
	v.smu.Lock()
	v.lastReport = report
	v.smu.Unlock()

	for _, o := range report.Outcomes {
		switch {
		case o.Activated:
			v.metrics.Outcome("activated")
			v.publish(api.Event{Type: api.EventUnitActivated, Unit: o.Identifier.SymbolicName()})
		case o.Failed():
			v.metrics.Outcome("failed_" + string(o.Phase))
			if o.Phase == installer.PhaseActivate {
				v.publish(api.Event{Type: api.EventUnitActivationFailed, Unit: o.Identifier.SymbolicName(), Err: o.Err})
			}
		}
	}
	for _, u := range report.Foreign {
		if u.Err != nil {
			v.publish(api.Event{Type: api.EventUnitActivationFailed, Unit: u.SymbolicName, Err: u.Err})
		} else {
			v.publish(api.Event{Type: api.EventUnitActivated, Unit: u.SymbolicName})
		}
	}
	v.opts.telemetry.RecordMetric(ctx, "vault.artifacts.activated", float64(report.Activated()))
	v.opts.telemetry.RecordMetric(ctx, "vault.artifacts.failed", float64(len(report.Failures())))
}

// Update hands cfg to the agent client. The vault stays running whatever
// the agent answers.
func (v *Vault) Update(ctx context.Context, cfg Configuration) (err error) {
	ctx, span := v.opts.telemetry.StartSpan(ctx, "vault.update")
	defer func() {
		span.SetError(err)
		span.End()
		v.operation(ctx, "update", err)
	}()

	v.mu.Lock()
	defer v.mu.Unlock()

	if s := v.State(); s != Running {
		return &WorkflowError{Op: "update", State: s, Err: ErrNotRunning}
	}
	fc, err := v.runtime.Context()
	if err == nil {
		err = v.opts.client.Apply(ctx, fc, cfg)
	}
	if err != nil {
		aerr := &AgentError{Err: err}
		v.log.Warnf("%v", aerr)
		v.publish(api.Event{Type: api.EventUpdateFailed, Err: aerr})
		v.record("vault.update-failed", map[string]interface{}{
			"name":    cfg.Name,
			"version": cfg.Version,
			"error":   err.Error(),
		})
		return aerr
	}
	v.log.Infof("applied %s-%s", cfg.Name, cfg.Version)
	v.publish(api.Event{Type: api.EventUpdated})
	v.record("vault.updated", map[string]interface{}{"name": cfg.Name, "version": cfg.Version})
	return nil
}

// Stop shuts the container down. handle must be the one Start returned.
func (v *Vault) Stop(ctx context.Context, handle Handle) (err error) {
	ctx, span := v.opts.telemetry.StartSpan(ctx, "vault.stop")
	defer func() {
		span.SetError(err)
		span.End()
		v.operation(ctx, "stop", err)
	}()

	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.State()
	if handle.IsZero() || handle != v.handle {
		return &WorkflowError{Op: "stop", State: s, Err: ErrInvalidHandle}
	}
	if s != Running && s != Starting {
		return &WorkflowError{Op: "stop", State: s, Err: ErrNotRunning}
	}
	return v.stopLocked()
}

// StopFunc returns a hook that stops whatever runtime is current when it
// is called. It succeeds without effect on a stopped vault.
func (v *Vault) StopFunc() func(context.Context) error {
	return func(ctx context.Context) (err error) {
		ctx, span := v.opts.telemetry.StartSpan(ctx, "vault.stop-hook")
		defer func() {
			span.SetError(err)
			span.End()
		}()

		v.mu.Lock()
		defer v.mu.Unlock()

		v.log.Infof("stop hook triggered")
		if v.State() == Stopped {
			return nil
		}
		err = v.stopLocked()
		v.operation(ctx, "stop", err)
		return err
	}
}

func (v *Vault) stopLocked() error {
	handle := v.handle
	v.setState(Stopping)
	serr := v.runtime.Shutdown()
	v.handle = Handle{}
	v.smu.Lock()
	v.startedAt = time.Time{}
	v.smu.Unlock()
	v.setState(Stopped)

	details := map[string]interface{}{"handle": handle.String()}
	if serr != nil {
		err := &ShutdownError{Err: serr}
		v.log.Errorf("%v", err)
		details["error"] = serr.Error()
		v.publish(api.Event{Type: api.EventStopped, Err: err})
		v.record("vault.stopped", details)
		return err
	}
	v.log.Infof("shutdown complete")
	v.publish(api.Event{Type: api.EventStopped})
	v.record("vault.stopped", details)
	return nil
}

// Status returns a snapshot for status reporting.
func (v *Vault) Status() api.Status {
	s := v.State()
	v.smu.RLock()
	defer v.smu.RUnlock()
	return api.Status{
		State:     s.String(),
		HasHandle: s != Stopped,
		StartedAt: v.startedAt,
		Installed: v.lastReport.Installed(),
		Activated: v.lastReport.Activated(),
		Failed:    len(v.lastReport.Failures()),
	}
}

// LastReport returns the provisioning report of the most recent start.
func (v *Vault) LastReport() installer.Report {
	v.smu.RLock()
	defer v.smu.RUnlock()
	return v.lastReport
}

// Live fails when the vault has been starting or stopping for longer than
// the stuck threshold.
func (v *Vault) Live() error {
	s := v.State()
	if !s.transient() {
		return nil
	}
	if d := time.Since(time.Unix(0, v.since.Load())); d > v.opts.stuckAfter {
		return fmt.Errorf("vault %s for %s", s, d.Truncate(time.Second))
	}
	return nil
}

// Ready fails unless the vault is running.
func (v *Vault) Ready() error {
	if s := v.State(); s != Running {
		return &WorkflowError{Op: "ready", State: s, Err: ErrNotRunning}
	}
	return nil
}

// RegisterCallbacks adds a listener for lifecycle events.
func (v *Vault) RegisterCallbacks(cb api.PluginCallback) {
	if cb == nil {
		return
	}
	unregister := v.events.Register(cb)
	v.cbMu.Lock()
	v.callbacks = append(v.callbacks, registered{cb: cb, unregister: unregister})
	v.cbMu.Unlock()
}

// UnregisterCallbacks removes every registration of cb. Callbacks of
// non-comparable types, such as api.CallbackFunc, can only be removed by
// closing the vault.
func (v *Vault) UnregisterCallbacks(cb api.PluginCallback) {
	v.cbMu.Lock()
	defer v.cbMu.Unlock()
	kept := v.callbacks[:0]
	for _, r := range v.callbacks {
		if sameCallback(r.cb, cb) {
			r.unregister()
			continue
		}
		kept = append(kept, r)
	}
	v.callbacks = kept
}

func sameCallback(a, b api.PluginCallback) bool {
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

// Close delivers pending events and releases the dispatcher. A running
// vault is stopped first.
func (v *Vault) Close() error {
	err := v.StopFunc()(context.Background())
	v.events.Close()
	return err
}

func (v *Vault) publish(e api.Event) {
	e.Time = time.Now()
	v.events.Publish(e)
}

func (v *Vault) record(event string, details map[string]interface{}) {
	if err := v.opts.audit.LogEvent(event, details); err != nil {
		v.log.Warnf("audit %s: %v", event, err)
	}
}

func (v *Vault) operation(ctx context.Context, op string, err error) {
	v.metrics.Operation(op, err)
	v.opts.telemetry.RecordMetric(ctx, "vault.operations", 1)
}
