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

// Package container is the in-process module framework a vault embeds.
//
// Units are installed from a properties descriptor, resolved against the
// symbolic names of other installed units when they are started, and run an
// optional Activator that may register services for other units to find.
package container

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/plugin-vault/internal/logger"
	"github.com/srediag/plugin-vault/internal/storage"
	"github.com/srediag/plugin-vault/pkg/runtime"
)

var (
	ErrInvalidUnit     = errors.New("invalid unit")
	ErrUnresolved      = errors.New("unit requirements not satisfied")
	ErrNotActive       = errors.New("framework is not active")
	ErrNoStorage       = errors.New("framework storage not configured")
	ErrUnitUninstalled = errors.New("unit is uninstalled")
)

const (
	SystemSymbolicName = "io.srediag.vault:system"
	systemLocation     = "System Unit"
)

// Activator is the start/stop hook of a unit, looked up by the unit's
// activator header (its symbolic name by default).
type Activator interface {
	Start(ctx *UnitContext) error
	Stop(ctx *UnitContext) error
}

// Factory builds Frameworks. It satisfies runtime.Factory.
type Factory struct {
	// Activators maps activator names to hooks. Units without a
	// matching entry start and stop without running code.
	Activators map[string]Activator
	LogOut     io.Writer
}

// NewFramework implements runtime.Factory.
func (f Factory) NewFramework(props map[string]string) (runtime.Framework, error) {
	return New(props, f.Activators, f.LogOut), nil
}

// Framework is the embedded container. It is its own installation context.
type Framework struct {
	props      map[string]string
	activators map[string]Activator
	log        *logger.Logger

	mu          sync.Mutex
	state       atomic.Int32
	initialized bool

	nextID   atomic.Int64
	units    cmap.ConcurrentMap[string, *unit]
	services cmap.ConcurrentMap[string, registration]
	system   *unit
}

type registration struct {
	owner   int64
	service any
}

var (
	_ runtime.Framework = (*Framework)(nil)
	_ runtime.Context   = (*Framework)(nil)
)

// New returns a framework in the installed state.
func New(props map[string]string, activators map[string]Activator, logOut io.Writer) *Framework {
	f := &Framework{
		props:      props,
		activators: activators,
		log:        logger.New("container", logOut),
		units:      cmap.New[*unit](),
		services:   cmap.New[registration](),
	}
	f.state.Store(int32(runtime.UnitInstalled))
	f.system = &unit{
		fw:       f,
		id:       runtime.SystemUnitID,
		location: systemLocation,
		headers:  &headers{symbolicName: SystemSymbolicName, all: map[string]string{}},
	}
	f.units.Set(key(runtime.SystemUnitID), f.system)
	f.nextID.Store(runtime.SystemUnitID)
	return f
}

func key(id int64) string { return strconv.FormatInt(id, 10) }

// Property returns a configuration property of the framework.
func (f *Framework) Property(k string) string { return f.props[k] }

// StorageDir is the private storage area of the framework.
func (f *Framework) StorageDir() string { return f.props[runtime.PropStorage] }

// State returns the state of the system unit.
func (f *Framework) State() runtime.UnitState { return runtime.UnitState(f.state.Load()) }

func (f *Framework) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initLocked()
}

func (f *Framework) initLocked() error {
	if f.initialized {
		return nil
	}
	dir := f.StorageDir()
	if dir == "" {
		return ErrNoStorage
	}
	if f.props[runtime.PropStorageClean] == runtime.StorageCleanOnFirstInit {
		if err := storage.Clean(dir); err != nil {
			return fmt.Errorf("clean storage: %w", err)
		}
	}
	f.initialized = true
	f.state.Store(int32(runtime.UnitResolved))
	f.log.Debugf("framework initialized, storage %s", dir)
	return nil
}

func (f *Framework) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.initLocked(); err != nil {
		return err
	}
	f.state.Store(int32(runtime.UnitActive))
	return nil
}

// Stop stops every active unit in reverse install order and leaves the
// framework resolved. Errors from individual units are collected.
func (f *Framework) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.State() != runtime.UnitActive {
		return nil
	}
	f.state.Store(int32(runtime.UnitStopping))

	var result *multierror.Error
	units := f.Units()
	for i := len(units) - 1; i >= 0; i-- {
		u := units[i].(*unit)
		if u.id == runtime.SystemUnitID {
			continue
		}
		if err := u.stop(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", u.SymbolicName(), err))
		}
	}
	for _, k := range f.services.Keys() {
		f.services.Remove(k)
	}
	f.state.Store(int32(runtime.UnitResolved))
	f.log.Debugf("framework stopped")
	return result.ErrorOrNil()
}

func (f *Framework) Context() runtime.Context { return f }

// Install adds a unit. Installing an already used location returns the
// existing unit.
func (f *Framework) Install(location string, content []byte) (runtime.Unit, error) {
	switch f.State() {
	case runtime.UnitResolved, runtime.UnitStarting, runtime.UnitActive:
	default:
		return nil, ErrNotActive
	}
	for _, u := range f.Units() {
		if u.Location() == location {
			return u, nil
		}
	}
	h, err := parseHeaders(location, content)
	if err != nil {
		return nil, err
	}
	u := &unit{
		fw:       f,
		id:       f.nextID.Add(1),
		location: location,
		headers:  h,
	}
	f.units.Set(key(u.id), u)
	f.log.Tracef("installed %s as unit %d", h.symbolicName, u.id)
	return u, nil
}

func (f *Framework) Units() []runtime.Unit {
	items := f.units.Items()
	out := make([]runtime.Unit, 0, len(items))
	for _, u := range items {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (f *Framework) Unit(id int64) (runtime.Unit, bool) {
	u, ok := f.units.Get(key(id))
	if !ok {
		return nil, false
	}
	return u, true
}

func (f *Framework) Service(name string) (any, bool) {
	r, ok := f.services.Get(name)
	if !ok {
		return nil, false
	}
	return r.service, true
}

func (f *Framework) bySymbolicName(name string) (*unit, bool) {
	for _, u := range f.units.Items() {
		if u.headers.symbolicName == name && u.State() != runtime.UnitUninstalled {
			return u, true
		}
	}
	return nil, false
}

func (f *Framework) unitDataDir(id int64) string {
	return filepath.Join(f.StorageDir(), "unit"+key(id), "data")
}
