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

package container

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/srediag/plugin-vault/pkg/runtime"
)

type unit struct {
	fw       *Framework
	id       int64
	location string
	headers  *headers

	// mu serializes transitions; state is read without it.
	mu    sync.Mutex
	state atomic.Int32
}

var _ runtime.Unit = (*unit)(nil)

func (u *unit) ID() int64            { return u.id }
func (u *unit) Location() string     { return u.location }
func (u *unit) SymbolicName() string { return u.headers.symbolicName }

// Header returns a descriptor value of the unit.
func (u *unit) Header(k string) string { return u.headers.all[k] }

func (u *unit) State() runtime.UnitState {
	if u.id == runtime.SystemUnitID {
		return u.fw.State()
	}
	return runtime.UnitState(u.state.Load())
}

func (u *unit) setState(s runtime.UnitState) { u.state.Store(int32(s)) }

func (u *unit) Start() error {
	if u.id == runtime.SystemUnitID {
		return u.fw.Start()
	}
	if u.fw.State() != runtime.UnitActive {
		return ErrNotActive
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	switch u.State() {
	case runtime.UnitActive:
		return nil
	case runtime.UnitUninstalled:
		return ErrUnitUninstalled
	}

	for _, req := range u.headers.requires {
		if _, ok := u.fw.bySymbolicName(req); !ok {
			return fmt.Errorf("%w: %s requires %s", ErrUnresolved, u.headers.symbolicName, req)
		}
	}
	u.setState(runtime.UnitStarting)
	if a, ok := u.fw.activators[u.headers.activator]; ok && a != nil {
		if err := a.Start(u.context()); err != nil {
			u.fw.unregisterAll(u.id)
			u.setState(runtime.UnitResolved)
			return fmt.Errorf("activator %s: %w", u.headers.activator, err)
		}
	}
	u.setState(runtime.UnitActive)
	u.fw.log.Debugf("unit %d %s active", u.id, u.headers.symbolicName)
	return nil
}

func (u *unit) Stop() error {
	if u.id == runtime.SystemUnitID {
		return u.fw.Stop()
	}
	return u.stop()
}

func (u *unit) stop() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.State() != runtime.UnitActive {
		return nil
	}
	u.setState(runtime.UnitStopping)
	var err error
	if a, ok := u.fw.activators[u.headers.activator]; ok && a != nil {
		err = a.Stop(u.context())
	}
	u.fw.unregisterAll(u.id)
	u.setState(runtime.UnitResolved)
	return err
}

func (u *unit) context() *UnitContext {
	return &UnitContext{unit: u}
}

// UnitContext is what an Activator sees of the container.
type UnitContext struct {
	unit *unit
}

// Unit returns the unit being started or stopped.
func (c *UnitContext) Unit() runtime.Unit { return c.unit }

// Header returns a descriptor value of the unit.
func (c *UnitContext) Header(k string) string { return c.unit.Header(k) }

// Property returns a framework configuration property.
func (c *UnitContext) Property(k string) string { return c.unit.fw.Property(k) }

// StorageDir returns the framework storage area.
func (c *UnitContext) StorageDir() string { return c.unit.fw.StorageDir() }

// DataDir returns, creating it if needed, the private data directory of the unit.
func (c *UnitContext) DataDir() (string, error) {
	dir := c.unit.fw.unitDataDir(c.unit.id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// RegisterService publishes svc under name until the unit stops.
func (c *UnitContext) RegisterService(name string, svc any) {
	c.unit.fw.services.Set(name, registration{owner: c.unit.id, service: svc})
}

// Service looks up a service registered by any active unit.
func (c *UnitContext) Service(name string) (any, bool) {
	return c.unit.fw.Service(name)
}

func (f *Framework) unregisterAll(owner int64) {
	for k, r := range f.services.Items() {
		if r.owner == owner {
			f.services.Remove(k)
		}
	}
}
