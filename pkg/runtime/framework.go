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

package runtime

// Configuration keys understood by Boot. Anything else is passed to the
// factory untouched.
const (
	PropStorage             = "framework.storage"
	PropStorageClean        = "framework.storage.clean"
	PropStorageMinFree      = "framework.storage.minfree"
	PropSystemPackagesExtra = "framework.system.packages.extra"

	StorageCleanOnFirstInit = "onFirstInit"
)

// SystemUnitID identifies the root unit; stopping it stops the container.
const SystemUnitID int64 = 0

// UnitState is the lifecycle state of a unit inside the container.
type UnitState int

const (
	UnitInstalled UnitState = iota
	UnitResolved
	UnitStarting
	UnitActive
	UnitStopping
	UnitUninstalled
)

func (s UnitState) String() string {
	switch s {
	case UnitInstalled:
		return "installed"
	case UnitResolved:
		return "resolved"
	case UnitStarting:
		return "starting"
	case UnitActive:
		return "active"
	case UnitStopping:
		return "stopping"
	case UnitUninstalled:
		return "uninstalled"
	default:
		return "unknown"
	}
}

// Factory builds a framework from its configuration properties.
type Factory interface {
	NewFramework(props map[string]string) (Framework, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(props map[string]string) (Framework, error)

func (f FactoryFunc) NewFramework(props map[string]string) (Framework, error) {
	return f(props)
}

// Framework is an embedded module container.
type Framework interface {
	// Init prepares the container without starting any unit.
	Init() error
	// Start starts the system unit only.
	Start() error
	// Context is the installation context; valid after construction.
	Context() Context
	// Stop stops the system unit and, with it, every other unit.
	Stop() error
}

// Context installs units and exposes what the container currently holds.
type Context interface {
	Install(location string, content []byte) (Unit, error)
	// Units returns every installed unit, the system unit included, ordered by ID.
	Units() []Unit
	Unit(id int64) (Unit, bool)
	// Service returns a service registered by an active unit.
	Service(name string) (any, bool)
}

// Unit is one installed unit of code.
type Unit interface {
	ID() int64
	Location() string
	SymbolicName() string
	State() UnitState
	Start() error
	Stop() error
}
