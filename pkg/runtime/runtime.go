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

// Package runtime wraps the boot, init, start and stop sequence of an embedded module container.
package runtime

import (
	"errors"
	"fmt"
	"io"
	goruntime "runtime"
	"strconv"
	"sync"

	"github.com/srediag/plugin-vault/internal/logger"
	"github.com/srediag/plugin-vault/internal/storage"
)

var (
	ErrNoFactory     = errors.New("no framework factory available")
	ErrBootFailed    = errors.New("framework boot failed")
	ErrNotBooted     = errors.New("framework is not booted")
	ErrAlreadyBooted = errors.New("framework is already booted")
)

// Runtime owns the single live framework reference.
type Runtime struct {
	factory Factory
	log     *logger.Logger

	mu sync.Mutex
	fw Framework
}

// New returns a runtime that builds its framework with factory.
func New(factory Factory, logOut io.Writer) *Runtime {
	return &Runtime{
		factory: factory,
		log:     logger.New("runtime", logOut),
	}
}

// Boot constructs, initializes and starts the framework. No unit other than
// the system unit is activated. On failure the partially built framework is
// kept so Shutdown can release it.
func (r *Runtime) Boot(props map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fw != nil {
		return ErrAlreadyBooted
	}
	if r.factory == nil {
		return fmt.Errorf("%w: %w", ErrBootFailed, ErrNoFactory)
	}

	dir := props[PropStorage]
	var minFree uint64
	if v := props[PropStorageMinFree]; v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrBootFailed, PropStorageMinFree, v, err)
		}
		minFree = n
	}
	if err := storage.Prepare(dir, minFree); err != nil {
		return fmt.Errorf("%w: %w", ErrBootFailed, err)
	}

	cp := make(map[string]string, len(props))
	for k, v := range props {
		cp[k] = v
	}

	if err := isolated(func() error { return r.boot(cp) }); err != nil {
		return fmt.Errorf("%w: %w", ErrBootFailed, err)
	}
	r.log.Infof("framework started, storage %s", dir)
	return nil
}

func (r *Runtime) boot(props map[string]string) error {
	fw, err := r.factory.NewFramework(props)
	if err != nil {
		return err
	}
	if fw == nil {
		return ErrNoFactory
	}
	r.fw = fw
	if err := fw.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := fw.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

// isolated runs fn on its own locked OS thread so nothing thread-bound in the
// host leaks into the container during boot.
func isolated(fn func() error) (err error) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		goruntime.LockOSThread()
		defer goruntime.UnlockOSThread()
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic during boot: %v", p)
			}
		}()
		err = fn()
	}()
	<-done
	return err
}

// Context returns the installation context of the live framework.
func (r *Runtime) Context() (Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fw == nil {
		return nil, ErrNotBooted
	}
	ctx := r.fw.Context()
	if ctx == nil {
		return nil, ErrNotBooted
	}
	return ctx, nil
}

// Framework returns the live framework.
func (r *Runtime) Framework() (Framework, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fw == nil {
		return nil, ErrNotBooted
	}
	return r.fw, nil
}

// Running reports whether a framework reference is held.
func (r *Runtime) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fw != nil
}

// Shutdown stops the system unit and drops the framework reference. It is a
// no-op when nothing is booted. The reference is dropped even on error.
func (r *Runtime) Shutdown() error {
	r.mu.Lock()
	fw := r.fw
	r.fw = nil
	r.mu.Unlock()

	if fw == nil {
		return nil
	}

	var err error
	if ctx := fw.Context(); ctx != nil {
		if system, ok := ctx.Unit(SystemUnitID); ok {
			err = system.Stop()
		} else {
			err = fw.Stop()
		}
	} else {
		err = fw.Stop()
	}
	if err != nil {
		r.log.Warnf("framework stop failed: %v", err)
		return fmt.Errorf("stop framework: %w", err)
	}
	r.log.Infof("framework stopped")
	return nil
}
