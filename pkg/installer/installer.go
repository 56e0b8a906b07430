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

// Package installer provisions a running container with a manifest of artifacts.
//
// Provisioning is two-phase: every artifact is resolved and installed first,
// then every unit the container holds is activated, so that dependencies
// between units are satisfied at activation time whatever the install order.
// A failure never aborts the batch; it is recorded in the returned Report.
package installer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/srediag/plugin-vault/internal/logger"
	"github.com/srediag/plugin-vault/pkg/artifact"
	"github.com/srediag/plugin-vault/pkg/runtime"
)

// DefaultWorkers bounds concurrent resolutions.
const DefaultWorkers = 4

// Installer resolves, installs and activates artifacts.
type Installer struct {
	resolver artifact.Resolver
	workers  int
	log      *logger.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithWorkers sets how many artifacts are resolved at once. One or less
// resolves sequentially.
func WithWorkers(n int) Option {
	return func(i *Installer) {
		i.workers = n
	}
}

// WithLogOutput sets the log destination.
func WithLogOutput(w io.Writer) Option {
	return func(i *Installer) {
		i.log = logger.New("installer", w)
	}
}

// New returns an installer resolving through resolver.
func New(resolver artifact.Resolver, opts ...Option) *Installer {
	i := &Installer{
		resolver: resolver,
		workers:  DefaultWorkers,
		log:      logger.New("installer", nil),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type resolved struct {
	content []byte
	err     error
}

// InstallBaseline installs manifest into fc and activates every unit fc
// holds. It always returns one outcome per manifest entry, in order.
func (i *Installer) InstallBaseline(ctx context.Context, fc runtime.Context, manifest artifact.Manifest) Report {
	report := Report{Outcomes: make([]Outcome, len(manifest))}
	for idx, id := range manifest {
		report.Outcomes[idx].Identifier = id
	}

	contents := i.resolveAll(ctx, manifest)

	byUnit := make(map[int64][]int, len(manifest))
	for idx, id := range manifest {
		o := &report.Outcomes[idx]
		if err := contents[idx].err; err != nil {
			o.Phase, o.Err = PhaseResolve, err
			i.log.Warnf("not resolved: %s - %v", id, err)
			continue
		}
		u, err := fc.Install(id.String(), contents[idx].content)
		if err != nil {
			o.Phase, o.Err = PhaseInstall, err
			i.log.Warnf("not installed: %s - %v", id, err)
			continue
		}
		o.Installed = true
		o.UnitID = u.ID()
		byUnit[u.ID()] = append(byUnit[u.ID()], idx)
	}

	for _, u := range fc.Units() {
		if u.ID() == runtime.SystemUnitID {
			continue
		}
		err := u.Start()
		if err != nil {
			i.log.Warnf("not started: %s - %v", u.SymbolicName(), err)
		} else {
			i.log.Infof("installed: %s --> %s", u.SymbolicName(), u.State())
		}
		indices, ours := byUnit[u.ID()]
		if !ours {
			report.Foreign = append(report.Foreign, UnitResult{
				UnitID:       u.ID(),
				SymbolicName: u.SymbolicName(),
				Location:     u.Location(),
				Err:          err,
			})
			continue
		}
		for _, idx := range indices {
			o := &report.Outcomes[idx]
			if err != nil {
				o.Phase, o.Err = PhaseActivate, err
			} else {
				o.Activated = true
			}
		}
	}
	return report
}

// resolveAll resolves every identifier and returns results by manifest index.
func (i *Installer) resolveAll(ctx context.Context, manifest artifact.Manifest) []resolved {
	out := make([]resolved, len(manifest))
	resolveOne := func(idx int) {
		defer func() {
			if p := recover(); p != nil {
				out[idx].err = fmt.Errorf("resolver panic: %v", p)
			}
		}()
		out[idx].content, out[idx].err = i.resolver.Resolve(ctx, manifest[idx])
	}

	if i.workers <= 1 || len(manifest) <= 1 {
		for idx := range manifest {
			resolveOne(idx)
		}
		return out
	}

	pool, err := ants.NewPool(i.workers)
	if err != nil {
		i.log.Warnf("resolver pool unavailable, resolving sequentially: %v", err)
		for idx := range manifest {
			resolveOne(idx)
		}
		return out
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for idx := range manifest {
		idx := idx
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			resolveOne(idx)
		}); err != nil {
			wg.Done()
			resolveOne(idx)
		}
	}
	wg.Wait()
	return out
}
