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

package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/srediag/plugin-vault/internal/logger"
)

// PackageExt is the file suffix of stored deployment packages.
const PackageExt = ".dp"

// Package is a deployment package the agent has accepted.
type Package struct {
	Name       string
	Version    string
	Path       string
	Metadata   map[string]string
	DeployedAt time.Time
}

// DeploymentAgent stores each accepted configuration as a deployment package
// under its directory. A package replaces any earlier one of the same name.
type DeploymentAgent struct {
	dir string
	log *logger.Logger

	mu       sync.Mutex
	packages map[string]Package
}

// NewDeploymentAgent returns an agent persisting packages into dir.
func NewDeploymentAgent(dir string, logOut io.Writer) *DeploymentAgent {
	return &DeploymentAgent{
		dir:      dir,
		log:      logger.New("deployment-agent", logOut),
		packages: make(map[string]Package),
	}
}

func validName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// Deploy writes the package atomically: a reader never observes a partially
// written package file.
func (a *DeploymentAgent) Deploy(ctx context.Context, cfg Configuration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validName(cfg.Name) || !validName(cfg.Version) {
		return fmt.Errorf("%w: name %q version %q", ErrRejected, cfg.Name, cfg.Version)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("deployment dir: %w", err)
	}
	path := filepath.Join(a.dir, cfg.Name+"-"+cfg.Version+PackageExt)
	tmp, err := os.CreateTemp(a.dir, "."+cfg.Name+"-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", cfg.Name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(cfg.Content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", cfg.Name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", cfg.Name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit %s: %w", cfg.Name, err)
	}

	if prev, ok := a.packages[cfg.Name]; ok && prev.Path != path {
		if err := os.Remove(prev.Path); err != nil && !os.IsNotExist(err) {
			a.log.Warnf("remove superseded package %s: %v", prev.Path, err)
		}
	}
	meta := make(map[string]string, len(cfg.Metadata))
	for k, v := range cfg.Metadata {
		meta[k] = v
	}
	a.packages[cfg.Name] = Package{
		Name:       cfg.Name,
		Version:    cfg.Version,
		Path:       path,
		Metadata:   meta,
		DeployedAt: time.Now(),
	}
	a.log.Infof("deployed %s %s (%d bytes)", cfg.Name, cfg.Version, len(cfg.Content))
	return nil
}

// Packages returns the accepted packages sorted by name.
func (a *DeploymentAgent) Packages() []Package {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Package, 0, len(a.packages))
	for _, p := range a.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
