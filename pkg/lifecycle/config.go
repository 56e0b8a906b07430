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

package lifecycle

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magiconair/properties"

	"github.com/srediag/plugin-vault/pkg/runtime"
)

const (
	// PropertiesResource is the overlay read from the work directory on
	// every start. Its keys override the computed boot properties.
	PropertiesResource = "META-INF/vault/kernel.properties"
	// StorageDirName is the runtime storage area under the work directory.
	StorageDirName = "framework"
)

// HostPackages are shared between the host and the container.
var HostPackages = []string{
	"github.com/srediag/plugin-vault/api",
	"github.com/srediag/plugin-vault/pkg/artifact",
	"github.com/srediag/plugin-vault/pkg/agent",
}

// runtimeConfig computes the boot properties: compiled-in defaults, then
// WithDefaults, then the properties overlay. Later layers win.
func (v *Vault) runtimeConfig() (map[string]string, error) {
	packages := append(append([]string(nil), HostPackages...), v.opts.extraPackages...)
	props := map[string]string{
		runtime.PropStorage:             filepath.Join(v.workDir, StorageDirName),
		runtime.PropSystemPackagesExtra: strings.Join(packages, ","),
	}
	for k, val := range v.opts.defaults {
		props[k] = val
	}

	overlay, err := loadOverlay(v.propertiesPath())
	if err != nil {
		return nil, err
	}
	for k, val := range overlay {
		props[k] = val
	}
	return props, nil
}

func (v *Vault) propertiesPath() string {
	if v.opts.propertiesFile != "" {
		return v.opts.propertiesFile
	}
	return filepath.Join(v.workDir, filepath.FromSlash(PropertiesResource))
}

// loadOverlay reads a properties file. A missing file yields no overlay.
// Values are kept verbatim, ${...} included.
func loadOverlay(path string) (map[string]string, error) {
	l := &properties.Loader{Encoding: properties.UTF8, IgnoreMissing: true, DisableExpansion: true}
	p, err := l.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p.Map(), nil
}
