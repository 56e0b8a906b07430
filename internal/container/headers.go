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
	"strings"

	"github.com/magiconair/properties"
)

// Unit descriptor keys. A unit's content is a properties document; keys other
// than these are kept as free-form headers.
const (
	HeaderSymbolicName = "unit.symbolicName"
	HeaderVersion      = "unit.version"
	HeaderActivator    = "unit.activator"
	HeaderRequires     = "unit.requires"
)

type headers struct {
	symbolicName string
	version      string
	activator    string
	requires     []string
	all          map[string]string
}

// parseHeaders reads the descriptor of a unit. Missing names are derived from
// the install location, which is a group:name:version coordinate.
func parseHeaders(location string, content []byte) (*headers, error) {
	p, err := properties.Load(content, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidUnit, location, err)
	}
	h := &headers{all: p.Map()}
	h.symbolicName = p.GetString(HeaderSymbolicName, "")
	h.version = p.GetString(HeaderVersion, "")
	if h.symbolicName == "" || h.version == "" {
		parts := strings.Split(location, ":")
		if len(parts) == 3 {
			if h.symbolicName == "" {
				h.symbolicName = parts[0] + ":" + parts[1]
			}
			if h.version == "" {
				h.version = parts[2]
			}
		}
	}
	if h.symbolicName == "" {
		h.symbolicName = location
	}
	h.activator = p.GetString(HeaderActivator, h.symbolicName)
	for _, r := range strings.Split(p.GetString(HeaderRequires, ""), ",") {
		if r = strings.TrimSpace(r); r != "" {
			h.requires = append(h.requires, r)
		}
	}
	return h, nil
}
