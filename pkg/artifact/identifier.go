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

// Package artifact identifies and resolves the units a vault installs into its container.
package artifact

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIdentifier is returned when a coordinate is not group:name:version.
	ErrInvalidIdentifier = errors.New("invalid artifact identifier")
	// ErrNotFound is returned by resolvers that have no content for an identifier.
	ErrNotFound = errors.New("artifact not found")
)

// Identifier is an immutable group:name:version coordinate.
type Identifier struct {
	Group   string
	Name    string
	Version string
}

// ParseIdentifier parses "group:name:version".
func ParseIdentifier(s string) (Identifier, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	id := Identifier{Group: parts[0], Name: parts[1], Version: parts[2]}
	if err := id.Validate(); err != nil {
		return Identifier{}, err
	}
	return id, nil
}

// MustParse is ParseIdentifier for compiled-in coordinates; it panics on error.
func MustParse(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Validate reports whether every part of the coordinate is present.
func (id Identifier) Validate() error {
	if strings.TrimSpace(id.Group) == "" || strings.TrimSpace(id.Name) == "" || strings.TrimSpace(id.Version) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id.String())
	}
	return nil
}

// SymbolicName is group:name, the version-independent name of the unit.
func (id Identifier) SymbolicName() string {
	return id.Group + ":" + id.Name
}

func (id Identifier) String() string {
	return id.Group + ":" + id.Name + ":" + id.Version
}

// Manifest is an ordered list of identifiers.
type Manifest []Identifier

// Strings returns the coordinates of m in order.
func (m Manifest) Strings() []string {
	out := make([]string, len(m))
	for i, id := range m {
		out[i] = id.String()
	}
	return out
}

// ParseManifest parses every coordinate in order and fails on the first bad one.
func ParseManifest(coords ...string) (Manifest, error) {
	m := make(Manifest, 0, len(coords))
	for _, c := range coords {
		id, err := ParseIdentifier(c)
		if err != nil {
			return nil, err
		}
		m = append(m, id)
	}
	return m, nil
}
