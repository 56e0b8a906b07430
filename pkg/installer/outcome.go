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

package installer

import (
	"fmt"
	"strings"

	"github.com/srediag/plugin-vault/pkg/artifact"
)

// Phase names the provisioning step an outcome failed in.
type Phase string

const (
	PhaseNone     Phase = ""
	PhaseResolve  Phase = "resolve"
	PhaseInstall  Phase = "install"
	PhaseActivate Phase = "activate"
)

// Outcome is the provisioning record of one manifest entry.
type Outcome struct {
	Identifier artifact.Identifier
	Installed  bool
	Activated  bool
	// UnitID is set once the artifact is installed.
	UnitID int64
	// Phase and Err describe the first failure, if any.
	Phase Phase
	Err   error
}

// Failed reports whether any step failed.
func (o Outcome) Failed() bool { return o.Err != nil }

func (o Outcome) String() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("%s: %s failed: %v", o.Identifier, o.Phase, o.Err)
	case o.Activated:
		return fmt.Sprintf("%s: installed, activated", o.Identifier)
	case o.Installed:
		return fmt.Sprintf("%s: installed", o.Identifier)
	default:
		return fmt.Sprintf("%s: pending", o.Identifier)
	}
}

// UnitResult is the activation result of a unit that was already in the
// container and is not part of the manifest.
type UnitResult struct {
	UnitID       int64
	SymbolicName string
	Location     string
	Err          error
}

// Report is the result of one provisioning pass. Outcomes follow manifest order.
type Report struct {
	Outcomes []Outcome
	Foreign  []UnitResult
}

// Installed counts manifest entries that were installed.
func (r Report) Installed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Installed {
			n++
		}
	}
	return n
}

// Activated counts manifest entries that were activated.
func (r Report) Activated() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Activated {
			n++
		}
	}
	return n
}

// Failures returns the failed manifest entries in order.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// OK reports whether every manifest entry and every foreign unit activated.
func (r Report) OK() bool {
	for _, u := range r.Foreign {
		if u.Err != nil {
			return false
		}
	}
	return len(r.Failures()) == 0
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d installed, %d/%d activated", r.Installed(), len(r.Outcomes), r.Activated(), len(r.Outcomes))
	for _, f := range r.Failures() {
		b.WriteString("; ")
		b.WriteString(f.String())
	}
	return b.String()
}
