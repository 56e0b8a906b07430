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
	"time"

	"github.com/google/uuid"

	"github.com/srediag/plugin-vault/pkg/agent"
	"github.com/srediag/plugin-vault/pkg/installer"
)

// Configuration is an opaque update passed verbatim to the agent client.
type Configuration = agent.Configuration

// Handle identifies one started vault. The zero Handle is absent and never
// matches a running vault.
type Handle struct {
	id uuid.UUID
}

func newHandle() Handle {
	return Handle{id: uuid.New()}
}

// IsZero reports whether h is the absent handle.
func (h Handle) IsZero() bool { return h.id == uuid.Nil }

func (h Handle) String() string {
	if h.IsZero() {
		return "<none>"
	}
	return h.id.String()
}

// ConfigurationSource describes a successful start. Its Handle authorizes Stop.
type ConfigurationSource struct {
	Handle Handle
	// Report is the provisioning result of the baseline manifest.
	Report installer.Report
	// Properties are the boot properties handed to the runtime.
	Properties map[string]string
	StartedAt  time.Time
}
