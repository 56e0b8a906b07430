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

package artifact

// Symbolic names of baseline units other packages attach behaviour to.
const (
	DependencyManager = "io.srediag.vault:dependency-manager"
	DeploymentAdmin   = "io.srediag.vault:deployment-admin"
	EventAdmin        = "io.srediag.vault:event-admin"
	ConfigAdmin       = "io.srediag.vault:config-admin"
	LoggingAPI        = "io.srediag.vault:logging-api"
	Scheduler         = "io.srediag.vault.agent:scheduler"
	GatewayLog        = "io.srediag.vault.agent:gateway-log"
)

// BaselineVersion is the contract version of the baseline manifest.
const BaselineVersion = "1"

var baselineCoords = []string{
	DependencyManager + ":3.0.0",
	DeploymentAdmin + ":0.9.0",
	"io.srediag.vault:compendium:4.2.0",
	LoggingAPI + ":1.5.1",
	EventAdmin + ":1.2.2",
	"io.srediag.vault:servlet-api:2.4.0",
	ConfigAdmin + ":1.2.4",

	"io.srediag.vault.agent:deployment-api:0.8.0",
	"io.srediag.vault.agent:range-api:0.8.0",
	"io.srediag.vault.agent:discovery-api:0.8.0",
	"io.srediag.vault.agent:identification-api:0.8.0",

	"io.srediag.vault.agent:deployment-deploymentadmin:0.8.0",
	"io.srediag.vault.agent:deployment-task:0.8.0",

	"io.srediag.vault.agent:console-logger:0.8.0",
	"io.srediag.vault.agent:discovery-property:0.8.0",
	"io.srediag.vault.agent:identification-property:0.8.0",
	Scheduler + ":0.8.0",

	"io.srediag.vault.agent:log:0.8.0",
	"io.srediag.vault.agent:log-listener:0.8.0",
	GatewayLog + ":0.8.0",
	"io.srediag.vault.agent:gateway-log-store:0.8.0",
}

// Baseline returns the ordered set of units the management agent needs:
// storage, deployment, event, configuration, logging, scheduling and
// log transport services. Each call returns a fresh copy.
func Baseline() Manifest {
	m := make(Manifest, len(baselineCoords))
	for i, c := range baselineCoords {
		m[i] = MustParse(c)
	}
	return m
}
