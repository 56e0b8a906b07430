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
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/plugin-vault/api"
	"github.com/srediag/plugin-vault/pkg/agent"
	"github.com/srediag/plugin-vault/pkg/artifact"
	"github.com/srediag/plugin-vault/pkg/installer"
	"github.com/srediag/plugin-vault/pkg/runtime"
)

// DefaultStuckThreshold is how long a vault may stay in a transient state
// before Live reports it as wedged.
const DefaultStuckThreshold = 2 * time.Minute

type options struct {
	factory        runtime.Factory
	factorySet     bool
	client         agent.Client
	manifest       artifact.Manifest
	extraPackages  []string
	defaults       map[string]string
	propertiesFile string
	policy         ProvisioningPolicy
	listeners      []api.PluginCallback
	audit          api.Audit
	telemetry      api.Telemetry
	registerer     prometheus.Registerer
	workers        int
	logOut         io.Writer
	stuckAfter     time.Duration
}

// Option configures a Vault.
type Option func(*options)

func defaultOptions() options {
	return options{
		client:     agent.ServiceClient{},
		manifest:   artifact.Baseline(),
		policy:     Permissive(),
		audit:      api.NopAudit{},
		telemetry:  api.NopTelemetry{},
		workers:    installer.DefaultWorkers,
		logOut:     os.Stderr,
		stuckAfter: DefaultStuckThreshold,
	}
}

// WithFactory sets the factory that builds the module container. The default
// is the embedded container with the deployment agent activators.
func WithFactory(f runtime.Factory) Option {
	return func(o *options) {
		o.factory = f
		o.factorySet = true
	}
}

// WithAgentClient replaces the client Update delegates to.
func WithAgentClient(c agent.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithManifest replaces the baseline manifest.
func WithManifest(m artifact.Manifest) Option {
	return func(o *options) { o.manifest = append(artifact.Manifest(nil), m...) }
}

// WithExtraPackages appends packages to the shared host package list.
func WithExtraPackages(pkgs ...string) Option {
	return func(o *options) { o.extraPackages = append(o.extraPackages, pkgs...) }
}

// WithDefaults adds boot properties. The properties overlay still wins.
func WithDefaults(props map[string]string) Option {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = make(map[string]string, len(props))
		}
		for k, v := range props {
			o.defaults[k] = v
		}
	}
}

// WithPropertiesFile reads the overlay from path instead of
// <workDir>/META-INF/vault/kernel.properties.
func WithPropertiesFile(path string) Option {
	return func(o *options) { o.propertiesFile = path }
}

// WithProvisioningPolicy sets the policy applied to every provisioning report.
func WithProvisioningPolicy(p ProvisioningPolicy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithListener registers a callback before the first start.
func WithListener(cb api.PluginCallback) Option {
	return func(o *options) {
		if cb != nil {
			o.listeners = append(o.listeners, cb)
		}
	}
}

// WithAudit sets the audit sink.
func WithAudit(a api.Audit) Option {
	return func(o *options) {
		if a != nil {
			o.audit = a
		}
	}
}

// WithInstrumentation sets the tracer used around lifecycle operations.
func WithInstrumentation(t api.Telemetry) Option {
	return func(o *options) {
		if t != nil {
			o.telemetry = t
		}
	}
}

// WithMetrics registers the vault collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithInstallWorkers bounds parallel artifact resolution.
func WithInstallWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogOutput sets where component loggers write.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.logOut = w
		}
	}
}

// WithStuckThreshold sets how long a transition may take before Live fails.
func WithStuckThreshold(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.stuckAfter = d
		}
	}
}
