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

// Package agent bridges vault configuration updates to the management agent
// running inside the container.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/srediag/plugin-vault/pkg/runtime"
)

// ServiceName is the name the management agent registers itself under.
const ServiceName = "io.srediag.vault.agent.deployment"

var (
	// ErrAgentUnavailable means no management agent is registered in the container.
	ErrAgentUnavailable = errors.New("management agent unavailable")
	// ErrRejected means the agent refused the configuration.
	ErrRejected = errors.New("configuration rejected")
)

// Configuration is an opaque desired-state payload. The vault passes it
// through untouched; only the agent gives it meaning.
type Configuration struct {
	Name     string
	Version  string
	Content  []byte
	Metadata map[string]string
}

// Agent applies configurations inside the container.
type Agent interface {
	Deploy(ctx context.Context, cfg Configuration) error
}

// Client submits a configuration to whatever agent fc hosts. A nil error
// means the configuration was accepted for processing.
type Client interface {
	Apply(ctx context.Context, fc runtime.Context, cfg Configuration) error
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, fc runtime.Context, cfg Configuration) error

func (f ClientFunc) Apply(ctx context.Context, fc runtime.Context, cfg Configuration) error {
	return f(ctx, fc, cfg)
}

// ServiceClient finds the agent in the container's service registry.
type ServiceClient struct{}

func (ServiceClient) Apply(ctx context.Context, fc runtime.Context, cfg Configuration) error {
	if fc == nil {
		return ErrAgentUnavailable
	}
	svc, ok := fc.Service(ServiceName)
	if !ok {
		return ErrAgentUnavailable
	}
	a, ok := svc.(Agent)
	if !ok {
		return fmt.Errorf("%w: service %s is %T", ErrAgentUnavailable, ServiceName, svc)
	}
	return a.Deploy(ctx, cfg)
}
