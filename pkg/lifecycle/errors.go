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
	"errors"
	"fmt"

	"github.com/srediag/plugin-vault/pkg/installer"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyRunning  = errors.New("vault is already running")
	ErrNotRunning      = errors.New("vault is not running")
	ErrInvalidHandle   = errors.New("handle does not belong to the running vault")
)

// WorkflowError reports an operation called in the wrong state or with the
// wrong handle. The runtime was not touched.
type WorkflowError struct {
	Op    string
	State State
	Err   error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %v (state %s)", e.Op, e.Err, e.State)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// FatalBootError reports a start that failed to configure or boot the
// runtime. The vault is stopped again.
type FatalBootError struct {
	Err error
}

func (e *FatalBootError) Error() string {
	return fmt.Sprintf("vault boot failed: %v", e.Err)
}

func (e *FatalBootError) Unwrap() error { return e.Err }

// ProvisioningError reports a start rejected by the provisioning policy.
type ProvisioningError struct {
	Report installer.Report
	Err    error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("vault provisioning rejected: %v", e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// AgentError wraps a failure of the agent client during Update.
type AgentError struct {
	Err error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("vault update failed: %v", e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// ShutdownError wraps a runtime shutdown failure. The vault is stopped
// regardless.
type ShutdownError struct {
	Err error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("vault shutdown failed: %v", e.Err)
}

func (e *ShutdownError) Unwrap() error { return e.Err }
