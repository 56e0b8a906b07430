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
	"io"
	"path/filepath"

	"github.com/srediag/plugin-vault/internal/container"
	"github.com/srediag/plugin-vault/pkg/artifact"
)

// DeploymentsDir is where the agent keeps packages, relative to framework storage.
const DeploymentsDir = "deployments"

type deploymentAdminActivator struct {
	logOut io.Writer
}

func (a *deploymentAdminActivator) Start(ctx *container.UnitContext) error {
	dir := filepath.Join(ctx.StorageDir(), DeploymentsDir)
	ctx.RegisterService(ServiceName, NewDeploymentAgent(dir, a.logOut))
	return nil
}

func (a *deploymentAdminActivator) Stop(*container.UnitContext) error {
	return nil
}

// Activators returns the container hooks of the baseline units that bring
// up the management agent.
func Activators(logOut io.Writer) map[string]container.Activator {
	return map[string]container.Activator{
		artifact.DeploymentAdmin: &deploymentAdminActivator{logOut: logOut},
	}
}
