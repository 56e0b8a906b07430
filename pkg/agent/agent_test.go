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
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/plugin-vault/internal/container"
	"github.com/srediag/plugin-vault/pkg/artifact"
	"github.com/srediag/plugin-vault/pkg/runtime"
)

type AgentTestSuite struct {
	suite.Suite
	storage string
	fw      *container.Framework
}

func (s *AgentTestSuite) SetupTest() {
	s.storage = s.T().TempDir()
	s.fw = container.New(map[string]string{runtime.PropStorage: s.storage}, Activators(io.Discard), io.Discard)
	s.Require().NoError(s.fw.Init())
	s.Require().NoError(s.fw.Start())
}

func (s *AgentTestSuite) startAgentUnit() runtime.Unit {
	u, err := s.fw.Install(artifact.DeploymentAdmin+":0.9.0", nil)
	s.Require().NoError(err)
	s.Require().NoError(u.Start())
	return u
}

func (s *AgentTestSuite) TestApplyWithoutAgent() {
	err := ServiceClient{}.Apply(context.Background(), s.fw, Configuration{Name: "a", Version: "1"})
	s.ErrorIs(err, ErrAgentUnavailable)

	err = ServiceClient{}.Apply(context.Background(), nil, Configuration{})
	s.ErrorIs(err, ErrAgentUnavailable)
}

func (s *AgentTestSuite) TestApplyWithWrongServiceType() {
	act := map[string]container.Activator{"g:impostor": impostor{}}
	fw := container.New(map[string]string{runtime.PropStorage: s.T().TempDir()}, act, io.Discard)
	s.Require().NoError(fw.Start())
	u, err := fw.Install("g:impostor:1", nil)
	s.Require().NoError(err)
	s.Require().NoError(u.Start())

	err = ServiceClient{}.Apply(context.Background(), fw, Configuration{Name: "a", Version: "1"})
	s.ErrorIs(err, ErrAgentUnavailable)
}

func (s *AgentTestSuite) TestApplyDeploysPackage() {
	s.startAgentUnit()
	cfg := Configuration{
		Name:     "webapp",
		Version:  "1.0.0",
		Content:  []byte("payload"),
		Metadata: map[string]string{"owner": "ops"},
	}
	s.Require().NoError(ServiceClient{}.Apply(context.Background(), s.fw, cfg))

	path := filepath.Join(s.storage, DeploymentsDir, "webapp-1.0.0"+PackageExt)
	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Equal("payload", string(data))

	svc, ok := s.fw.Service(ServiceName)
	s.Require().True(ok)
	pkgs := svc.(*DeploymentAgent).Packages()
	s.Require().Len(pkgs, 1)
	s.Equal("ops", pkgs[0].Metadata["owner"])
}

func (s *AgentTestSuite) TestUpgradeReplacesPreviousVersion() {
	s.startAgentUnit()
	client := ServiceClient{}
	s.Require().NoError(client.Apply(context.Background(), s.fw, Configuration{Name: "app", Version: "1", Content: []byte("v1")}))
	s.Require().NoError(client.Apply(context.Background(), s.fw, Configuration{Name: "app", Version: "2", Content: []byte("v2")}))

	dir := filepath.Join(s.storage, DeploymentsDir)
	entries, err := os.ReadDir(dir)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("app-2"+PackageExt, entries[0].Name())
}

func (s *AgentTestSuite) TestRejectsInvalidConfiguration() {
	s.startAgentUnit()
	for _, cfg := range []Configuration{
		{},
		{Name: "a"},
		{Name: "../escape", Version: "1"},
		{Name: "a", Version: ".."},
	} {
		err := ServiceClient{}.Apply(context.Background(), s.fw, cfg)
		s.ErrorIs(err, ErrRejected, "%+v", cfg)
	}
}

func (s *AgentTestSuite) TestAgentGoneAfterUnitStops() {
	u := s.startAgentUnit()
	s.Require().NoError(u.Stop())
	err := ServiceClient{}.Apply(context.Background(), s.fw, Configuration{Name: "a", Version: "1"})
	s.ErrorIs(err, ErrAgentUnavailable)
}

func (s *AgentTestSuite) TestDeployHonoursCancelledContext() {
	a := NewDeploymentAgent(s.T().TempDir(), io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ErrorIs(a.Deploy(ctx, Configuration{Name: "a", Version: "1"}), context.Canceled)
	s.Empty(a.Packages())
}

type impostor struct{}

func (impostor) Start(ctx *container.UnitContext) error {
	ctx.RegisterService(ServiceName, "not an agent")
	return nil
}
func (impostor) Stop(*container.UnitContext) error { return nil }

func TestAgentTestSuite(t *testing.T) {
	suite.Run(t, new(AgentTestSuite))
}
