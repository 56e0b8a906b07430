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

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/suite"

	"github.com/srediag/plugin-vault/pkg/artifact"
	"github.com/srediag/plugin-vault/pkg/lifecycle"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) TestVerifyConfig() {
	s.Require().Nil(VerifyConfig(DefaultConfig()))
	s.Require().NotNil(VerifyConfig(nil))

	config := DefaultConfig()
	config.WorkDir = ""
	s.Require().NotNil(VerifyConfig(config))

	config = DefaultConfig()
	config.LogLevel = "loud"
	s.Require().NotNil(VerifyConfig(config))

	config = DefaultConfig()
	config.RequireAll = true
	config.RequireActivated = 3
	s.Require().NotNil(VerifyConfig(config))

	config = DefaultConfig()
	config.ShutdownTimeout = 0
	s.Require().NotNil(VerifyConfig(config))

	config = DefaultConfig()
	config.InstallWorkers = -1
	s.Require().NotNil(VerifyConfig(config))
}

func (s *ConfigTestSuite) TestLoadConfig() {
	path := filepath.Join(s.T().TempDir(), "vault.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(`
workDir: /var/lib/vault
extraPackages: [example.com/a, example.com/b]
resolveBackoff: 250ms
requireActivated: 5
`), 0o644))

	config, err := LoadConfig(path)
	s.Require().NoError(err)
	s.Equal("/var/lib/vault", config.WorkDir)
	s.Equal([]string{"example.com/a", "example.com/b"}, config.ExtraPackages)
	s.Equal(250*time.Millisecond, config.ResolveBackoff)
	s.Equal(5, config.RequireActivated)
	s.Equal(defaultRepository, config.Repository)
	s.Equal(defaultShutdownTimeout, config.ShutdownTimeout)
}

func (s *ConfigTestSuite) TestLoadConfigRejectsUnknownKeys() {
	path := filepath.Join(s.T().TempDir(), "vault.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("workdir: typo\n"), 0o644))
	_, err := LoadConfig(path)
	s.Error(err)

	_, err = LoadConfig(filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Error(err)
}

func (s *ConfigTestSuite) TestEmptyConfigFileKeepsDefaults() {
	path := filepath.Join(s.T().TempDir(), "vault.yaml")
	s.Require().NoError(os.WriteFile(path, nil, 0o644))
	config, err := LoadConfig(path)
	s.Require().NoError(err)
	s.Equal(DefaultConfig(), config)
}

func (s *ConfigTestSuite) TestFlagsOverrideFile() {
	path := filepath.Join(s.T().TempDir(), "vault.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("workDir: from-file\nadminAddr: 127.0.0.1:9000\n"), 0o644))

	config, err := parseFlags([]string{
		"--config", path,
		"--work-dir", "from-flag",
		"--extra-package", "example.com/x",
		"--require-all",
	}, io.Discard)
	s.Require().NoError(err)
	s.Equal("from-flag", config.WorkDir)
	s.Equal("127.0.0.1:9000", config.AdminAddr)
	s.Equal([]string{"example.com/x"}, config.ExtraPackages)
	s.True(config.RequireAll)

	_, err = parseFlags([]string{"--help"}, io.Discard)
	s.ErrorIs(err, pflag.ErrHelp)

	_, err = parseFlags([]string{"stray"}, io.Discard)
	s.Error(err)
}

func (s *ConfigTestSuite) TestVaultFromConfig() {
	root := s.T().TempDir()
	id := artifact.MustParse("test:a:1.0.0")
	repo := filepath.Join(root, "repo")
	unit := artifact.NewDirResolver(repo, "").Path(id)
	s.Require().NoError(os.MkdirAll(filepath.Dir(unit), 0o755))
	s.Require().NoError(os.WriteFile(unit, []byte("unit.version=1.0.0\n"), 0o644))

	config := DefaultConfig()
	config.WorkDir = filepath.Join(root, "work")
	config.Repository = repo
	config.ResolveBackoff = time.Millisecond
	config.RequireActivated = 1

	opts := append(vaultOptions(config, prometheus.NewRegistry(), io.Discard), lifecycle.WithManifest(artifact.Manifest{id}))
	v, err := lifecycle.New(config.WorkDir, newResolver(config), opts...)
	s.Require().NoError(err)
	defer func() { s.NoError(v.Close()) }()

	_, src, err := v.Start(context.Background())
	s.Require().NoError(err)
	s.Equal(1, src.Report.Activated())
	s.NoError(v.StopFunc()(context.Background()))
	s.Equal(lifecycle.Stopped, v.State())
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
