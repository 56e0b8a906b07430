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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/srediag/plugin-vault/internal/logger"
	"github.com/srediag/plugin-vault/pkg/artifact"
)

const (
	defaultWorkDir         = "vault"
	defaultRepository      = "repository"
	defaultResolveRetries  = 3
	defaultResolveBackoff  = 100 * time.Millisecond
	defaultShutdownTimeout = 30 * time.Second
)

// Config is the daemon configuration file.
type Config struct {
	WorkDir       string   `yaml:"workDir"`
	Repository    string   `yaml:"repository"`
	ArtifactExt   string   `yaml:"artifactExt"`
	ExtraPackages []string `yaml:"extraPackages"`
	// PropertiesFile overrides <workDir>/META-INF/vault/kernel.properties.
	PropertiesFile string `yaml:"propertiesFile"`
	AdminAddr      string `yaml:"adminAddr"`
	LogLevel       string `yaml:"logLevel"`
	InstallWorkers int    `yaml:"installWorkers"`

	ResolveRetries uint64        `yaml:"resolveRetries"`
	ResolveBackoff time.Duration `yaml:"resolveBackoff"`

	// RequireActivated and RequireAll select a strict provisioning policy.
	RequireActivated int  `yaml:"requireActivated"`
	RequireAll       bool `yaml:"requireAll"`

	StuckThreshold  time.Duration `yaml:"stuckThreshold"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		WorkDir:         defaultWorkDir,
		Repository:      defaultRepository,
		ArtifactExt:     artifact.DefaultExtension,
		LogLevel:        "info",
		InstallWorkers:  4,
		ResolveRetries:  defaultResolveRetries,
		ResolveBackoff:  defaultResolveBackoff,
		StuckThreshold:  2 * time.Minute,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are errors.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// VerifyConfig reports the first invalid setting.
func VerifyConfig(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.WorkDir == "" {
		return errors.New("workDir must not be empty")
	}
	if c.Repository == "" {
		return errors.New("repository must not be empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.InstallWorkers < 0 {
		return fmt.Errorf("installWorkers %d must not be negative", c.InstallWorkers)
	}
	if c.ResolveBackoff < 0 {
		return fmt.Errorf("resolveBackoff %s must not be negative", c.ResolveBackoff)
	}
	if c.RequireActivated < 0 {
		return fmt.Errorf("requireActivated %d must not be negative", c.RequireActivated)
	}
	if c.RequireAll && c.RequireActivated > 0 {
		return errors.New("requireAll and requireActivated are mutually exclusive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdownTimeout %s must be positive", c.ShutdownTimeout)
	}
	return nil
}
