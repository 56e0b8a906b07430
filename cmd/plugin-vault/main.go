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

// Command plugin-vault runs a vault until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"

	"github.com/srediag/plugin-vault/adapter"
	"github.com/srediag/plugin-vault/internal/logger"
	"github.com/srediag/plugin-vault/pkg/artifact"
	"github.com/srediag/plugin-vault/pkg/audit"
	"github.com/srediag/plugin-vault/pkg/health"
	"github.com/srediag/plugin-vault/pkg/lifecycle"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags loads the config file named by --config, then applies every
// flag that was set explicitly.
func parseFlags(args []string, out io.Writer) (*Config, error) {
	flagSet := pflag.NewFlagSet("plugin-vault", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	configPath := flagSet.String("config", "", "path to a YAML config file")
	workDir := flagSet.String("work-dir", defaultWorkDir, "vault work directory")
	repository := flagSet.String("repository", defaultRepository, "artifact repository directory")
	adminAddr := flagSet.String("admin-addr", "", "serve /live, /ready and /metrics on this address")
	logLevel := flagSet.String("log-level", "info", "trace, debug, info, warn, error or none")
	extra := flagSet.StringSlice("extra-package", nil, "extra host package shared with the container (repeatable)")
	requireAll := flagSet.Bool("require-all", false, "fail start unless every baseline artifact activates")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if flagSet.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	c := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		c = loaded
	}
	if flagSet.Changed("work-dir") {
		c.WorkDir = *workDir
	}
	if flagSet.Changed("repository") {
		c.Repository = *repository
	}
	if flagSet.Changed("admin-addr") {
		c.AdminAddr = *adminAddr
	}
	if flagSet.Changed("log-level") {
		c.LogLevel = *logLevel
	}
	if flagSet.Changed("extra-package") {
		c.ExtraPackages = append(c.ExtraPackages, *extra...)
	}
	if flagSet.Changed("require-all") {
		c.RequireAll = *requireAll
	}
	return c, VerifyConfig(c)
}

// vaultOptions translates c into lifecycle options.
func vaultOptions(c *Config, reg prometheus.Registerer, out io.Writer) []lifecycle.Option {
	opts := []lifecycle.Option{
		lifecycle.WithExtraPackages(c.ExtraPackages...),
		lifecycle.WithInstallWorkers(c.InstallWorkers),
		lifecycle.WithMetrics(reg),
		lifecycle.WithLogOutput(out),
		lifecycle.WithAudit(audit.NewLogAudit(out)),
		lifecycle.WithInstrumentation(adapter.NewOTelAdapter(nil, nil, attribute.String("vault.workdir", c.WorkDir))),
		lifecycle.WithStuckThreshold(c.StuckThreshold),
	}
	if c.PropertiesFile != "" {
		opts = append(opts, lifecycle.WithPropertiesFile(c.PropertiesFile))
	}
	switch {
	case c.RequireAll:
		opts = append(opts, lifecycle.WithProvisioningPolicy(lifecycle.RequireAll()))
	case c.RequireActivated > 0:
		opts = append(opts, lifecycle.WithProvisioningPolicy(lifecycle.RequireActivated(c.RequireActivated)))
	}
	return opts
}

func newResolver(c *Config) artifact.Resolver {
	dir := artifact.NewDirResolver(c.Repository, c.ArtifactExt)
	if c.ResolveRetries == 0 {
		return dir
	}
	retries, pause := c.ResolveRetries, c.ResolveBackoff
	return artifact.NewRetrying(dir, func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(pause), retries)
	})
}

func run(args []string, out io.Writer) error {
	c, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	level, _ := logger.ParseLevel(c.LogLevel)
	logger.SetLogLevel(level)
	log := logger.New("main", out)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	v, err := lifecycle.New(c.WorkDir, newResolver(c), vaultOptions(c, reg, out)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := v.Close(); err != nil {
			log.Warnf("close: %v", err)
		}
	}()

	var admin *adapter.AdminServer
	if c.AdminAddr != "" {
		admin = adapter.NewAdminServer(c.AdminAddr, health.NewHandler(v, health.WithMetrics(reg, "plugin_vault")), reg, out)
		if err := admin.Start(); err != nil {
			return fmt.Errorf("admin server: %w", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_, src, err := v.Start(ctx)
	if err != nil {
		shutdownAdmin(admin, c, log)
		return err
	}
	log.Infof("vault running in %s: %s", c.WorkDir, src.Report)

	<-ctx.Done()
	log.Infof("signal received, stopping")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer stopCancel()
	err = v.StopFunc()(stopCtx)
	shutdownAdmin(admin, c, log)
	return err
}

func shutdownAdmin(admin *adapter.AdminServer, c *Config, log *logger.Logger) {
	if admin == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := admin.Shutdown(ctx); err != nil {
		log.Warnf("admin shutdown: %v", err)
	}
}
