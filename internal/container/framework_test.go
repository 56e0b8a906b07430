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

package container

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/plugin-vault/pkg/runtime"
)

type recordingActivator struct {
	started, stopped int
	startErr         error
	stopErr          error
	service          string
}

func (a *recordingActivator) Start(ctx *UnitContext) error {
	a.started++
	if a.service != "" {
		ctx.RegisterService(a.service, a)
	}
	return a.startErr
}

func (a *recordingActivator) Stop(*UnitContext) error {
	a.stopped++
	return a.stopErr
}

type FrameworkTestSuite struct {
	suite.Suite
	dir string
}

func (s *FrameworkTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *FrameworkTestSuite) newFramework(acts map[string]Activator) *Framework {
	fw := New(map[string]string{runtime.PropStorage: s.dir}, acts, io.Discard)
	s.Require().NoError(fw.Init())
	s.Require().NoError(fw.Start())
	return fw
}

func (s *FrameworkTestSuite) TestSystemUnitLifecycle() {
	fw := New(map[string]string{runtime.PropStorage: s.dir}, nil, io.Discard)
	s.Equal(runtime.UnitInstalled, fw.State())

	_, err := fw.Install("g:n:1", nil)
	s.ErrorIs(err, ErrNotActive)

	s.Require().NoError(fw.Init())
	s.Equal(runtime.UnitResolved, fw.State())
	s.Require().NoError(fw.Start())
	s.Equal(runtime.UnitActive, fw.State())

	system, ok := fw.Unit(runtime.SystemUnitID)
	s.Require().True(ok)
	s.Equal(SystemSymbolicName, system.SymbolicName())
	s.Equal(runtime.UnitActive, system.State())

	s.Require().NoError(system.Stop())
	s.Equal(runtime.UnitResolved, fw.State())
	s.NoError(fw.Stop())
}

func (s *FrameworkTestSuite) TestInitWithoutStorage() {
	fw := New(map[string]string{}, nil, io.Discard)
	s.ErrorIs(fw.Init(), ErrNoStorage)
}

func (s *FrameworkTestSuite) TestInitCleansStorageOnFirstInit() {
	stale := filepath.Join(s.dir, "stale")
	s.Require().NoError(os.WriteFile(stale, []byte("x"), 0o644))
	fw := New(map[string]string{
		runtime.PropStorage:      s.dir,
		runtime.PropStorageClean: runtime.StorageCleanOnFirstInit,
	}, nil, io.Discard)
	s.Require().NoError(fw.Init())
	_, err := os.Stat(stale)
	s.True(errors.Is(err, os.ErrNotExist))
}

func (s *FrameworkTestSuite) TestInstallDerivesNamesFromLocation() {
	fw := s.newFramework(nil)
	u, err := fw.Install("org.example:core:1.2.0", []byte("custom=value\n"))
	s.Require().NoError(err)
	s.Equal("org.example:core", u.SymbolicName())
	s.Equal("org.example:core:1.2.0", u.Location())
	s.Equal(runtime.UnitInstalled, u.State())
	s.Equal("value", u.(*unit).Header("custom"))
	s.Equal("1.2.0", u.(*unit).headers.version)

	again, err := fw.Install("org.example:core:1.2.0", nil)
	s.Require().NoError(err)
	s.Equal(u.ID(), again.ID())

	s.Len(fw.Units(), 2)
	s.Equal(runtime.SystemUnitID, fw.Units()[0].ID())
}

func (s *FrameworkTestSuite) TestInstallHonoursDescriptor() {
	fw := s.newFramework(nil)
	u, err := fw.Install("loc", []byte("unit.symbolicName=named\nunit.version=2\n"))
	s.Require().NoError(err)
	s.Equal("named", u.SymbolicName())
}

func (s *FrameworkTestSuite) TestStartRunsActivatorAndRegistersService() {
	act := &recordingActivator{service: "svc"}
	fw := s.newFramework(map[string]Activator{"g:a": act})
	u, err := fw.Install("g:a:1", nil)
	s.Require().NoError(err)

	s.Require().NoError(u.Start())
	s.Equal(runtime.UnitActive, u.State())
	s.Equal(1, act.started)
	svc, ok := fw.Service("svc")
	s.True(ok)
	s.Same(act, svc)

	s.Require().NoError(u.Start())
	s.Equal(1, act.started)

	s.Require().NoError(u.Stop())
	s.Equal(runtime.UnitResolved, u.State())
	s.Equal(1, act.stopped)
	_, ok = fw.Service("svc")
	s.False(ok)
}

func (s *FrameworkTestSuite) TestStartFailureLeavesUnitResolved() {
	act := &recordingActivator{service: "svc", startErr: errors.New("boom")}
	fw := s.newFramework(map[string]Activator{"g:a": act})
	u, err := fw.Install("g:a:1", nil)
	s.Require().NoError(err)

	err = u.Start()
	s.Require().Error(err)
	s.Contains(err.Error(), "boom")
	s.Equal(runtime.UnitResolved, u.State())
	_, ok := fw.Service("svc")
	s.False(ok)
}

func (s *FrameworkTestSuite) TestRequirementsResolveAgainstInstalledUnits() {
	fw := s.newFramework(nil)
	dependent, err := fw.Install("g:b:1", []byte("unit.requires=g:a, g:c\n"))
	s.Require().NoError(err)
	s.ErrorIs(dependent.Start(), ErrUnresolved)

	_, err = fw.Install("g:a:1", nil)
	s.Require().NoError(err)
	_, err = fw.Install("g:c:1", nil)
	s.Require().NoError(err)
	s.NoError(dependent.Start())
}

func (s *FrameworkTestSuite) TestSelfRequirementDoesNotDeadlock() {
	fw := s.newFramework(nil)
	u, err := fw.Install("g:self:1", []byte("unit.requires=g:self\n"))
	s.Require().NoError(err)
	s.NoError(u.Start())
}

func (s *FrameworkTestSuite) TestStopStopsEveryUnitAndCollectsErrors() {
	a := &recordingActivator{stopErr: errors.New("stuck")}
	b := &recordingActivator{}
	fw := s.newFramework(map[string]Activator{"g:a": a, "g:b": b})
	ua, _ := fw.Install("g:a:1", nil)
	ub, _ := fw.Install("g:b:1", nil)
	s.Require().NoError(ua.Start())
	s.Require().NoError(ub.Start())

	err := fw.Stop()
	s.Require().Error(err)
	s.Contains(err.Error(), "stuck")
	s.Equal(1, a.stopped)
	s.Equal(1, b.stopped)
	s.Equal(runtime.UnitResolved, ua.State())
	s.Equal(runtime.UnitResolved, ub.State())
	s.Equal(runtime.UnitResolved, fw.State())

	s.ErrorIs(ua.Start(), ErrNotActive)
}

func (s *FrameworkTestSuite) TestUnitDataDir() {
	var ctx *UnitContext
	act := activatorFunc(func(c *UnitContext) error { ctx = c; return nil })
	fw := s.newFramework(map[string]Activator{"g:a": act})
	u, _ := fw.Install("g:a:1", []byte("k=v\n"))
	s.Require().NoError(u.Start())
	s.Require().NotNil(ctx)

	dir, err := ctx.DataDir()
	s.Require().NoError(err)
	s.DirExists(dir)
	s.Equal(s.dir, ctx.StorageDir())
	s.Equal("v", ctx.Header("k"))
	s.Equal(s.dir, ctx.Property(runtime.PropStorage))
	s.Equal(u.ID(), ctx.Unit().ID())
}

func (s *FrameworkTestSuite) TestFactory() {
	var f runtime.Factory = Factory{LogOut: io.Discard}
	fw, err := f.NewFramework(map[string]string{runtime.PropStorage: s.dir})
	s.Require().NoError(err)
	s.NoError(fw.Init())
	s.NotNil(fw.Context())
}

type activatorFunc func(*UnitContext) error

func (f activatorFunc) Start(c *UnitContext) error { return f(c) }
func (f activatorFunc) Stop(*UnitContext) error    { return nil }

func TestFrameworkTestSuite(t *testing.T) {
	suite.Run(t, new(FrameworkTestSuite))
}
