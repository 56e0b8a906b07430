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

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ArtifactTestSuite struct {
	suite.Suite
}

func (s *ArtifactTestSuite) TestParseIdentifier() {
	id, err := ParseIdentifier("org.example:core:1.0.0")
	s.Require().NoError(err)
	s.Equal(Identifier{Group: "org.example", Name: "core", Version: "1.0.0"}, id)
	s.Equal("org.example:core:1.0.0", id.String())
	s.Equal("org.example:core", id.SymbolicName())

	for _, bad := range []string{"", "a:b", "a:b:c:d", "a::c", " :b:c"} {
		_, err := ParseIdentifier(bad)
		s.ErrorIs(err, ErrInvalidIdentifier, bad)
	}
}

func (s *ArtifactTestSuite) TestMustParsePanics() {
	s.Panics(func() { MustParse("nope") })
}

func (s *ArtifactTestSuite) TestBaselineIsOrderedAndFresh() {
	a := Baseline()
	b := Baseline()
	s.Require().Len(a, len(baselineCoords))
	s.Equal(baselineCoords, a.Strings())
	s.Equal(DependencyManager, a[0].SymbolicName())
	s.Equal(DeploymentAdmin, a[1].SymbolicName())

	a[0].Name = "mutated"
	s.NotEqual(a[0], b[0])
}

func (s *ArtifactTestSuite) TestParseManifest() {
	m, err := ParseManifest("g:x:1", "g:y:1")
	s.Require().NoError(err)
	s.Equal([]string{"g:x:1", "g:y:1"}, m.Strings())

	_, err = ParseManifest("g:x:1", "broken")
	s.ErrorIs(err, ErrInvalidIdentifier)
}

func (s *ArtifactTestSuite) TestDirResolver() {
	root := s.T().TempDir()
	r := NewDirResolver(root, "")
	id := MustParse("org.example:core:1.0.0")

	_, err := r.Resolve(context.Background(), id)
	s.ErrorIs(err, ErrNotFound)

	path := r.Path(id)
	s.Equal(filepath.Join(root, "org", "example", "core", "1.0.0", "core-1.0.0.unit"), path)
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte("unit.name=core\n"), 0o644))

	content, err := r.Resolve(context.Background(), id)
	s.Require().NoError(err)
	s.Equal("unit.name=core\n", string(content))

	_, err = r.Resolve(context.Background(), Identifier{Group: "g"})
	s.ErrorIs(err, ErrInvalidIdentifier)
}

func (s *ArtifactTestSuite) TestMapResolver() {
	id := MustParse("g:n:1")
	r := MapResolver{id: []byte("x")}
	content, err := r.Resolve(context.Background(), id)
	s.Require().NoError(err)
	s.Equal([]byte("x"), content)

	_, err = r.Resolve(context.Background(), MustParse("g:m:1"))
	s.ErrorIs(err, ErrNotFound)
}

func (s *ArtifactTestSuite) TestRetryingRecoversFromTransientFailures() {
	id := MustParse("g:n:1")
	attempts := 0
	flaky := ResolverFunc(func(context.Context, Identifier) ([]byte, error) {
		attempts++
		if attempts < 3 {
			return nil, assert.AnError
		}
		return []byte("ok"), nil
	})
	r := NewRetrying(flaky, func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 5)
	})
	content, err := r.Resolve(context.Background(), id)
	s.Require().NoError(err)
	s.Equal("ok", string(content))
	s.Equal(3, attempts)
}

func (s *ArtifactTestSuite) TestRetryingDoesNotRetryNotFound() {
	attempts := 0
	missing := ResolverFunc(func(_ context.Context, id Identifier) ([]byte, error) {
		attempts++
		return nil, ErrNotFound
	})
	r := NewRetrying(missing, func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 5)
	})
	_, err := r.Resolve(context.Background(), MustParse("g:n:1"))
	s.True(errors.Is(err, ErrNotFound))
	s.Equal(1, attempts)
}

func (s *ArtifactTestSuite) TestRetryingGivesUp() {
	attempts := 0
	broken := ResolverFunc(func(context.Context, Identifier) ([]byte, error) {
		attempts++
		return nil, assert.AnError
	})
	r := NewRetrying(broken, func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2)
	})
	_, err := r.Resolve(context.Background(), MustParse("g:n:1"))
	s.ErrorIs(err, assert.AnError)
	s.Equal(3, attempts)
}

func TestArtifactTestSuite(t *testing.T) {
	suite.Run(t, new(ArtifactTestSuite))
}
