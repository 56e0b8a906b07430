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

package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "framework")
	require.NoError(t, Prepare(dir, 0))
	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestPrepareRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	err := Prepare(path, 0)
	assert.Error(t, err)
}

func TestPrepareRejectsEmptyPath(t *testing.T) {
	assert.ErrorIs(t, Prepare("", 0), ErrNotWritable)
}

func TestPrepareFreeSpace(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, Prepare(dir, math.MaxUint64), ErrInsufficientSpace)

	stat, err := disk.Usage(dir)
	require.NoError(t, err)
	if stat.Free > 1 {
		assert.NoError(t, Prepare(dir, 1))
	}
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "f"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "g"), []byte("y"), 0o644))

	require.NoError(t, Clean(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.NoError(t, Clean(filepath.Join(dir, "missing")))
}
