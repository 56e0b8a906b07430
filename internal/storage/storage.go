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

// Package storage prepares the private storage area a container keeps under the vault work directory.
//
// Platform-specific writability probes live in storage_unix.go and storage_other.go.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

var (
	ErrNotWritable       = errors.New("storage directory is not writable")
	ErrInsufficientSpace = errors.New("storage directory has not enough free space")
	ErrNotDirectory      = errors.New("storage path is not a directory")
)

// Prepare creates dir if needed and checks that it is a writable directory
// with at least minFree bytes available. minFree of zero skips the space check.
func Prepare(dir string, minFree uint64) error {
	if dir == "" {
		return fmt.Errorf("%w: empty path", ErrNotWritable)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage %s: %w", dir, err)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat storage %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	if err := checkWritable(dir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}
	if minFree == 0 {
		return nil
	}
	free, err := FreeSpace(dir)
	if err != nil {
		return err
	}
	if free < minFree {
		return fmt.Errorf("%w: %s has %d bytes, need %d", ErrInsufficientSpace, dir, free, minFree)
	}
	return nil
}

// FreeSpace returns the bytes available on the filesystem holding dir.
func FreeSpace(dir string) (uint64, error) {
	stat, err := disk.Usage(dir)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", dir, err)
	}
	return stat.Free, nil
}

// Clean removes everything inside dir but keeps dir itself.
func Clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
