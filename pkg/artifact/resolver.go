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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// Resolver returns the content of an artifact. Implementations must be safe
// for concurrent use; the installer may resolve several artifacts at once.
type Resolver interface {
	Resolve(ctx context.Context, id Identifier) ([]byte, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, id Identifier) ([]byte, error)

func (f ResolverFunc) Resolve(ctx context.Context, id Identifier) ([]byte, error) {
	return f(ctx, id)
}

// DefaultExtension is the file suffix DirResolver looks for.
const DefaultExtension = ".unit"

// DirResolver resolves artifacts from a repository laid out as
// <root>/<group as path>/<name>/<version>/<name>-<version><ext>.
type DirResolver struct {
	root string
	ext  string
}

// NewDirResolver returns a resolver rooted at root. An empty ext means DefaultExtension.
func NewDirResolver(root, ext string) *DirResolver {
	if ext == "" {
		ext = DefaultExtension
	}
	return &DirResolver{root: root, ext: ext}
}

// Path returns the file DirResolver reads for id.
func (r *DirResolver) Path(id Identifier) string {
	group := strings.ReplaceAll(id.Group, ".", string(filepath.Separator))
	return filepath.Join(r.root, group, id.Name, id.Version, id.Name+"-"+id.Version+r.ext)
}

func (r *DirResolver) Resolve(ctx context.Context, id Identifier) ([]byte, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(r.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("open %s: %w", id, err)
	}
	defer f.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	content := make([]byte, buf.Len())
	copy(content, buf.B)
	return content, nil
}

// MapResolver serves content from memory. Missing keys yield ErrNotFound.
type MapResolver map[Identifier][]byte

func (m MapResolver) Resolve(_ context.Context, id Identifier) ([]byte, error) {
	content, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return content, nil
}
