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
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retrying wraps a resolver whose backend may fail transiently. ErrNotFound
// and ErrInvalidIdentifier are never retried.
type Retrying struct {
	next       Resolver
	newBackOff func() backoff.BackOff
}

// NewRetrying retries next with newBackOff. A nil newBackOff means up to
// three retries with a constant 100ms pause.
func NewRetrying(next Resolver, newBackOff func() backoff.BackOff) *Retrying {
	if newBackOff == nil {
		newBackOff = func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 3)
		}
	}
	return &Retrying{next: next, newBackOff: newBackOff}
}

func (r *Retrying) Resolve(ctx context.Context, id Identifier) ([]byte, error) {
	op := func() ([]byte, error) {
		content, err := r.next.Resolve(ctx, id)
		if err != nil && (errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidIdentifier)) {
			return nil, backoff.Permanent(err)
		}
		return content, err
	}
	return backoff.RetryWithData(op, backoff.WithContext(r.newBackOff(), ctx))
}
