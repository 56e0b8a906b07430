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

package lifecycle

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/srediag/plugin-vault/pkg/installer"
)

// ProvisioningPolicy decides whether a provisioning report is acceptable.
// A non-nil error aborts the start.
type ProvisioningPolicy func(report installer.Report) error

// Permissive accepts any report, including one where nothing activated.
func Permissive() ProvisioningPolicy {
	return func(installer.Report) error { return nil }
}

// RequireActivated rejects a report with fewer than n activated artifacts.
func RequireActivated(n int) ProvisioningPolicy {
	return func(r installer.Report) error {
		if got := r.Activated(); got < n {
			return fmt.Errorf("%d of %d baseline artifacts activated, %d required", got, len(r.Outcomes), n)
		}
		return nil
	}
}

// RequireAll rejects a report with any failed artifact or unit.
func RequireAll() ProvisioningPolicy {
	return func(r installer.Report) error {
		var result *multierror.Error
		for _, o := range r.Failures() {
			result = multierror.Append(result, fmt.Errorf("%s: %s: %w", o.Identifier, o.Phase, o.Err))
		}
		for _, u := range r.Foreign {
			if u.Err != nil {
				result = multierror.Append(result, fmt.Errorf("unit %d (%s): %w", u.UnitID, u.SymbolicName, u.Err))
			}
		}
		return result.ErrorOrNil()
	}
}
