// Package adapter connects a vault to external systems.
package adapter

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/srediag/plugin-vault/api"
	"github.com/srediag/plugin-vault/pkg/lifecycle"
)

// Restarter drives a vault the way a command dispatcher does. It keeps the
// handle of the start it made so callers only ask for start, stop or restart.
type Restarter struct {
	vault *lifecycle.Vault

	mu     sync.Mutex
	handle lifecycle.Handle
}

var _ api.Lifecycle = (*Restarter)(nil)

// NewRestarter wraps v.
func NewRestarter(v *lifecycle.Vault) *Restarter {
	return &Restarter{vault: v}
}

func (r *Restarter) StartVault(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.start(ctx)
}

func (r *Restarter) StopVault(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop(ctx)
}

// RestartVault stops a running vault and starts it again. The start is
// attempted even when the stop reports a shutdown error; both errors are
// returned.
func (r *Restarter) RestartVault(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result *multierror.Error
	if r.vault.State() != lifecycle.Stopped {
		if err := r.stop(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := r.start(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (r *Restarter) Status() api.Status {
	return r.vault.Status()
}

// Handle returns the handle of the current start, if any.
func (r *Restarter) Handle() lifecycle.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle
}

func (r *Restarter) start(ctx context.Context) error {
	h, _, err := r.vault.Start(ctx)
	if err != nil {
		return err
	}
	r.handle = h
	return nil
}

func (r *Restarter) stop(ctx context.Context) error {
	err := r.vault.Stop(ctx, r.handle)
	if r.vault.State() == lifecycle.Stopped {
		r.handle = lifecycle.Handle{}
	}
	return err
}
