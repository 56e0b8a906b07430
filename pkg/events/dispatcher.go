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

// Package events delivers vault lifecycle events to plugin callbacks off the
// caller's goroutine.
package events

import (
	"io"
	"sync"

	queuepkg "github.com/Workiva/go-datastructures/queue"

	"github.com/srediag/plugin-vault/api"
	"github.com/srediag/plugin-vault/internal/logger"
)

const (
	queueHint = 64
	batchSize = 16
)

type closeMarker struct{}

// Dispatcher queues events and fans them out to callbacks in publish order.
type Dispatcher struct {
	q   *queuepkg.Queue
	log *logger.Logger

	mu        sync.RWMutex
	nextID    int
	callbacks map[int]api.PluginCallback
	order     []int

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher starts a dispatcher goroutine. Close stops it.
func NewDispatcher(logOut io.Writer) *Dispatcher {
	d := &Dispatcher{
		q:         queuepkg.New(queueHint),
		log:       logger.New("events", logOut),
		callbacks: make(map[int]api.PluginCallback),
		done:      make(chan struct{}),
	}
	go d.loop()
	return d
}

// Register adds cb and returns a function that removes it again.
func (d *Dispatcher) Register(cb api.PluginCallback) (unregister func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.callbacks[id] = cb
	d.order = append(d.order, id)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.callbacks, id)
			for i, v := range d.order {
				if v == id {
					d.order = append(d.order[:i], d.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Len returns how many callbacks are registered.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// Publish queues e. Events published after Close are dropped.
func (d *Dispatcher) Publish(e api.Event) {
	if err := d.q.Put(e); err != nil {
		d.log.Debugf("event %s dropped: %v", e.Type, err)
	}
}

// Close delivers every event already queued, then stops the dispatcher.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		if err := d.q.Put(closeMarker{}); err != nil {
			d.q.Dispose()
		}
	})
	<-d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		items, err := d.q.Get(batchSize)
		if err != nil {
			return
		}
		for _, item := range items {
			switch e := item.(type) {
			case closeMarker:
				d.q.Dispose()
				return
			case api.Event:
				d.dispatch(e)
			}
		}
	}
}

func (d *Dispatcher) dispatch(e api.Event) {
	d.mu.RLock()
	cbs := make([]api.PluginCallback, 0, len(d.order))
	for _, id := range d.order {
		cbs = append(cbs, d.callbacks[id])
	}
	d.mu.RUnlock()

	for _, cb := range cbs {
		d.invoke(cb, e)
	}
}

func (d *Dispatcher) invoke(cb api.PluginCallback, e api.Event) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Errorf("callback panicked on %s: %v", e.Type, p)
		}
	}()
	cb.OnVaultEvent(e)
}
