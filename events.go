/*
 * SPDX-FileCopyrightText: Copyright (c) 2003 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package confinject

import (
	"errors"
	"sync"
)

// Container and runner events.
const (
	// BindingRegistered is triggered for every stored binding.
	// Args: interface QualifiedName, implementation QualifiedName.
	BindingRegistered = "BindingRegistered"

	// BindingOverridden is triggered when a binding replaces an earlier one
	// for the same interface. Args: interface, previous and new implementation.
	BindingOverridden = "BindingOverridden"

	// InstanceConstructed is triggered after a singleton is constructed.
	// Args: interface QualifiedName, instance.
	InstanceConstructed = "InstanceConstructed"

	// RunStarting is triggered before bindings are registered by the runner.
	// Args: main reference string.
	RunStarting = "RunStarting"

	// EntryPointInvoking is triggered right before the entry point call.
	// Args: main QualifiedName, root instance.
	EntryPointInvoking = "EntryPointInvoking"

	// RunFinished is triggered when the run completes. Args: run error or nil.
	RunFinished = "RunFinished"
)

// Handler handles a triggered event.
type Handler func(event Event) error

// Events declares event broker type.
type Events interface {
	// Subscribe registers event handler.
	Subscribe(name string, handler Handler)

	// Trigger triggers specified event handlers.
	Trigger(event Event) error
}

// events implements Events interface.
type events struct {
	mutex    sync.RWMutex
	handlers map[string][]Handler
}

// newEvents returns an empty events broker.
func newEvents() *events {
	return &events{handlers: map[string][]Handler{}}
}

// Subscribe subscribes event handler to the event.
func (em *events) Subscribe(name string, handler Handler) {
	em.mutex.Lock()
	defer em.mutex.Unlock()
	em.handlers[name] = append(em.handlers[name], handler)
}

// Trigger calls every handler of the event and joins their errors.
func (em *events) Trigger(event Event) error {
	em.mutex.RLock()
	handlers := em.handlers[event.Name()]
	em.mutex.RUnlock()

	errs := make([]error, 0, len(handlers))
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Event declares container events.
type Event interface {
	// Name returns event name.
	Name() string

	// Args returns event arguments.
	Args() []any
}

// NewEvent returns new event instance.
func NewEvent(name string, args ...any) Event {
	return &event{name: name, args: args}
}

// event wraps string event.
type event struct {
	name string
	args []any
}

// Name implements Event interface.
func (e *event) Name() string { return e.name }

// Args implements Event interface.
func (e *event) Args() []any { return e.args }
