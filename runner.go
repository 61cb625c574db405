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
	"context"
	"errors"
	"fmt"

	"github.com/NVIDIA/confinject/internal/ctxlog"
)

// descriptor is the schema of the top-level configuration mapping.
type descriptor struct {
	Main     string           `conf:"main"`
	Args     map[string]any   `conf:"args" default:"{}"`
	Bindings []map[string]any `conf:"bindings" default:"[]"`
}

// AppRunner resolves the main type of a configuration and calls its entry point.
type AppRunner struct {
	// Main is the `namespace:Type.method` reference of the entry point.
	Main string

	// Args are the constructor arguments of the main type,
	// used when it is not constructed through a binding.
	Args map[string]any

	// Bindings are registered in a new container on every run.
	Bindings []Binding
}

// NewAppRunner validates the configuration mapping and returns the runner.
//
// Recognized keys are `main`, `args` and `bindings`; every binding
// recognizes `interface`, `to`, `args` and `scope`.
func NewAppRunner(raw map[string]any) (*AppRunner, error) {
	var desc descriptor
	if err := Merge(&desc, raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	runner := &AppRunner{
		Main:     desc.Main,
		Args:     desc.Args,
		Bindings: make([]Binding, 0, len(desc.Bindings)),
	}
	for index, rawBinding := range desc.Bindings {
		var b Binding
		if err := Merge(&b, rawBinding); err != nil {
			return nil, fmt.Errorf("invalid configuration: binding #%d: %w", index, err)
		}
		runner.Bindings = append(runner.Bindings, b)
	}

	return runner, nil
}

// Run wires the object graph in a new container and calls the entry point.
// Constructed instances are closed when the entry point returns.
func (r *AppRunner) Run(ctx context.Context, opts ...Option) (err error) {
	logger := ctxlog.FromContext(ctx).With("main", r.Main)
	container := New(append([]Option{WithLogger(logger)}, opts...)...)

	// Close the graph and report the run completion.
	defer func() {
		if closeErr := container.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close container: %w", closeErr))
		}
		if triggerErr := container.events.Trigger(NewEvent(RunFinished, err)); triggerErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to trigger run finished event: %w", triggerErr))
		}
		if err != nil {
			logger.Error("Run failed", "error", err)
		} else {
			logger.Info("Run finished")
		}
	}()

	if err := container.events.Trigger(NewEvent(RunStarting, r.Main)); err != nil {
		return fmt.Errorf("failed to trigger run starting event: %w", err)
	}

	// Register every binding in the run container.
	if err := container.Register(r.Bindings...); err != nil {
		return fmt.Errorf("failed to register bindings: %w", err)
	}

	// Validate the entry point before anything is constructed.
	main, err := ParseQualifiedName(r.Main)
	if err != nil {
		return fmt.Errorf("invalid main: %w", err)
	}
	if !main.HasMethod() {
		return fmt.Errorf("%w: '%s' names no method", MissingEntryPointError, main)
	}
	handle, err := container.Catalog().Load(main)
	if err != nil {
		return fmt.Errorf("invalid main: %w", err)
	}
	entry, err := lookupEntryPoint(handle.Type(), main.MethodName())
	if err != nil {
		return fmt.Errorf("invalid main '%s': %w", main, err)
	}

	// Resolve the root instance.
	instance, err := r.resolveMain(container, handle)
	if err != nil {
		return err
	}

	if err := container.events.Trigger(NewEvent(EntryPointInvoking, main, instance)); err != nil {
		return fmt.Errorf("failed to trigger entry point invoking event: %w", err)
	}

	logger.Info("Invoking entry point", "method", entry.name)
	if err := entry.invoke(ctx, instance); err != nil {
		return fmt.Errorf("entry point '%s' failed: %w", main, err)
	}

	return nil
}

// resolveMain returns the bound singleton of the main type or constructs it.
func (r *AppRunner) resolveMain(container *Container, handle *TypeHandle) (any, error) {
	// A bound interface resolves to its singleton.
	if handle.IsInterface() {
		if len(r.Args) > 0 {
			return nil, fmt.Errorf("%w: args of interface main '%s' must be declared on its binding", TypeMismatchError, handle.Name())
		}
		instance, err := container.Get(handle)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve main: %w", err)
		}
		return instance, nil
	}

	// A bound implementation shares the singleton of its interface.
	if iface, ok := container.implementationOf(handle.Type()); ok {
		if len(r.Args) > 0 {
			return nil, fmt.Errorf("%w: args of bound main '%s' must be declared on its binding", TypeMismatchError, handle.Name())
		}
		instance, err := container.Get(iface)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve main: %w", err)
		}
		return instance, nil
	}

	// Any other type is constructed once for this run.
	instance, err := container.Construct(handle, r.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to construct main: %w", err)
	}
	container.closeRoot(instance)
	return instance, nil
}

// Run validates the configuration mapping and runs it.
func Run(ctx context.Context, raw map[string]any, opts ...Option) error {
	runner, err := NewAppRunner(raw)
	if err != nil {
		return err
	}
	return runner.Run(ctx, opts...)
}
