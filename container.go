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
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Scope is the lifetime of instances produced by a binding.
type Scope string

// ScopeSingleton constructs at most one instance per interface per container.
// It is the only supported scope.
const ScopeSingleton Scope = "singleton"

// Binding declares the implementation and constructor arguments of an interface.
type Binding struct {
	// Interface is the qualified name of the bound interface.
	Interface string `conf:"interface"`

	// To is the qualified name of the implementation struct.
	To string `conf:"to"`

	// Args are the implementation constructor arguments.
	Args map[string]any `conf:"args" default:"{}"`

	// Scope is the instance lifetime.
	Scope Scope `conf:"scope" default:"singleton"`
}

// Option configures a container.
type Option func(*Container)

// WithCatalog sets the catalog references are resolved with.
// The process-wide catalog is used by default.
func WithCatalog(catalog *Catalog) Option {
	return func(container *Container) {
		container.catalog = catalog
	}
}

// WithLogger sets the container logger.
func WithLogger(logger *slog.Logger) Option {
	return func(container *Container) {
		container.logger = logger
	}
}

// WithSubscribe subscribes the handler to the container event.
func WithSubscribe(event string, handler Handler) Option {
	return func(container *Container) {
		container.subscriptions = append(container.subscriptions, subscription{event: event, handler: handler})
	}
}

// subscription is a deferred event subscription.
type subscription struct {
	event   string
	handler Handler
}

// Container holds interface bindings and the singletons constructed for them.
//
// Resolution is a depth-first walk holding the container mutex, so every
// interface is constructed at most once even with concurrent callers.
// Event handlers are called during the walk and must not resolve services.
type Container struct {
	mutex  sync.Mutex
	closer sync.Once

	catalog       *Catalog
	logger        *slog.Logger
	events        *events
	subscriptions []subscription
	registry      *registry

	// Uncached instances closed before the singletons.
	roots []any
}

// New returns new container instance.
func New(opts ...Option) *Container {
	container := &Container{
		catalog: DefaultCatalog(),
		logger:  slog.Default(),
		events:  newEvents(),
	}
	for _, opt := range opts {
		opt(container)
	}

	// Register option event handlers.
	for _, sub := range container.subscriptions {
		container.events.Subscribe(sub.event, sub.handler)
	}

	container.registry = newRegistry(container.catalog, container.events, container.logger)
	return container
}

// Register loads and stores the bindings.
// Every binding is loaded before any of them is stored, so a failing
// binding leaves the container unchanged.
func (c *Container) Register(bindings ...Binding) error {
	loaded := make([]*binding, 0, len(bindings))
	for index, decl := range bindings {
		b, err := c.loadBinding(decl)
		if err != nil {
			return fmt.Errorf("invalid binding #%d: %w", index, err)
		}
		loaded = append(loaded, b)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.registry.register(loaded); err != nil {
		return fmt.Errorf("failed to trigger binding events: %w", err)
	}
	return nil
}

// Get returns the singleton instance of the interface.
func (c *Container) Get(iface *TypeHandle) (any, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	value, err := c.registry.get(iface.Type())
	if err != nil {
		return nil, err
	}
	return value.Interface(), nil
}

// GetByName returns the singleton instance of the referenced interface.
func (c *Container) GetByName(ref string) (any, error) {
	handle, err := c.catalog.LoadString(ref)
	if err != nil {
		return nil, err
	}
	return c.Get(handle)
}

// Construct builds a new instance of the struct type, injecting bound
// interfaces into its dependency fields. The instance is not cached.
func (c *Container) Construct(handle *TypeHandle, args map[string]any) (any, error) {
	if handle.IsInterface() {
		return nil, fmt.Errorf("%w: '%s' is an interface", TypeMismatchError, handle.Name())
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	value, err := c.registry.construct(handle, args)
	if err != nil {
		return nil, err
	}
	return value.Interface(), nil
}

// Bindings returns bound interface names in registration order.
func (c *Container) Bindings() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	names := make([]string, 0, len(c.registry.order))
	for _, ifaceType := range c.registry.order {
		names = append(names, c.registry.cells[ifaceType].binding.iface.Name().String())
	}
	return names
}

// Catalog returns the container catalog.
func (c *Container) Catalog() *Catalog {
	return c.catalog
}

// Events returns events broker instance.
func (c *Container) Events() Events {
	return c.events
}

// Close closes constructed singletons implementing `Close() error`
// in reverse construction order. Only the first call closes them.
func (c *Container) Close() (err error) {
	c.closer.Do(func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()

		var errs []error
		for index := len(c.roots) - 1; index >= 0; index-- {
			if closer, ok := c.roots[index].(interface{ Close() error }); ok {
				if closeErr := closer.Close(); closeErr != nil {
					errs = append(errs, fmt.Errorf("failed to close %T: %w", c.roots[index], closeErr))
				}
			}
		}
		errs = append(errs, c.registry.closeInstances())
		err = errors.Join(errs...)
	})
	return err
}

// closeRoot closes the uncached instance together with the container.
func (c *Container) closeRoot(instance any) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.roots = append(c.roots, instance)
}

// implementationOf returns the bound interface of the implementation type, if any.
func (c *Container) implementationOf(implType reflect.Type) (*TypeHandle, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if found, ok := c.registry.findImplementation(implType); ok {
		return found.binding.iface, true
	}
	return nil, false
}

// loadBinding resolves and validates binding references.
func (c *Container) loadBinding(decl Binding) (*binding, error) {
	iface, err := c.loadReference(decl.Interface)
	if err != nil {
		return nil, fmt.Errorf("interface: %w", err)
	}
	if !iface.IsInterface() {
		return nil, fmt.Errorf("%w: '%s' is not an interface", TypeMismatchError, iface.Name())
	}

	impl, err := c.loadReference(decl.To)
	if err != nil {
		return nil, fmt.Errorf("implementation: %w", err)
	}
	if impl.IsInterface() {
		return nil, fmt.Errorf("%w: implementation '%s' is an interface", TypeMismatchError, impl.Name())
	}
	if !reflect.PointerTo(impl.Type()).Implements(iface.Type()) {
		return nil, fmt.Errorf("%w: '%s' does not implement '%s'", TypeMismatchError, impl.Name(), iface.Name())
	}

	// Reject implementations which can never be constructed.
	if _, err := SchemaOf(impl.Type()); err != nil {
		return nil, fmt.Errorf("implementation '%s': %w", impl.Name(), err)
	}

	scope := decl.Scope
	if scope == "" {
		scope = ScopeSingleton
	}
	if scope != ScopeSingleton {
		return nil, fmt.Errorf("%w: '%s' for '%s'", UnsupportedScopeError, scope, iface.Name())
	}

	return &binding{iface: iface, impl: impl, args: decl.Args, scope: scope}, nil
}

// loadReference loads a type reference which must not name a method.
func (c *Container) loadReference(ref string) (*TypeHandle, error) {
	name, err := ParseQualifiedName(ref)
	if err != nil {
		return nil, err
	}
	if name.HasMethod() {
		return nil, fmt.Errorf("%w: '%s': binding references can not name a method", MalformedReferenceError, ref)
	}
	return c.catalog.Load(name)
}
