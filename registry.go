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
	"strings"
)

// binding is a loaded interface to implementation binding.
type binding struct {
	iface *TypeHandle
	impl  *TypeHandle
	args  map[string]any
	scope Scope
}

// cellState is the lifecycle state of a singleton cell.
type cellState int

// A cell is resolved once and never cleared.
const (
	cellUnresolved cellState = iota
	cellInProgress
	cellResolved
)

// cell holds the singleton of one bound interface.
type cell struct {
	binding *binding
	state   cellState
	value   reflect.Value
}

// registry contains bindings and singleton cells.
type registry struct {
	catalog *Catalog
	events  Events
	logger  *slog.Logger

	// Cells by interface type.
	cells map[reflect.Type]*cell

	// Interfaces in registration order.
	order []reflect.Type

	// Cells on the current resolution walk.
	path []*cell

	// Resolved cells in construction order.
	sequence []*cell
}

// newRegistry returns an empty registry.
func newRegistry(catalog *Catalog, events Events, logger *slog.Logger) *registry {
	return &registry{
		catalog: catalog,
		events:  events,
		logger:  logger,
		cells:   map[reflect.Type]*cell{},
	}
}

// register stores loaded bindings. A later binding of the same interface
// replaces the earlier one, so configuration layers can override each other.
func (r *registry) register(bindings []*binding) error {
	var errs []error
	for _, b := range bindings {
		ifaceType := b.iface.Type()

		// Keep the registration order of the first binding.
		if previous, ok := r.cells[ifaceType]; ok {
			r.logger.Debug("Binding overridden",
				"interface", b.iface.Name().String(),
				"previous", previous.binding.impl.Name().String(),
				"implementation", b.impl.Name().String())
			errs = append(errs, r.events.Trigger(NewEvent(BindingOverridden, b.iface.Name(), previous.binding.impl.Name(), b.impl.Name())))
		} else {
			r.order = append(r.order, ifaceType)
		}

		r.cells[ifaceType] = &cell{binding: b}
		r.logger.Debug("Binding registered",
			"interface", b.iface.Name().String(),
			"implementation", b.impl.Name().String())
		errs = append(errs, r.events.Trigger(NewEvent(BindingRegistered, b.iface.Name(), b.impl.Name())))
	}

	return errors.Join(errs...)
}

// get returns the singleton of the interface, constructing it on first request.
func (r *registry) get(ifaceType reflect.Type) (reflect.Value, error) {
	c, ok := r.cells[ifaceType]
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: '%s'", UnboundInterfaceError, r.typeName(ifaceType))
	}

	switch c.state {
	case cellResolved:
		return c.value, nil
	case cellInProgress:
		return reflect.Value{}, fmt.Errorf("%w: %s", CyclicDependencyError, r.describeCycle(c))
	}

	// Mark the cell as being on the walk. An unfinished construction,
	// including a panicking one, leaves the cell unresolved.
	c.state = cellInProgress
	r.path = append(r.path, c)
	defer func() {
		r.path = r.path[:len(r.path)-1]
		if c.state != cellResolved {
			c.state = cellUnresolved
		}
	}()

	r.logger.Debug("Constructing instance",
		"interface", c.binding.iface.Name().String(),
		"implementation", c.binding.impl.Name().String())

	value, err := r.construct(c.binding.impl, c.binding.args)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to resolve '%s': %w", c.binding.iface.Name(), err)
	}

	// Publish the instance.
	c.value, c.state = value, cellResolved
	r.sequence = append(r.sequence, c)

	if err := r.events.Trigger(NewEvent(InstanceConstructed, c.binding.iface.Name(), value.Interface())); err != nil {
		return reflect.Value{}, fmt.Errorf("failed to trigger instance constructed event: %w", err)
	}

	return value, nil
}

// construct builds a new implementation instance with injected dependencies.
func (r *registry) construct(impl *TypeHandle, args map[string]any) (reflect.Value, error) {
	schema, err := SchemaOf(impl.Type())
	if err != nil {
		return reflect.Value{}, err
	}
	value, err := schema.build(args, r.inject)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to construct '%s': %w", impl.Name(), err)
	}
	return value, nil
}

// inject returns the value of a dependency field.
func (r *registry) inject(field *Field) (reflect.Value, error) {
	if field.IsMultiple() {
		values, err := r.collect(field.dependency)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field '%s': %w", field.Name, err)
		}
		return newMultipleValue(field.Type, values), nil
	}

	// Optional dependencies of unbound interfaces stay empty.
	if field.IsOptional() {
		if _, ok := r.cells[field.dependency]; !ok {
			return newOptionalValue(field.Type, reflect.Value{}), nil
		}
	}

	value, err := r.get(field.dependency)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("field '%s': %w", field.Name, err)
	}

	if field.IsOptional() {
		return newOptionalValue(field.Type, value), nil
	}
	return value, nil
}

// collect resolves the singletons of every binding whose implementation
// satisfies the interface, in registration order.
func (r *registry) collect(ifaceType reflect.Type) ([]reflect.Value, error) {
	var values []reflect.Value
	for _, boundType := range r.order {
		if !reflect.PointerTo(r.cells[boundType].binding.impl.Type()).Implements(ifaceType) {
			continue
		}
		value, err := r.get(boundType)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// findImplementation returns the first registered binding cell for the implementation type.
func (r *registry) findImplementation(implType reflect.Type) (*cell, bool) {
	for _, ifaceType := range r.order {
		if c := r.cells[ifaceType]; c.binding.impl.Type() == implType {
			return c, true
		}
	}
	return nil, false
}

// closeInstances closes resolved singletons in reverse construction order.
func (r *registry) closeInstances() error {
	var errs []error
	for index := len(r.sequence) - 1; index >= 0; index-- {
		c := r.sequence[index]
		if closer, ok := c.value.Interface().(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close '%s': %w", c.binding.iface.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// describeCycle formats the resolution walk from the first visit of the cell.
func (r *registry) describeCycle(c *cell) string {
	names := make([]string, 0, len(r.path)+1)
	for index, walked := range r.path {
		if walked == c {
			for _, member := range r.path[index:] {
				names = append(names, member.binding.iface.Name().String())
			}
			break
		}
	}
	names = append(names, c.binding.iface.Name().String())
	return strings.Join(names, " -> ")
}

// typeName returns the catalog name of the type when known.
func (r *registry) typeName(typ reflect.Type) string {
	if name, ok := r.catalog.nameOf(typ); ok {
		return name.String()
	}
	return typ.String()
}

// isNonEmptyInterface returns true when argument is an interface with methods.
func isNonEmptyInterface(typ reflect.Type) bool {
	return typ.Kind() == reflect.Interface && typ.NumMethod() > 0
}

// isNillableType returns true whether the specified type kind could accept nil.
func isNillableType(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Interface:
		return true
	default:
		return false
	}
}
