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
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// TypeHandle is a type loaded from the catalog.
type TypeHandle struct {
	name QualifiedName
	typ  reflect.Type
}

// Name returns the qualified name of the type.
func (h *TypeHandle) Name() QualifiedName { return h.name }

// Type returns the reflected Go type.
func (h *TypeHandle) Type() reflect.Type { return h.typ }

// IsInterface returns true for handles of Go interface types.
func (h *TypeHandle) IsInterface() bool { return h.typ.Kind() == reflect.Interface }

// String implements fmt.Stringer.
func (h *TypeHandle) String() string { return h.name.String() }

// TypeOf returns the reflected type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Namespace is a named set of constructible and bindable types.
type Namespace struct {
	name  string
	types map[string]reflect.Type
	order []string
}

// Name returns the namespace name.
func (n *Namespace) Name() string { return n.name }

// Add declares a type in the namespace and returns the namespace for chaining.
// Only struct types (instantiated as pointers) and interface types are accepted.
func (n *Namespace) Add(name string, typ reflect.Type) *Namespace {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct && typ.Kind() != reflect.Interface {
		panic(fmt.Sprintf("confinject: namespace '%s': type '%s' must be a struct or an interface, got %s", n.name, name, typ))
	}
	if _, ok := n.types[name]; !ok {
		n.order = append(n.order, name)
	}
	n.types[name] = typ
	return n
}

// Types returns declared type names in declaration order.
func (n *Namespace) Types() []string {
	return slices.Clone(n.order)
}

// namespaceEntry defers namespace population until the first lookup.
type namespaceEntry struct {
	once      sync.Once
	loader    func(*Namespace)
	namespace *Namespace
}

// load populates the namespace exactly once.
func (e *namespaceEntry) load() *Namespace {
	e.once.Do(func() {
		if e.loader != nil {
			e.loader(e.namespace)
		}
	})
	return e.namespace
}

// Catalog is the closed universe of types which references can be resolved to.
// Every type is declared explicitly at program initialization.
type Catalog struct {
	mutex      sync.RWMutex
	namespaces map[string]*namespaceEntry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{namespaces: map[string]*namespaceEntry{}}
}

// Namespace declares a namespace with a loader adding its types.
// The loader runs lazily on the first lookup of the namespace.
// Declaring the same namespace twice replaces the previous loader.
func (c *Catalog) Namespace(name string, loader func(*Namespace)) *Catalog {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.namespaces[name] = &namespaceEntry{
		loader:    loader,
		namespace: &Namespace{name: name, types: map[string]reflect.Type{}},
	}
	return c
}

// Namespaces returns declared namespace names in sorted order.
func (c *Catalog) Namespaces() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	names := make([]string, 0, len(c.namespaces))
	for name := range c.namespaces {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the loaded namespace.
func (c *Catalog) Lookup(namespace string) (*Namespace, error) {
	c.mutex.RLock()
	entry, ok := c.namespaces[namespace]
	c.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", NamespaceNotFoundError, namespace)
	}
	return entry.load(), nil
}

// Load resolves the type referenced by the qualified name.
// The method part of the name is ignored.
func (c *Catalog) Load(name QualifiedName) (*TypeHandle, error) {
	namespace, err := c.Lookup(name.Namespace())
	if err != nil {
		return nil, err
	}
	typ, ok := namespace.types[name.TypeName()]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' in namespace '%s'", TypeNotFoundError, name.TypeName(), name.Namespace())
	}
	return &TypeHandle{name: name.Type(), typ: typ}, nil
}

// LoadString parses the reference and resolves its type.
func (c *Catalog) LoadString(ref string) (*TypeHandle, error) {
	name, err := ParseQualifiedName(ref)
	if err != nil {
		return nil, err
	}
	return c.Load(name)
}

// nameOf returns the catalog name of a Go type, if declared in a loaded namespace.
func (c *Catalog) nameOf(typ reflect.Type) (QualifiedName, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for nsName, entry := range c.namespaces {
		namespace := entry.load()
		for _, typeName := range namespace.order {
			if namespace.types[typeName] == typ {
				return QualifiedName{namespace: nsName, typeName: typeName}, true
			}
		}
	}
	return QualifiedName{}, false
}

// defaultCatalog is the process-wide catalog.
var defaultCatalog = NewCatalog()

// DefaultCatalog returns the process-wide catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// RegisterNamespace declares a namespace in the process-wide catalog.
// It is meant to be called from package init functions.
func RegisterNamespace(name string, loader func(*Namespace)) {
	defaultCatalog.Namespace(name, loader)
}
