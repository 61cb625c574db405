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

import "errors"

// Reference resolution errors.
var (
	// MalformedReferenceError is returned when a qualified name violates
	// the `namespace:Type[.method]` syntax.
	MalformedReferenceError = errors.New("malformed reference")

	// NamespaceNotFoundError is returned when a namespace is not declared in the catalog.
	NamespaceNotFoundError = errors.New("namespace not found")

	// TypeNotFoundError is returned when a namespace does not contain the type.
	TypeNotFoundError = errors.New("type not found")
)

// Schema merge errors.
var (
	// UnknownFieldError is returned for argument keys absent from the target schema.
	UnknownFieldError = errors.New("unknown field")

	// TypeMismatchError is returned when a value can not be coerced to the declared type.
	TypeMismatchError = errors.New("type mismatch")

	// MissingRequiredFieldError is returned for fields with neither a default nor a value.
	MissingRequiredFieldError = errors.New("missing required field")
)

// Graph resolution errors.
var (
	// UnboundInterfaceError is returned when an interface has no registered binding.
	UnboundInterfaceError = errors.New("unbound interface")

	// CyclicDependencyError is returned when resolution revisits an interface
	// which is still under construction.
	CyclicDependencyError = errors.New("cyclic dependency")

	// UnsupportedScopeError is returned for binding scopes other than singleton.
	UnsupportedScopeError = errors.New("unsupported scope")
)

// Entry point errors.
var (
	// MissingEntryPointError is returned when the main reference names no method.
	MissingEntryPointError = errors.New("missing entry point")

	// EntryPointNotFoundError is returned when the main type has no usable method
	// with the entry point name.
	EntryPointNotFoundError = errors.New("entry point not found")
)
