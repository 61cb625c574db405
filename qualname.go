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
	"strings"
)

// QualifiedName identifies a type, and optionally a method of the type,
// by a namespace and a name without loading it.
//
// The textual form is `namespace:Type` or `namespace:Type.method`.
type QualifiedName struct {
	namespace  string
	typeName   string
	methodName string
}

// ParseQualifiedName parses the `namespace:Type[.method]` reference.
func ParseQualifiedName(ref string) (QualifiedName, error) {
	// Exactly one namespace separator is allowed.
	if strings.Count(ref, ":") != 1 {
		return QualifiedName{}, fmt.Errorf("%w: '%s': expected 'namespace:Type[.method]'", MalformedReferenceError, ref)
	}

	namespace, typePart, _ := strings.Cut(ref, ":")
	if namespace == "" {
		return QualifiedName{}, fmt.Errorf("%w: '%s': empty namespace", MalformedReferenceError, ref)
	}

	// The type segment carries at most one method separator.
	if strings.Count(typePart, ".") > 1 {
		return QualifiedName{}, fmt.Errorf("%w: '%s': more than one '.' in type segment", MalformedReferenceError, ref)
	}

	typeName, methodName, hasMethod := strings.Cut(typePart, ".")
	if typeName == "" {
		return QualifiedName{}, fmt.Errorf("%w: '%s': empty type name", MalformedReferenceError, ref)
	}
	if hasMethod && methodName == "" {
		return QualifiedName{}, fmt.Errorf("%w: '%s': empty method name", MalformedReferenceError, ref)
	}

	return QualifiedName{namespace: namespace, typeName: typeName, methodName: methodName}, nil
}

// MustParseQualifiedName is like ParseQualifiedName but panics on malformed references.
func MustParseQualifiedName(ref string) QualifiedName {
	name, err := ParseQualifiedName(ref)
	if err != nil {
		panic(err)
	}
	return name
}

// Namespace returns the namespace part.
func (n QualifiedName) Namespace() string { return n.namespace }

// TypeName returns the type name part.
func (n QualifiedName) TypeName() string { return n.typeName }

// MethodName returns the method name part, empty when absent.
func (n QualifiedName) MethodName() string { return n.methodName }

// HasMethod reports whether the reference names a method.
func (n QualifiedName) HasMethod() bool { return n.methodName != "" }

// Type returns the reference without the method part.
func (n QualifiedName) Type() QualifiedName {
	return QualifiedName{namespace: n.namespace, typeName: n.typeName}
}

// String reconstructs the textual reference.
func (n QualifiedName) String() string {
	if n.methodName == "" {
		return n.namespace + ":" + n.typeName
	}
	return n.namespace + ":" + n.typeName + "." + n.methodName
}
