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
	"reflect"
)

// Multiple declares a dependency field holding the singletons of every bound
// interface whose implementation satisfies T, in registration order.
//
// Example:
//
//	type Server struct {
//		Routes confinject.Multiple[Routes]
//	}
type Multiple[T any] []T

// Multiple marks this type as multiple.
func (m Multiple[T]) Multiple() {}

// isMultipleType checks and returns the collected element type.
func isMultipleType(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() == reflect.Slice {
		if _, ok := typ.MethodByName("Multiple"); ok {
			return typ.Elem(), true
		}
	}
	return nil, false
}

// newMultipleValue boxes the collected instances.
func newMultipleValue(typ reflect.Type, values []reflect.Value) reflect.Value {
	box := reflect.MakeSlice(typ, 0, len(values))
	for _, value := range values {
		elem := reflect.New(typ.Elem()).Elem()
		elem.Set(value)
		box = reflect.Append(box, elem)
	}
	return box
}
