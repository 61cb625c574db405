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
	"math"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isConfigurableType returns true for types which can be filled from
// configuration: scalars, `any`, and slices, string-keyed maps, and
// pointers composed of them.
func isConfigurableType(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Interface:
		return typ.NumMethod() == 0
	case reflect.Slice, reflect.Ptr:
		return isConfigurableType(typ.Elem())
	case reflect.Map:
		return typ.Key().Kind() == reflect.String && isConfigurableType(typ.Elem())
	default:
		return false
	}
}

// containsInterface returns true when an `any` appears anywhere in the type.
func containsInterface(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Interface:
		return true
	case reflect.Slice, reflect.Ptr, reflect.Map:
		return containsInterface(typ.Elem())
	default:
		return false
	}
}

// assignValue coerces a raw configuration value into the destination.
func assignValue(dst reflect.Value, raw any) error {
	raw = normalizeValue(raw)

	// Nulls are accepted only by nillable types.
	if raw == nil {
		if !isNillableType(dst.Type()) {
			return fmt.Errorf("null can not be used as %s", dst.Type())
		}
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	// Types holding `any` keep raw values, so the shape is checked structurally.
	if containsInterface(dst.Type()) {
		return assignNative(dst, raw)
	}

	return assignCty(dst, raw)
}

// assignNative walks the destination type and checks the raw value shape at every level.
func assignNative(dst reflect.Value, raw any) error {
	switch dst.Kind() {
	case reflect.Interface:
		dst.Set(reflect.ValueOf(raw))
		return nil

	case reflect.Map:
		mapping, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("expected a mapping, got %s", describeValue(raw))
		}
		result := reflect.MakeMapWithSize(dst.Type(), len(mapping))
		for key, item := range mapping {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := assignValue(elem, item); err != nil {
				return fmt.Errorf("key '%s': %w", key, err)
			}
			result.SetMapIndex(reflect.ValueOf(key).Convert(dst.Type().Key()), elem)
		}
		dst.Set(result)
		return nil

	case reflect.Slice:
		list, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("expected a list, got %s", describeValue(raw))
		}
		result := reflect.MakeSlice(dst.Type(), 0, len(list))
		for index, item := range list {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := assignValue(elem, item); err != nil {
				return fmt.Errorf("index %d: %w", index, err)
			}
			result = reflect.Append(result, elem)
		}
		dst.Set(result)
		return nil

	case reflect.Ptr:
		elem := reflect.New(dst.Type().Elem())
		if err := assignValue(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)
		return nil

	default:
		return assignCty(dst, raw)
	}
}

// assignCty converts the raw value through cty to the type implied by the destination.
func assignCty(dst reflect.Value, raw any) error {
	want, err := gocty.ImpliedType(reflect.Zero(dst.Type()).Interface())
	if err != nil {
		return fmt.Errorf("no conversion for %s: %w", dst.Type(), err)
	}

	value, err := nativeToCty(raw)
	if err != nil {
		return err
	}

	converted, err := convert.Convert(value, want)
	if err != nil {
		return fmt.Errorf("%s can not be used as %s: %w", describeValue(raw), dst.Type(), err)
	}

	target := reflect.New(dst.Type())
	if err := gocty.FromCtyValue(converted, target.Interface()); err != nil {
		return fmt.Errorf("%s can not be used as %s: %w", describeValue(raw), dst.Type(), err)
	}
	dst.Set(target.Elem())
	return nil
}

// nativeToCty converts a decoded configuration value into a cty value.
func nativeToCty(raw any) (cty.Value, error) {
	switch value := normalizeValue(raw).(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return value, nil
	case string:
		return cty.StringVal(value), nil
	case bool:
		return cty.BoolVal(value), nil
	case int:
		return cty.NumberIntVal(int64(value)), nil
	case int8:
		return cty.NumberIntVal(int64(value)), nil
	case int16:
		return cty.NumberIntVal(int64(value)), nil
	case int32:
		return cty.NumberIntVal(int64(value)), nil
	case int64:
		return cty.NumberIntVal(value), nil
	case uint:
		return cty.NumberUIntVal(uint64(value)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(value)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(value)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(value)), nil
	case uint64:
		return cty.NumberUIntVal(value), nil
	case float32:
		return floatToCty(float64(value))
	case float64:
		return floatToCty(value)
	case []any:
		if len(value) == 0 {
			return cty.EmptyTupleVal, nil
		}
		items := make([]cty.Value, 0, len(value))
		for index, item := range value {
			converted, err := nativeToCty(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("index %d: %w", index, err)
			}
			items = append(items, converted)
		}
		return cty.TupleVal(items), nil
	case map[string]any:
		if len(value) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(value))
		for key, item := range value {
			converted, err := nativeToCty(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("key '%s': %w", key, err)
			}
			attrs[key] = converted
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported configuration value of type %T", raw)
	}
}

// normalizeValue turns typed Go slices, arrays and string-keyed maps into
// the generic `[]any` and `map[string]any` shapes. Nil slices and maps become null.
func normalizeValue(raw any) any {
	switch raw.(type) {
	case nil, []any, map[string]any, cty.Value:
		return raw
	}

	value := reflect.ValueOf(raw)
	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		if value.Kind() == reflect.Slice && value.IsNil() {
			return nil
		}
		list := make([]any, value.Len())
		for index := range list {
			list[index] = value.Index(index).Interface()
		}
		return list

	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return raw
		}
		if value.IsNil() {
			return nil
		}
		mapping := make(map[string]any, value.Len())
		iter := value.MapRange()
		for iter.Next() {
			mapping[iter.Key().String()] = iter.Value().Interface()
		}
		return mapping

	default:
		return raw
	}
}

// floatToCty converts finite floats only.
func floatToCty(value float64) (cty.Value, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return cty.NilVal, errors.New("non-finite number")
	}
	return cty.NumberFloatVal(value), nil
}

// describeValue names the shape of a raw configuration value for error messages.
func describeValue(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "a mapping"
	case []any:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "a number"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
