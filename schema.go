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
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Struct tags understood by the schema.
const (
	// nameTag overrides the configuration key of a field.
	// The `-` value excludes the field from the schema.
	nameTag = "conf"

	// defaultTag declares a default value in YAML notation.
	// An empty tag value declares the zero value as the default.
	defaultTag = "default"
)

// fieldKind defines how a field is filled.
type fieldKind int

// Fields are filled from arguments or injected by the container.
const (
	fieldData fieldKind = iota
	fieldDependency
	fieldOptionalDependency
	fieldMultipleDependency
)

// Field describes one constructor field of a type.
type Field struct {
	// Name is the configuration key.
	Name string

	// Type is the declared Go type.
	Type reflect.Type

	// HasDefault is true when the field declares a default.
	HasDefault bool

	// Default is the default value in YAML notation.
	Default string

	// Struct field index.
	index []int

	// How the field is filled.
	kind fieldKind

	// Injected interface type for dependency fields.
	dependency reflect.Type
}

// IsDependency returns true for fields injected by the container.
func (f *Field) IsDependency() bool {
	return f.kind != fieldData
}

// IsOptional returns true for optional dependency fields.
func (f *Field) IsOptional() bool {
	return f.kind == fieldOptionalDependency
}

// IsMultiple returns true for fields collecting every matching singleton.
func (f *Field) IsMultiple() bool {
	return f.kind == fieldMultipleDependency
}

// applyDefault decodes the declared default into the value.
func (f *Field) applyDefault(value reflect.Value) error {
	if f.Default == "" {
		value.Set(reflect.Zero(f.Type))
		return nil
	}
	target := reflect.New(f.Type)
	if err := yaml.Unmarshal([]byte(f.Default), target.Interface()); err != nil {
		return fmt.Errorf("%w: default of field '%s': %v", TypeMismatchError, f.Name, err)
	}
	value.Set(target.Elem())
	return nil
}

// Schema is the ordered field schema of a struct type.
type Schema struct {
	typ    reflect.Type
	fields []*Field
	byName map[string]*Field
}

// Type returns the struct type described by the schema.
func (s *Schema) Type() reflect.Type {
	return s.typ
}

// Fields returns fields in declaration order.
func (s *Schema) Fields() []*Field {
	return slices.Clone(s.fields)
}

// Field returns the field with the configuration key.
func (s *Schema) Field(name string) (*Field, bool) {
	field, ok := s.byName[name]
	return field, ok
}

// Dependencies returns the injected fields in declaration order.
func (s *Schema) Dependencies() []*Field {
	var deps []*Field
	for _, field := range s.fields {
		if field.IsDependency() {
			deps = append(deps, field)
		}
	}
	return deps
}

// SchemaOf computes the field schema of a struct type or a pointer to it.
func SchemaOf(typ reflect.Type) (*Schema, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: schema requires a struct type, got %s", TypeMismatchError, typ)
	}

	schema := &Schema{typ: typ, byName: map[string]*Field{}}
	for index := 0; index < typ.NumField(); index++ {
		structField := typ.Field(index)

		// Only exported named fields take part in construction.
		if !structField.IsExported() || structField.Anonymous {
			continue
		}

		name := fieldName(structField)
		if name == "-" {
			continue
		}
		if _, ok := schema.byName[name]; ok {
			return nil, fmt.Errorf("%w: %s declares field '%s' twice", TypeMismatchError, typ, name)
		}

		field := &Field{
			Name:  name,
			Type:  structField.Type,
			index: structField.Index,
		}
		field.Default, field.HasDefault = structField.Tag.Lookup(defaultTag)

		// Classify the field by its declared type.
		optionalType, optional := isOptionalType(structField.Type)
		multipleType, multiple := isMultipleType(structField.Type)
		switch {
		case optional:
			if !isNonEmptyInterface(optionalType) {
				return nil, fmt.Errorf("%w: %s field '%s': optional dependency must be an interface, got %s",
					TypeMismatchError, typ, name, optionalType)
			}
			field.kind, field.dependency = fieldOptionalDependency, optionalType
		case multiple:
			if !isNonEmptyInterface(multipleType) {
				return nil, fmt.Errorf("%w: %s field '%s': multiple dependency must be an interface, got %s",
					TypeMismatchError, typ, name, multipleType)
			}
			field.kind, field.dependency = fieldMultipleDependency, multipleType
		case isNonEmptyInterface(structField.Type):
			field.kind, field.dependency = fieldDependency, structField.Type
		default:
			if !isConfigurableType(structField.Type) {
				return nil, fmt.Errorf("%w: %s field '%s' has unsupported type %s",
					TypeMismatchError, typ, name, structField.Type)
			}
		}

		// Defaults are validated once, up front.
		if field.HasDefault {
			if field.IsDependency() {
				return nil, fmt.Errorf("%w: %s field '%s': injected fields can not declare a default",
					TypeMismatchError, typ, name)
			}
			if err := field.applyDefault(reflect.New(field.Type).Elem()); err != nil {
				return nil, fmt.Errorf("%s: %w", typ, err)
			}
		}

		schema.fields = append(schema.fields, field)
		schema.byName[name] = field
	}

	return schema, nil
}

// merge fills data fields of the struct value from defaults and arguments.
// All validation failures are collected and returned together.
func (s *Schema) merge(target reflect.Value, args map[string]any) error {
	var errs []error

	// Reject keys which are not configurable.
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		field, ok := s.byName[key]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: '%s' is not declared by %s", UnknownFieldError, key, s.typ))
			continue
		}
		if field.IsDependency() {
			errs = append(errs, fmt.Errorf("%w: field '%s' of %s is injected and can not be configured",
				TypeMismatchError, key, s.typ))
		}
	}

	// Apply defaults, then supplied values on top of them.
	for _, field := range s.fields {
		if field.IsDependency() {
			continue
		}
		value := target.FieldByIndex(field.index)
		if raw, ok := args[field.Name]; ok {
			if err := assignValue(value, raw); err != nil {
				errs = append(errs, fmt.Errorf("%w: field '%s' of %s: %v", TypeMismatchError, field.Name, s.typ, err))
			}
			continue
		}
		if field.HasDefault {
			if err := field.applyDefault(value); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		errs = append(errs, fmt.Errorf("%w: '%s' of %s", MissingRequiredFieldError, field.Name, s.typ))
	}

	return errors.Join(errs...)
}

// build creates a new instance, injecting dependencies with the provided
// function and merging the arguments into the data fields.
func (s *Schema) build(args map[string]any, inject func(*Field) (reflect.Value, error)) (reflect.Value, error) {
	instance := reflect.New(s.typ)

	// Satisfy dependencies first, in declaration order.
	if inject != nil {
		for _, field := range s.fields {
			if !field.IsDependency() {
				continue
			}
			value, err := inject(field)
			if err != nil {
				return reflect.Value{}, err
			}
			if value.IsValid() {
				instance.Elem().FieldByIndex(field.index).Set(value)
			}
		}
	}

	// Merge configuration into the data fields.
	if err := s.merge(instance.Elem(), args); err != nil {
		return reflect.Value{}, err
	}

	// Complete the construction.
	if initializer, ok := instance.Interface().(Initializer); ok {
		if err := initializer.Init(); err != nil {
			return reflect.Value{}, fmt.Errorf("failed to init %s: %w", s.typ, err)
		}
	}

	return instance, nil
}

// Initializer is implemented by types which complete their construction
// once every field is set.
type Initializer interface {
	Init() error
}

// Instantiate validates the arguments against the schema of the type and
// returns a new instance pointer. Dependency fields are left empty.
func Instantiate(handle *TypeHandle, args map[string]any) (any, error) {
	schema, err := SchemaOf(handle.Type())
	if err != nil {
		return nil, err
	}
	instance, err := schema.build(args, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate '%s': %w", handle.Name(), err)
	}
	return instance.Interface(), nil
}

// Merge validates the arguments against the schema of the struct pointer
// and fills its data fields.
func Merge(structPtr any, args map[string]any) error {
	value := reflect.ValueOf(structPtr)
	if value.Kind() != reflect.Ptr || value.IsNil() || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a non-nil pointer to a struct, got %T", TypeMismatchError, structPtr)
	}
	schema, err := SchemaOf(value.Type())
	if err != nil {
		return err
	}
	return schema.merge(value.Elem(), args)
}

// fieldName returns the configuration key of the struct field.
func fieldName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup(nameTag); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name
		}
	}
	first, size := utf8.DecodeRuneInString(field.Name)
	return string(unicode.ToLower(first)) + field.Name[size:]
}
