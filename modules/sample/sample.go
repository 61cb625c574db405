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

// Package sample declares the `sample` namespace: a small object graph
// wired entirely from a descriptor.
package sample

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/NVIDIA/confinject"
)

// Namespace is the catalog namespace of this package.
const Namespace = "sample"

func init() {
	confinject.RegisterNamespace(Namespace, declare)
}

// Register declares the sample types in the catalog.
func Register(catalog *confinject.Catalog) {
	catalog.Namespace(Namespace, declare)
}

func declare(ns *confinject.Namespace) {
	ns.Add("Console", confinject.TypeOf[Console]()).
		Add("Stdout", confinject.TypeOf[Stdout]()).
		Add("Buffer", confinject.TypeOf[Buffer]()).
		Add("IC", confinject.TypeOf[IC]()).
		Add("C", confinject.TypeOf[C]()).
		Add("IB", confinject.TypeOf[IB]()).
		Add("B", confinject.TypeOf[B]()).
		Add("App", confinject.TypeOf[App]()).
		Add("IConfiguration", confinject.TypeOf[IConfiguration]()).
		Add("Configuration", confinject.TypeOf[Configuration]()).
		Add("ConfiguredApp", confinject.TypeOf[ConfiguredApp]())
}

// Console receives the sample output.
type Console interface {
	Println(args ...any)
}

// Stdout prints to the process standard output.
type Stdout struct{}

// Println implements Console interface.
func (s *Stdout) Println(args ...any) {
	fmt.Fprintln(os.Stdout, args...)
}

// Buffer keeps printed lines in memory.
type Buffer struct {
	mutex sync.Mutex
	lines []string
}

// Println implements Console interface.
func (b *Buffer) Println(args ...any) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.lines = append(b.lines, strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

// Lines returns the printed lines.
func (b *Buffer) Lines() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return slices.Clone(b.lines)
}

// WriteTo writes the printed lines to the writer.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range b.Lines() {
		n, err := fmt.Fprintln(w, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// console returns the bound console or the standard output.
func console(opt confinject.Optional[Console]) Console {
	if opt.Bound() {
		return opt.Get()
	}
	return &Stdout{}
}

// IC is the leaf service of the graph.
type IC interface {
	Run()
}

// C implements IC.
type C struct {
	Console confinject.Optional[Console] `conf:"console"`
}

// Run implements IC interface.
func (c *C) Run() {
	console(c.Console).Println("C.run")
}

// IB is the middle service of the graph.
type IB interface {
	Run()
}

// B implements IB and calls its IC.
type B struct {
	C       IC                           `conf:"c"`
	Console confinject.Optional[Console] `conf:"console"`
}

// Run implements IB interface.
func (b *B) Run() {
	console(b.Console).Println("B.run")
	b.C.Run()
}

// App is the root of the graph.
type App struct {
	A       int                          `conf:"a"`
	B       IB                           `conf:"b"`
	Table   map[string]any               `conf:"table" default:"{}"`
	Console confinject.Optional[Console] `conf:"console"`
}

// Run prints the configured values and runs the graph below.
func (a *App) Run() {
	out := console(a.Console)
	out.Println(a.A)
	printTable(out, a.Table)
	a.B.Run()
}

// IConfiguration provides the settings of ConfiguredApp.
type IConfiguration interface {
	Settings() *Configuration
}

// Configuration holds settings shared through a binding.
type Configuration struct {
	A     int            `conf:"a"`
	Table map[string]any `conf:"table" default:"{}"`
}

// Settings implements IConfiguration interface.
func (c *Configuration) Settings() *Configuration {
	return c
}

// ConfiguredApp reads its settings from an injected configuration.
type ConfiguredApp struct {
	B       IB                           `conf:"b"`
	Config  IConfiguration               `conf:"config"`
	Console confinject.Optional[Console] `conf:"console"`
}

// Run prints the injected settings and runs the graph below.
func (a *ConfiguredApp) Run() {
	out := console(a.Console)
	settings := a.Config.Settings()
	out.Println(settings.A)
	printTable(out, settings.Table)
	a.B.Run()
}

// printTable prints one `key: value` line per entry in key order.
func printTable(out Console, table map[string]any) {
	for _, key := range slices.Sorted(maps.Keys(table)) {
		out.Println(fmt.Sprintf("%s: %v", key, table[key]))
	}
}
