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

// Package modules registers the bundled namespaces.
// Importing it declares them in the process-wide catalog.
package modules

import (
	"github.com/NVIDIA/confinject"
	"github.com/NVIDIA/confinject/modules/httpsvr"
	"github.com/NVIDIA/confinject/modules/sample"
)

// RegisterAll declares every bundled namespace in the catalog.
func RegisterAll(catalog *confinject.Catalog) {
	sample.Register(catalog)
	httpsvr.Register(catalog)
}
