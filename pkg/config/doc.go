// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config manages configuration loading and validation for tmplfix.
//
//	            +-------------+
//	            |   Default   |
//	            +------+------+
//	                   |
//	   +---------------+---------------+
//	   |               |               |
//	+--+---+        +--+---+        +--+--+
//	| YAML |        | JSON |        | HCL |
//	+------+        +------+        +-----+
//
// 🎯 Purpose:
// - Supplies the built in root, extension and line threshold
// - Layers an optional config file over them
// - Validates extension, ignore globs and extra rules
//
// 🔄 Flow:
// 1. Start from Default()
// 2. Decode the file (format picked by extension) over it
// 3. Validate and normalize
//
// 🔍 Example:
//
//	cfg, err := config.LoadOrDefault(ctx, ".tmplfix.yaml")
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg) // templates/**/*.hbs (max 10 lines)
//
// A YAML file looks like:
//
//	root: app/templates
//	extension: .hbs
//	max_lines: 10
//	ignore:
//	  - "vendor/**"
//	rules:
//	  - name: break-before-module
//	    pattern: '\s+(module\()'
//	    replacement: "\n\n${1}"
//
// And the same in HCL:
//
//	root      = "app/templates"
//	max_lines = defaults.max_lines
//	ignore    = ["vendor/**"]
//
//	rule "break-before-module" {
//	  pattern     = "\\s+(module\\()"
//	  replacement = "\n\n$${1}"
//	}
package config
