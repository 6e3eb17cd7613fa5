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

// Package operation walks a template tree and rewrites single line template
// files so they are readable.
//
//	+-------------+      +-------------+      +-------------+
//	|  GlobWalk   | ---> |    Gate     | ---> |   Rules     |
//	| **/*<ext>   |      | <= N lines  |      | (pkg/text)  |
//	+-------------+      +-------------+      +------+------+
//	                                                 |
//	                                          +------+------+
//	                                          |   Rewrite   |
//	                                          |  + Console  |
//	                                          +-------------+
//
// 🔄 Flow:
// 1. Match files below the root by extension, minus ignore patterns
// 2. Skip files that already have more lines than the threshold
// 3. Apply every rule once, in order
// 4. Truncate and rewrite the file, print "Fixed: <path>"
// 5. Print "Fixed <N> files" at the end
//
// Processing is sequential. The first read, decode or write error stops the
// run; files already rewritten are not restored.
//
// 🔍 Example:
//
//	ctx = log.NewContext(ctx, log.New(os.Stdout, *zerolog.Ctx(ctx)))
//	r, err := operation.New(ctx, operation.Options{
//		Config: config.Default(),
//	})
//	if err != nil {
//		return err
//	}
//	summary, err := r.Run(ctx, "templates")
package operation
