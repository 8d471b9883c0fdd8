// Copyright 2020-2021 Dolthub, Inc.
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

package sql

import "github.com/mitchellh/hashstructure"

// HashKey collapses a heterogeneous key tuple (the columns a
// TreeIndex/TreeMerge pair match rows on) into a single uint64, letting
// generated TreeIndex implementations build a map[uint64][]int without
// hand-rolling a composite-key hash for every entity's key shape.
func HashKey(args []SqlArg) (uint64, error) {
	values := make([]interface{}, len(args))
	for i, a := range args {
		values[i] = a.Value()
	}
	return hashstructure.Hash(values, nil)
}
