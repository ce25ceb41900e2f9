// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logics

import (
	"slices"

	"github.com/gorse-io/assoc/dataset"
)

// Combinations returns all k-sized subsets of items in lexicographic order of positions.
// Items are expected to be distinct. An empty result is returned if k is out of [1, n].
func Combinations(items []string, k int) []dataset.Itemset {
	if k <= 0 || k > len(items) {
		return nil
	}
	var (
		result  []dataset.Itemset
		current = make([]string, 0, k)
	)
	var backtrack func(start int)
	backtrack = func(start int) {
		if len(current) == k {
			result = append(result, slices.Clone(current))
			return
		}
		// stop early when the remaining items cannot fill the combination
		for i := start; i <= len(items)-(k-len(current)); i++ {
			current = append(current, items[i])
			backtrack(i + 1)
			current = current[:len(current)-1]
		}
	}
	backtrack(0)
	return result
}
