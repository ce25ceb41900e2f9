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

package dataset

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Itemset is a set of distinct items. Items are kept sorted so that equal sets have equal
// representations.
type Itemset []string

// NewItemset sorts items and removes duplicates.
func NewItemset(items ...string) Itemset {
	s := lo.Uniq(items)
	slices.Sort(s)
	return s
}

func (s Itemset) Len() int {
	return len(s)
}

// Key is a hashable form of the itemset.
func (s Itemset) Key() string {
	return strings.Join(s, "\x1f")
}

func (s Itemset) Equal(o Itemset) bool {
	return slices.Equal(s, o)
}

func (s Itemset) Contains(item string) bool {
	_, found := slices.BinarySearch(s, item)
	return found
}

func (s Itemset) Union(o Itemset) Itemset {
	return NewItemset(append(slices.Clone(s), o...)...)
}

// Difference returns items of s not in o.
func (s Itemset) Difference(o Itemset) Itemset {
	return lo.Filter(s, func(item string, _ int) bool {
		return !o.Contains(item)
	})
}

func (s Itemset) IsDisjoint(o Itemset) bool {
	return !lo.SomeBy(s, o.Contains)
}

func (s Itemset) String() string {
	return "(" + strings.Join(s, ", ") + ")"
}

// Transaction is the ordered list of items liked by a user. The last item is the most
// recently liked one.
type Transaction []string

func (t Transaction) Last() (string, bool) {
	if len(t) == 0 {
		return "", false
	}
	return t[len(t)-1], true
}
