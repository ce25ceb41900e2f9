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
	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/assoc/dataset"
	"github.com/juju/errors"
)

const (
	CounterScan   = "scan"
	CounterBitset = "bitset"
)

// Counter counts transactions containing itemsets.
type Counter interface {
	// Count returns the number of transactions containing every item of itemset.
	Count(itemset dataset.Itemset) int
	// Len returns the number of transactions.
	Len() int
}

func NewCounter(kind string, ts *dataset.TransactionSet) (Counter, error) {
	switch kind {
	case CounterScan, "":
		return NewScanCounter(ts), nil
	case CounterBitset:
		return NewBitsetCounter(ts), nil
	default:
		return nil, errors.NotValidf("counter %q", kind)
	}
}

// ScanCounter tests every transaction on each call. Nothing is cached between calls.
type ScanCounter struct {
	transactions *dataset.TransactionSet
}

func NewScanCounter(ts *dataset.TransactionSet) *ScanCounter {
	return &ScanCounter{transactions: ts}
}

func (c *ScanCounter) Count(itemset dataset.Itemset) int {
	count := 0
	for i := 0; i < c.transactions.Len(); i++ {
		if c.transactions.ContainsAll(i, itemset) {
			count++
		}
	}
	return count
}

func (c *ScanCounter) Len() int {
	return c.transactions.Len()
}

// BitsetCounter keeps a bitset of containing transactions for each item. Counting an
// itemset intersects the bitsets of its items.
type BitsetCounter struct {
	n       int
	items   *dataset.FreqDict
	columns []*bitset.BitSet
}

func NewBitsetCounter(ts *dataset.TransactionSet) *BitsetCounter {
	c := &BitsetCounter{n: ts.Len(), items: dataset.NewFreqDict()}
	for i := 0; i < ts.Len(); i++ {
		for _, item := range ts.Items(i).ToSlice() {
			id := c.items.Id(item)
			if id == len(c.columns) {
				c.columns = append(c.columns, bitset.New(uint(c.n)))
			}
			c.columns[id].Set(uint(i))
		}
	}
	return c
}

func (c *BitsetCounter) Count(itemset dataset.Itemset) int {
	if len(itemset) == 0 {
		return c.n
	}
	first, ok := c.items.Lookup(itemset[0])
	if !ok {
		return 0
	}
	if len(itemset) == 1 {
		return c.items.Freq(first)
	}
	acc := c.columns[first].Clone()
	for _, item := range itemset[1:] {
		id, ok := c.items.Lookup(item)
		if !ok {
			return 0
		}
		acc.InPlaceIntersection(c.columns[id])
	}
	return int(acc.Count())
}

func (c *BitsetCounter) Len() int {
	return c.n
}

// Support is the fraction of transactions containing every item of itemset.
func Support(counter Counter, itemset dataset.Itemset) float64 {
	if counter.Len() == 0 {
		return 0
	}
	return float64(counter.Count(itemset)) / float64(counter.Len())
}

// Confidence is the fraction of transactions containing x that also contain y. It is
// zero if no transaction contains x.
func Confidence(counter Counter, x, y dataset.Itemset) float64 {
	countX := counter.Count(x)
	if countX == 0 {
		return 0
	}
	countXY := counter.Count(x.Union(y))
	return float64(countXY) / float64(countX)
}

// Lift is the confidence of x → y divided by the support of y. It is zero if y never
// occurs.
func Lift(counter Counter, x, y dataset.Itemset) float64 {
	supportY := Support(counter, y)
	if supportY == 0 {
		return 0
	}
	return Confidence(counter, x, y) / supportY
}
