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
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/gorse-io/assoc/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func newTransactionSet(transactions ...dataset.Transaction) *dataset.TransactionSet {
	return dataset.NewTransactionSet(transactions)
}

// [[A,B],[A,B,C],[A],[B,C]]
func newABCTransactions() *dataset.TransactionSet {
	return newTransactionSet(
		dataset.Transaction{"A", "B"},
		dataset.Transaction{"A", "B", "C"},
		dataset.Transaction{"A"},
		dataset.Transaction{"B", "C"},
	)
}

func newRandomTransactions(seed uint64, numTransactions, numItems int) *dataset.TransactionSet {
	rng := rand.New(rand.NewPCG(seed, seed))
	transactions := make([]dataset.Transaction, numTransactions)
	for i := range transactions {
		for j := 0; j < numItems; j++ {
			if rng.Float64() < 0.4 {
				transactions[i] = append(transactions[i], "item"+strconv.Itoa(j))
			}
		}
	}
	return dataset.NewTransactionSet(transactions)
}

func forEachCounter(t *testing.T, ts *dataset.TransactionSet, f func(t *testing.T, counter Counter)) {
	for _, kind := range []string{CounterScan, CounterBitset} {
		t.Run(kind, func(t *testing.T) {
			counter, err := NewCounter(kind, ts)
			assert.NoError(t, err)
			f(t, counter)
		})
	}
}

func TestNewCounter(t *testing.T) {
	ts := newABCTransactions()
	counter, err := NewCounter("", ts)
	assert.NoError(t, err)
	assert.IsType(t, &ScanCounter{}, counter)
	counter, err = NewCounter(CounterBitset, ts)
	assert.NoError(t, err)
	assert.IsType(t, &BitsetCounter{}, counter)
	_, err = NewCounter("fp-tree", ts)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestSupport(t *testing.T) {
	forEachCounter(t, newABCTransactions(), func(t *testing.T, counter Counter) {
		assert.Equal(t, 4, counter.Len())
		assert.Equal(t, 0.75, Support(counter, dataset.NewItemset("A")))
		assert.Equal(t, 0.75, Support(counter, dataset.NewItemset("B")))
		assert.Equal(t, 0.5, Support(counter, dataset.NewItemset("C")))
		assert.Equal(t, 0.5, Support(counter, dataset.NewItemset("A", "B")))
		assert.Equal(t, 0.25, Support(counter, dataset.NewItemset("A", "B", "C")))
		assert.Equal(t, 0.0, Support(counter, dataset.NewItemset("D")))
		assert.Equal(t, 0.0, Support(counter, dataset.NewItemset("A", "D")))
	})
}

func TestSupportDuplicates(t *testing.T) {
	ts := newTransactionSet(dataset.Transaction{"A", "A", "B"}, dataset.Transaction{"B"})
	forEachCounter(t, ts, func(t *testing.T, counter Counter) {
		assert.Equal(t, 0.5, Support(counter, dataset.NewItemset("A")))
		assert.Equal(t, 1.0, Support(counter, dataset.NewItemset("B")))
	})
}

func TestSupportEmptyTransactions(t *testing.T) {
	forEachCounter(t, newTransactionSet(), func(t *testing.T, counter Counter) {
		assert.Equal(t, 0.0, Support(counter, dataset.NewItemset("A")))
		assert.Equal(t, 0.0, Confidence(counter, dataset.NewItemset("A"), dataset.NewItemset("B")))
		assert.Equal(t, 0.0, Lift(counter, dataset.NewItemset("A"), dataset.NewItemset("B")))
	})
}

func TestSupportAntiMonotone(t *testing.T) {
	ts := newRandomTransactions(42, 200, 8)
	forEachCounter(t, ts, func(t *testing.T, counter Counter) {
		items := make([]string, 8)
		for i := range items {
			items[i] = "item" + strconv.Itoa(i)
		}
		for k := 1; k < len(items); k++ {
			for _, subset := range Combinations(items, k) {
				support := Support(counter, subset)
				assert.GreaterOrEqual(t, support, 0.0)
				assert.LessOrEqual(t, support, 1.0)
				for _, item := range items {
					if subset.Contains(item) {
						continue
					}
					superset := subset.Union(dataset.NewItemset(item))
					assert.LessOrEqual(t, Support(counter, superset), support)
				}
			}
		}
	})
}

func TestConfidence(t *testing.T) {
	forEachCounter(t, newABCTransactions(), func(t *testing.T, counter Counter) {
		a, b, c := dataset.NewItemset("A"), dataset.NewItemset("B"), dataset.NewItemset("C")
		// count(A) = 3, count(A,B) = 2
		assert.InDelta(t, 2.0/3.0, Confidence(counter, a, b), 1e-9)
		assert.Equal(t, 0.67, RoundScore(Confidence(counter, a, b)))
		assert.InDelta(t, 2.0/3.0, Confidence(counter, b, c), 1e-9)
		assert.Equal(t, 1.0, Confidence(counter, c, b))
		assert.Equal(t, 0.0, Confidence(counter, dataset.NewItemset("D"), a))
		assert.Equal(t, 0.0, Confidence(counter, a, dataset.NewItemset("D")))
	})
}

func TestLift(t *testing.T) {
	forEachCounter(t, newABCTransactions(), func(t *testing.T, counter Counter) {
		a, b, c := dataset.NewItemset("A"), dataset.NewItemset("B"), dataset.NewItemset("C")
		// confidence(A→B) / support(B) = (2/3) / (3/4)
		assert.InDelta(t, 8.0/9.0, Lift(counter, a, b), 1e-9)
		// confidence(C→B) / support(B) = 1 / (3/4)
		assert.InDelta(t, 4.0/3.0, Lift(counter, c, b), 1e-9)
		assert.Equal(t, 0.0, Lift(counter, a, dataset.NewItemset("D")))
		assert.Equal(t, 0.0, Lift(counter, dataset.NewItemset("D"), a))
	})
}

func TestRuleDirection(t *testing.T) {
	// A appears everywhere, B only in half of the transactions.
	ts := newTransactionSet(
		dataset.Transaction{"A", "B"},
		dataset.Transaction{"A", "B"},
		dataset.Transaction{"A"},
		dataset.Transaction{"A", "C"},
	)
	forEachCounter(t, ts, func(t *testing.T, counter Counter) {
		a, b := dataset.NewItemset("A"), dataset.NewItemset("B")
		// confidence depends on the direction
		assert.Equal(t, 0.5, Confidence(counter, a, b))
		assert.Equal(t, 1.0, Confidence(counter, b, a))
		// lift normalizes by the consequent, which cancels the direction for disjoint
		// itemsets: support(A∪B) / (support(A) × support(B))
		assert.InDelta(t, 1.0, Lift(counter, a, b), 1e-9)
		assert.InDelta(t, Lift(counter, a, b), Lift(counter, b, a), 1e-9)
	})
}

func TestCountersAgree(t *testing.T) {
	ts := newRandomTransactions(7, 300, 10)
	scan, bits := NewScanCounter(ts), NewBitsetCounter(ts)
	items := make([]string, 11)
	for i := range items {
		items[i] = "item" + strconv.Itoa(i) // item10 never occurs
	}
	for k := 1; k <= 4; k++ {
		for _, subset := range Combinations(items, k) {
			assert.Equal(t, scan.Count(subset), bits.Count(subset), subset.String())
		}
	}
	assert.Equal(t, scan.Count(nil), bits.Count(nil))
}
