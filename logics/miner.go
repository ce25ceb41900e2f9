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
	"math"
	"slices"
	"strconv"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/assoc/base/log"
	"github.com/gorse-io/assoc/common/parallel"
	"github.com/gorse-io/assoc/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

var ErrEmptyTransactions = errors.New("transaction set is empty")

type FrequentItemset struct {
	Itemset dataset.Itemset
	Support float64
}

// FrequentLevels holds frequent itemsets grouped by size. Level k keeps itemsets of k
// items in discovery order.
type FrequentLevels struct {
	levels [][]FrequentItemset
}

// Len returns the number of levels. Levels are numbered from 1 to Len().
func (l *FrequentLevels) Len() int {
	return len(l.levels)
}

func (l *FrequentLevels) IsEmpty() bool {
	return len(l.levels) == 0
}

// Level returns a copy of frequent itemsets of size k.
func (l *FrequentLevels) Level(k int) []FrequentItemset {
	if k < 1 || k > len(l.levels) {
		return nil
	}
	return slices.Clone(l.levels[k-1])
}

// All returns frequent itemsets of every level, smaller itemsets first.
func (l *FrequentLevels) All() []FrequentItemset {
	return slices.Concat(l.levels...)
}

type MinerConfig struct {
	MinSupport float64
	// Jobs is the number of goroutines evaluating candidates of a level.
	Jobs int
	// Counter is either CounterScan or CounterBitset.
	Counter string
}

// Miner discovers frequent itemsets level by level. Candidates of level k are all
// k-combinations of items found in frequent itemsets of level k-1.
type Miner struct {
	minSupport float64
	jobs       int
	counter    string
}

func NewMiner(cfg MinerConfig) (*Miner, error) {
	if math.IsNaN(cfg.MinSupport) || cfg.MinSupport <= 0 || cfg.MinSupport > 1 {
		return nil, errors.NotValidf("minimal support %v out of (0, 1]", cfg.MinSupport)
	}
	if cfg.Jobs < 0 {
		return nil, errors.NotValidf("number of jobs %d", cfg.Jobs)
	}
	if cfg.Counter != "" && cfg.Counter != CounterScan && cfg.Counter != CounterBitset {
		return nil, errors.NotValidf("counter %q", cfg.Counter)
	}
	return &Miner{
		minSupport: cfg.MinSupport,
		jobs:       max(cfg.Jobs, 1),
		counter:    cfg.Counter,
	}, nil
}

func (m *Miner) Mine(ts *dataset.TransactionSet) (*FrequentLevels, error) {
	if ts == nil || ts.Len() == 0 {
		return nil, ErrEmptyTransactions
	}
	start := time.Now()
	counter, err := NewCounter(m.counter, ts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	result := &FrequentLevels{}

	level := m.mineSingletons(ts)
	for k := 2; len(level) > 0; k++ {
		result.levels = append(result.levels, level)
		FrequentItemsetsTotal.WithLabelValues(strconv.Itoa(k-1)).Add(float64(len(level)))
		log.Logger().Debug("found frequent itemsets", zap.Int("level", k-1), zap.Int("n_itemsets", len(level)))

		universe := mapset.NewThreadUnsafeSet[string]()
		for _, frequent := range level {
			universe.Append(frequent.Itemset...)
		}
		items := universe.ToSlice()
		slices.Sort(items)
		candidates := Combinations(items, k)
		CandidatesTotal.WithLabelValues(strconv.Itoa(k)).Add(float64(len(candidates)))

		supports := parallel.Map(candidates, m.jobs, func(candidate dataset.Itemset) float64 {
			return Support(counter, candidate)
		})
		level = nil
		for i, candidate := range candidates {
			if supports[i] >= m.minSupport {
				level = append(level, FrequentItemset{Itemset: candidate, Support: supports[i]})
			}
		}
	}

	MineSeconds.Observe(time.Since(start).Seconds())
	log.Logger().Info("mine frequent itemsets",
		zap.Int("n_transactions", ts.Len()),
		zap.Float64("min_support", m.minSupport),
		zap.Int("n_levels", result.Len()),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// mineSingletons counts each item once per transaction and keeps frequent items in
// lexicographic order.
func (m *Miner) mineSingletons(ts *dataset.TransactionSet) []FrequentItemset {
	dict := dataset.NewFreqDict()
	for i := 0; i < ts.Len(); i++ {
		for _, item := range ts.Items(i).ToSlice() {
			dict.Id(item)
		}
	}
	items := make([]string, 0, dict.Count())
	for id := 0; id < dict.Count(); id++ {
		item, _ := dict.String(id)
		items = append(items, item)
	}
	slices.Sort(items)
	CandidatesTotal.WithLabelValues("1").Add(float64(len(items)))

	var level []FrequentItemset
	for _, item := range items {
		id, _ := dict.Lookup(item)
		support := float64(dict.Freq(id)) / float64(ts.Len())
		if support >= m.minSupport {
			level = append(level, FrequentItemset{Itemset: dataset.Itemset{item}, Support: support})
		}
	}
	return level
}
