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
	"time"

	"github.com/gorse-io/assoc/base/log"
	"github.com/gorse-io/assoc/common/parallel"
	"github.com/gorse-io/assoc/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// RoundScore rounds a score to 2 decimals.
func RoundScore(x float64) float64 {
	return math.Round(x*100) / 100
}

// AssociationRule states that users who like every item of Antecedent are likely to
// like every item of Consequent.
type AssociationRule struct {
	Antecedent dataset.Itemset
	Consequent dataset.Itemset
	Confidence float64
	Lift       float64
}

func NewAssociationRule(antecedent, consequent dataset.Itemset, confidence, lift float64) (AssociationRule, error) {
	if antecedent.Len() == 0 || consequent.Len() == 0 {
		return AssociationRule{}, errors.NotValidf("empty side of rule %v -> %v", antecedent, consequent)
	}
	if !antecedent.IsDisjoint(consequent) {
		return AssociationRule{}, errors.NotValidf("overlapping rule %v -> %v", antecedent, consequent)
	}
	return AssociationRule{
		Antecedent: antecedent,
		Consequent: consequent,
		Confidence: confidence,
		Lift:       lift,
	}, nil
}

// Itemset returns the frequent itemset the rule is derived from.
func (r AssociationRule) Itemset() dataset.Itemset {
	return r.Antecedent.Union(r.Consequent)
}

func (r AssociationRule) String() string {
	return r.Antecedent.String() + " -> " + r.Consequent.String()
}

type RuleConfig struct {
	MinConfidence float64
	Jobs          int
	Counter       string
}

type RuleGenerator struct {
	minConfidence float64
	jobs          int
	counter       string
}

func NewRuleGenerator(cfg RuleConfig) (*RuleGenerator, error) {
	if math.IsNaN(cfg.MinConfidence) || cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return nil, errors.NotValidf("minimal confidence %v out of [0, 1]", cfg.MinConfidence)
	}
	if cfg.Jobs < 0 {
		return nil, errors.NotValidf("number of jobs %d", cfg.Jobs)
	}
	if cfg.Counter != "" && cfg.Counter != CounterScan && cfg.Counter != CounterBitset {
		return nil, errors.NotValidf("counter %q", cfg.Counter)
	}
	return &RuleGenerator{
		minConfidence: cfg.MinConfidence,
		jobs:          max(cfg.Jobs, 1),
		counter:       cfg.Counter,
	}, nil
}

// Generate splits every frequent itemset of at least 2 items into antecedent and
// consequent. Rules are ordered by itemset, then by antecedent size, then by the order
// of Combinations.
func (g *RuleGenerator) Generate(levels *FrequentLevels, ts *dataset.TransactionSet) ([]AssociationRule, error) {
	if levels == nil || levels.IsEmpty() {
		return nil, nil
	}
	if ts == nil || ts.Len() == 0 {
		return nil, ErrEmptyTransactions
	}
	start := time.Now()
	counter, err := NewCounter(g.counter, ts)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var itemsets []dataset.Itemset
	for _, frequent := range levels.All() {
		if frequent.Itemset.Len() >= 2 {
			itemsets = append(itemsets, frequent.Itemset)
		}
	}
	results := parallel.Map(itemsets, g.jobs, func(itemset dataset.Itemset) []AssociationRule {
		return g.split(counter, itemset)
	})
	rules := slices.Concat(results...)

	RulesTotal.Add(float64(len(rules)))
	GenerateRulesSeconds.Observe(time.Since(start).Seconds())
	log.Logger().Info("generate association rules",
		zap.Int("n_itemsets", len(itemsets)),
		zap.Float64("min_confidence", g.minConfidence),
		zap.Int("n_rules", len(rules)),
		zap.Duration("duration", time.Since(start)))
	return rules, nil
}

func (g *RuleGenerator) split(counter Counter, itemset dataset.Itemset) []AssociationRule {
	var rules []AssociationRule
	for i := 1; i < itemset.Len(); i++ {
		for _, antecedent := range Combinations(itemset, i) {
			consequent := itemset.Difference(antecedent)
			confidence := Confidence(counter, antecedent, consequent)
			if confidence < g.minConfidence {
				continue
			}
			rule, err := NewAssociationRule(antecedent, consequent,
				RoundScore(confidence), RoundScore(Lift(counter, antecedent, consequent)))
			if err != nil {
				log.Logger().Error("invalid association rule", zap.Error(err))
				continue
			}
			rules = append(rules, rule)
		}
	}
	return rules
}
