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
	"cmp"
	"slices"

	"github.com/gorse-io/assoc/base/log"
	"github.com/gorse-io/assoc/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	ErrNoUsers = errors.New("no users to recommend for")
	ErrNoLikes = errors.New("user has no liked items")
)

type RecommendedItem struct {
	Consequent dataset.Itemset
	Confidence float64
	Lift       float64
}

// Recommendation is the result for one user. An empty Items means no rule matches the
// reference item.
type Recommendation struct {
	UserId        string
	ReferenceItem string
	Items         []RecommendedItem
}

func (r *Recommendation) Found() bool {
	return len(r.Items) > 0
}

// Recommender looks up rules whose antecedent is exactly the last item liked by a user.
type Recommender struct {
	rules []AssociationRule
}

func NewRecommender(rules []AssociationRule) *Recommender {
	return &Recommender{rules: slices.Clone(rules)}
}

// Recommend recommends items for the first user.
func (r *Recommender) Recommend(users *dataset.UserLikes) (*Recommendation, error) {
	if users == nil {
		return nil, ErrNoUsers
	}
	userId, ok := users.First()
	if !ok {
		return nil, ErrNoUsers
	}
	return r.RecommendUser(users, userId)
}

func (r *Recommender) RecommendUser(users *dataset.UserLikes, userId string) (*Recommendation, error) {
	if users == nil || users.Len() == 0 {
		return nil, ErrNoUsers
	}
	likes, ok := users.Likes(userId)
	if !ok {
		return nil, errors.NotFoundf("user %v", userId)
	}
	reference, ok := likes.Last()
	if !ok {
		return nil, errors.Annotatef(ErrNoLikes, "user %v", userId)
	}

	antecedent := dataset.Itemset{reference}
	matched := lo.Filter(r.rules, func(rule AssociationRule, _ int) bool {
		return rule.Antecedent.Equal(antecedent)
	})
	slices.SortStableFunc(matched, func(a, b AssociationRule) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	result := &Recommendation{
		UserId:        userId,
		ReferenceItem: reference,
		Items: lo.Map(matched, func(rule AssociationRule, _ int) RecommendedItem {
			return RecommendedItem{Consequent: rule.Consequent, Confidence: rule.Confidence, Lift: rule.Lift}
		}),
	}

	if result.Found() {
		RecommendTotal.WithLabelValues("found").Inc()
	} else {
		RecommendTotal.WithLabelValues("not_found").Inc()
	}
	log.Logger().Info("recommend by association rules",
		zap.String("user_id", userId),
		zap.String("reference_item", reference),
		zap.Int("n_items", len(result.Items)))
	return result, nil
}
