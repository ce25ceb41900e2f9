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

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gorse-io/assoc/base/log"
	"github.com/gorse-io/assoc/common/expression"
	"github.com/gorse-io/assoc/config"
	"github.com/gorse-io/assoc/dataset"
	"github.com/gorse-io/assoc/logics"
	"github.com/gorse-io/assoc/storage/data"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Report is the outcome of mining.
type Report struct {
	Levels         *logics.FrequentLevels
	Rules          []logics.AssociationRule
	Recommendation *logics.Recommendation
}

// loadRatings reads ratings and movies from the database if configured, otherwise from
// csv files.
func loadRatings(ctx context.Context, conf *config.Config) ([]data.Rating, []data.Movie, error) {
	if conf.DataSource.Database != "" {
		database, err := data.Open(conf.DataSource.Database, conf.DataSource.TablePrefix)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		defer database.Close()
		log.Logger().Info("load ratings from database",
			zap.String("database", log.RedactDBURL(conf.DataSource.Database)))
		ratings, err := database.GetRatings(ctx)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		movies, err := database.GetMovies(ctx)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		return ratings, movies, nil
	}
	ratings, err := dataset.LoadRatings(conf.DataSource.RatingsFile)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	movies, err := dataset.LoadMovies(conf.DataSource.MoviesFile)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return ratings, movies, nil
}

func mine(ctx context.Context, conf *config.Config) (*Report, error) {
	like, err := expression.ParseLikeExpression(conf.DataSource.LikeExpression)
	if err != nil {
		return nil, errors.Trace(err)
	}
	ratings, movies, err := loadRatings(ctx, conf)
	if err != nil {
		return nil, errors.Trace(err)
	}
	users, err := dataset.Preprocess(ratings, movies, like, conf.Recommend.UserOrder)
	if err != nil {
		return nil, errors.Trace(err)
	}
	transactions := users.Transactions()

	miner, err := logics.NewMiner(conf.Mining.MinerConfig())
	if err != nil {
		return nil, errors.Trace(err)
	}
	levels, err := miner.Mine(transactions)
	if err != nil {
		return nil, errors.Trace(err)
	}
	generator, err := logics.NewRuleGenerator(conf.Mining.RuleConfig())
	if err != nil {
		return nil, errors.Trace(err)
	}
	rules, err := generator.Generate(levels, transactions)
	if err != nil {
		return nil, errors.Trace(err)
	}

	recommender := logics.NewRecommender(rules)
	var recommendation *logics.Recommendation
	if conf.Recommend.UserId != "" {
		recommendation, err = recommender.RecommendUser(users, conf.Recommend.UserId)
	} else {
		recommendation, err = recommender.Recommend(users)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Report{
		Levels:         levels,
		Rules:          rules,
		Recommendation: recommendation,
	}, nil
}

// writeMetrics dumps registered metrics in the text exposition format.
func writeMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("write metrics", zap.String("path", path))
	return nil
}

func formatScore(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// Print writes frequent itemsets, association rules and the recommendation as tables.
func (r *Report) Print(w io.Writer) error {
	fmt.Fprintln(w, "Frequent itemsets (sorted by item within each level):")
	table := tablewriter.NewWriter(w)
	table.Header("level", "itemset", "support")
	for k := 1; k <= r.Levels.Len(); k++ {
		for _, frequent := range r.Levels.Level(k) {
			if err := table.Append([]string{
				strconv.Itoa(k),
				frequent.Itemset.String(),
				formatScore(logics.RoundScore(frequent.Support)),
			}); err != nil {
				return errors.Trace(err)
			}
		}
	}
	if err := table.Render(); err != nil {
		return errors.Trace(err)
	}

	fmt.Fprintln(w, "Association rules:")
	table = tablewriter.NewWriter(w)
	table.Header("antecedent", "consequent", "confidence", "lift")
	for _, rule := range r.Rules {
		if err := table.Append([]string{
			rule.Antecedent.String(),
			rule.Consequent.String(),
			formatScore(rule.Confidence),
			formatScore(rule.Lift),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	if err := table.Render(); err != nil {
		return errors.Trace(err)
	}

	fmt.Fprintf(w, "Recommendation for user %s who liked %s:\n",
		r.Recommendation.UserId, r.Recommendation.ReferenceItem)
	if !r.Recommendation.Found() {
		fmt.Fprintln(w, "no recommendation found")
		return nil
	}
	table = tablewriter.NewWriter(w)
	table.Header("recommendation", "confidence", "lift")
	for _, item := range r.Recommendation.Items {
		if err := table.Append([]string{
			item.Consequent.String(),
			formatScore(item.Confidence),
			formatScore(item.Lift),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
