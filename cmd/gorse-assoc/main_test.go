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
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/assoc/config"
	"github.com/gorse-io/assoc/dataset"
	"github.com/gorse-io/assoc/logics"
	"github.com/gorse-io/assoc/storage"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

const testRatings = `userId,movieId,rating,timestamp
3,1,4.0,1260759144
3,2,5.0,1260759179
1,2,3.5,1260759182
1,4,2.0,1260759185
1,3,3.0,1260759205
2,1,4.5,1260759151
2,99,5.0,1260759152
2,2,4.0,1260759187
3,3,4.0,1260759200
4,1,3.0,1260759210
`

const testMovies = `id,title,genres
1,A,"[{'id': 16, 'name': 'Animation'}, {'id': 35, 'name': 'Comedy'}]"
2,B,"[{'id': 12, 'name': 'Adventure'}]"
1997-08-20,broken,[]
3,C,[]
4,D,"[{'id': 18, 'name': 'Drama'}]"
`

func newTestConfig(t *testing.T) *config.Config {
	return newTestConfigWithMovies(t, testMovies)
}

func newTestConfigWithMovies(t *testing.T, movies string) *config.Config {
	dir := t.TempDir()
	conf := config.GetDefaultConfig()
	conf.DataSource.RatingsFile = filepath.Join(dir, "ratings.csv")
	conf.DataSource.MoviesFile = filepath.Join(dir, "movies.csv")
	assert.NoError(t, os.WriteFile(conf.DataSource.RatingsFile, []byte(testRatings), 0644))
	assert.NoError(t, os.WriteFile(conf.DataSource.MoviesFile, []byte(movies), 0644))
	conf.Mining.MinSupport = 0.5
	conf.Mining.MinConfidence = 0.6
	return conf
}

func TestMine(t *testing.T) {
	conf := newTestConfig(t)
	report, err := mine(context.Background(), conf)
	assert.NoError(t, err)

	assert.Equal(t, []logics.FrequentItemset{
		{Itemset: dataset.Itemset{"A"}, Support: 0.75},
		{Itemset: dataset.Itemset{"B"}, Support: 0.75},
		{Itemset: dataset.Itemset{"C"}, Support: 0.5},
	}, report.Levels.Level(1))
	assert.Equal(t, []logics.FrequentItemset{
		{Itemset: dataset.Itemset{"A", "B"}, Support: 0.5},
		{Itemset: dataset.Itemset{"B", "C"}, Support: 0.5},
	}, report.Levels.Level(2))
	assert.Len(t, report.Rules, 4)
	assert.Equal(t, "1", report.Recommendation.UserId)
	assert.Equal(t, "C", report.Recommendation.ReferenceItem)
	assert.Equal(t, []logics.RecommendedItem{
		{Consequent: dataset.Itemset{"B"}, Confidence: 1.0, Lift: 1.33},
	}, report.Recommendation.Items)

	var buf bytes.Buffer
	assert.NoError(t, report.Print(&buf))
	assert.Contains(t, buf.String(), "Frequent itemsets (sorted by item within each level):")
	assert.Contains(t, buf.String(), "(A, B)")
	assert.Contains(t, buf.String(), "0.75")
	assert.Contains(t, buf.String(), "0.89")
	assert.Contains(t, buf.String(), "Recommendation for user 1 who liked C:")
	assert.NotContains(t, buf.String(), "no recommendation found")
}

func TestMineFirstSeen(t *testing.T) {
	conf := newTestConfig(t)
	conf.Recommend.UserOrder = dataset.UserOrderFirstSeen
	report, err := mine(context.Background(), conf)
	assert.NoError(t, err)
	assert.Equal(t, "3", report.Recommendation.UserId)
	assert.Equal(t, "C", report.Recommendation.ReferenceItem)
}

func TestMineNoRecommendation(t *testing.T) {
	conf := newTestConfig(t)
	conf.Mining.MinConfidence = 0.7
	conf.Recommend.UserId = "2"
	report, err := mine(context.Background(), conf)
	assert.NoError(t, err)
	assert.Equal(t, "B", report.Recommendation.ReferenceItem)
	assert.False(t, report.Recommendation.Found())

	var buf bytes.Buffer
	assert.NoError(t, report.Print(&buf))
	assert.Contains(t, buf.String(), "no recommendation found")

	conf.Recommend.UserId = "404"
	_, err = mine(context.Background(), conf)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestMineNoLikes(t *testing.T) {
	conf := newTestConfig(t)
	conf.DataSource.LikeExpression = "rating > 5"
	_, err := mine(context.Background(), conf)
	assert.ErrorIs(t, err, logics.ErrEmptyTransactions)
}

func TestImport(t *testing.T) {
	conf := newTestConfig(t)
	expected, err := mine(context.Background(), conf)
	assert.NoError(t, err)

	conf.DataSource.Database = storage.SQLitePrefix + filepath.Join(t.TempDir(), "assoc.db")
	conf.DataSource.TablePrefix = "movielens_"
	assert.NoError(t, importData(context.Background(), conf, 3, io.Discard))
	conf.DataSource.RatingsFile = filepath.Join(t.TempDir(), "missing.csv")
	report, err := mine(context.Background(), conf)
	assert.NoError(t, err)
	assert.Equal(t, expected, report)

	err = importData(context.Background(), conf, 0, io.Discard)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestWriteMetrics(t *testing.T) {
	conf := newTestConfig(t)
	_, err := mine(context.Background(), conf)
	assert.NoError(t, err)
	path := filepath.Join(t.TempDir(), "assoc.prom")
	assert.NoError(t, writeMetrics(path))
	text, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(text), "gorse_assoc_rules_total")
	assert.Contains(t, string(text), `gorse_assoc_candidates_total{level="2"}`)
	assert.Contains(t, string(text), `gorse_assoc_recommend_total{result="found"}`)
	assert.Contains(t, string(text), "gorse_assoc_mine_seconds_count")
	assert.Contains(t, string(text), "gorse_database_database_get_ratings_seconds_count")

	assert.Error(t, writeMetrics(filepath.Join(t.TempDir(), "missing", "assoc.prom")))
}

func TestImportDuplicateMovies(t *testing.T) {
	conf := newTestConfigWithMovies(t, testMovies+"3,C2,[]\n")
	expected, err := mine(context.Background(), conf)
	assert.NoError(t, err)
	assert.Contains(t, expected.Levels.Level(1), logics.FrequentItemset{Itemset: dataset.Itemset{"C2"}, Support: 0.5})

	conf.DataSource.Database = storage.SQLitePrefix + filepath.Join(t.TempDir(), "assoc.db")
	assert.NoError(t, importData(context.Background(), conf, 10, io.Discard))
	report, err := mine(context.Background(), conf)
	assert.NoError(t, err)
	assert.Equal(t, expected, report)
}

func TestOverrideConfig(t *testing.T) {
	flagSet := pflag.NewFlagSet("mine", pflag.ContinueOnError)
	addMineFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{
		"--ratings", "ratings.csv",
		"--min-support", "0.2",
		"--jobs", "4",
		"--counter", "bitset",
		"--user", "15",
	}))
	conf := config.GetDefaultConfig()
	assert.NoError(t, overrideConfig(flagSet, conf))
	assert.Equal(t, "ratings.csv", conf.DataSource.RatingsFile)
	assert.Equal(t, "movies_metadata.csv", conf.DataSource.MoviesFile)
	assert.Equal(t, 0.2, conf.Mining.MinSupport)
	assert.Equal(t, 0.4, conf.Mining.MinConfidence)
	assert.Equal(t, 4, conf.Mining.Jobs)
	assert.Equal(t, logics.CounterBitset, conf.Mining.Counter)
	assert.Equal(t, "15", conf.Recommend.UserId)

	flagSet = pflag.NewFlagSet("mine", pflag.ContinueOnError)
	addMineFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{"--min-confidence", "1.5"}))
	err := overrideConfig(flagSet, config.GetDefaultConfig())
	assert.True(t, errors.Is(err, errors.NotValid))
}
