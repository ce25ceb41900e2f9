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

	"github.com/gorse-io/assoc/base/log"
	"github.com/gorse-io/assoc/config"
	"github.com/gorse-io/assoc/dataset"
	"github.com/gorse-io/assoc/storage/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

func newProgressBar(n int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}))
}

// importData copies ratings and movies from csv files into the database.
func importData(ctx context.Context, conf *config.Config, batchSize int, w io.Writer) error {
	if batchSize <= 0 {
		return errors.NotValidf("batch size %d", batchSize)
	}
	ratings, err := dataset.LoadRatings(conf.DataSource.RatingsFile)
	if err != nil {
		return errors.Trace(err)
	}
	movies, err := dataset.LoadMovies(conf.DataSource.MoviesFile)
	if err != nil {
		return errors.Trace(err)
	}

	database, err := data.Open(conf.DataSource.Database, conf.DataSource.TablePrefix)
	if err != nil {
		return errors.Trace(err)
	}
	defer database.Close()
	if err = database.Init(); err != nil {
		return errors.Trace(err)
	}

	bar := newProgressBar(len(movies), "Importing movies", w)
	for _, batch := range lo.Chunk(movies, batchSize) {
		if err = database.BatchInsertMovies(ctx, batch); err != nil {
			return errors.Trace(err)
		}
		_ = bar.Add(len(batch))
	}
	_ = bar.Finish()
	bar = newProgressBar(len(ratings), "Importing ratings", w)
	for _, batch := range lo.Chunk(ratings, batchSize) {
		if err = database.BatchInsertRatings(ctx, batch); err != nil {
			return errors.Trace(err)
		}
		_ = bar.Add(len(batch))
	}
	_ = bar.Finish()

	log.Logger().Info("import data",
		zap.String("database", log.RedactDBURL(conf.DataSource.Database)),
		zap.Int("n_ratings", len(ratings)),
		zap.Int("n_movies", len(movies)))
	return nil
}
