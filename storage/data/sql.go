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

package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/gorse-io/assoc/storage"
	"github.com/juju/errors"
	"gorm.io/gorm"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

// SQLDatabase reads ratings and movies from a relational database through gorm.
type SQLDatabase struct {
	storage.TablePrefix
	driver SQLDriver
	client *sql.DB
	gormDB *gorm.DB
}

func (d *SQLDatabase) Init() error {
	if err := d.gormDB.Table(d.RatingsTable()).AutoMigrate(&Rating{}); err != nil {
		return errors.Trace(err)
	}
	if err := d.gormDB.Table(d.MoviesTable()).AutoMigrate(&Movie{}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

func (d *SQLDatabase) BatchInsertRatings(ctx context.Context, ratings []Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { BatchInsertRatingsSeconds.Observe(time.Since(start).Seconds()) }()
	rows := make([]Rating, len(ratings))
	for i, rating := range ratings {
		rows[i] = rating
		rows[i].Id = 0
	}
	err := d.gormDB.WithContext(ctx).Table(d.RatingsTable()).Create(&rows).Error
	return errors.Trace(err)
}

// BatchInsertMovies appends movies. Rows sharing a movie id are all kept.
func (d *SQLDatabase) BatchInsertMovies(ctx context.Context, movies []Movie) error {
	if len(movies) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { BatchInsertMoviesSeconds.Observe(time.Since(start).Seconds()) }()
	rows := make([]Movie, len(movies))
	for i, movie := range movies {
		rows[i] = movie
		rows[i].Id = 0
	}
	err := d.gormDB.WithContext(ctx).Table(d.MoviesTable()).Create(&rows).Error
	return errors.Trace(err)
}

func (d *SQLDatabase) GetRatings(ctx context.Context) ([]Rating, error) {
	start := time.Now()
	defer func() { GetRatingsSeconds.Observe(time.Since(start).Seconds()) }()
	var ratings []Rating
	err := d.gormDB.WithContext(ctx).Table(d.RatingsTable()).Order("id").Find(&ratings).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return ratings, nil
}

func (d *SQLDatabase) GetMovies(ctx context.Context) ([]Movie, error) {
	start := time.Now()
	defer func() { GetMoviesSeconds.Observe(time.Since(start).Seconds()) }()
	var movies []Movie
	err := d.gormDB.WithContext(ctx).Table(d.MoviesTable()).Order("id").Find(&movies).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return movies, nil
}
