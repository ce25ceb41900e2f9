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
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gorse-io/assoc/base"
	"github.com/gorse-io/assoc/base/log"
	"github.com/gorse-io/assoc/common/expression"
	"github.com/gorse-io/assoc/storage/data"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	// UserOrderId sorts users by id, numeric ids by value.
	UserOrderId = "id"
	// UserOrderFirstSeen keeps users in order of their first rating.
	UserOrderFirstSeen = "first_seen"
)

// LoadRatings loads ratings from a csv file with columns userId, movieId, rating and an
// optional timestamp.
func LoadRatings(path string) ([]data.Rating, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	var (
		ratings   []data.Rating
		columns   []int
		timestamp = -1
		parseErr  error
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	err = base.ReadLines(scanner, ',', func(i int, fields []string) bool {
		if i == 0 {
			if columns, parseErr = base.ColumnIndex(fields, "userId", "movieId", "rating"); parseErr != nil {
				return false
			}
			if pos, err := base.ColumnIndex(fields, "timestamp"); err == nil {
				timestamp = pos[0]
			}
			return true
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		var rating data.Rating
		rating.UserId = strings.TrimSpace(field(fields, columns[0]))
		if rating.MovieId, parseErr = strconv.Atoi(strings.TrimSpace(field(fields, columns[1]))); parseErr != nil {
			parseErr = errors.NotValidf("movie id at line %d of %s", i+1, path)
			return false
		}
		if rating.Rating, parseErr = strconv.ParseFloat(strings.TrimSpace(field(fields, columns[2])), 64); parseErr != nil {
			parseErr = errors.NotValidf("rating at line %d of %s", i+1, path)
			return false
		}
		if timestamp >= 0 {
			rating.Timestamp = parseTimestamp(field(fields, timestamp))
		}
		ratings = append(ratings, rating)
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if parseErr != nil {
		return nil, errors.Trace(parseErr)
	}
	if columns == nil {
		return nil, errors.NotValidf("empty ratings file %s", path)
	}
	log.Logger().Info("load ratings", zap.String("path", path), zap.Int("n_ratings", len(ratings)))
	return ratings, nil
}

// LoadMovies loads movies from a csv file with columns id, title and an optional genres.
// Rows whose id is not an integer are dropped.
func LoadMovies(path string) ([]data.Movie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	var (
		movies   []data.Movie
		columns  []int
		genres   = -1
		dropped  int
		parseErr error
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	err = base.ReadLines(scanner, ',', func(i int, fields []string) bool {
		if i == 0 {
			if columns, parseErr = base.ColumnIndex(fields, "id", "title"); parseErr != nil {
				return false
			}
			if pos, err := base.ColumnIndex(fields, "genres"); err == nil {
				genres = pos[0]
			}
			return true
		}
		movieId, ok := parseMovieId(field(fields, columns[0]))
		if !ok {
			dropped++
			return true
		}
		movie := data.Movie{MovieId: movieId, Title: field(fields, columns[1])}
		if genres >= 0 {
			movie.Genres = field(fields, genres)
		}
		movies = append(movies, movie)
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if parseErr != nil {
		return nil, errors.Trace(parseErr)
	}
	if columns == nil {
		return nil, errors.NotValidf("empty movies file %s", path)
	}
	log.Logger().Info("load movies", zap.String("path", path),
		zap.Int("n_movies", len(movies)), zap.Int("n_dropped", dropped))
	return movies, nil
}

// parseTimestamp accepts unix seconds or a date time in UTC. Invalid timestamps are zero.
func parseTimestamp(text string) int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	if ts, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ts
	}
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// parseMovieId accepts integers and integral floats such as "862.0".
func parseMovieId(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if id, err := strconv.Atoi(text); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// Preprocess joins ratings with movies, keeps liked ratings and groups liked titles by
// user in rating order.
func Preprocess(ratings []data.Rating, movies []data.Movie, like *expression.LikeExpression, userOrder string) (*UserLikes, error) {
	if userOrder != UserOrderId && userOrder != UserOrderFirstSeen {
		return nil, errors.NotValidf("user order %q", userOrder)
	}
	titles := make(map[int][]string)
	for _, movie := range movies {
		titles[movie.MovieId] = append(titles[movie.MovieId], movie.Title)
	}
	likes := NewUserLikes()
	var unknown, disliked int
	for _, rating := range ratings {
		movieTitles, exist := titles[rating.MovieId]
		if !exist {
			unknown++
			continue
		}
		ok, err := like.Match(rating)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if !ok {
			disliked++
			continue
		}
		for _, title := range movieTitles {
			likes.Add(rating.UserId, title)
		}
	}
	if userOrder == UserOrderId {
		likes.SortUsers(CompareUserIds)
	}
	log.Logger().Info("preprocess ratings",
		zap.Int("n_users", likes.Len()),
		zap.Int("n_unknown_movies", unknown),
		zap.Int("n_disliked", disliked))
	return likes, nil
}
