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
	"strings"

	"github.com/gorse-io/assoc/base/log"
	"github.com/gorse-io/assoc/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// Rating is a raw rating record: a user scored a movie at some time.
type Rating struct {
	Id        int64   `gorm:"column:id;primaryKey;autoIncrement"`
	UserId    string  `gorm:"column:user_id;type:varchar(256);index"`
	MovieId   int     `gorm:"column:movie_id;index"`
	Rating    float64 `gorm:"column:rating"`
	Timestamp int64   `gorm:"column:time_stamp"`
}

// Movie stores meta data about a movie. A movie id may appear in more than one row.
type Movie struct {
	Id      int64  `gorm:"column:id;primaryKey;autoIncrement"`
	MovieId int    `gorm:"column:movie_id;index"`
	Title   string `gorm:"column:title;type:text"`
	Genres  string `gorm:"column:genres;type:text"`
}

type Database interface {
	Init() error
	Close() error
	BatchInsertRatings(ctx context.Context, ratings []Rating) error
	BatchInsertMovies(ctx context.Context, movies []Movie) error
	// GetRatings returns ratings in insertion order.
	GetRatings(ctx context.Context) ([]Rating, error)
	// GetMovies returns movies in insertion order.
	GetMovies(ctx context.Context) ([]Movie, error)
}

// Open a connection to a database.
func Open(path, tablePrefix string) (Database, error) {
	var err error
	if strings.HasPrefix(path, storage.MySQLPrefix) {
		name := path[len(storage.MySQLPrefix):]
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"parseTime": "true",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		database := new(SQLDatabase)
		database.driver = MySQL
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.gormDB, err = gorm.Open(mysql.Open(name), storage.NewGORMConfig(tablePrefix)); err != nil {
			return nil, errors.Trace(err)
		}
		if database.client, err = database.gormDB.DB(); err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.PostgresPrefix) || strings.HasPrefix(path, storage.PostgreSQLPrefix) {
		database := new(SQLDatabase)
		database.driver = Postgres
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.gormDB, err = gorm.Open(postgres.Open(path), storage.NewGORMConfig(tablePrefix)); err != nil {
			return nil, errors.Trace(err)
		}
		if database.client, err = database.gormDB.DB(); err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.SQLitePrefix) {
		// append parameters
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{"_pragma", "busy_timeout(10000)"},
			{"_pragma", "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		name := path[len(storage.SQLitePrefix):]
		database := new(SQLDatabase)
		database.driver = SQLite
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = sql.Open("sqlite", name); err != nil {
			return nil, errors.Trace(err)
		}
		database.client.SetMaxOpenConns(1)
		if database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, storage.NewGORMConfig(tablePrefix)); err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	log.Logger().Error("unsupported database", zap.String("database", log.RedactDBURL(path)))
	return nil, errors.NotSupportedf("database %s", log.RedactDBURL(path))
}
