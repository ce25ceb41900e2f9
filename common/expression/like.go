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

package expression

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorse-io/assoc/storage/data"
	"github.com/juju/errors"
)

// DefaultLikeExpression keeps ratings of three stars or more.
const DefaultLikeExpression = "rating >= 3.0"

// LikeExpression decides whether a rating counts as a like. Variables available in the
// expression are rating, user_id, movie_id and timestamp.
type LikeExpression struct {
	source  string
	program *vm.Program
}

func ParseLikeExpression(source string) (*LikeExpression, error) {
	program, err := expr.Compile(source, expr.Env(likeEnv(data.Rating{})), expr.AsBool())
	if err != nil {
		return nil, errors.NotValidf("like expression %q: %v", source, err)
	}
	return &LikeExpression{source: source, program: program}, nil
}

func MustParseLikeExpression(source string) *LikeExpression {
	e, err := ParseLikeExpression(source)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *LikeExpression) String() string {
	return e.source
}

// Match evaluates the expression against a rating.
func (e *LikeExpression) Match(rating data.Rating) (bool, error) {
	result, err := expr.Run(e.program, likeEnv(rating))
	if err != nil {
		return false, errors.Trace(err)
	}
	return result.(bool), nil
}

func likeEnv(rating data.Rating) map[string]any {
	return map[string]any{
		"rating":    rating.Rating,
		"user_id":   rating.UserId,
		"movie_id":  rating.MovieId,
		"timestamp": rating.Timestamp,
	}
}
