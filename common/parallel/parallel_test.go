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

package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	a := lo.Range(10000)
	b := make([]int, len(a))
	// multiple threads
	For(len(a), 4, func(jobId int) {
		b[jobId] = a[jobId]
	})
	assert.Equal(t, a, b)
	// single thread
	c := make([]int, len(a))
	For(len(a), 1, func(jobId int) {
		c[jobId] = a[jobId]
	})
	assert.Equal(t, a, c)
}

func TestForEach(t *testing.T) {
	a := lo.Range(1000)
	var sum atomic.Int64
	ForEach(a, 8, func(i int, v int) {
		assert.Equal(t, i, v)
		sum.Add(int64(v))
	})
	assert.Equal(t, int64(999*1000/2), sum.Load())
}

func TestMap(t *testing.T) {
	a := lo.Range(5000)
	expected := lo.Map(a, func(v int, _ int) int { return v * v })
	assert.Equal(t, expected, Map(a, 1, func(v int) int { return v * v }))
	assert.Equal(t, expected, Map(a, 6, func(v int) int { return v * v }))
	assert.Empty(t, Map([]int{}, 4, func(v int) int { return v }))
}
