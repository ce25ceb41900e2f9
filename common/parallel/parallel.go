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
	"sync"
)

const chanSize = 1024

// For runs worker on job ids [0, nJobs) with nWorkers goroutines.
func For(nJobs, nWorkers int, worker func(int)) {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			worker(i)
		}
	} else {
		c := make(chan int, chanSize)
		// producer
		go func() {
			for i := 0; i < nJobs; i++ {
				c <- i
			}
			close(c)
		}()
		// consumer
		var wg sync.WaitGroup
		for j := 0; j < nWorkers; j++ {
			wg.Go(func() {
				for jobId := range c {
					worker(jobId)
				}
			})
		}
		wg.Wait()
	}
}

// ForEach runs worker on every element of a with nWorkers goroutines.
func ForEach[T any](a []T, nWorkers int, worker func(int, T)) {
	For(len(a), nWorkers, func(i int) {
		worker(i, a[i])
	})
}

// Map applies fn to every element of a with nWorkers goroutines. The i-th result
// always belongs to the i-th element, whatever the number of workers.
func Map[T, R any](a []T, nWorkers int, fn func(T) R) []R {
	results := make([]R, len(a))
	ForEach(a, nWorkers, func(i int, v T) {
		results[i] = fn(v)
	})
	return results
}
