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

package base

import (
	"bufio"
	"strings"

	"github.com/juju/errors"
)

// ReadLines parses fields of each record of a csv stream. Quoted fields may contain the
// separator, escaped quotes ("") and line breaks. The handler receives the record number
// and its fields, and stops the scan by returning false.
func ReadLines(sc *bufio.Scanner, sep rune, handler func(int, []string) bool) error {
	lineCount := 0               // record number of current position
	fields := make([]string, 0)  // fields for current record
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(sc.Text())
		// record continues on a new line
		if quoted {
			builder.WriteString("\n")
		}
		for i := 0; i < len(line); i++ {
			if line[i] == sep && !quoted {
				fields = append(fields, builder.String())
				builder.Reset()
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					quoted = true
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(lineCount, fields) {
				return nil
			}
			fields = []string{}
			lineCount++
		}
	}
	return errors.Trace(sc.Err())
}

// ColumnIndex locates columns by name in a header record.
func ColumnIndex(header []string, names ...string) ([]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	indices := make([]int, len(names))
	for i, name := range names {
		pos, exist := positions[name]
		if !exist {
			return nil, errors.NotFoundf("column %s", name)
		}
		indices[i] = pos
	}
	return indices, nil
}
