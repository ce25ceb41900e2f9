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
	"cmp"
	"slices"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
)

// TransactionSet is an immutable collection of transactions. Containment tests treat
// each transaction as a set.
type TransactionSet struct {
	transactions []Transaction
	sets         []mapset.Set[string]
}

func NewTransactionSet(transactions []Transaction) *TransactionSet {
	ts := &TransactionSet{
		transactions: make([]Transaction, len(transactions)),
		sets:         make([]mapset.Set[string], len(transactions)),
	}
	for i, t := range transactions {
		ts.transactions[i] = slices.Clone(t)
		ts.sets[i] = mapset.NewThreadUnsafeSet(t...)
	}
	return ts
}

func (ts *TransactionSet) Len() int {
	return len(ts.transactions)
}

func (ts *TransactionSet) Transaction(i int) Transaction {
	return ts.transactions[i]
}

// Items returns distinct items of the i-th transaction.
func (ts *TransactionSet) Items(i int) mapset.Set[string] {
	return ts.sets[i]
}

// ContainsAll tests whether the i-th transaction contains every item of itemset.
func (ts *TransactionSet) ContainsAll(i int, itemset Itemset) bool {
	return ts.sets[i].Contains(itemset...)
}

// UserLikes maps users to their liked items. Users are iterated in the order they were
// added unless sorted explicitly.
type UserLikes struct {
	users []string
	likes map[string]Transaction
}

func NewUserLikes() *UserLikes {
	return &UserLikes{likes: make(map[string]Transaction)}
}

// Add appends an item to the likes of a user.
func (u *UserLikes) Add(userId, item string) {
	if _, exist := u.likes[userId]; !exist {
		u.users = append(u.users, userId)
	}
	u.likes[userId] = append(u.likes[userId], item)
}

func (u *UserLikes) Len() int {
	return len(u.users)
}

func (u *UserLikes) Users() []string {
	return u.users
}

func (u *UserLikes) Likes(userId string) (Transaction, bool) {
	likes, exist := u.likes[userId]
	return likes, exist
}

// First returns the first user in iteration order.
func (u *UserLikes) First() (string, bool) {
	if len(u.users) == 0 {
		return "", false
	}
	return u.users[0], true
}

// SortUsers reorders users, keeping the relative order of equal ids.
func (u *UserLikes) SortUsers(compare func(a, b string) int) {
	slices.SortStableFunc(u.users, compare)
}

// Transactions builds one transaction per user in iteration order.
func (u *UserLikes) Transactions() *TransactionSet {
	transactions := make([]Transaction, len(u.users))
	for i, userId := range u.users {
		transactions[i] = u.likes[userId]
	}
	return NewTransactionSet(transactions)
}

// CompareUserIds orders numeric ids by value and puts them before other ids, which are
// compared as strings.
func CompareUserIds(a, b string) int {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(x, y)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
