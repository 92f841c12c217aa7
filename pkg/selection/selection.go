// Photoframe Core
// Copyright (c) 2026 The Photoframe Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Photoframe Core.
//
// Photoframe Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Photoframe Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Photoframe Core.  If not, see <http://www.gnu.org/licenses/>.

// Package selection implements weighted sampling without replacement over
// recency-sorted file lists.
//
// Items are assigned exponential rank weights w_i = exp(-i*decayFactor)
// and sampled with the Efraimidis-Spirakis key method: each item draws
// u_i uniform in [0,1) and the maxCount items with the largest keys
// u_i^(1/w_i) win. Selection probability is monotonic in weight and every
// item keeps a strictly positive chance regardless of rank, unlike
// sample-with-replacement-then-dedupe which under-represents low-weight
// items and stalls as maxCount approaches the input size.
package selection

import (
	"math"
	"math/rand/v2"
	"sort"
)

// Sample picks min(maxCount, len(items)) distinct items from a list sorted
// newest first. A decayFactor <= 0 degenerates to a plain uniform sample
// without replacement. A nil rng uses the shared global source. Pure and
// CPU-bound; performs no I/O.
func Sample[T any](rng *rand.Rand, items []T, maxCount int, decayFactor float64) []T {
	if maxCount <= 0 || len(items) == 0 {
		return []T{}
	}
	if len(items) <= maxCount {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}

	uniform := func() float64 {
		if rng == nil {
			return rand.Float64()
		}
		return rng.Float64()
	}

	type keyed struct {
		key   float64
		index int
	}
	keys := make([]keyed, len(items))
	for i := range items {
		weight := 1.0
		if decayFactor > 0 {
			weight = math.Exp(-float64(i) * decayFactor)
		}
		keys[i] = keyed{key: math.Pow(uniform(), 1.0/weight), index: i}
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].key > keys[j].key
	})

	out := make([]T, 0, maxCount)
	for _, k := range keys[:maxCount] {
		out = append(out, items[k.index])
	}
	return out
}
