// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rag builds the per-company embedding index and retrieves section
// context from it via vector similarity.
// Implements: docs/ARCHITECTURE § Knowledge Base, § Retrieval.
package rag

import (
	"fmt"
	"sort"
)

// Match is one nearest-neighbor search hit: the position of the vector in
// the index and its squared Euclidean distance from the query.
type Match struct {
	Index    int
	Distance float32
}

// Similarity maps the match distance to a score in (0, 1], monotonically
// decreasing in distance: identical vectors score 1.
func (m Match) Similarity() float32 {
	return 1 / (1 + m.Distance)
}

// FlatIndex is an exact nearest-neighbor index over fixed-dimension float32
// vectors. Search is brute-force squared-L2 over every stored vector, which
// is the right trade-off here: chunk counts per company are in the low
// hundreds.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex constructs an empty index for vectors of length dim.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Add appends a vector to the index. Vectors keep insertion order, so index
// position i always corresponds to the i-th added vector.
func (x *FlatIndex) Add(vec []float32) error {
	if len(vec) != x.dim {
		return fmt.Errorf("vector has %d dimensions, index expects %d", len(vec), x.dim)
	}
	x.vectors = append(x.vectors, vec)
	return nil
}

// Len returns the number of stored vectors.
func (x *FlatIndex) Len() int {
	return len(x.vectors)
}

// Search returns the k nearest stored vectors to query by squared Euclidean
// distance, closest first. Fewer than k matches are returned when the index
// holds fewer vectors.
func (x *FlatIndex) Search(query []float32, k int) []Match {
	if len(x.vectors) == 0 || len(query) != x.dim || k <= 0 {
		return nil
	}

	matches := make([]Match, len(x.vectors))
	for i, vec := range x.vectors {
		matches[i] = Match{Index: i, Distance: squaredL2(query, vec)}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Index < matches[j].Index
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
