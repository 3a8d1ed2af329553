package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkRange(t *testing.T) {
	cases := []struct {
		name string
		n    int
		size int
		want [][2]int
	}{
		{"empty", 0, 50, [][2]int{}},
		{"single partial batch", 3, 50, [][2]int{{0, 3}}},
		{"exact batch", 50, 50, [][2]int{{0, 50}}},
		{"one over", 51, 50, [][2]int{{0, 50}, {50, 51}}},
		{"several batches", 120, 50, [][2]int{{0, 50}, {50, 100}, {100, 120}}},
		{"guards zero size", 2, 0, [][2]int{{0, 1}, {1, 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, chunkRange(tc.n, tc.size))
		})
	}
}

func TestChunkRangeCoversEveryRowOnce(t *testing.T) {
	covered := make([]int, 137)
	for _, rng := range chunkRange(len(covered), historyBatchSize) {
		for i := rng[0]; i < rng[1]; i++ {
			covered[i]++
		}
	}
	for i, c := range covered {
		assert.Equal(t, 1, c, "row %d", i)
	}
}
