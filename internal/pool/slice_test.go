package pool

import (
	"slices"
	"testing"

	"pgregory.net/rapid"
)

func TestWorkerSlice(t *testing.T) {
	tests := []struct {
		name      string
		rank      int
		worldSize int
		batchLen  int
		want      []int
	}{
		{"rank 0 of 3 over 7", 0, 3, 7, []int{0, 3, 6}},
		{"rank 1 of 3 over 7", 1, 3, 7, []int{1, 4}},
		{"rank 2 of 3 over 7", 2, 3, 7, []int{2, 5}},
		{"single rank", 0, 1, 4, []int{0, 1, 2, 3}},
		{"more ranks than tasks", 3, 8, 2, nil},
		{"empty batch", 0, 2, 0, nil},
		{"rank out of range", 5, 3, 7, nil},
		{"negative rank", -1, 3, 7, nil},
		{"zero world size", 0, 0, 7, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkerSlice(tt.rank, tt.worldSize, tt.batchLen); !slices.Equal(got, tt.want) {
				t.Errorf("WorkerSlice(%d, %d, %d) = %v, want %v",
					tt.rank, tt.worldSize, tt.batchLen, got, tt.want)
			}
		})
	}
}

// The union of all ranks' slices must equal the full index range with no
// overlaps, and the assignment must be reproducible.
func TestWorkerSlicePartition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		worldSize := rapid.IntRange(1, 32).Draw(t, "worldSize")
		batchLen := rapid.IntRange(0, 512).Draw(t, "batchLen")

		seen := make(map[int]int)
		for rank := 0; rank < worldSize; rank++ {
			first := WorkerSlice(rank, worldSize, batchLen)
			second := WorkerSlice(rank, worldSize, batchLen)
			if !slices.Equal(first, second) {
				t.Fatalf("rank %d: partition not deterministic: %v vs %v", rank, first, second)
			}
			for _, i := range first {
				if i < 0 || i >= batchLen {
					t.Fatalf("rank %d assigned index %d outside [0, %d)", rank, i, batchLen)
				}
				seen[i]++
			}
		}

		if len(seen) != batchLen {
			t.Fatalf("union covers %d indices, want %d", len(seen), batchLen)
		}
		for i, n := range seen {
			if n != 1 {
				t.Fatalf("index %d assigned %d times", i, n)
			}
		}
	})
}
