package pool

// WorkerSlice returns the batch indices assigned to rank in a world of
// worldSize ranks: exactly the indices i with i mod worldSize == rank. The
// assignment is a pure function of (rank, worldSize, batchLen), so every
// rank derives its share independently of the others, and the union over all
// ranks covers each index exactly once.
func WorkerSlice(rank, worldSize, batchLen int) []int {
	if worldSize < 1 || rank < 0 || rank >= worldSize {
		return nil
	}

	var indices []int
	for i := rank; i < batchLen; i += worldSize {
		indices = append(indices, i)
	}
	return indices
}
