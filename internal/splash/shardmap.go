package splash

// shardMap assigns every vertex id to exactly one of Q shards. The mapping
// is immutable after construction. The default is v mod Q; an optional
// seeded permutation of shard indices may be supplied via
// WithShardPermutation, per the "documented optional seeded permutation"
// allowance in spec §9.
type shardMap struct {
	q    int
	perm []int
}

func newShardMap(q int) *shardMap {
	return &shardMap{q: q}
}

func (m *shardMap) shardFor(v int) int {
	idx := v % m.q
	if m.perm != nil {
		return m.perm[idx]
	}
	return idx
}
