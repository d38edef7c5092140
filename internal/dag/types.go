package dag

// Graph is a collection of nodes and their dependencies. Unlike a strict DAG
// it tolerates cycles, which Sort breaks deterministically.
type Graph struct {
	// deps holds, per node, the nodes it depends on in insertion order.
	deps [][]int
}

// bitset marks visited nodes.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int)      { b[i/64] |= 1 << (uint(i) % 64) }
func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }

// frame is one level of the explicit DFS stack.
type frame struct {
	node int
	next int
}
