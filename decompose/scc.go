package decompose

// tarjanSCC computes the strongly connected components of the directed
// graph with nodes {0,...,n-1} and edge u -> v iff hasEdge(u, v), using
// Tarjan's algorithm over dense int-indexed slices (no maps anywhere), so
// that the result depends only on the edge set and not on Go's unspecified
// map iteration order. Successor lists are walked in ascending index
// order, so the returned component order and within-component node order
// are fully determined by the edge set (spec.md §8's determinism
// invariant).
//
// Components are returned in the order Tarjan's DFS completes them, which
// is already dependency-first: a component is only closed off (popped)
// after every strongly connected component reachable from it has already
// been closed off. See DESIGN.md for why this does not simply call
// gonum.org/v1/gonum/graph/topo.TarjanSCC.
func tarjanSCC(n int, hasEdge func(u, v int) bool) [][]int {
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	var components [][]int
	counter := 0

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for w := 0; w < n; w++ {
			if !hasEdge(v, w) {
				continue
			}
			if index[w] == -1 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			components = append(components, comp)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongconnect(v)
		}
	}
	return components
}
