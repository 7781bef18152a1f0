package causality

import (
	"sort"

	"github.com/langrust/grust/internal/symtab"
)

// tarjan computes the strongly connected components of the directed
// graph (signals, adj), visiting signals and each node's adjacency list
// in ascending id order so results are deterministic.
func tarjan(signals []symtab.ID, adj map[symtab.ID]map[symtab.ID]bool) [][]symtab.ID {
	st := &tarjanState{
		adj:     adj,
		index:   map[symtab.ID]int{},
		low:     map[symtab.ID]int{},
		onStack: map[symtab.ID]bool{},
	}
	sorted := append([]symtab.ID{}, signals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		if _, seen := st.index[id]; !seen {
			st.strongconnect(id)
		}
	}
	return st.sccs
}

type tarjanState struct {
	adj     map[symtab.ID]map[symtab.ID]bool
	index   map[symtab.ID]int
	low     map[symtab.ID]int
	onStack map[symtab.ID]bool
	stack   []symtab.ID
	counter int
	sccs    [][]symtab.ID
}

// strongconnect is the textbook Tarjan SCC algorithm (no graph library in
// the retrieval pack implements delay-labeled-edge SCC, so this is
// written directly).
func (s *tarjanState) strongconnect(v symtab.ID) {
	s.index[v] = s.counter
	s.low[v] = s.counter
	s.counter++
	s.stack = append(s.stack, v)
	s.onStack[v] = true

	neighbors := make([]symtab.ID, 0, len(s.adj[v]))
	for w := range s.adj[v] {
		neighbors = append(neighbors, w)
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })

	for _, w := range neighbors {
		if _, seen := s.index[w]; !seen {
			s.strongconnect(w)
			if s.low[w] < s.low[v] {
				s.low[v] = s.low[w]
			}
		} else if s.onStack[w] {
			if s.index[w] < s.low[v] {
				s.low[v] = s.index[w]
			}
		}
	}

	if s.low[v] == s.index[v] {
		var scc []symtab.ID
		for {
			n := len(s.stack) - 1
			w := s.stack[n]
			s.stack = s.stack[:n]
			s.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		s.sccs = append(s.sccs, scc)
	}
}
