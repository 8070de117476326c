package drive

import (
	"fmt"
	"slices"
)

// LinkageGraph is an in-memory snapshot of one account's parent/child
// edges. Nodes live in a flat arena indexed by position; edges are adjacency
// lists of positions. In a transposed graph the edges point child to parent,
// which is the orientation path finding needs.
type LinkageGraph struct {
	AccountID  int64
	Transposed bool

	ids   []string
	index map[string]int32
	edges [][]int32
}

// LoadLinkageGraph builds the linkage graph for one account from the
// mirror's link table.
func (s *Service) LoadLinkageGraph(accountID int64, transposed bool) (*LinkageGraph, error) {
	links, err := s.db.ListLinks(accountID)
	if err != nil {
		return nil, fmt.Errorf("loading links for account %d: %w", accountID, err)
	}

	g := &LinkageGraph{
		AccountID:  accountID,
		Transposed: transposed,
		index:      make(map[string]int32),
	}
	for _, l := range links {
		from, to := l.ParentID, l.ChildID
		if transposed {
			from, to = to, from
		}
		g.addEdge(g.node(from), g.node(to))
	}

	return g, nil
}

// node returns the arena position of the given id, adding it if absent.
func (g *LinkageGraph) node(id string) int32 {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := int32(len(g.ids))
	g.ids = append(g.ids, id)
	g.edges = append(g.edges, nil)
	g.index[id] = i
	return i
}

func (g *LinkageGraph) addEdge(from, to int32) {
	if !slices.Contains(g.edges[from], to) {
		g.edges[from] = append(g.edges[from], to)
	}
}

const noPred int32 = -1

// FindParentPaths returns every acyclic path from the given document up to
// a root of the graph. A root is a node with no outgoing edges, which in a
// transposed graph means a document with no parents. Paths are ordered root
// first and exclude the start document itself; if the start is itself a
// root the result is one empty path. An id absent from the graph yields no
// paths.
//
// Only transposed graphs make sense here; calling this on a forward graph
// is a programming error.
func (g *LinkageGraph) FindParentPaths(startID string) [][]string {
	if !g.Transposed {
		panic("FindParentPaths requires a transposed linkage graph")
	}

	start, ok := g.index[startID]
	if !ok {
		return nil
	}

	// Walk upward with an explicit queue, keeping a predecessor per node so
	// each reached root can be unwound into a path. Shared documents give a
	// node multiple outgoing edges, so several roots (or the same root via
	// different branches) may be reached.
	pred := make(map[int32]int32)
	pred[start] = noPred

	var paths [][]string
	queue := []int32{start}
	for len(queue) > 0 {
		cur := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		if len(g.edges[cur]) == 0 {
			// Unwinding from the root toward the start yields the path in
			// outermost-first order directly.
			var path []string
			for n := cur; n != start; n = pred[n] {
				path = append(path, g.ids[n])
			}
			paths = append(paths, path)
			continue
		}

		for _, next := range g.edges[cur] {
			if slices.Contains(queue, next) {
				continue
			}
			// Refuse to step onto a node already on the current chain:
			// the server should never hand us a folder cycle, but a
			// corrupt mirror must not hang the walk.
			onChain := false
			for n := cur; n != noPred; n = pred[n] {
				if n == next {
					onChain = true
					break
				}
			}
			if onChain {
				continue
			}
			pred[next] = cur
			queue = append(queue, next)
		}
	}

	return paths
}
