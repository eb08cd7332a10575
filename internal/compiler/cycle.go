package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/cellcad/internal/deck"
)

// UniverseCycle is a set of universes that fill each other.
type UniverseCycle struct {
	Path    []int  `json:"path"`    // cycle path: [1, 2, 1]
	Message string `json:"message"` // human-readable description
}

// AnalyzeUniverses finds self-referential universe fills.
//
// It builds the fill graph (universe → universes its cells are filled
// with) and reports each strongly connected component with more than one
// node, or with a self-loop, as a cycle. A lattice node filled with the
// lattice cell's own universe is not an edge: it places the lattice shell.
//
// Cycles are reported in ascending order of their smallest universe.
func AnalyzeUniverses(d *deck.Deck) []UniverseCycle {
	graph := buildFillGraph(d)

	var cycles []UniverseCycle
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Path[0] < cycles[j].Path[0] })
	return cycles
}

// fillGraph maps universe → filled universes, each list sorted.
type fillGraph map[int][]int

func buildFillGraph(d *deck.Deck) fillGraph {
	edges := make(map[int]map[int]bool)
	add := func(from, to int) {
		if edges[from] == nil {
			edges[from] = make(map[int]bool)
		}
		edges[from][to] = true
	}

	for i := range d.Cells {
		c := &d.Cells[i]
		if edges[c.Universe] == nil {
			edges[c.Universe] = make(map[int]bool)
		}
		if c.Fill != nil {
			add(c.Universe, c.Fill.Universe)
		}
		if c.Lattice != nil {
			for _, f := range c.Lattice.Fills {
				if f.Universe != c.Universe {
					add(c.Universe, f.Universe)
				}
			}
		}
	}

	graph := make(fillGraph, len(edges))
	for from, tos := range edges {
		list := make([]int, 0, len(tos))
		for to := range tos {
			list = append(list, to)
		}
		sort.Ints(list)
		graph[from] = list
	}
	return graph
}

func hasSelfLoop(node int, graph fillGraph) bool {
	for _, n := range graph[node] {
		if n == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in ascending order so results are deterministic.
func tarjanSCC(graph fillGraph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Ints(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]int, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Ints(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}

	return sccs
}

func sccToCycle(scc []int, graph fillGraph) UniverseCycle {
	var path []int
	if len(scc) == 1 {
		path = []int{scc[0], scc[0]}
	} else {
		path = reconstructCyclePath(scc, graph)
	}
	parts := make([]string, len(path))
	for i, u := range path {
		parts[i] = fmt.Sprintf("%d", u)
	}
	return UniverseCycle{
		Path:    path,
		Message: fmt.Sprintf("universe fill cycle: %s", strings.Join(parts, " -> ")),
	}
}

// reconstructCyclePath follows edges inside the SCC from its smallest
// member until it returns there.
func reconstructCyclePath(scc []int, graph fillGraph) []int {
	member := make(map[int]bool, len(scc))
	for _, n := range scc {
		member[n] = true
	}

	start := scc[0]
	current := start
	path := []int{current}
	visited := make(map[int]bool)

	for {
		visited[current] = true
		next, found := 0, false
		for _, n := range graph[current] {
			if member[n] && (!visited[n] || n == start) {
				next, found = n, true
				break
			}
		}
		if !found {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
