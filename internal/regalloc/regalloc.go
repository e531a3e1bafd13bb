// Package regalloc implements Chaitin–Briggs graph-coloring register
// allocation with copy coalescing, operating on a function's live ranges
// and interference graph.
//
// Nodes in the interference graph are union-find representatives of
// original virtual registers ("live ranges"); two registers end up with
// the same representative exactly when a COPY between them was
// successfully coalesced.
package regalloc

import (
	"fmt"

	"pork/internal/cfg"
	"pork/internal/ir"
)

// ErrUncolorable is returned when more than k values are simultaneously
// live and spilling (an explicit non-goal) would be required.
type ErrUncolorable struct {
	Remaining int
}

func (e *ErrUncolorable) Error() string {
	return fmt.Sprintf("register allocation failed: %d live ranges could not be colored", e.Remaining)
}

// unionFind maps each virtual register to its live-range representative
// with path compression.
type unionFind struct {
	parent []int64
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int64, n)}
	for i := range uf.parent {
		uf.parent[i] = int64(i)
	}
	return uf
}

func (uf *unionFind) find(r int64) int64 {
	root := r
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[r] != root {
		uf.parent[r], r = root, uf.parent[r]
	}
	return root
}

func (uf *unionFind) union(a, b int64) {
	uf.parent[uf.find(b)] = uf.find(a)
}

// interference is a symmetric adjacency map between live-range
// representatives. A plain map stands in for the spec's bit-matrix plus
// pooled adjacency lists: Go's allocator makes manual node pooling
// unnecessary, and the spec explicitly permits skipping that
// optimization (§4.H, §9).
type interference struct {
	adj map[int64]map[int64]bool
}

func newInterference() *interference {
	return &interference{adj: map[int64]map[int64]bool{}}
}

func (g *interference) addEdge(a, b int64) {
	if a == b {
		return
	}
	if g.adj[a] == nil {
		g.adj[a] = map[int64]bool{}
	}
	if g.adj[b] == nil {
		g.adj[b] = map[int64]bool{}
	}
	g.adj[a][b] = true
	g.adj[b][a] = true
}

func (g *interference) interferes(a, b int64) bool {
	return g.adj[a][b]
}

func (g *interference) neighbors(a int64) map[int64]bool {
	return g.adj[a]
}

// Allocate colors bc's virtual registers into k physical registers,
// rewriting every operand in place and setting bc.RegisterCount = k.
func Allocate(g *cfg.Graph, k int) error {
	bc := g.Bytecode
	uf := newUnionFind(bc.RegisterCount)

	for {
		graph := buildInterference(g, uf)
		if !coalesce(bc, uf, graph) {
			break
		}
	}

	graph := buildInterference(g, uf)
	stack, remaining := simplify(bc.RegisterCount, uf, graph, k)
	if remaining > 0 {
		return &ErrUncolorable{Remaining: remaining}
	}
	colors := selectColors(stack, graph, k)

	for i := range bc.Instructions {
		bc.Instructions[i].RewriteOperands(func(reg int64) int64 {
			return int64(colors[uf.find(reg)])
		})
	}
	bc.RegisterCount = k
	return nil
}

// buildInterference walks every block backward from LiveOut, building
// fresh interference edges under the current coalescing state.
func buildInterference(g *cfg.Graph, uf *unionFind) *interference {
	graph := newInterference()
	bc := g.Bytecode

	for _, b := range g.Blocks {
		liveNow := b.LiveOut.Clone()
		for i := b.End - 1; i >= b.Start; i-- {
			ins := &bc.Instructions[i]
			if def, ok := ins.Defines(); ok {
				liveNow.Remove(def)
				liveNow.Each(func(other int64) {
					if ins.Op == ir.COPY && uf.find(other) == uf.find(ins.A2) {
						return
					}
					graph.addEdge(uf.find(other), uf.find(def))
				})
			}
			ins.Uses(func(reg int64) { liveNow.Insert(reg) })
		}
	}
	return graph
}

// coalesce rewrites trivial copies to NOOP and unions the live ranges of
// every non-interfering copy's source and destination. It returns true if
// at least one copy was coalesced this pass (the caller rebuilds
// interference and tries again).
func coalesce(bc *ir.Bytecode, uf *unionFind, graph *interference) bool {
	var copies []int
	for i, ins := range bc.Instructions {
		if ins.Op == ir.COPY {
			copies = append(copies, i)
		}
	}

	coalesced := false
	for i := len(copies) - 1; i >= 0; i-- {
		ins := &bc.Instructions[copies[i]]
		lr1, lr2 := uf.find(ins.A1), uf.find(ins.A2)
		switch {
		case lr1 == lr2:
			*ins = ir.Instruction{Op: ir.NOOP, Line: ins.Line}
		case !graph.interferes(lr1, lr2):
			uf.union(lr1, lr2)
			coalesced = true
		}
	}
	return coalesced
}

// simplify repeatedly removes representatives with active degree < k,
// pushing them onto the select stack, until no more can be removed.
func simplify(registerCount int, uf *unionFind, graph *interference, k int) (stack []int64, remaining int) {
	seen := map[int64]bool{}
	var s []int64
	for i := 0; i < registerCount; i++ {
		r := uf.find(int64(i))
		if !seen[r] {
			seen[r] = true
			s = append(s, r)
		}
	}

	active := map[int64]map[int64]bool{}
	for n, neighbors := range graph.adj {
		active[n] = map[int64]bool{}
		for m := range neighbors {
			active[n][m] = true
		}
	}

	for {
		progressed := false
		var remain []int64
		for _, n := range s {
			if len(active[n]) < k {
				stack = append(stack, n)
				for m := range active[n] {
					delete(active[m], n)
				}
				delete(active, n)
				progressed = true
			} else {
				remain = append(remain, n)
			}
		}
		s = remain
		if !progressed {
			break
		}
	}
	return stack, len(s)
}

// selectColors pops the simplify stack and assigns each representative
// the smallest color not used by any already-colored neighbor.
func selectColors(stack []int64, graph *interference, k int) map[int64]int {
	colors := map[int64]int{}
	for i := len(stack) - 1; i >= 0; i-- {
		n := stack[i]
		used := map[int]bool{}
		for neighbor := range graph.neighbors(n) {
			if c, ok := colors[neighbor]; ok {
				used[c] = true
			}
		}
		for c := 0; c < k; c++ {
			if !used[c] {
				colors[n] = c
				break
			}
		}
	}
	return colors
}
