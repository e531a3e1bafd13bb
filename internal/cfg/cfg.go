// Package cfg partitions a lowered instruction stream into basic blocks
// and computes the successor/predecessor graph and reachability.
package cfg

import (
	"pork/internal/arena"
	"pork/internal/errors"
	"pork/internal/intset"
	"pork/internal/ir"
)

// scratchPool backs blockBoundaries' presence bitmap: a throwaway
// per-call working set that is pushed and released within a single
// Build, never retained across calls.
var scratchPool = arena.NewPool(256)

// Block is a maximal straight-line run of instructions with a single
// entry and single exit, spec.md §3's BasicBlock.
type Block struct {
	Index        int
	Start, End   int // instruction range [Start, End)
	Successors   []*Block
	Predecessors []*Block
	HasUserCode  bool
	Reachable    bool
	FirstLine    int

	// Liveness results, filled in by package liveness.
	UEVar   *intset.Set
	VarKill *intset.Set
	LiveOut *intset.Set

	isEnd bool // the synthetic terminal pseudo-block
}

// Graph is the control-flow graph of one function's bytecode.
type Graph struct {
	Bytecode *ir.Bytecode
	Blocks   []*Block
}

// isJump reports whether op is a non-fallthrough terminator.
func isJump(op ir.Op) bool {
	return op == ir.JMP || op == ir.CJMP || op == ir.RET
}

// Build partitions bc into basic blocks, validates missing-return and
// unreachable-code, and builds the successor/predecessor graph. It
// returns (nil, false) if validation failed, with diagnostics recorded on
// diag — matching the CFG stage's "report and abort" policy.
func Build(bc *ir.Bytecode, diag *errors.Diagnostics) (*Graph, bool) {
	g := &Graph{Bytecode: bc}

	boundaries := blockBoundaries(bc)
	for i, start := range boundaries {
		end := len(bc.Instructions)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		g.Blocks = append(g.Blocks, newBlock(len(g.Blocks), bc, start, end))
	}

	end := &Block{Index: -1, isEnd: true}

	labelledBlock := make([]*Block, len(bc.LabelLocations))
	terminal := len(bc.LabelLocations) - 1
	for _, b := range g.Blocks {
		if b.Start < len(bc.Instructions) && bc.Instructions[b.Start].Label != -1 {
			labelledBlock[bc.Instructions[b.Start].Label] = b
		}
	}
	labelledBlock[terminal] = end

	for i, b := range g.Blocks {
		var next *Block
		if i+1 < len(g.Blocks) {
			next = g.Blocks[i+1]
		} else {
			next = end
		}
		b.Successors = successorsOf(b, bc, labelledBlock, next)
	}

	// Reachability via DFS from block 0, including the END sentinel.
	if len(g.Blocks) > 0 {
		markReachable(g.Blocks[0])
	}

	ok := true
	if end.Reachable {
		diag.Add(errors.KindMissingReturn, 0, "Not all control paths return.")
		ok = false
	}
	for _, b := range g.Blocks {
		if b.HasUserCode && !b.Reachable {
			diag.Add(errors.KindUnreachableCode, b.FirstLine, "Unreachable code")
			ok = false
		}
	}
	if !ok {
		return nil, false
	}

	for _, b := range g.Blocks {
		stripped := b.Successors[:0]
		for _, succ := range b.Successors {
			if !succ.isEnd {
				stripped = append(stripped, succ)
			}
		}
		b.Successors = stripped
	}

	counts := make([]int, len(g.Blocks))
	for _, b := range g.Blocks {
		for _, succ := range b.Successors {
			counts[succ.Index]++
		}
	}
	for i, b := range g.Blocks {
		b.Predecessors = make([]*Block, 0, counts[i])
	}
	for _, b := range g.Blocks {
		for _, succ := range b.Successors {
			succ.Predecessors = append(succ.Predecessors, b)
		}
	}

	return g, true
}

func newBlock(index int, bc *ir.Bytecode, start, end int) *Block {
	b := &Block{Index: index, Start: start, End: end, FirstLine: -1}
	for i := start; i < end; i++ {
		ins := &bc.Instructions[i]
		if ins.Op == ir.JMP || ins.Op == ir.CJMP {
			continue
		}
		b.HasUserCode = true
		if b.FirstLine == -1 || ins.Line < b.FirstLine {
			b.FirstLine = ins.Line
		}
	}
	return b
}

// blockBoundaries returns the sorted instruction indices at which a new
// block starts. The presence bitmap is a scratch-arena allocation: it is
// pushed, written, scanned, and released within this one call.
func blockBoundaries(bc *ir.Bytecode) []int {
	n := len(bc.Instructions)
	if n == 0 {
		return []int{0}
	}

	scratch := scratchPool.GetScratch(nil)
	defer scratch.Release()

	present := scratch.Arena.Push(n)
	present[0] = 1
	for i, ins := range bc.Instructions {
		if ins.Label != -1 {
			present[i] = 1
		}
		if isJump(ins.Op) && i+1 < n {
			present[i+1] = 1
		}
	}

	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if present[i] != 0 {
			out = append(out, i)
		}
	}
	return out
}

func successorsOf(b *Block, bc *ir.Bytecode, labelledBlock []*Block, fallthroughTo *Block) []*Block {
	if b.Start == b.End {
		return []*Block{fallthroughTo}
	}
	last := &bc.Instructions[b.End-1]
	switch last.Op {
	case ir.JMP:
		return []*Block{labelledBlock[last.A1]}
	case ir.CJMP:
		t := labelledBlock[last.A2]
		f := labelledBlock[last.A3]
		if f == t {
			return []*Block{t}
		}
		return []*Block{t, f}
	case ir.RET:
		return nil
	default:
		return []*Block{fallthroughTo}
	}
}

func markReachable(b *Block) {
	if b.Reachable {
		return
	}
	b.Reachable = true
	for _, succ := range b.Successors {
		markReachable(succ)
	}
}
