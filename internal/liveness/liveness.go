// Package liveness computes upward-exposed uses, kills, and live-out sets
// for a control-flow graph by backward iterative fixed point.
package liveness

import (
	"pork/internal/cfg"
	"pork/internal/intset"
	"pork/internal/ir"
)

// Analyze fills UEVar, VarKill, and LiveOut on every block of g.
func Analyze(g *cfg.Graph) {
	bc := g.Bytecode
	for _, b := range g.Blocks {
		b.UEVar = intset.New(intset.DefaultCapacity)
		b.VarKill = intset.New(intset.DefaultCapacity)
		b.LiveOut = intset.New(intset.DefaultCapacity)
		computeLocal(b, bc)
	}

	for {
		grew := false
		for _, b := range g.Blocks {
			next := intset.New(intset.DefaultCapacity)
			for _, succ := range b.Successors {
				next.Union(succ.UEVar)
				rest := succ.LiveOut.Clone()
				rest.Subtract(succ.VarKill)
				next.Union(rest)
			}
			before := b.LiveOut.Len()
			b.LiveOut.Union(next)
			if b.LiveOut.Len() != before {
				grew = true
			}
		}
		if !grew {
			break
		}
	}
}

// computeLocal scans b's instructions in program order to compute VarKill
// (every register defined in b) and UEVar (every register used in b
// before it is killed there).
func computeLocal(b *cfg.Block, bc *ir.Bytecode) {
	for i := b.Start; i < b.End; i++ {
		ins := &bc.Instructions[i]
		ins.Uses(func(reg int64) {
			if !b.VarKill.Has(reg) {
				b.UEVar.Insert(reg)
			}
		})
		if def, ok := ins.Defines(); ok {
			b.VarKill.Insert(def)
		}
	}
}
