// Package interp executes colored bytecode on a fixed-size register file.
package interp

import (
	"fmt"

	"pork/internal/ast"
	"pork/internal/ir"
)

// ErrNoReturn is returned when execution falls off the end of the
// instruction stream without hitting a RET — should be impossible once
// the CFG stage has validated the program, but the interpreter still
// guards against it rather than reading out of bounds.
var ErrNoReturn = fmt.Errorf("No return.")

// Run executes bc with a register file of size bc.RegisterCount (at
// least k, the allocator's target) and returns the RET value.
func Run(bc *ir.Bytecode) (int64, error) {
	regs := make([]int64, bc.RegisterCount)
	pc := 0

	for pc < len(bc.Instructions) {
		ins := &bc.Instructions[pc]
		switch ins.Op {
		case ir.NOOP:
			pc++
		case ir.IMM:
			regs[ins.A1] = ins.A2
			pc++
		case ir.COPY:
			regs[ins.A1] = regs[ins.A2]
			pc++
		case ir.CAST:
			regs[ins.A1] = castValue(regs[ins.A2], ins.Type)
			pc++
		case ir.ADD:
			regs[ins.A1] = regs[ins.A2] + regs[ins.A3]
			pc++
		case ir.SUB:
			regs[ins.A1] = regs[ins.A2] - regs[ins.A3]
			pc++
		case ir.MUL:
			regs[ins.A1] = regs[ins.A2] * regs[ins.A3]
			pc++
		case ir.DIV:
			regs[ins.A1] = regs[ins.A2] / regs[ins.A3]
			pc++
		case ir.LESS:
			regs[ins.A1] = boolToInt(regs[ins.A2] < regs[ins.A3])
			pc++
		case ir.LEQUAL:
			regs[ins.A1] = boolToInt(regs[ins.A2] <= regs[ins.A3])
			pc++
		case ir.EQUAL:
			regs[ins.A1] = boolToInt(regs[ins.A2] == regs[ins.A3])
			pc++
		case ir.NEQUAL:
			regs[ins.A1] = boolToInt(regs[ins.A2] != regs[ins.A3])
			pc++
		case ir.RET:
			return regs[ins.A1], nil
		case ir.JMP:
			pc = bc.LabelLocations[ins.A1]
		case ir.CJMP:
			if regs[ins.A1] != 0 {
				pc = bc.LabelLocations[ins.A2]
			} else {
				pc = bc.LabelLocations[ins.A3]
			}
		default:
			panic(fmt.Sprintf("interp: impossible op %v", ins.Op))
		}
	}

	return 0, ErrNoReturn
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// castValue narrows src to t's width and sign-extends when t is signed.
// This resolves spec.md §9 Open Question (i): the original interpreter
// does a raw 64-bit copy for CAST; this repo picks explicit truncation
// and sign extension consistent with the destination width instead.
func castValue(src int64, t *ast.Type) int64 {
	if t == nil {
		return src
	}
	bits := uint(t.Size) * 8
	if bits == 0 || bits >= 64 {
		return src
	}
	mask := int64(1)<<bits - 1
	truncated := src & mask
	if !t.IsSigned() {
		return truncated
	}
	signBit := int64(1) << (bits - 1)
	if truncated&signBit != 0 {
		return truncated | ^mask
	}
	return truncated
}
