package ir

import "pork/internal/ast"

// translator accumulates instructions and labels while walking one
// function body's AST.
type translator struct {
	instructions []Instruction
	nextRegister int64
	labelCount   int
	// labelLocations maps an (uncompacted) label id to its instruction
	// index at the moment it was placed, or -1 if never placed within
	// the stream.
	labelLocations []int
}

func newTranslator() *translator {
	return &translator{labelLocations: nil}
}

func (t *translator) newRegister() int64 {
	r := t.nextRegister
	t.nextRegister++
	return r
}

func (t *translator) newLabel() int {
	id := t.labelCount
	t.labelCount++
	t.labelLocations = append(t.labelLocations, -1)
	return id
}

func (t *translator) placeLabel(label int) {
	t.labelLocations[label] = len(t.instructions)
}

func (t *translator) emit(ins Instruction) int {
	t.instructions = append(t.instructions, ins)
	return len(t.instructions) - 1
}

// Lower walks fn (a Block node, already semantically analyzed) and
// produces compacted, label-resolved Bytecode.
func Lower(fn *ast.Node) *Bytecode {
	t := newTranslator()
	t.lowerBlock(fn)
	return t.compact()
}

// lowerNode lowers one expression/statement node and returns the virtual
// register holding its result, or -1 for pure statements.
func (t *translator) lowerNode(n *ast.Node) int64 {
	switch n.Kind {
	case ast.IntLiteral:
		r := t.newRegister()
		t.emit(Instruction{Op: IMM, A1: r, A2: int64(n.IntValue), Line: n.Line()})
		return r
	case ast.Variable:
		return int64(n.Var.Register)
	case ast.VariableDecl:
		reg := t.newRegister()
		n.Var.SetRegister(int(reg))
		return -1
	case ast.Cast:
		src := t.lowerNode(n.Expr)
		dst := t.newRegister()
		// Type carries the destination type, which is what determines
		// truncation width and sign extension at runtime; A3 carries the
		// source op_type per spec.md §3's operand table, informational
		// only: the interpreter reads Type, not A3.
		t.emit(Instruction{Op: CAST, Type: n.Type, A1: dst, A2: src, A3: int64(n.Expr.Type.OpType), Line: n.Line()})
		return dst
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Less, ast.LEqual, ast.Equal, ast.NEqual:
		l := t.lowerNode(n.Left)
		r := t.lowerNode(n.Right)
		dst := t.newRegister()
		t.emit(Instruction{Op: binaryOp(n.Kind), Type: n.Type, A1: dst, A2: l, A3: r, Line: n.Line()})
		return dst
	case ast.Assign:
		r := t.lowerNode(n.Right)
		dst := int64(n.Left.Var.Register)
		t.emit(Instruction{Op: COPY, Type: n.Type, A1: dst, A2: r, Line: n.Line()})
		return r
	case ast.Block:
		t.lowerBlock(n)
		return -1
	case ast.Return:
		r := t.lowerNode(n.Expr)
		t.emit(Instruction{Op: RET, A1: r, Line: n.Line()})
		return -1
	case ast.If:
		t.lowerIf(n)
		return -1
	case ast.While:
		t.lowerWhile(n)
		return -1
	default:
		panic("ir: unhandled AST kind in lowering: " + n.Kind.String())
	}
}

func (t *translator) lowerBlock(n *ast.Node) {
	for stmt := n.First; stmt != nil; stmt = stmt.Next {
		t.lowerNode(stmt)
	}
}

func (t *translator) lowerIf(n *ast.Node) {
	labelThen := t.newLabel()
	labelElse := t.newLabel()
	labelEnd := -1

	cond := t.lowerNode(n.Cond)
	t.emit(Instruction{Op: CJMP, A1: cond, A2: int64(labelThen), A3: int64(labelElse), Line: sentinelLine})

	t.placeLabel(labelThen)
	t.lowerNode(n.BlockThen)
	if n.BlockElse != nil {
		labelEnd = t.newLabel()
		t.emit(Instruction{Op: JMP, A1: int64(labelEnd), Line: sentinelLine})
	}

	t.placeLabel(labelElse)
	if n.BlockElse != nil {
		t.lowerNode(n.BlockElse)
		t.placeLabel(labelEnd)
	}
}

func (t *translator) lowerWhile(n *ast.Node) {
	labelStart := t.newLabel()
	labelBody := t.newLabel()
	labelEnd := t.newLabel()

	t.placeLabel(labelStart)
	cond := t.lowerNode(n.Cond)
	t.emit(Instruction{Op: CJMP, A1: cond, A2: int64(labelBody), A3: int64(labelEnd), Line: sentinelLine})

	t.placeLabel(labelBody)
	t.lowerNode(n.BlockThen)
	t.emit(Instruction{Op: JMP, A1: int64(labelStart), Line: sentinelLine})

	t.placeLabel(labelEnd)
}

func binaryOp(k ast.Kind) Op {
	switch k {
	case ast.Add:
		return ADD
	case ast.Sub:
		return SUB
	case ast.Mul:
		return MUL
	case ast.Div:
		return DIV
	case ast.Less:
		return LESS
	case ast.LEqual:
		return LEQUAL
	case ast.Equal:
		return EQUAL
	case ast.NEqual:
		return NEQUAL
	default:
		panic("ir: not a binary AST kind")
	}
}

// compact assigns dense compacted label ids to every instruction that was
// a label target, appends the terminal "end" label one past the last
// instruction, and rewrites every JMP/CJMP target through the
// original->compacted mapping.
func (t *translator) compact() *Bytecode {
	bc := &Bytecode{}
	for i := range t.instructions {
		bc.Instructions = append(bc.Instructions, t.instructions[i])
		bc.Instructions[i].Label = -1
	}

	remap := make([]int, len(t.labelLocations))
	for label, insIndex := range t.labelLocations {
		if insIndex < 0 || insIndex >= len(bc.Instructions) {
			// Falls past the stream end (e.g. the end label of an
			// if/else or while that closes the function body): maps to
			// the terminal label, resolved below.
			remap[label] = -1
			continue
		}
		if bc.Instructions[insIndex].Label == -1 {
			newLabel := len(bc.LabelLocations)
			bc.Instructions[insIndex].Label = newLabel
			bc.LabelLocations = append(bc.LabelLocations, insIndex)
		}
		remap[label] = bc.Instructions[insIndex].Label
	}

	terminal := len(bc.LabelLocations)
	bc.LabelLocations = append(bc.LabelLocations, len(bc.Instructions))
	for label, compacted := range remap {
		if compacted == -1 {
			remap[label] = terminal
		}
	}

	for i := range bc.Instructions {
		ins := &bc.Instructions[i]
		switch ins.Op {
		case JMP:
			ins.A1 = int64(remap[ins.A1])
		case CJMP:
			ins.A2 = int64(remap[ins.A2])
			ins.A3 = int64(remap[ins.A3])
		}
	}

	bc.RegisterCount = int(t.nextRegister)
	return bc
}
