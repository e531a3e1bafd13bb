package ir

import (
	"testing"

	"pork/internal/ast"
	"pork/internal/errors"
	"pork/internal/lexer"
	"pork/internal/parser"
	"pork/internal/sema"
)

func lower(t *testing.T, src string) *Bytecode {
	t.Helper()
	program := ast.NewProgram()
	tokens := lexer.NewScanner(src).ScanTokens()
	p := parser.NewParser(program, tokens)
	root := p.ParseFunctionBody()
	if len(p.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors)
	}
	diag := &errors.Diagnostics{}
	if !sema.New(program, diag, program.I32).Analyze(root) {
		t.Fatalf("unexpected semantic diagnostics: %v", diag.All())
	}
	return Lower(root)
}

func TestLowerLiteralReturn(t *testing.T) {
	bc := lower(t, "{ return 42; }")
	if len(bc.Instructions) != 2 {
		t.Fatalf("expected IMM+RET, got %d instructions", len(bc.Instructions))
	}
	if bc.Instructions[0].Op != IMM || bc.Instructions[1].Op != RET {
		t.Fatalf("unexpected ops: %v", bc.Instructions)
	}
}

func TestLowerAssignEmitsCopy(t *testing.T) {
	bc := lower(t, "{ i32 a; a = 1; return a; }")
	sawCopy := false
	for _, ins := range bc.Instructions {
		if ins.Op == COPY {
			sawCopy = true
		}
	}
	if !sawCopy {
		t.Fatalf("expected a COPY instruction for the assignment, got %v", bc.Instructions)
	}
}

func TestLowerLabelsAreCompactedAndTerminalOnePastEnd(t *testing.T) {
	bc := lower(t, "{ i32 a; a = 0; while a < 10 { a = a + 1; } return a; }")
	for i, want := range bc.LabelLocations {
		if want < 0 || want > len(bc.Instructions) {
			t.Fatalf("label %d location %d out of range", i, want)
		}
	}
	terminal := bc.LabelLocations[len(bc.LabelLocations)-1]
	if terminal != len(bc.Instructions) {
		t.Fatalf("expected terminal label one past the last instruction, got %d (len=%d)", terminal, len(bc.Instructions))
	}
	for _, ins := range bc.Instructions {
		if ins.Op == JMP && (ins.A1 < 0 || ins.A1 >= int64(len(bc.LabelLocations))) {
			t.Fatalf("JMP target %d out of range", ins.A1)
		}
		if ins.Op == CJMP {
			if ins.A2 < 0 || ins.A2 >= int64(len(bc.LabelLocations)) {
				t.Fatalf("CJMP then-target %d out of range", ins.A2)
			}
			if ins.A3 < 0 || ins.A3 >= int64(len(bc.LabelLocations)) {
				t.Fatalf("CJMP else-target %d out of range", ins.A3)
			}
		}
	}
}

func TestLowerIfElseBranchTargetsDiffer(t *testing.T) {
	bc := lower(t, "{ i32 a; a = 0; if a < 1 { a = 1; } else { a = 2; } return a; }")
	var cjmp *Instruction
	for i := range bc.Instructions {
		if bc.Instructions[i].Op == CJMP {
			cjmp = &bc.Instructions[i]
		}
	}
	if cjmp == nil {
		t.Fatalf("expected a CJMP for the if condition")
	}
	if cjmp.A2 == cjmp.A3 {
		t.Fatalf("then/else targets should not coincide")
	}
}

func TestDefinesAndUses(t *testing.T) {
	ins := Instruction{Op: ADD, A1: 2, A2: 0, A3: 1}
	reg, ok := ins.Defines()
	if !ok || reg != 2 {
		t.Fatalf("expected ADD to define register 2")
	}
	var used []int64
	ins.Uses(func(r int64) { used = append(used, r) })
	if len(used) != 2 || used[0] != 0 || used[1] != 1 {
		t.Fatalf("expected ADD to use registers 0 and 1, got %v", used)
	}
}
