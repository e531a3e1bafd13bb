package regalloc

import (
	"testing"

	"pork/internal/ast"
	"pork/internal/cfg"
	"pork/internal/errors"
	"pork/internal/ir"
	"pork/internal/lexer"
	"pork/internal/liveness"
	"pork/internal/parser"
	"pork/internal/sema"
)

func allocate(t *testing.T, src string, k int) (*ir.Bytecode, error) {
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
	bc := ir.Lower(root)
	diag2 := &errors.Diagnostics{}
	g, ok := cfg.Build(bc, diag2)
	if !ok {
		t.Fatalf("unexpected cfg diagnostics: %v", diag2.All())
	}
	liveness.Analyze(g)
	err := Allocate(g, k)
	return bc, err
}

func TestAllocateFitsWithinRegisterBudget(t *testing.T) {
	bc, err := allocate(t, "{ i32 a; i32 b; i32 c; a = 1; b = 2; c = a + b; return c; }", 8)
	if err != nil {
		t.Fatalf("unexpected allocation failure: %v", err)
	}
	if bc.RegisterCount != 8 {
		t.Fatalf("expected RegisterCount to be set to k=8, got %d", bc.RegisterCount)
	}
	for _, ins := range bc.Instructions {
		if reg, ok := ins.Defines(); ok && (reg < 0 || reg >= 8) {
			t.Fatalf("operand %d out of the physical register budget", reg)
		}
	}
}

func TestAllocateFailsWhenTooManyLiveAtOnce(t *testing.T) {
	src := "{ i32 a; i32 b; a = 1; b = 2; return a + b; }"
	_, err := allocate(t, src, 1)
	if err == nil {
		t.Fatalf("expected an uncolorable error with k=1 and two simultaneously live values")
	}
	if _, ok := err.(*ErrUncolorable); !ok {
		t.Fatalf("expected *ErrUncolorable, got %T", err)
	}
}

func TestCoalescingEliminatesTrivialCopy(t *testing.T) {
	bc, err := allocate(t, "{ i32 a; a = 1; return a; }", 8)
	if err != nil {
		t.Fatalf("unexpected allocation failure: %v", err)
	}
	for _, ins := range bc.Instructions {
		if ins.Op == ir.COPY {
			t.Fatalf("expected the trivial copy to be coalesced away, found %v", ins)
		}
	}
}
