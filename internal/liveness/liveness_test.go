package liveness

import (
	"testing"

	"pork/internal/ast"
	"pork/internal/cfg"
	"pork/internal/errors"
	"pork/internal/ir"
	"pork/internal/lexer"
	"pork/internal/parser"
	"pork/internal/sema"
)

func analyzeGraph(t *testing.T, src string) *cfg.Graph {
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
	Analyze(g)
	return g
}

func TestLiveOutEmptyAtFinalReturningBlock(t *testing.T) {
	g := analyzeGraph(t, "{ return 1; }")
	last := g.Blocks[len(g.Blocks)-1]
	if last.LiveOut.Len() != 0 {
		t.Fatalf("expected no live-out past a returning block, got %d", last.LiveOut.Len())
	}
}

func TestVariableLiveAcrossLoopBackEdge(t *testing.T) {
	g := analyzeGraph(t, "{ i32 a; a = 0; while a < 10 { a = a + 1; } return a; }")
	anyLive := false
	for _, b := range g.Blocks {
		if b.LiveOut.Len() > 0 {
			anyLive = true
		}
	}
	if !anyLive {
		t.Fatalf("expected the loop variable to be live across some block boundary")
	}
}

func TestLivenessSetsInitializedOnEveryBlock(t *testing.T) {
	g := analyzeGraph(t, "{ i32 a; i32 b; a = 1; b = a + 1; return b; }")
	for _, b := range g.Blocks {
		if b.UEVar == nil || b.VarKill == nil || b.LiveOut == nil {
			t.Fatalf("expected liveness sets to be initialized on every block")
		}
	}
}
