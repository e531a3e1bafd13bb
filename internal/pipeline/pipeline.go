// Package pipeline wires the middle-end stages together: semantic
// analysis gates lowering, CFG construction gates liveness, liveness
// gates allocation, allocation rewrites the bytecode in place, and the
// interpreter reads the rewritten stream. Each stage runs to completion
// before the next begins; there is no concurrency between stages.
package pipeline

import (
	"github.com/google/uuid"

	"pork/internal/ast"
	"pork/internal/cfg"
	"pork/internal/errors"
	"pork/internal/interp"
	"pork/internal/ir"
	"pork/internal/lexer"
	"pork/internal/liveness"
	"pork/internal/parser"
	"pork/internal/regalloc"
	"pork/internal/sema"
)

// RegisterFileCount is k, the interpreter's physical register count.
const RegisterFileCount = 8

// Result is everything a successful compile produces, kept around for
// -dump-ir / -dump-cfg / -stats output.
type Result struct {
	// CompilationID tags one run of the pipeline, surfaced by -verbose.
	CompilationID uuid.UUID
	Program       *ast.Program
	AST           *ast.Node
	Bytecode      *ir.Bytecode
	Graph         *cfg.Graph
}

// Compile runs the full pipeline over source. Diagnostics carries every
// reported error regardless of outcome; ok is false if compilation failed
// at any gated stage. err is set only for the allocator's uncolorable
// failure, which is not a Diagnostic (spec.md §7: fatal for the
// function, not a "report and continue" diagnostic kind).
func Compile(source string) (res *Result, diag *errors.Diagnostics, ok bool, err error) {
	diag = &errors.Diagnostics{}
	program := ast.NewProgram()

	scan := lexer.NewScanner(source)
	tokens := scan.ScanTokens()
	for _, lexErr := range scan.Errors {
		diag.Add(errors.KindSyntax, 0, "%s", lexErr)
	}
	if len(scan.Errors) > 0 {
		return nil, diag, false, nil
	}

	p := parser.NewParser(program, tokens)
	root := p.ParseFunctionBody()
	for _, parseErr := range p.Errors {
		diag.Add(errors.KindSyntax, 0, "%s", parseErr)
	}
	if len(p.Errors) > 0 || root == nil {
		return nil, diag, false, nil
	}

	analyzer := sema.New(program, diag, program.I32)
	if !analyzer.Analyze(root) {
		return nil, diag, false, nil
	}

	bc := ir.Lower(root)

	graph, cfgOK := cfg.Build(bc, diag)
	if !cfgOK {
		return nil, diag, false, nil
	}

	liveness.Analyze(graph)

	if allocErr := regalloc.Allocate(graph, RegisterFileCount); allocErr != nil {
		return nil, diag, false, allocErr
	}

	res = &Result{
		CompilationID: uuid.New(),
		Program:       program,
		AST:           root,
		Bytecode:      bc,
		Graph:         graph,
	}
	return res, diag, true, nil
}

// Run executes a compiled Result's bytecode and returns the RET value.
func Run(res *Result) (int64, error) {
	return interp.Run(res.Bytecode)
}
