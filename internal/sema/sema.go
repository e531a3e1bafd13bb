// Package sema implements Pork's semantic analyzer: name resolution,
// typing with implicit integral coercion, and return-type checking.
//
// Analysis mutates the AST in place (filling Type on every node and
// inserting Cast nodes as needed) and reports through a shared
// errors.Diagnostics collector so that one pass surfaces as many problems
// as it can instead of aborting on the first one.
package sema

import (
	"pork/internal/ast"
	"pork/internal/errors"
)

// scope is a lexical block scope; Block opens a fresh child.
type scope struct {
	parent    *scope
	variables map[string]*ast.Var
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, variables: map[string]*ast.Var{}}
}

func (s *scope) lookup(name string) *ast.Var {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.variables[name]; ok {
			return v
		}
	}
	return nil
}

func (s *scope) declare(v *ast.Var) bool {
	if _, exists := s.variables[v.Name]; exists {
		return false
	}
	s.variables[v.Name] = v
	return true
}

// Analyzer runs semantic analysis for one function body.
type Analyzer struct {
	program      *ast.Program
	diag         *errors.Diagnostics
	returnType   *ast.Type
}

// New creates an Analyzer. returnType is the function's declared return
// type (spec.md §4.D defaults this to i32 at the call site when the
// surface grammar has no explicit return-type annotation).
func New(program *ast.Program, diag *errors.Diagnostics, returnType *ast.Type) *Analyzer {
	if returnType == nil {
		returnType = program.I32
	}
	return &Analyzer{program: program, diag: diag, returnType: returnType}
}

// Analyze type-checks and rewrites root (a Block, the function body) in
// place. It returns false if any error was reported.
func (a *Analyzer) Analyze(root *ast.Node) bool {
	before := len(a.diag.All())
	top := newScope(nil)
	a.block(root, top)
	return before == len(a.diag.All())
}

func (a *Analyzer) block(n *ast.Node, parent *scope) {
	s := newScope(parent)
	for stmt := n.First; stmt != nil; stmt = stmt.Next {
		a.statement(stmt, s)
	}
	n.Type = a.program.Void
}

func (a *Analyzer) statement(n *ast.Node, s *scope) {
	switch n.Kind {
	case ast.VariableDecl:
		if !s.declare(n.Var) {
			a.diag.Add(errors.KindVariableRedefinition, n.Line(), "variable redefinition: %q", n.Name)
		}
		n.Type = a.program.Void
	case ast.Assign:
		a.assign(n, s)
	case ast.Block:
		a.block(n, s)
	case ast.If:
		a.expr(n.Cond, s)
		a.block(n.BlockThen, s)
		if n.BlockElse != nil {
			a.block(n.BlockElse, s)
		}
		n.Type = a.program.Void
	case ast.While:
		a.expr(n.Cond, s)
		a.block(n.BlockThen, s)
		n.Type = a.program.Void
	case ast.Return:
		a.expr(n.Expr, s)
		n.Expr = a.coerce(n.Expr, a.returnType, errors.KindReturnMismatch,
			"return type does not match the function signature")
		n.Type = a.program.Void
	default:
		a.expr(n, s)
	}
}

func (a *Analyzer) assign(n *ast.Node, s *scope) {
	if n.Left.Kind != ast.Variable {
		a.diag.Add(errors.KindNotAssignable, n.Line(), "left-hand side of assignment is not assignable")
		n.Type = a.program.Void
		return
	}
	a.expr(n.Left, s)
	a.expr(n.Right, s)
	n.Right = a.coerce(n.Right, n.Left.Type, errors.KindNotAssignable,
		"types of operands are invalid for this operation")
	n.Type = n.Left.Type
}

// expr types n in place, resolving variables and inserting casts for
// binary operands as spec.md §4.D describes.
func (a *Analyzer) expr(n *ast.Node, s *scope) {
	switch n.Kind {
	case ast.IntLiteral:
		n.Type = a.program.IntegerLiteral
	case ast.Variable:
		v := s.lookup(n.Name)
		if v == nil {
			a.diag.Add(errors.KindUndefinedVariable, n.Line(), "undefined variable: %q", n.Name)
			n.Type = a.program.Void
			return
		}
		n.Var = v
		n.Type = v.Type
	case ast.Cast:
		a.expr(n.Expr, s)
		// n.Type is already set by whoever built the Cast node.
	default:
		if n.Kind.IsBinary() {
			a.binary(n, s)
		}
	}
}

func (a *Analyzer) binary(n *ast.Node, s *scope) {
	a.expr(n.Left, s)
	a.expr(n.Right, s)

	if n.Left.Type == n.Right.Type {
		n.Type = n.Left.Type
		return
	}

	leftIntegral := a.program.IsIntegral(n.Left.Type)
	rightIntegral := a.program.IsIntegral(n.Right.Type)
	leftLiteral := n.Left.Type == a.program.IntegerLiteral
	rightLiteral := n.Right.Type == a.program.IntegerLiteral

	switch {
	case leftIntegral && rightIntegral:
		wide := widerOf(n.Left.Type, n.Right.Type)
		if a.program.IsSignedIntegral(n.Left.Type) || a.program.IsSignedIntegral(n.Right.Type) {
			wide = a.program.ToSigned(wide)
		}
		n.Left = a.implicitCast(n.Left, wide)
		n.Right = a.implicitCast(n.Right, wide)
		n.Type = wide
	case leftLiteral && rightIntegral:
		n.Left = a.implicitCast(n.Left, n.Right.Type)
		n.Type = n.Right.Type
	case rightLiteral && leftIntegral:
		n.Right = a.implicitCast(n.Right, n.Left.Type)
		n.Type = n.Left.Type
	default:
		a.diag.Add(errors.KindInvalidOperands, n.Line(), "types of operands are invalid for this operation")
		n.Type = a.program.Void
	}
}

func widerOf(a, b *ast.Type) *ast.Type {
	if a.Size >= b.Size {
		return a
	}
	return b
}

// coerce implicitly coerces n to wanted, reporting kind/message if that
// is not possible for n's current type.
func (a *Analyzer) coerce(n *ast.Node, wanted *ast.Type, kind errors.Kind, message string) *ast.Node {
	if n.Type == wanted {
		return n
	}
	if !a.program.Coercible(n.Type, wanted) {
		a.diag.Add(kind, n.Line(), "%s", message)
		return n
	}
	return a.implicitCast(n, wanted)
}

// implicitCast either rewrites an integer-literal-only subtree to wanted
// in place (no Cast node), or mutates n in place into a Cast node whose
// child is a shallow Clone of n (the clone keeps n's children).
func (a *Analyzer) implicitCast(n *ast.Node, wanted *ast.Type) *ast.Node {
	if n.Type == wanted {
		return n
	}
	if n.Type == a.program.IntegerLiteral {
		rewriteLiteralType(n, wanted)
		return n
	}
	clone := n.Clone()
	*n = ast.Node{
		Kind:  ast.Cast,
		Token: clone.Token,
		Type:  wanted,
		Expr:  clone,
	}
	return n
}

// rewriteLiteralType walks only through arithmetic/comparison nodes that
// are themselves still integer-literal-typed, retyping the whole
// literal-only subtree to wanted without inserting a Cast.
func rewriteLiteralType(n *ast.Node, wanted *ast.Type) {
	n.Type = wanted
	if n.Kind.IsBinary() {
		rewriteLiteralType(n.Left, wanted)
		rewriteLiteralType(n.Right, wanted)
	}
}
