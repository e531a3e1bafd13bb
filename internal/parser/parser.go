// Package parser builds Pork's tagged-union AST from a token stream.
//
// This component is named "external" in the distilled spec (§1): nothing
// else in the pipeline defines its shape. It is implemented here, scoped
// strictly to the grammar in spec.md §6, in the teacher's recursive
// descent idiom (a Parser struct holding tokens/position/Errors, a
// precedence table driving binary-operator parsing).
package parser

import (
	"fmt"

	"pork/internal/ast"
	"pork/internal/lexer"
)

// precedence orders Pork's binary operators, lowest first. Comparisons
// are non-associative in the source grammar but parsed left-associative
// here, matching how the teacher's precedence-climbing parser treats its
// own comparison tier.
var precedence = map[lexer.TokenType]int{
	lexer.TokenDoubleEq: 1,
	lexer.TokenNotEqual: 1,
	lexer.TokenLT:       1,
	lexer.TokenGT:       1,
	lexer.TokenLE:       1,
	lexer.TokenGE:       1,
	lexer.TokenPlus:     2,
	lexer.TokenMinus:    2,
	lexer.TokenStar:     3,
	lexer.TokenSlash:    3,
}

var typeKeywords = map[lexer.TokenType]bool{
	lexer.TokenU8: true, lexer.TokenU16: true, lexer.TokenU32: true, lexer.TokenU64: true,
	lexer.TokenI8: true, lexer.TokenI16: true, lexer.TokenI32: true, lexer.TokenI64: true,
}

// Parser is a recursive-descent/precedence-climbing parser over a fixed
// token slice.
type Parser struct {
	program *ast.Program
	tokens  []lexer.Token
	current int
	Errors  []error
}

// NewParser creates a Parser over tokens, resolving declared types
// against program's built-in type registry.
func NewParser(program *ast.Program, tokens []lexer.Token) *Parser {
	return &Parser{program: program, tokens: tokens}
}

// ParseFunctionBody parses a single brace-delimited block — the entire
// surface grammar supports one function body, per spec.md §1.
func (p *Parser) ParseFunctionBody() *ast.Node {
	if !p.check(lexer.TokenLBrace) {
		p.errorf("expected '{' to start function body")
		return nil
	}
	return p.block()
}

func (p *Parser) block() *ast.Node {
	openTok := p.advance() // consume '{'
	node := &ast.Node{Kind: ast.Block, Token: openTok}
	var last *ast.Node
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		stmt := p.statement()
		if stmt == nil {
			continue
		}
		if node.First == nil {
			node.First = stmt
		} else {
			last.Next = stmt
		}
		last = stmt
	}
	if !p.match(lexer.TokenRBrace) {
		p.errorf("expected '}' to close block")
	}
	return node
}

func (p *Parser) statement() *ast.Node {
	switch {
	case typeKeywords[p.peek().Type]:
		return p.variableDecl()
	case p.check(lexer.TokenIdent):
		return p.assignStatement()
	case p.match(lexer.TokenIf):
		return p.ifStatement()
	case p.match(lexer.TokenWhile):
		return p.whileStatement()
	case p.match(lexer.TokenReturn):
		return p.returnStatement()
	case p.check(lexer.TokenLBrace):
		return p.block()
	default:
		p.errorf("unexpected token %s", p.peek())
		p.advance()
		return nil
	}
}

func (p *Parser) variableDecl() *ast.Node {
	typeTok := p.advance()
	declared, _ := p.program.ByKeyword(typeTok.Lexeme)
	nameTok := p.expect(lexer.TokenIdent, "expected variable name")
	p.expect(lexer.TokenSemicolon, "expected ';' after variable declaration")
	return &ast.Node{
		Kind:  ast.VariableDecl,
		Token: nameTok,
		Name:  nameTok.Lexeme,
		Var:   &ast.Var{Name: nameTok.Lexeme, Type: declared},
	}
}

func (p *Parser) assignStatement() *ast.Node {
	nameTok := p.advance()
	left := &ast.Node{Kind: ast.Variable, Token: nameTok, Name: nameTok.Lexeme}
	p.expect(lexer.TokenEqual, "expected '=' in assignment")
	right := p.expression()
	p.expect(lexer.TokenSemicolon, "expected ';' after assignment")
	return &ast.Node{Kind: ast.Assign, Token: nameTok, Left: left, Right: right}
}

func (p *Parser) ifStatement() *ast.Node {
	tok := p.previous()
	cond := p.expression()
	thenBlock := p.block()
	node := &ast.Node{Kind: ast.If, Token: tok, Cond: cond, BlockThen: thenBlock}
	if p.match(lexer.TokenElse) {
		node.BlockElse = p.block()
	}
	return node
}

func (p *Parser) whileStatement() *ast.Node {
	tok := p.previous()
	cond := p.expression()
	body := p.block()
	return &ast.Node{Kind: ast.While, Token: tok, Cond: cond, BlockThen: body}
}

func (p *Parser) returnStatement() *ast.Node {
	tok := p.previous()
	expr := p.expression()
	p.expect(lexer.TokenSemicolon, "expected ';' after return")
	return &ast.Node{Kind: ast.Return, Token: tok, Expr: expr}
}

// expression parses a full binary expression via precedence climbing.
func (p *Parser) expression() *ast.Node {
	return p.binary(0)
}

func (p *Parser) binary(minPrec int) *ast.Node {
	left := p.primary()
	for {
		tok := p.peek()
		prec, ok := precedence[tok.Type]
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.advance()
		right := p.binary(prec + 1)
		switch opTok.Type {
		case lexer.TokenGT:
			// The AST has no greater-than kinds: a > b parses as b < a.
			left = &ast.Node{Kind: ast.Less, Token: opTok, Left: right, Right: left}
		case lexer.TokenGE:
			left = &ast.Node{Kind: ast.LEqual, Token: opTok, Left: right, Right: left}
		default:
			left = &ast.Node{Kind: binaryKind(opTok.Type), Token: opTok, Left: left, Right: right}
		}
	}
}

func binaryKind(t lexer.TokenType) ast.Kind {
	switch t {
	case lexer.TokenPlus:
		return ast.Add
	case lexer.TokenMinus:
		return ast.Sub
	case lexer.TokenStar:
		return ast.Mul
	case lexer.TokenSlash:
		return ast.Div
	case lexer.TokenLT:
		return ast.Less
	case lexer.TokenLE:
		return ast.LEqual
	case lexer.TokenDoubleEq:
		return ast.Equal
	case lexer.TokenNotEqual:
		return ast.NEqual
	default:
		panic("parser: not a binary operator token")
	}
}

func (p *Parser) primary() *ast.Node {
	switch {
	case p.check(lexer.TokenNumber):
		tok := p.advance()
		var value uint64
		fmt.Sscanf(tok.Lexeme, "%d", &value)
		return &ast.Node{Kind: ast.IntLiteral, Token: tok, IntValue: value}
	case p.check(lexer.TokenIdent):
		tok := p.advance()
		return &ast.Node{Kind: ast.Variable, Token: tok, Name: tok.Lexeme}
	case p.match(lexer.TokenLParen):
		inner := p.expression()
		p.expect(lexer.TokenRParen, "expected ')'")
		return inner
	default:
		p.errorf("expected expression, got %s", p.peek())
		p.advance()
		return &ast.Node{Kind: ast.IntLiteral, Token: p.previous()}
	}
}

// --- token-stream primitives ---

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(t lexer.TokenType, message string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	p.errorf("%s (got %s)", message, p.peek())
	return p.peek()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.Errors = append(p.Errors, fmt.Errorf("line %d: %s", p.peek().Line, fmt.Sprintf(format, args...)))
}
