// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"github.com/XnLogicaL/via-lang/pkg/ast"
	"github.com/XnLogicaL/via-lang/pkg/source"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/token"
)

// parseExpr parses a full expression at minimum binding power minPrec,
// climbing precedence for each binary operator encountered (spec.md §4.2).
// `**` is right-associative (recurses at the same precedence); every other
// operator is left-associative (recurses at precedence+1).
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	lhs := p.parseExprAffix()

	for {
		prec := binPrec(p.peek(0).Kind)
		if prec < minPrec {
			return lhs
		}

		op := p.advance()

		nextMin := prec + 1
		if op.Kind == token.STARSTAR {
			nextMin = prec
		}

		rhs := p.parseExpr(nextMin)
		lhs = &ast.ExprBinary{
			Base: ast.NewBase(lhs.Loc().Join(rhs.Loc())),
			Op:   op.Kind,
			Lhs:  lhs,
			Rhs:  rhs,
		}
	}
}

// parseExprAffix parses an optional unary prefix followed by a left-fold
// of postfix forms (call, subscript, member access, cast, ternary).
func (p *Parser) parseExprAffix() ast.Expr {
	var expr ast.Expr

	switch p.peek(0).Kind {
	case token.KwNot, token.MINUS, token.TILDE, token.AMP:
		expr = p.parseExprUnary()
	default:
		expr = p.parseExprPrimary()
	}

	for {
		switch p.peek(0).Kind {
		case token.KwAs:
			expr = p.parseExprCast(expr)
		case token.KwIf:
			expr = p.parseExprTernary(expr)
		case token.LPAREN:
			expr = p.parseExprCall(expr)
		case token.LBRACKET:
			expr = p.parseExprSubscript(expr)
		case token.DOT:
			expr = p.parseExprAccess(expr, ast.Dynamic)
		case token.COLONCOLON:
			expr = p.parseExprAccess(expr, ast.Static)
		default:
			return expr
		}
	}
}

func (p *Parser) parseExprUnary() ast.Expr {
	op := p.advance()
	operand := p.parseExprAffix()

	return &ast.ExprUnary{
		Base: ast.NewBase(source.NewLoc(op.Loc.Begin, operand.Loc().End)),
		Op:   op.Kind,
		Expr: operand,
	}
}

func (p *Parser) parseExprAccess(root ast.Expr, kind ast.AccessKind) ast.Expr {
	p.advance() // consume '.' or '::'

	name, loc := p.identSymbol("parsing member access")

	return &ast.ExprAccess{
		Base:  ast.NewBase(source.NewLoc(root.Loc().Begin, loc.End)),
		Root:  root,
		Index: name,
		Kind:  kind,
	}
}

func (p *Parser) parseExprCall(callee ast.Expr) ast.Expr {
	p.advance() // consume '('

	var args []ast.Expr

	if !p.match(token.RPAREN, 0) {
		for {
			args = append(args, p.parseExpr(0))

			if !p.optional(token.COMMA) {
				break
			}
		}
	}

	end := p.expect(token.RPAREN, "parsing function call")

	return &ast.ExprCall{
		Base:   ast.NewBase(source.NewLoc(callee.Loc().Begin, end.Loc.End)),
		Callee: callee,
		Args:   args,
	}
}

func (p *Parser) parseExprSubscript(lhs ast.Expr) ast.Expr {
	p.advance() // consume '['

	rhs := p.parseExpr(0)
	end := p.expect(token.RBRACKET, "parsing subscript expression")

	return &ast.ExprSubscript{
		Base: ast.NewBase(source.NewLoc(lhs.Loc().Begin, end.Loc.End)),
		Lhs:  lhs,
		Rhs:  rhs,
	}
}

func (p *Parser) parseExprCast(expr ast.Expr) ast.Expr {
	p.advance() // consume 'as'

	ty := p.parseType()

	return &ast.ExprCast{
		Base: ast.NewBase(source.NewLoc(expr.Loc().Begin, ty.Loc().End)),
		Expr: expr,
		Type: ty,
	}
}

// parseExprTernary parses `lhs if cond else rhs`; note the grounding
// source's field names (lhs is the true-branch value, not a binary
// operand) which this mirrors directly.
func (p *Parser) parseExprTernary(lhs ast.Expr) ast.Expr {
	p.advance() // consume 'if'

	cond := p.parseExpr(0)
	p.expect(token.KwElse, "parsing ternary expression")
	rhs := p.parseExpr(0)

	return &ast.ExprTernary{
		Base: ast.NewBase(source.NewLoc(lhs.Loc().Begin, rhs.Loc().End)),
		Cond: cond,
		Lhs:  lhs,
		Rhs:  rhs,
	}
}

func (p *Parser) parseExprPrimary() ast.Expr {
	first := p.peek(0)

	switch first.Kind {
	case token.INT, token.FLOAT, token.STRING, token.KwNil, token.KwTrue, token.KwFalse:
		return p.parseExprLiteral()
	case token.IDENT:
		return p.parseExprSymbol()
	case token.LPAREN:
		return p.parseExprGroupOrTuple()
	case token.LBRACKET:
		return p.parseExprArray()
	case token.KwFn:
		return p.parseExprLambda()
	default:
		p.fail(first.Loc, "unexpected token while parsing primary expression",
			hint("expected a literal, identifier, '(', '[' or 'fn'"))
		panic("unreachable")
	}
}

func (p *Parser) parseExprLiteral() ast.Expr {
	tok := p.advance()

	return &ast.ExprLiteral{
		Base: ast.NewBase(tok.Loc),
		Tok:  tok,
		Text: tok.Lexeme(p.buf),
	}
}

func (p *Parser) parseExprSymbol() ast.Expr {
	tok := p.advance()

	return &ast.ExprSymbol{
		Base: ast.NewBase(tok.Loc),
		Name: symbol.Intern(tok.Lexeme(p.buf)),
	}
}

// parseExprGroupOrTuple parses a parenthesized expression, disambiguating
// a grouping `(e)` from a tuple `(e1, e2, ...)` on the presence of a comma.
func (p *Parser) parseExprGroupOrTuple() ast.Expr {
	start := p.advance() // consume '('
	first := p.parseExpr(0)

	if p.match(token.COMMA, 0) {
		vals := []ast.Expr{first}

		for p.optional(token.COMMA) {
			vals = append(vals, p.parseExpr(0))
		}

		end := p.expect(token.RPAREN, "parsing tuple expression")

		return &ast.ExprTuple{
			Base:   ast.NewBase(source.NewLoc(start.Loc.Begin, end.Loc.End)),
			Values: vals,
		}
	}

	end := p.expect(token.RPAREN, "parsing grouping expression")

	return &ast.ExprGroup{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, end.Loc.End)),
		Expr: first,
	}
}

func (p *Parser) parseExprArray() ast.Expr {
	start := p.peek(0)
	p.advance() // consume '['

	var vals []ast.Expr

	if !p.match(token.RBRACKET, 0) {
		for {
			vals = append(vals, p.parseExpr(0))

			if p.match(token.RBRACKET, 0) {
				p.optional(token.COMMA) // trailing comma
				break
			}

			p.expect(token.COMMA, "parsing array initializer")
		}
	}

	end := p.expect(token.RBRACKET, "terminating array initializer")

	return &ast.ExprArray{
		Base:   ast.NewBase(source.NewLoc(start.Loc.Begin, end.Loc.End)),
		Values: vals,
	}
}

func (p *Parser) parseExprLambda() ast.Expr {
	start := p.peek(0)
	p.advance() // consume 'fn'

	p.expect(token.LPAREN, "parsing lambda parameter list")

	var params []*ast.Parameter

	if !p.match(token.RPAREN, 0) {
		for {
			params = append(params, p.parseParameter())

			if p.match(token.RPAREN, 0) {
				break
			}

			p.expect(token.COMMA, "parsing lambda parameter list")
		}
	}

	p.expect(token.RPAREN, "terminating lambda parameter list")

	var ret ast.TypeExpr
	if p.optional(token.ARROW) {
		ret = p.parseType()
	}

	body := p.parseScope()

	return &ast.ExprLambda{
		Base:   ast.NewBase(source.NewLoc(start.Loc.Begin, body.Loc().End)),
		Return: ret,
		Params: params,
		Body:   body,
	}
}

// parseLvalue parses an expression and requires it to be assignable.
func (p *Parser) parseLvalue() ast.Expr {
	expr := p.parseExpr(0)
	if !ast.IsLvalue(expr) {
		p.fail(expr.Loc(), "unexpected expression while parsing lvalue", nil)
	}

	return expr
}

// parseParameter parses one `name[: Type]` signature entry.
func (p *Parser) parseParameter() *ast.Parameter {
	name, loc := p.identSymbol("parsing parameter")

	par := &ast.Parameter{Base: ast.NewBase(loc), Name: name}

	if p.optional(token.COLON) {
		par.Type = p.parseType()
		par.Base = ast.NewBase(source.NewLoc(loc.Begin, par.Type.Loc().End))
	}

	return par
}
