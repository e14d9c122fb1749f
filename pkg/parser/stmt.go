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

// parseScope parses either a single `: stmt` shorthand body or a braced
// `{ stmts... }` block (spec.md §4.2's Scope production).
func (p *Parser) parseScope() *ast.Scope {
	first := p.peek(0)

	switch first.Kind {
	case token.COLON:
		p.advance()
		stmt := p.parseStmt()

		return &ast.Scope{
			Base:  ast.NewBase(source.NewLoc(first.Loc.Begin, stmt.Loc().End)),
			Stmts: []ast.Stmt{stmt},
		}
	case token.LBRACE:
		p.advance()

		var stmts []ast.Stmt
		for !p.match(token.RBRACE, 0) {
			stmts = append(stmts, p.parseStmt())
		}

		end := p.advance() // consume '}'

		return &ast.Scope{
			Base:  ast.NewBase(source.NewLoc(first.Loc.Begin, end.Loc.End)),
			Stmts: stmts,
		}
	default:
		p.fail(first.Loc, "unexpected token while parsing scope", hint("expected ':' or '{'"))
		panic("unreachable")
	}
}

// parseStmt dispatches on the next token's kind to the right statement
// production (spec.md §4.2: "Statements are parsed by keyword dispatch").
func (p *Parser) parseStmt() ast.Stmt {
	switch p.peek(0).Kind {
	case token.KwIf:
		return p.parseStmtIf()
	case token.KwWhile:
		return p.parseStmtWhile()
	case token.KwVar, token.KwConst:
		return p.parseStmtVarDecl(true)
	case token.KwDo:
		return p.parseStmtScope()
	case token.KwFor:
		if p.match(token.KwVar, 1) {
			return p.parseStmtFor()
		}

		return p.parseStmtForEach()
	case token.KwReturn:
		return p.parseStmtReturn()
	case token.KwEnum:
		return p.parseStmtEnum()
	case token.KwImport:
		return p.parseStmtImport()
	case token.KwFn:
		return p.parseStmtFuncDecl()
	case token.KwStruct:
		return p.parseStmtStructDecl()
	case token.KwType:
		return p.parseStmtTypeDecl()
	case token.SEMI:
		tok := p.advance()
		return &ast.StmtEmpty{Base: ast.NewBase(tok.Loc)}
	}

	return p.parseStmtExprOrAssign()
}

// parseStmtExprOrAssign parses a bare expression statement or an
// assignment. Only a call expression is accepted standalone (spec.md
// §4.2); any other orphaned expression is a syntax error.
func (p *Parser) parseStmtExprOrAssign() ast.Stmt {
	first := p.peek(0)
	if !isExprStart(first.Kind) {
		p.fail(first.Loc, "unexpected token while parsing statement", nil)
	}

	expr := p.parseExpr(0)

	if isAssignOp(p.peek(0).Kind) {
		return p.parseStmtAssign(expr)
	}

	// Only a call expression may stand alone as a statement; any other
	// bare expression (a symbol, a comparison, ...) is almost certainly a
	// mistake rather than an intentional no-op.
	if _, isCall := expr.(*ast.ExprCall); !isCall {
		p.fail(expr.Loc(), "unexpected token while parsing statement", nil)
	}

	p.optional(token.SEMI)

	return &ast.StmtExpr{Base: ast.NewBase(expr.Loc()), Expr: expr}
}

func (p *Parser) parseStmtAssign(lval ast.Expr) ast.Stmt {
	op := p.advance()
	rval := p.parseExpr(0)
	p.optional(token.SEMI)

	return &ast.StmtAssign{
		Base: ast.NewBase(source.NewLoc(lval.Loc().Begin, rval.Loc().End)),
		Op:   op.Kind,
		Lval: lval,
		Rval: rval,
	}
}

// parseStmtVarDecl parses `var|const lvalue [: Type] = rval`. semicolon
// controls whether a trailing ';' is consumed, since the counting-for
// header reuses this production without one.
func (p *Parser) parseStmtVarDecl(semicolon bool) *ast.StmtVarDecl {
	decl := p.advance() // 'var' or 'const'
	lval := p.parseLvalue()

	name, ok := lval.(*ast.ExprSymbol)
	if !ok {
		p.fail(lval.Loc(), "variable declaration target must be a bare name", nil)
	}

	var ty ast.TypeExpr
	if p.optional(token.COLON) {
		ty = p.parseType()
	}

	p.expect(token.ASSIGN, "parsing variable declaration")

	rval := p.parseExpr(0)

	v := &ast.StmtVarDecl{
		Base:  ast.NewBase(source.NewLoc(decl.Loc.Begin, rval.Loc().End)),
		Name:  name.Name,
		Type:  ty,
		Rval:  rval,
		Const: decl.Kind == token.KwConst,
	}

	if semicolon {
		p.optional(token.SEMI)
	}

	return v
}

// parseStmtFor parses the counting loop `for var x = e1, e2[, e3] { ... }`.
func (p *Parser) parseStmtFor() ast.Stmt {
	start := p.peek(0)
	p.advance() // consume 'for'

	init := p.parseStmtVarDecl(false)
	if init.Const {
		p.fail(init.Loc(), "'const' variable not allowed in counting for loop", nil)
	}

	p.expect(token.COMMA, "parsing counting for loop")
	target := p.parseExpr(0)

	var step ast.Expr
	if p.optional(token.COMMA) {
		step = p.parseExpr(0)
	}

	body := p.parseScope()

	return &ast.StmtFor{
		Base:   ast.NewBase(source.NewLoc(start.Loc.Begin, body.Loc().End)),
		Init:   init,
		Target: target,
		Step:   step,
		Body:   body,
	}
}

// parseStmtForEach parses the iterator loop `for x in e { ... }`.
func (p *Parser) parseStmtForEach() ast.Stmt {
	start := p.peek(0)
	p.advance() // consume 'for'

	name, _ := p.identSymbol("parsing for-each loop")
	p.expect(token.KwIn, "parsing for-each loop")

	expr := p.parseExpr(0)
	body := p.parseScope()

	return &ast.StmtForEach{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, body.Loc().End)),
		Name: name,
		Expr: expr,
		Body: body,
	}
}

func (p *Parser) parseStmtIf() ast.Stmt {
	start := p.advance() // consume 'if'

	cond := p.parseExpr(0)
	body := p.parseScope()

	branches := []ast.IfBranch{{Cond: cond, Body: body}}
	last := body

	for p.match(token.KwElse, 0) {
		p.advance()

		var br ast.IfBranch

		if p.optional(token.KwIf) {
			br.Cond = p.parseExpr(0)
		}

		br.Body = p.parseScope()
		branches = append(branches, br)
		last = br.Body
	}

	return &ast.StmtIf{
		Base:     ast.NewBase(source.NewLoc(start.Loc.Begin, last.Loc().End)),
		Branches: branches,
	}
}

func (p *Parser) parseStmtWhile() ast.Stmt {
	start := p.advance() // consume 'while'

	cond := p.parseExpr(0)
	body := p.parseScope()

	return &ast.StmtWhile{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, body.Loc().End)),
		Cond: cond,
		Body: body,
	}
}

func (p *Parser) parseStmtScope() ast.Stmt {
	start := p.advance() // consume 'do'
	body := p.parseScope()

	return &ast.StmtScope{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, body.Loc().End)),
		Body: body,
	}
}

func (p *Parser) parseStmtReturn() ast.Stmt {
	start := p.advance() // consume 'return'

	var (
		expr ast.Expr
		end  = start.Loc
	)

	if isExprStart(p.peek(0).Kind) {
		expr = p.parseExpr(0)
		end = expr.Loc()
	}

	p.optional(token.SEMI)

	return &ast.StmtReturn{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, end.End)),
		Expr: expr,
	}
}

// parseStmtEnum parses `enum Name [of Type] { Member = expr, ... }`. The
// "of Type" clause follows the grounding source's KW_OF exactly; spec.md
// itself does not spell out enum surface syntax.
func (p *Parser) parseStmtEnum() ast.Stmt {
	start := p.advance() // consume 'enum'
	name, _ := p.identSymbol("parsing enum name")

	var ty ast.TypeExpr
	if p.optional(token.KwOf) {
		ty = p.parseType()
	}

	p.expect(token.LBRACE, "parsing enumerator list")

	var pairs []ast.EnumPair

	for !p.match(token.RBRACE, 0) {
		member, _ := p.identSymbol("parsing enumerator name")
		p.expect(token.ASSIGN, "parsing enumerator pair")
		value := p.parseExpr(0)
		pairs = append(pairs, ast.EnumPair{Name: member, Expr: value})
		p.expect(token.COMMA, "parsing enumerator pair")
	}

	end := p.advance() // consume '}'

	return &ast.StmtEnum{
		Base:  ast.NewBase(source.NewLoc(start.Loc.Begin, end.Loc.End)),
		Name:  name,
		Type:  ty,
		Pairs: pairs,
	}
}

// parseStmtImport parses `import a::b::c`.
func (p *Parser) parseStmtImport() ast.Stmt {
	start := p.advance() // consume 'import'

	var (
		segs []string
		end  source.Loc
	)

	for {
		tok := p.expect(token.IDENT, "parsing import path")
		segs = append(segs, tok.Lexeme(p.buf))
		end = tok.Loc

		if !p.optional(token.COLONCOLON) {
			break
		}
	}

	p.optional(token.SEMI)

	return &ast.StmtImport{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, end.End)),
		Path: symbol.NewQualName(segs...),
	}
}

// parseStmtFuncDecl parses `fn name(params) [-> Type] { ... }`.
func (p *Parser) parseStmtFuncDecl() ast.Stmt {
	start := p.advance() // consume 'fn'

	name, _ := p.identSymbol("parsing function name")
	p.expect(token.LPAREN, "parsing function parameter list")

	var params []*ast.Parameter

	if !p.match(token.RPAREN, 0) {
		for {
			params = append(params, p.parseParameter())

			if p.match(token.RPAREN, 0) {
				p.optional(token.COMMA)
				break
			}

			p.expect(token.COMMA, "terminating function parameter")
		}
	}

	p.expect(token.RPAREN, "terminating function parameter list")

	var ret ast.TypeExpr
	if p.optional(token.ARROW) {
		ret = p.parseType()
	}

	body := p.parseScope()

	return &ast.StmtFunctionDecl{
		Base:   ast.NewBase(source.NewLoc(start.Loc.Begin, body.Loc().End)),
		Name:   name,
		Return: ret,
		Params: params,
		Body:   body,
	}
}

func (p *Parser) parseStmtStructDecl() ast.Stmt {
	start := p.advance() // consume 'struct'
	name, _ := p.identSymbol("parsing struct name")
	body := p.parseScope()

	return &ast.StmtStructDecl{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, body.Loc().End)),
		Name: name,
		Body: body,
	}
}

func (p *Parser) parseStmtTypeDecl() ast.Stmt {
	start := p.advance() // consume 'type'
	name, _ := p.identSymbol("parsing type declaration")
	p.expect(token.ASSIGN, "parsing type declaration")

	ty := p.parseType()
	p.optional(token.SEMI)

	return &ast.StmtTypeDecl{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, ty.Loc().End)),
		Name: name,
		Type: ty,
	}
}
