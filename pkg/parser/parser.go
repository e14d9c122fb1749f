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

// Package parser implements the via recursive-descent, precedence-climbing
// parser (spec.md §4.2): tokens in, an ast.Tree out. The parser is
// single-pass and does no name or type resolution.
package parser

import (
	"fmt"

	"github.com/XnLogicaL/via-lang/pkg/ast"
	"github.com/XnLogicaL/via-lang/pkg/diag"
	"github.com/XnLogicaL/via-lang/pkg/source"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/token"
)

// parserError unwinds to the nearest recover point (one per statement),
// carrying the diagnostic that should be reported for it.
type parserError struct {
	loc      source.Loc
	msg      string
	footnote *diag.Footnote
}

func (e parserError) Error() string { return e.msg }

// Parser turns a token stream into an ast.Tree. Zero value is not usable;
// construct with New.
type Parser struct {
	buf   *source.Buffer
	toks  []token.Token
	idx   int
	diags *diag.Context
}

// New constructs a parser over toks, a token stream already lexed from buf.
// Diagnostics (syntax errors, qualifier warnings) are reported into diags.
func New(buf *source.Buffer, toks []token.Token, diags *diag.Context) *Parser {
	return &Parser{buf: buf, toks: toks, diags: diags}
}

// Parse consumes the whole token stream, returning every top-level
// statement it could recover. A statement that fails to parse is reported
// as an ERROR diagnostic and skipped; parsing resumes at the next
// statement boundary (spec.md §4.2: "recovered at the next statement
// start").
func Parse(buf *source.Buffer, toks []token.Token, diags *diag.Context) ast.Tree {
	p := New(buf, toks, diags)

	var tree ast.Tree

	for !p.match(token.EOF, 0) {
		stmt, ok := p.parseStmtRecovering()
		if ok {
			tree = append(tree, stmt)
		}
	}

	return tree
}

// parseStmtRecovering parses one statement, converting a parserError
// panic into a reported diagnostic and a resynchronized cursor instead of
// propagating further.
func (p *Parser) parseStmtRecovering() (stmt ast.Stmt, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			perr, isParserErr := r.(parserError)
			if !isParserErr {
				panic(r)
			}

			p.diags.EmitError(perr.loc, perr.msg, perr.footnote)
			p.synchronize()
			ok = false
		}
	}()

	return p.parseStmt(), true
}

// synchronize advances the cursor past the token that caused the last
// error, then skips forward until a token that plausibly starts a new
// statement, so the next parseStmt call has a fresh chance.
func (p *Parser) synchronize() {
	if p.idx < len(p.toks) {
		p.idx++
	}

	for !p.match(token.EOF, 0) {
		if p.match(token.SEMI, 0) {
			p.advance()
			return
		}

		switch p.peek(0).Kind {
		case token.KwIf, token.KwWhile, token.KwVar, token.KwConst, token.KwDo,
			token.KwFor, token.KwReturn, token.KwEnum, token.KwImport,
			token.KwFn, token.KwStruct, token.KwType:
			return
		}

		p.advance()
	}
}

// ============================================================================
// Cursor primitives
// ============================================================================

// eofToken is returned by peek/lookahead once the cursor runs past the end
// of the stream, so callers never index out of range.
func (p *Parser) eofToken() token.Token {
	if n := len(p.toks); n > 0 {
		return token.Token{Kind: token.EOF, Loc: source.NewLoc(p.toks[n-1].Loc.End, p.toks[n-1].Loc.End)}
	}

	return token.Token{Kind: token.EOF}
}

func (p *Parser) peek(ahead int) token.Token {
	i := p.idx + ahead
	if i < 0 || i >= len(p.toks) {
		return p.eofToken()
	}

	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.peek(0)
	if p.idx < len(p.toks) {
		p.idx++
	}

	return t
}

func (p *Parser) match(kind token.Kind, ahead int) bool {
	return p.peek(ahead).Kind == kind
}

func (p *Parser) optional(kind token.Kind) bool {
	if p.match(kind, 0) {
		p.advance()
		return true
	}

	return false
}

// expect consumes and returns the next token if it has kind, otherwise
// panics with a parserError describing what was being parsed.
func (p *Parser) expect(kind token.Kind, task string) token.Token {
	if !p.match(kind, 0) {
		unexp := p.peek(0)
		panic(parserError{
			loc: unexp.Loc,
			msg: fmt.Sprintf("unexpected token %q (%s) while %s", unexp.Lexeme(p.buf), unexp.Kind, task),
		})
	}

	return p.advance()
}

func (p *Parser) fail(loc source.Loc, msg string, footnote *diag.Footnote) {
	panic(parserError{loc: loc, msg: msg, footnote: footnote})
}

func hint(text string) *diag.Footnote {
	return &diag.Footnote{Kind: diag.Hint, Text: text}
}

// identSymbol expects an IDENT token and interns its lexeme.
func (p *Parser) identSymbol(task string) (symbol.Symbol, source.Loc) {
	tok := p.expect(token.IDENT, task)
	return symbol.Intern(tok.Lexeme(p.buf)), tok.Loc
}

// isExprStart reports whether kind can begin an expression, mirroring the
// grounding source's is_expr_start.
func isExprStart(kind token.Kind) bool {
	switch kind {
	case token.IDENT, token.INT, token.FLOAT, token.STRING,
		token.KwNil, token.KwTrue, token.KwFalse,
		token.KwNot, token.KwFn, token.LPAREN,
		token.MINUS, token.TILDE, token.AMP, token.LBRACKET:
		return true
	default:
		return false
	}
}

// binPrec returns the binary-operator precedence of kind, or -1 if kind is
// not a binary operator. Table per spec.md §4.2.
func binPrec(kind token.Kind) int {
	switch kind {
	case token.KwOr:
		return 0
	case token.KwAnd:
		return 1
	case token.EQEQ, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		return 2
	case token.AMP:
		return 3
	case token.CARET:
		return 4
	case token.PIPE:
		return 5
	case token.SHL, token.SHR:
		return 6
	case token.PLUS, token.MINUS:
		return 7
	case token.STAR, token.SLASH, token.PERCENT:
		return 8
	case token.STARSTAR:
		return 9
	default:
		return -1
	}
}

// isAssignOp reports whether kind is a plain or compound assignment
// operator.
func isAssignOp(kind token.Kind) bool {
	switch kind {
	case token.ASSIGN, token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ,
		token.STARSTAREQ, token.PERCENTEQ, token.PIPEEQ, token.AMPEQ,
		token.CARETEQ, token.SHLEQ, token.SHREQ:
		return true
	default:
		return false
	}
}
