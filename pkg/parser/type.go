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
	"github.com/XnLogicaL/via-lang/pkg/diag"
	"github.com/XnLogicaL/via-lang/pkg/source"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/token"
)

func suggestion(text string) *diag.Footnote {
	return &diag.Footnote{Kind: diag.Suggestion, Text: text}
}

// parseType parses a (possibly qualified) type expression: zero or more
// `const`/`strong`/`&` qualifiers followed by a primary type (spec.md §4.3
// "Qualifiers"). Duplicate const/strong qualifiers are a WARNING; a
// doubled reference qualifier is a hard error, matching the grounding
// source.
func (p *Parser) parseType() ast.TypeExpr {
	start := p.peek(0)

	var quals ast.TypeQualifier

loop:
	for {
		tok := p.peek(0)

		switch tok.Kind {
		case token.KwConst:
			if quals&ast.QualConst != 0 {
				p.diags.EmitWarning(tok.Loc, "duplicate 'const' qualifier will be ignored", suggestion("remove 'const'"))
			}

			quals |= ast.QualConst
			p.advance()
		case token.KwStrong:
			if quals&ast.QualStrong != 0 {
				p.diags.EmitWarning(tok.Loc, "duplicate 'strong' qualifier will be ignored", suggestion("remove 'strong'"))
			}

			quals |= ast.QualStrong
			p.advance()
		case token.AMP:
			if quals&ast.QualReference != 0 {
				p.fail(tok.Loc, "nested reference qualifier not allowed", hint("remove '&'"))
			}

			quals |= ast.QualReference
			p.advance()
		default:
			break loop
		}
	}

	primary := p.parseTypePrimary()
	setQuals(primary, quals)
	setSpan(primary, source.NewLoc(start.Loc.Begin, primary.Loc().End))

	return primary
}

func (p *Parser) parseTypePrimary() ast.TypeExpr {
	tok := p.peek(0)

	switch tok.Kind {
	case token.IDENT:
		return p.parseTypeBuiltin()
	case token.LBRACKET:
		return p.parseTypeArray()
	case token.LBRACE:
		return p.parseTypeMap()
	case token.KwFn:
		return p.parseTypeFunc()
	default:
		p.fail(tok.Loc, "unexpected token while parsing type",
			hint("expected a type name, '[', '{' or 'fn'"))
		panic("unreachable")
	}
}

// parseTypeBuiltin parses a bare type name. via has no reserved type
// keywords; nil/bool/int/float/string are ordinary identifiers here and
// are distinguished from user-type references later, during IR building,
// once declarations are in scope.
func (p *Parser) parseTypeBuiltin() *ast.TypeBuiltin {
	tok := p.advance()

	return &ast.TypeBuiltin{
		Base: ast.NewBase(tok.Loc),
		Name: symbol.Intern(tok.Lexeme(p.buf)),
	}
}

func (p *Parser) parseTypeArray() *ast.TypeArray {
	start := p.advance() // consume '['
	elem := p.parseType()
	end := p.expect(token.RBRACKET, "terminating array type")

	return &ast.TypeArray{
		Base: ast.NewBase(source.NewLoc(start.Loc.Begin, end.Loc.End)),
		Elem: elem,
	}
}

func (p *Parser) parseTypeMap() *ast.TypeMap {
	start := p.advance() // consume '{'
	key := p.parseType()
	p.expect(token.COLON, "parsing map type")
	value := p.parseType()
	end := p.expect(token.RBRACE, "terminating map type")

	return &ast.TypeMap{
		Base:  ast.NewBase(source.NewLoc(start.Loc.Begin, end.Loc.End)),
		Key:   key,
		Value: value,
	}
}

func (p *Parser) parseTypeFunc() *ast.TypeFunc {
	start := p.advance() // consume 'fn'
	p.expect(token.LPAREN, "parsing function type parameter list")

	var params []*ast.Parameter

	for !p.match(token.RPAREN, 0) {
		params = append(params, p.parseParameter())
		p.expect(token.COMMA, "terminating function type parameter")
	}

	p.expect(token.RPAREN, "terminating function type parameter list")
	p.expect(token.ARROW, "parsing function type return type")

	ret := p.parseType()

	return &ast.TypeFunc{
		Base:   ast.NewBase(source.NewLoc(start.Loc.Begin, ret.Loc().End)),
		Return: ret,
		Params: params,
	}
}

// setQuals and setSpan patch the qualifier bits and final span onto a
// freshly-built primary type node. A type switch rather than an interface
// method keeps TypeQualifier assignment out of every constructor above.
func setQuals(t ast.TypeExpr, quals ast.TypeQualifier) {
	switch t := t.(type) {
	case *ast.TypeBuiltin:
		t.Quals = quals
	case *ast.TypeArray:
		t.Quals = quals
	case *ast.TypeMap:
		t.Quals = quals
	case *ast.TypeFunc:
		t.Quals = quals
	case *ast.TypeOptional:
		t.Quals = quals
	}
}

func setSpan(t ast.TypeExpr, loc source.Loc) {
	switch t := t.(type) {
	case *ast.TypeBuiltin:
		t.Base = ast.NewBase(loc)
	case *ast.TypeArray:
		t.Base = ast.NewBase(loc)
	case *ast.TypeMap:
		t.Base = ast.NewBase(loc)
	case *ast.TypeFunc:
		t.Base = ast.NewBase(loc)
	case *ast.TypeOptional:
		t.Base = ast.NewBase(loc)
	}
}
