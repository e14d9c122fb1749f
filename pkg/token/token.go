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

// Package token defines the closed, table-driven token kind set recognised
// by the via lexer (spec.md §4.1).
package token

import "github.com/XnLogicaL/via-lang/pkg/source"

// Kind enumerates every token tag the lexer can produce.
type Kind uint

// Token kinds. Order has no semantic meaning beyond grouping for
// readability; lexer rule order (see rules in lexer.go) is what matters for
// longest-match disambiguation.
const (
	EOF Kind = iota
	WHITESPACE
	COMMENT

	IDENT
	INT
	FLOAT
	STRING

	// Keywords.
	KwFn
	KwVar
	KwIf
	KwElse
	KwFor
	KwWhile
	KwDo
	KwReturn
	KwEnum
	KwImport
	KwStruct
	KwType
	KwIn
	KwAs
	KwAnd
	KwOr
	KwNot
	KwIs
	KwTrue
	KwFalse
	KwNil
	KwConst
	KwStrong
	KwOf

	// Punctuation.
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	COLON
	COLONCOLON
	SEMI
	DOT
	AMP
	ARROW

	// Operators (binary/unary families).
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	STARSTAR
	TILDE
	CARET
	PIPE
	SHL
	SHR
	EQEQ
	NEQ
	LT
	LE
	GT
	GE

	// Assignment, plain and compound.
	ASSIGN
	PLUSEQ
	MINUSEQ
	STAREQ
	SLASHEQ
	PERCENTEQ
	STARSTAREQ
	AMPEQ
	PIPEEQ
	CARETEQ
	SHLEQ
	SHREQ
)

var names = map[Kind]string{
	EOF: "eof", WHITESPACE: "whitespace", COMMENT: "comment",
	IDENT: "identifier", INT: "int", FLOAT: "float", STRING: "string",
	KwFn: "fn", KwVar: "var", KwIf: "if", KwElse: "else", KwFor: "for",
	KwWhile: "while", KwDo: "do", KwReturn: "return", KwEnum: "enum",
	KwImport: "import", KwStruct: "struct", KwType: "type", KwIn: "in",
	KwAs: "as", KwAnd: "and", KwOr: "or", KwNot: "not", KwIs: "is",
	KwTrue: "true", KwFalse: "false", KwNil: "nil", KwConst: "const",
	KwStrong: "strong", KwOf: "of",
	LPAREN:   "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]", COMMA: ",", COLON: ":",
	COLONCOLON: "::", SEMI: ";", DOT: ".", AMP: "&", ARROW: "->",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	STARSTAR: "**", TILDE: "~", CARET: "^", PIPE: "|", SHL: "<<", SHR: ">>",
	EQEQ: "==", NEQ: "!=", LT: "<", LE: "<=", GT: ">", GE: ">=",
	ASSIGN: "=", PLUSEQ: "+=", MINUSEQ: "-=", STAREQ: "*=", SLASHEQ: "/=",
	PERCENTEQ: "%=", STARSTAREQ: "**=", AMPEQ: "&=", PIPEEQ: "|=",
	CARETEQ: "^=", SHLEQ: "<<=", SHREQ: ">>=",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}

	return "unknown"
}

// Keywords maps every reserved identifier to its keyword Kind. The set is
// closed: any identifier not present here lexes as IDENT.
var Keywords = map[string]Kind{
	"fn": KwFn, "var": KwVar, "if": KwIf, "else": KwElse, "for": KwFor,
	"while": KwWhile, "do": KwDo, "return": KwReturn, "enum": KwEnum,
	"import": KwImport, "struct": KwStruct, "type": KwType, "in": KwIn,
	"as": KwAs, "and": KwAnd, "or": KwOr, "not": KwNot, "is": KwIs,
	"true": KwTrue, "false": KwFalse, "nil": KwNil, "const": KwConst,
	"strong": KwStrong, "of": KwOf,
}

// Token is an immutable lexical token: a kind, its location in the source
// buffer, and (lazily) the lexeme it spans.
type Token struct {
	Kind Kind
	Loc  source.Loc
}

// Lexeme returns the raw source text spanned by this token.
func (t Token) Lexeme(buf *source.Buffer) string { return buf.Text(t.Loc) }
