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
package token

import (
	"github.com/XnLogicaL/via-lang/pkg/diag"
	"github.com/XnLogicaL/via-lang/pkg/lex"
	"github.com/XnLogicaL/via-lang/pkg/source"
)

var (
	digit   lex.Scanner[byte] = lex.Within[byte]('0', '9')
	hexUnit lex.Scanner[byte] = lex.Or(lex.Within[byte]('0', '9'), lex.Within[byte]('a', 'f'), lex.Within[byte]('A', 'F'))

	identStart lex.Scanner[byte] = lex.Or(lex.Unit[byte]('_'), lex.Within[byte]('a', 'z'), lex.Within[byte]('A', 'Z'))
	identRest  lex.Scanner[byte] = lex.Many(lex.Or(identStart, digit))
	identifier lex.Scanner[byte] = lex.And(identStart, identRest)

	whitespace lex.Scanner[byte] = lex.Many(lex.Or(lex.Unit[byte](' '), lex.Unit[byte]('\t'), lex.Unit[byte]('\r'), lex.Unit[byte]('\n')))

	lineComment lex.Scanner[byte] = lex.And(lex.Unit[byte]('/', '/'), lex.Until[byte]('\n'))

	hexLiteral = lex.And(lex.Unit[byte]('0', 'x'), lex.Many(hexUnit))
	binLiteral = lex.And(lex.Unit[byte]('0', 'b'), lex.Many(lex.Or(lex.Unit[byte]('0'), lex.Unit[byte]('1'))))
	decDigits  = lex.Many(digit)

	// exponent matches "e" or "E" followed by an optional sign and at
	// least one digit.
	exponent lex.Scanner[byte] = func(items []byte) uint {
		if len(items) == 0 || (items[0] != 'e' && items[0] != 'E') {
			return 0
		}

		i := uint(1)
		if i < uint(len(items)) && (items[i] == '+' || items[i] == '-') {
			i++
		}

		n := digit(items[i:])
		if n == 0 {
			return 0
		}

		return i + n
	}

	// floatLiteral matches "digits '.' digits exponent?" or "digits
	// exponent" (spec.md §4.1: "floating literals with optional
	// exponent").
	floatLiteral lex.Scanner[byte] = func(items []byte) uint {
		intPart := decDigits(items)
		if intPart == 0 {
			return 0
		}

		rest := items[intPart:]

		if len(rest) > 0 && rest[0] == '.' {
			frac := decDigits(rest[1:])
			if frac == 0 {
				return 0
			}

			n := intPart + 1 + frac
			if e := exponent(items[n:]); e > 0 {
				return n + e
			}

			return n
		}

		if e := exponent(rest); e > 0 {
			return intPart + e
		}

		return 0
	}

	// stringLiteral consumes a double-quoted string, honouring a single
	// backslash-escaped character. An unterminated literal stops at the
	// end of its line (or of input); the driving Lex function reports this
	// as an error.
	stringLiteral lex.Scanner[byte] = func(items []byte) uint {
		if len(items) == 0 || items[0] != '"' {
			return 0
		}

		i := 1
		for i < len(items) {
			switch items[i] {
			case '\\':
				if i+1 < len(items) {
					i += 2
					continue
				}

				return uint(i + 1)
			case '"':
				return uint(i + 1)
			case '\n':
				return uint(i)
			}

			i++
		}

		return uint(i)
	}
)

// rules lists every lexing rule in longest-match-first order: multi-byte
// operators must precede any single-byte prefix they share (spec.md §4.1:
// "punctuation and multi-character operators (longest match)").
var rules = []lex.Rule[byte]{
	lex.NewRule[byte](lineComment, uint(COMMENT)),
	lex.NewRule[byte](whitespace, uint(WHITESPACE)),
	lex.NewRule[byte](stringLiteral, uint(STRING)),
	lex.NewRule[byte](hexLiteral, uint(INT)),
	lex.NewRule[byte](binLiteral, uint(INT)),
	lex.NewRule[byte](floatLiteral, uint(FLOAT)),
	lex.NewRule[byte](decDigits, uint(INT)),
	lex.NewRule[byte](identifier, uint(IDENT)),
	lex.NewRule[byte](lex.Unit[byte]('(') , uint(LPAREN)),
	lex.NewRule[byte](lex.Unit[byte](')'), uint(RPAREN)),
	lex.NewRule[byte](lex.Unit[byte]('{'), uint(LBRACE)),
	lex.NewRule[byte](lex.Unit[byte]('}'), uint(RBRACE)),
	lex.NewRule[byte](lex.Unit[byte]('['), uint(LBRACKET)),
	lex.NewRule[byte](lex.Unit[byte](']'), uint(RBRACKET)),
	lex.NewRule[byte](lex.Unit[byte](','), uint(COMMA)),
	lex.NewRule[byte](lex.Unit[byte](':', ':'), uint(COLONCOLON)),
	lex.NewRule[byte](lex.Unit[byte](':'), uint(COLON)),
	lex.NewRule[byte](lex.Unit[byte](';'), uint(SEMI)),
	lex.NewRule[byte](lex.Unit[byte]('.'), uint(DOT)),
	lex.NewRule[byte](lex.Unit[byte]('*', '*', '='), uint(STARSTAREQ)),
	lex.NewRule[byte](lex.Unit[byte]('*', '*'), uint(STARSTAR)),
	lex.NewRule[byte](lex.Unit[byte]('*', '='), uint(STAREQ)),
	lex.NewRule[byte](lex.Unit[byte]('*'), uint(STAR)),
	lex.NewRule[byte](lex.Unit[byte]('+', '='), uint(PLUSEQ)),
	lex.NewRule[byte](lex.Unit[byte]('+'), uint(PLUS)),
	lex.NewRule[byte](lex.Unit[byte]('-', '='), uint(MINUSEQ)),
	lex.NewRule[byte](lex.Unit[byte]('-', '>'), uint(ARROW)),
	lex.NewRule[byte](lex.Unit[byte]('-'), uint(MINUS)),
	lex.NewRule[byte](lex.Unit[byte]('/', '='), uint(SLASHEQ)),
	lex.NewRule[byte](lex.Unit[byte]('/'), uint(SLASH)),
	lex.NewRule[byte](lex.Unit[byte]('%', '='), uint(PERCENTEQ)),
	lex.NewRule[byte](lex.Unit[byte]('%'), uint(PERCENT)),
	lex.NewRule[byte](lex.Unit[byte]('~'), uint(TILDE)),
	lex.NewRule[byte](lex.Unit[byte]('^', '='), uint(CARETEQ)),
	lex.NewRule[byte](lex.Unit[byte]('^'), uint(CARET)),
	lex.NewRule[byte](lex.Unit[byte]('&', '='), uint(AMPEQ)),
	lex.NewRule[byte](lex.Unit[byte]('&'), uint(AMP)),
	lex.NewRule[byte](lex.Unit[byte]('|', '='), uint(PIPEEQ)),
	lex.NewRule[byte](lex.Unit[byte]('|'), uint(PIPE)),
	lex.NewRule[byte](lex.Unit[byte]('<', '<', '='), uint(SHLEQ)),
	lex.NewRule[byte](lex.Unit[byte]('<', '<'), uint(SHL)),
	lex.NewRule[byte](lex.Unit[byte]('<', '='), uint(LE)),
	lex.NewRule[byte](lex.Unit[byte]('<'), uint(LT)),
	lex.NewRule[byte](lex.Unit[byte]('>', '>', '='), uint(SHREQ)),
	lex.NewRule[byte](lex.Unit[byte]('>', '>'), uint(SHR)),
	lex.NewRule[byte](lex.Unit[byte]('>', '='), uint(GE)),
	lex.NewRule[byte](lex.Unit[byte]('>'), uint(GT)),
	lex.NewRule[byte](lex.Unit[byte]('=', '='), uint(EQEQ)),
	lex.NewRule[byte](lex.Unit[byte]('!', '='), uint(NEQ)),
	lex.NewRule[byte](lex.Unit[byte]('='), uint(ASSIGN)),
	lex.NewRule[byte](lex.Eof[byte](), uint(EOF)),
}

// Lex tokenises a source buffer, reporting lex errors (malformed
// number, unterminated string, unknown byte) into diags and attempting to
// resume at the next whitespace boundary after each (spec.md §4.1).
func Lex(buf *source.Buffer, diags *diag.Context) []Token {
	var (
		contents = buf.Contents()
		lx       = lex.NewLexer[byte](contents, rules...)
		tokens   []Token
	)

	for {
		raw := lx.Collect()

		for _, t := range raw {
			tokens = append(tokens, classify(Kind(t.Kind), t.Loc, buf, diags))
		}

		if lx.Remaining() == 0 {
			break
		}

		// Stuck on an unrecognised byte: report it and resume at the
		// next whitespace boundary, as spec.md §4.1 requires.
		stuck := int(lx.Index())
		next := stuck

		for next < len(contents) && contents[next] != ' ' && contents[next] != '\t' &&
			contents[next] != '\n' && contents[next] != '\r' {
			next++
		}

		if next == stuck {
			next++
		}

		diags.EmitError(source.NewLoc(stuck, next), "unknown byte encountered", nil)
		lx.Seek(next)
	}

	return removeTrivia(tokens)
}

// classify reclassifies IDENT tokens that are reserved keywords and
// reports malformed-literal / unterminated-string diagnostics.
func classify(kind Kind, loc source.Loc, buf *source.Buffer, diags *diag.Context) Token {
	text := buf.Text(loc)

	switch kind {
	case IDENT:
		if kw, ok := Keywords[text]; ok {
			kind = kw
		}
	case STRING:
		if len(text) < 2 || text[len(text)-1] != '"' {
			diags.EmitError(loc, "unterminated string literal", nil)
		}
	case INT:
		if len(text) == 2 && (text == "0x" || text == "0b") {
			diags.EmitError(loc, "malformed number literal", nil)
		}
	}

	return Token{kind, loc}
}

func removeTrivia(tokens []Token) []Token {
	out := tokens[:0]

	for _, t := range tokens {
		if t.Kind == WHITESPACE || t.Kind == COMMENT {
			continue
		}

		out = append(out, t)
	}

	return out
}
