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
package lex

import "github.com/XnLogicaL/via-lang/pkg/source"

// Token pairs a caller-defined tag with the span of items it matched.
type Token struct {
	Kind uint
	Loc  source.Loc
}

// Rule associates a scanner with the tag it should produce when matched.
type Rule[T any] struct {
	scanner Scanner[T]
	tag     uint
}

// NewRule constructs a lexing rule mapping matches of scanner to tag.
func NewRule[T any](scanner Scanner[T], tag uint) Rule[T] {
	return Rule[T]{scanner, tag}
}

// Lexer tokenises an input sequence by repeatedly trying each rule, in the
// order given, at the current position and taking the first match. Rules
// which should win over a shorter prefix (e.g. "<=" over "<") must
// therefore be listed before it.
type Lexer[T any] struct {
	items  []T
	index  int
	rules  []Rule[T]
	buffer []Token
}

// NewLexer constructs a lexer for a given item sequence and rule set.
func NewLexer[T any](items []T, rules ...Rule[T]) *Lexer[T] {
	return &Lexer[T]{items: items, rules: rules}
}

// Index returns the current offset into the item sequence.
func (p *Lexer[T]) Index() uint { return uint(p.index) }

// Remaining reports how many items are left unconsumed.
func (p *Lexer[T]) Remaining() uint {
	return uint(max(0, len(p.items)-p.index))
}

// HasNext reports whether another token is available.
func (p *Lexer[T]) HasNext() bool {
	p.scan()
	return len(p.buffer) > 0
}

// Next returns the next token and advances the lexer past it.
func (p *Lexer[T]) Next() Token {
	next := p.buffer[0]
	p.buffer = p.buffer[1:]

	if p.index == len(p.items) {
		p.index++
	} else {
		p.index = next.Loc.End
	}

	return next
}

// Seek discards any buffered lookahead and resumes scanning from index.
// Used by the driving Lex functions to resynchronise after a lexical
// error, matching spec.md §4.1's "resume at the next whitespace boundary".
func (p *Lexer[T]) Seek(index int) {
	p.index = index
	p.buffer = nil
}

// Collect consumes and returns every remaining token.
func (p *Lexer[T]) Collect() []Token {
	var tokens []Token

	for p.HasNext() {
		tokens = append(tokens, p.Next())
	}

	return tokens
}

func (p *Lexer[T]) scan() {
	if len(p.buffer) != 0 || p.index > len(p.items) {
		return
	}

	for _, r := range p.rules {
		if n := r.scanner(p.items[p.index:]); n > 0 {
			end := min(len(p.items), p.index+int(n))
			p.buffer = append(p.buffer, Token{r.tag, source.NewLoc(p.index, end)})

			return
		}
	}
}
