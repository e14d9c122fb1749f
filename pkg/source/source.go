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

// Package source owns the raw bytes of a via source file and the
// byte-offset bookkeeping shared by the lexer, parser, IR builder and
// diagnostics sink.
package source

import (
	"fmt"
	"os"
)

// Loc is a half-open byte range [Begin, End) into a single Buffer.
type Loc struct {
	Begin int
	End   int
}

// NewLoc constructs a Loc, panicking if the range is malformed.
func NewLoc(begin, end int) Loc {
	if begin > end {
		panic("invalid source location")
	}

	return Loc{begin, end}
}

// Length returns the number of bytes covered by this location.
func (l Loc) Length() int { return l.End - l.Begin }

// Join returns the smallest Loc enclosing both l and other.
func (l Loc) Join(other Loc) Loc {
	return Loc{min(l.Begin, other.Begin), max(l.End, other.End)}
}

// Buffer owns the raw bytes of a single source file and converts absolute
// byte offsets to (line, column) pairs on demand.
type Buffer struct {
	filename string
	contents []byte
}

// NewBuffer wraps a byte slice as a named source buffer.
func NewBuffer(filename string, contents []byte) *Buffer {
	return &Buffer{filename, contents}
}

// ReadBuffer reads a file from disk into a Buffer.
func ReadBuffer(filename string) (*Buffer, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return NewBuffer(filename, bytes), nil
}

// Filename returns the name this buffer was constructed with.
func (b *Buffer) Filename() string { return b.filename }

// Contents returns the raw bytes of this buffer.
func (b *Buffer) Contents() []byte { return b.contents }

// Slice returns the bytes covered by a given location.
func (b *Buffer) Slice(loc Loc) []byte { return b.contents[loc.Begin:loc.End] }

// Text is a convenience over Slice which returns a string.
func (b *Buffer) Text(loc Loc) string { return string(b.Slice(loc)) }

// Position is a 1-based (line, column) pair within a Buffer.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// PositionOf converts an absolute byte offset into a 1-based (line, column)
// pair. An offset beyond the end of the buffer resolves to the position
// just past the last byte.
func (b *Buffer) PositionOf(offset int) Position {
	line, col := 1, 1

	for i := 0; i < offset && i < len(b.contents); i++ {
		if b.contents[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return Position{line, col}
}

// LineText returns the text of the line enclosing a given offset, without
// its trailing newline.
func (b *Buffer) LineText(offset int) string {
	start := offset
	for start > 0 && b.contents[start-1] != '\n' {
		start--
	}

	end := offset
	for end < len(b.contents) && b.contents[end] != '\n' {
		end++
	}

	return string(b.contents[start:end])
}
