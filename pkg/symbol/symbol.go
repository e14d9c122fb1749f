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

// Package symbol provides a global string-interning table. Every identifier
// encountered by the parser, module manager and IR builder is interned once
// into a Symbol, a small comparable value that can be used as a map key and
// compared for equality in O(1) instead of doing repeated string comparison
// (spec.md §4.2, §4.5).
package symbol

import (
	"strings"
	"sync"
)

// Symbol is an interned identifier. The zero Symbol is never produced by
// Intern and may be used as a sentinel "no symbol" value.
type Symbol uint64

// Table is a thread-safe bidirectional string<->Symbol interning table.
// Reads (the common case once a program is warm) take a read lock; a miss
// promotes to a write lock and rechecks, mirroring the pool pattern used
// elsewhere in this codebase for interning large, frequently-shared values.
type Table struct {
	mux     sync.RWMutex
	strings []string
	ids     map[string]Symbol
}

// NewTable constructs an empty interning table.
func NewTable() *Table {
	return &Table{
		// Reserve index 0 so the zero Symbol never aliases a real string.
		strings: []string{""},
		ids:     make(map[string]Symbol),
	}
}

// Intern returns the Symbol for s, allocating a new one if s has not been
// seen before.
func (t *Table) Intern(s string) Symbol {
	t.mux.RLock()
	id, ok := t.ids[s]
	t.mux.RUnlock()

	if ok {
		return id
	}

	t.mux.Lock()
	defer t.mux.Unlock()

	// Recheck in case another goroutine interned s while we waited for the
	// write lock.
	if id, ok := t.ids[s]; ok {
		return id
	}

	id = Symbol(len(t.strings))
	t.strings = append(t.strings, s)
	t.ids[s] = id

	return id
}

// String returns the text a Symbol was interned from. Panics if id was not
// produced by this table.
func (t *Table) String(id Symbol) string {
	t.mux.RLock()
	defer t.mux.RUnlock()

	return t.strings[id]
}

// Lookup returns the Symbol for s without interning it, reporting whether s
// has been seen before.
func (t *Table) Lookup(s string) (Symbol, bool) {
	t.mux.RLock()
	defer t.mux.RUnlock()

	id, ok := t.ids[s]

	return id, ok
}

// global is the process-wide interning table used by every package which
// needs to turn identifier text into a Symbol. A single shared table keeps
// Symbols comparable across compilation units within one process, which the
// module manager relies on when matching imported names across modules.
var global = NewTable()

// Intern interns s in the global table.
func Intern(s string) Symbol { return global.Intern(s) }

// Text returns the string a global Symbol was interned from.
func Text(id Symbol) string { return global.String(id) }

// QualName is a qualified, dotted-path name such as the path named by an
// `import` declaration (spec.md §4.5): an ordered, non-empty sequence of
// path segments, e.g. ["std", "io"] for `std::io`.
type QualName []Symbol

// NewQualName interns each segment and returns the resulting QualName.
func NewQualName(segments ...string) QualName {
	q := make(QualName, len(segments))
	for i, s := range segments {
		q[i] = Intern(s)
	}

	return q
}

// String renders a QualName back into its "::"-separated source form.
func (q QualName) String() string {
	var b strings.Builder

	for i, s := range q {
		if i > 0 {
			b.WriteString("::")
		}

		b.WriteString(Text(s))
	}

	return b.String()
}

// Last returns the final segment of the path, which is the symbol being
// imported or referenced (e.g. "io" in "std::io").
func (q QualName) Last() Symbol { return q[len(q)-1] }

// Equals reports whether two QualNames name the same path.
func (q QualName) Equals(other QualName) bool {
	if len(q) != len(other) {
		return false
	}

	for i := range q {
		if q[i] != other[i] {
			return false
		}
	}

	return true
}
