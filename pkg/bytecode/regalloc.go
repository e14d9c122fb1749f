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

package bytecode

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// maxRegisters bounds the per-function register file to the 16-bit operand
// width spec.md §3 gives Instruction's A/B/C fields.
const maxRegisters = 1 << 16

// regalloc tracks which registers are live within one function body. A
// local's register is reserved for the lifetime of its enclosing scope;
// everything else (temporaries produced while lowering an expression tree)
// is freed the instant the emitter is done consuming it. bitset.BitSet
// gives O(1) amortized scan-for-free-bit via NextClear, which a plain
// []bool linear scan would also give but without the word-packed
// allocation a 65536-bit register file benefits from.
type regalloc struct {
	used *bitset.BitSet
	high uint16 // highest register ever allocated, for ExecUnit sizing
}

func newRegalloc() *regalloc {
	return &regalloc{used: bitset.New(maxRegisters)}
}

// alloc reserves and returns the lowest-numbered free register.
func (r *regalloc) alloc() uint16 {
	next, ok := r.used.NextClear(0)
	if !ok || next >= maxRegisters {
		panic(fmt.Sprintf("register file exhausted (limit %d)", maxRegisters))
	}

	r.used.Set(next)

	reg := uint16(next)
	if reg > r.high {
		r.high = reg
	}

	return reg
}

// free releases reg back to the pool. Freeing an already-free register is
// a no-op, so callers may free defensively.
func (r *regalloc) free(reg uint16) {
	r.used.Clear(uint(reg))
}

// snapshot/restore bracket a lexical scope: every temporary allocated after
// a snapshot and not explicitly kept (e.g. bound to a local) is released by
// restoring it, without disturbing registers allocated before the snapshot.
func (r *regalloc) snapshot() *bitset.BitSet {
	return r.used.Clone()
}

func (r *regalloc) restore(snap *bitset.BitSet) {
	r.used = snap
}
