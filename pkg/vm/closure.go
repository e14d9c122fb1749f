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

package vm

// NativeCallback is a host function bound into a Closure, bridging through
// pkg/module's HostFunc `any`-typed boundary (see pkg/module/def.go's
// HostFunc doc comment for why that boundary is untyped).
type NativeCallback func(vm *VM, args []Value) (Value, error)

// Closure is either a bytecode entry point (PC into the owning ExecUnit) or
// a native callback, matching the grounding source's tagged union of
// `m_bytecode`/`m_callback` (closure.hpp).
type Closure struct {
	Native   bool
	Argc     int
	PC       int // entry PC, when !Native
	Callback NativeCallback
	Upvalues []Value
}

// NewBytecodeClosure constructs a closure whose body begins at pc in the
// VM's current instruction stream.
func NewBytecodeClosure(pc int, argc int) *Closure {
	return &Closure{PC: pc, Argc: argc}
}

// NewNativeClosure constructs a closure wrapping a host callback.
func NewNativeClosure(argc int, cb NativeCallback) *Closure {
	return &Closure{Native: true, Argc: argc, Callback: cb}
}
