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

// Package vm implements via's register/stack hybrid virtual machine: the
// runtime Value/Closure union, the dispatch loop, the calling convention and
// the host-function bridge into pkg/module (spec.md §3 "Value", "Closure",
// §4.8).
package vm

import (
	"fmt"

	"github.com/XnLogicaL/via-lang/pkg/ir"
)

// Kind tags the variant held by a Value (spec.md §3: "{nil, bool, int64,
// float64, cstring, closure}" — the Value union is closed over exactly
// these six, matching pkg/ir's ConstValue plus Closure).
type Kind uint8

const (
	KNil Kind = iota
	KBool
	KInt
	KFloat
	KString
	KClosure
)

func (k Kind) String() string {
	switch k {
	case KNil:
		return "nil"
	case KBool:
		return "bool"
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KString:
		return "string"
	case KClosure:
		return "function"
	default:
		return "<unknown value kind>"
	}
}

// Value is a manually refcounted runtime value. Unlike the grounding
// source's heap-allocated `Value*` returned from an arena, Go values here
// are plain structs passed by value in registers/stack slots; rc only
// matters for the KString and KClosure variants, whose payload (a Go
// string header / *Closure pointer) is otherwise ordinary garbage-collected
// memory. The refcount is kept anyway, rather than dropped in favor of pure
// GC, because Unref's zero-crossing is what the VM's `FREE1`/`FREE2`/`FREE3`
// and RET's frame teardown key off: it is part of the bytecode's calling
// convention, not a memory-safety mechanism.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	c    *Closure
	rc   *int64
}

// Nil, True and False are shared immutable singletons; nil/bool values have
// no refcounted payload so sharing them costs nothing.
var (
	Nil   = Value{kind: KNil}
	True  = Value{kind: KBool, b: true}
	False = Value{kind: KBool, b: false}
)

func Bool(b bool) Value {
	if b {
		return True
	}

	return False
}

func Int(i int64) Value { return Value{kind: KInt, i: i} }

func Float(f float64) Value { return Value{kind: KFloat, f: f} }

// String constructs a refcounted string value with an initial count of 1.
func String(s string) Value {
	rc := int64(1)
	return Value{kind: KString, s: s, rc: &rc}
}

// FromClosure constructs a refcounted closure value with an initial count
// of 1.
func FromClosure(c *Closure) Value {
	rc := int64(1)
	return Value{kind: KClosure, c: c, rc: &rc}
}

// FromConst lifts a compile-time constant into a runtime Value.
func FromConst(cv ir.ConstValue, text func(ir.ConstValue) string) Value {
	switch cv.Kind {
	case ir.ConstNil:
		return Nil
	case ir.ConstBool:
		return Bool(cv.B)
	case ir.ConstInt:
		return Int(cv.I)
	case ir.ConstFloat:
		return Float(cv.F)
	case ir.ConstString:
		return String(text(cv))
	default:
		return Nil
	}
}

func (v Value) Kind() Kind { return v.kind }

// Ref increments the value's refcount, if it has one, and returns v
// unchanged, so callers can write `dst = src.Ref()` at a copy site.
func (v Value) Ref() Value {
	if v.rc != nil {
		*v.rc++
	}

	return v
}

// Unref decrements the value's refcount and reports whether it reached
// zero (spec.md §4.8's RET teardown and FREE* opcodes use this to decide
// whether a string/closure payload should be released). Values with no
// refcount (nil/bool/int/float) always report false: there is nothing to
// release and letting Go's GC reclaim the (non-existent) payload is moot.
func (v Value) Unref() bool {
	if v.rc == nil {
		return false
	}

	*v.rc--

	return *v.rc <= 0
}

func (v Value) AsBool() bool {
	switch v.kind {
	case KNil:
		return false
	case KBool:
		return v.b
	case KInt:
		return v.i != 0
	case KFloat:
		return v.f != 0
	case KString:
		return v.s != ""
	case KClosure:
		return true
	default:
		return false
	}
}

func (v Value) AsInt() int64 {
	switch v.kind {
	case KInt:
		return v.i
	case KFloat:
		return int64(v.f)
	case KBool:
		if v.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (v Value) AsFloat() float64 {
	switch v.kind {
	case KFloat:
		return v.f
	case KInt:
		return float64(v.i)
	default:
		return 0
	}
}

func (v Value) AsString() string {
	switch v.kind {
	case KString:
		return v.s
	default:
		return v.ToString()
	}
}

func (v Value) AsClosure() *Closure { return v.c }

func (v Value) ToString() string {
	switch v.kind {
	case KNil:
		return "nil"
	case KBool:
		if v.b {
			return "true"
		}
		return "false"
	case KInt:
		return fmt.Sprintf("%d", v.i)
	case KFloat:
		return fmt.Sprintf("%g", v.f)
	case KString:
		return v.s
	case KClosure:
		return "<function>"
	default:
		return "<?>"
	}
}

// any adapts a Value to the `any` boundary pkg/module's HostFunc uses, so a
// native module's callback never needs to import pkg/vm.
func (v Value) any() any {
	switch v.kind {
	case KNil:
		return nil
	case KBool:
		return v.b
	case KInt:
		return v.i
	case KFloat:
		return v.f
	case KString:
		return v.s
	default:
		return v
	}
}

// valueFromAny is the inverse of Value.any, used when a host callback
// returns a plain Go value that must re-enter the VM's register file.
func valueFromAny(a any) Value {
	switch x := a.(type) {
	case nil:
		return Nil
	case bool:
		return Bool(x)
	case int64:
		return Int(x)
	case int:
		return Int(int64(x))
	case float64:
		return Float(x)
	case string:
		return String(x)
	case Value:
		return x
	default:
		return Nil
	}
}
