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

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/XnLogicaL/via-lang/pkg/bytecode"
	"github.com/XnLogicaL/via-lang/pkg/ir"
	"github.com/XnLogicaL/via-lang/pkg/module"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
)

// Interrupt is the out-of-band signal the dispatch loop checks after every
// instruction (spec.md §4.8 "Interrupts").
type Interrupt uint8

const (
	INone Interrupt = iota
	IError
)

// ErrorInt carries the details of an IError interrupt, enough for
// unwindStack to decide whether a given frame should handle it (spec.md
// §4.8: "ErrorInt{msg, out, fp, pc}").
type ErrorInt struct {
	Msg string
	Out Value
	FP  int
	PC  int
}

// frame is one call's bookkeeping, pushed by CALL and popped by RET. Its
// protected flag marks a frame installed by a `protect` block (spec.md §7),
// the only kind unwindStack stops at.
type frame struct {
	fp        int
	retPC     int
	callee    *Closure
	protected bool
}

// VM is one register/stack machine instance bound to a single ExecUnit. Its
// 65536-entry register file matches the 16-bit operand width
// pkg/bytecode.Instruction gives A/B/C.
type VM struct {
	Exe     *bytecode.ExecUnit
	Self    *module.Module // the module Exe was compiled for; nil for a standalone unit
	Manager *module.Manager
	Log     *log.Logger

	registers [1 << 16]Value
	stack     []Value
	calls     []frame

	pc     int
	fp     int
	halted bool // set by a RET with no caller frame to unwind into

	Interrupt Interrupt
	Err       ErrorInt
}

// New constructs a VM ready to run exe. self/mgr may be nil for a unit with
// no imports to resolve.
func New(exe *bytecode.ExecUnit, self *module.Module, mgr *module.Manager, logger *log.Logger) *VM {
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &VM{Exe: exe, Self: self, Manager: mgr, Log: logger}
}

// Reset rewinds the VM to PC 0 with an empty stack, so a debugger session
// can Step through the same ExecUnit repeatedly.
func (v *VM) Reset() {
	v.pc = 0
	v.fp = 0
	v.halted = false
	v.stack = v.stack[:0]
	v.calls = v.calls[:0]
	v.Interrupt = INone
}

// PC reports the instruction pointer a debugger front-end would show.
func (v *VM) PC() int { return v.pc }

// Step executes exactly one instruction (taking any pending jump/call/return
// into account) and reports whether the program has now halted — either by
// reaching a HALT opcode or by an IError interrupt that no protected frame
// accepted. It is the primitive pkg/debugadapter single-steps over; Run is
// just Step called in a loop.
func (v *VM) Step() (halted bool, err error) {
	instr := v.Exe.Instructions[v.pc]
	branched := v.step(instr)

	if v.Interrupt == IError {
		if !v.unwindStack(func(f frame) bool { return f.protected }) {
			return true, fmt.Errorf("%s", v.Err.Msg)
		}

		v.Interrupt = INone

		return false, nil
	}

	if instr.Op == bytecode.HALT || v.halted {
		return true, nil
	}

	if !branched {
		v.pc++
	}

	return false, nil
}

// Run executes from PC 0 until HALT, RET-to-empty-stack, or an unhandled
// IError interrupt, returning the final top-of-stack value.
func (v *VM) Run() (Value, error) {
	v.Reset()

	for {
		halted, err := v.Step()
		if err != nil {
			return Nil, err
		}

		if halted {
			if len(v.stack) > 0 {
				return v.stack[len(v.stack)-1], nil
			}
			return Nil, nil
		}
	}
}

// unwindStack pops call frames until accept reports true for one, restoring
// that frame's pc/fp, or the call stack is exhausted (spec.md §4.8
// "Interrupts": `unwind_stack(predicate)`).
func (v *VM) unwindStack(accept func(frame) bool) bool {
	for len(v.calls) > 0 {
		f := v.calls[len(v.calls)-1]
		v.calls = v.calls[:len(v.calls)-1]

		if accept(f) {
			v.pc = f.retPC
			v.fp = f.fp
			return true
		}
	}

	return false
}

func (v *VM) raise(msg string) {
	v.Interrupt = IError
	v.Err = ErrorInt{Msg: msg, FP: v.fp, PC: v.pc}
	v.Log.WithField("pc", v.pc).Error(msg)
}

func (v *VM) push(val Value) { v.stack = append(v.stack, val) }

func (v *VM) pop() Value {
	if len(v.stack) == 0 {
		return Nil
	}

	val := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]

	return val
}

// step dispatches a single instruction and reports whether it already set pc
// to its intended next value (a jump, call or return), so Step knows to skip
// its own pc++. The switch is exhaustive over pkg/bytecode.Op; opcodes this
// VM does not yet realize at runtime (MOVE/COPY/COPYREF variants beyond
// plain copy, SAVE/RESTORE, upvalue access) fall through to a documented
// no-op rather than a panic, since a partially-built native-module ecosystem
// should degrade, not crash, the host process.
func (v *VM) step(i bytecode.Instruction) (branched bool) {
	switch i.Op {
	case bytecode.NOP:
	case bytecode.LOADINT:
		v.registers[i.A] = Int(int64(i.B))
	case bytecode.LOADK:
		v.registers[i.A] = v.loadConst(i.B)
	case bytecode.LOADTRUE:
		v.registers[i.A] = True
	case bytecode.LOADFALSE:
		v.registers[i.A] = False
	case bytecode.LOADNIL:
		v.registers[i.A] = Nil
	case bytecode.GETLOCAL, bytecode.MOVE, bytecode.COPY, bytecode.COPYREF:
		v.registers[i.A] = v.registers[i.B].Ref()
	case bytecode.GETIMPORT:
		v.execGetImport(i)
	case bytecode.PUSH:
		v.push(v.registers[i.A])
	case bytecode.POP:
		v.registers[i.A] = v.pop()
	case bytecode.CALL:
		return v.execCall(i)
	case bytecode.FREE1:
		v.registers[i.A].Unref()
	case bytecode.FREE2:
		v.registers[i.A].Unref()
		v.registers[i.B].Unref()
	case bytecode.FREE3:
		v.registers[i.A].Unref()
		v.registers[i.B].Unref()
		v.registers[i.C].Unref()
	case bytecode.GETTOP:
		v.registers[i.A] = v.pop()
	case bytecode.TOINT:
		v.registers[i.A] = Int(v.registers[i.B].AsInt())
	case bytecode.TOFLOAT:
		v.registers[i.A] = Float(v.registers[i.B].AsFloat())
	case bytecode.TOBOOL:
		v.registers[i.A] = Bool(v.registers[i.B].AsBool())
	case bytecode.TOSTRING:
		v.registers[i.A] = String(v.registers[i.B].ToString())
	case bytecode.NEG:
		src := v.registers[i.B]
		if src.kind == KFloat {
			v.registers[i.A] = Float(-src.f)
		} else {
			v.registers[i.A] = Int(-src.AsInt())
		}
	case bytecode.NOT:
		v.registers[i.A] = Bool(!v.registers[i.B].AsBool())
	case bytecode.BNOT:
		v.registers[i.A] = Int(^v.registers[i.B].AsInt())
	case bytecode.IADD, bytecode.IADDK:
		v.registers[i.A] = Int(v.registers[i.B].AsInt() + v.registers[i.C].AsInt())
	case bytecode.ISUB, bytecode.ISUBK:
		v.registers[i.A] = Int(v.registers[i.B].AsInt() - v.registers[i.C].AsInt())
	case bytecode.IMUL, bytecode.IMULK:
		v.registers[i.A] = Int(v.registers[i.B].AsInt() * v.registers[i.C].AsInt())
	case bytecode.IDIV, bytecode.IDIVK:
		if rhs := v.registers[i.C].AsInt(); rhs != 0 {
			v.registers[i.A] = Int(v.registers[i.B].AsInt() / rhs)
		} else {
			v.raise("integer division by zero")
		}
	case bytecode.IMOD:
		if rhs := v.registers[i.C].AsInt(); rhs != 0 {
			v.registers[i.A] = Int(v.registers[i.B].AsInt() % rhs)
		} else {
			v.raise("integer modulo by zero")
		}
	case bytecode.IPOW:
		v.registers[i.A] = Int(ipow(v.registers[i.B].AsInt(), v.registers[i.C].AsInt()))
	case bytecode.FADD, bytecode.FADDK:
		v.registers[i.A] = Float(v.registers[i.B].AsFloat() + v.registers[i.C].AsFloat())
	case bytecode.FSUB, bytecode.FSUBK:
		v.registers[i.A] = Float(v.registers[i.B].AsFloat() - v.registers[i.C].AsFloat())
	case bytecode.FMUL, bytecode.FMULK:
		v.registers[i.A] = Float(v.registers[i.B].AsFloat() * v.registers[i.C].AsFloat())
	case bytecode.FDIV, bytecode.FDIVK:
		v.registers[i.A] = Float(v.registers[i.B].AsFloat() / v.registers[i.C].AsFloat())
	case bytecode.FPOW:
		v.registers[i.A] = Float(fpow(v.registers[i.B].AsFloat(), v.registers[i.C].AsFloat()))
	case bytecode.BAND:
		v.registers[i.A] = Int(v.registers[i.B].AsInt() & v.registers[i.C].AsInt())
	case bytecode.BOR:
		v.registers[i.A] = Int(v.registers[i.B].AsInt() | v.registers[i.C].AsInt())
	case bytecode.BXOR:
		v.registers[i.A] = Int(v.registers[i.B].AsInt() ^ v.registers[i.C].AsInt())
	case bytecode.SHL:
		v.registers[i.A] = Int(v.registers[i.B].AsInt() << uint64(v.registers[i.C].AsInt()))
	case bytecode.SHR:
		v.registers[i.A] = Int(v.registers[i.B].AsInt() >> uint64(v.registers[i.C].AsInt()))
	case bytecode.IEQ, bytecode.FEQ, bytecode.BEQ, bytecode.SEQ:
		v.registers[i.A] = Bool(valuesEqual(v.registers[i.B], v.registers[i.C]))
	case bytecode.INEQ, bytecode.FNEQ, bytecode.BNEQ, bytecode.SNEQ:
		v.registers[i.A] = Bool(!valuesEqual(v.registers[i.B], v.registers[i.C]))
	case bytecode.ILT:
		v.registers[i.A] = Bool(v.registers[i.B].AsInt() < v.registers[i.C].AsInt())
	case bytecode.ILE:
		v.registers[i.A] = Bool(v.registers[i.B].AsInt() <= v.registers[i.C].AsInt())
	case bytecode.FLT:
		v.registers[i.A] = Bool(v.registers[i.B].AsFloat() < v.registers[i.C].AsFloat())
	case bytecode.FLE:
		v.registers[i.A] = Bool(v.registers[i.B].AsFloat() <= v.registers[i.C].AsFloat())
	case bytecode.JMP:
		v.pc += int(int16(i.C))
		return true
	case bytecode.JMPBACK:
		v.pc -= int(i.C)
		return true
	case bytecode.JMPIF, bytecode.JMPIFX:
		if v.registers[i.A].AsBool() {
			v.pc += int(int16(i.C))
			return true
		}
	case bytecode.JMPIFBACK, bytecode.JMPIFXBACK:
		if v.registers[i.A].AsBool() {
			v.pc -= int(i.C)
			return true
		}
	case bytecode.RET:
		v.execReturn(v.registers[i.A])
		return true
	case bytecode.RETNIL:
		v.execReturn(Nil)
		return true
	case bytecode.HALT:
		// handled by Run's loop
	default:
		v.Log.WithField("op", i.Op).Warn("unimplemented opcode treated as no-op")
	}

	return false
}

func (v *VM) loadConst(idx uint16) Value {
	cv := v.Exe.Consts[idx]
	return FromConst(cv, func(c ir.ConstValue) string { return symbol.Text(c.S) })
}

func valuesEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KNil:
		return true
	case KBool:
		return a.b == b.b
	case KInt:
		return a.i == b.i
	case KFloat:
		return a.f == b.f
	case KString:
		return a.s == b.s
	case KClosure:
		return a.c == b.c
	default:
		return false
	}
}

func ipow(base, exp int64) int64 {
	result := int64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func fpow(base, exp float64) float64 {
	result := 1.0
	for ; exp >= 1; exp-- {
		result *= base
	}
	return result
}

// execCall implements spec.md §4.8's calling convention: the callee in A,
// argc in B. Arguments were already pushed by the emitter in reverse order,
// so the first popped is the first argument; args is filled from the back,
// which leaves it in push order (last argument first) when it is handed to
// a native callback. It reports whether it left pc pointing at the call's
// next instruction itself (true for a bytecode closure jumping into its
// body) or left ordinary advancement to the caller (false for a native
// call, which returns in place).
func (v *VM) execCall(i bytecode.Instruction) (branched bool) {
	callee := v.registers[i.A]
	if callee.kind != KClosure || callee.c == nil {
		v.raise("attempt to call a non-function value")
		return false
	}

	argc := int(i.B)
	args := make([]Value, argc)
	for n := argc - 1; n >= 0; n-- {
		args[n] = v.pop()
	}

	cl := callee.c

	if cl.Native {
		result, err := cl.Callback(v, args)
		if err != nil {
			v.raise(err.Error())
			return false
		}

		v.push(result)
		return false
	}

	v.calls = append(v.calls, frame{fp: v.fp, retPC: v.pc + 1, callee: cl})
	v.fp = len(v.stack)

	for _, a := range args {
		v.push(a)
	}

	v.pc = cl.PC
	return true
}

// execReturn implements the RET teardown sequence spec.md §4.8 gives:
// unref locals above fp, restore the caller's fp/pc, push the return value
// (or leave nothing for a bare return) for the caller's GETTOP. A return with
// no caller frame is the program's top-level return, so it halts the VM
// instead of touching pc.
func (v *VM) execReturn(result Value) {
	for len(v.stack) > v.fp {
		v.pop().Unref()
	}

	if len(v.calls) == 0 {
		v.push(result)
		v.halted = true
		return
	}

	f := v.calls[len(v.calls)-1]
	v.calls = v.calls[:len(v.calls)-1]

	v.fp = f.fp
	v.pc = f.retPC
	v.push(result)
}

// execGetImport resolves `module::symbol` against the owning module's
// import list at runtime (spec.md §4.8 "Imports at runtime"). Only
// native-backed exports can be called across modules in this revision: a
// source-backed export lives in its own module's ExecUnit, and switching
// the active instruction stream/register file mid-call is pkg/build
// pipeline-level work this VM does not yet perform.
func (v *VM) execGetImport(i bytecode.Instruction) {
	modSym := v.Exe.Consts[i.B].S
	keySym := v.Exe.Consts[i.C].S

	if v.Self == nil {
		v.raise("GETIMPORT outside of a module context")
		return
	}

	var imported *module.Module
	for _, m := range v.Self.Imports {
		if m.Name == modSym {
			imported = m
			break
		}
	}

	if imported == nil {
		v.raise(fmt.Sprintf("import '%s' was not resolved at build time", symbol.Text(modSym)))
		return
	}

	def, ok := imported.Lookup(keySym)
	if !ok {
		v.raise(fmt.Sprintf("'%s' has no export '%s'", symbol.Text(modSym), symbol.Text(keySym)))
		return
	}

	fd, ok := def.(*module.FunctionDef)
	if !ok {
		v.raise("unresolvable import target")
		return
	}

	if fd.Kind != module.ImplNative {
		v.raise(fmt.Sprintf("cannot call source-backed import '%s::%s' across modules in this revision", symbol.Text(modSym), symbol.Text(keySym)))
		return
	}

	cb := fd.Callback
	closure := NewNativeClosure(len(fd.Params), func(vm *VM, args []Value) (Value, error) {
		raw := make([]any, len(args))
		for n, a := range args {
			raw[n] = a.any()
		}

		out, err := cb(raw)
		if err != nil {
			return Nil, err
		}

		return valueFromAny(out), nil
	})

	v.registers[i.A] = FromClosure(closure)
}
