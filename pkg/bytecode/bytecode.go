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

// Package bytecode lowers a typed ir.Tree into an ExecUnit: a flat
// instruction stream over 16-bit registers, a constant pool, and a label
// map (spec.md §3 "ExecUnit"/"Instruction", §4.7).
package bytecode

import (
	"fmt"
	"strings"

	"github.com/XnLogicaL/via-lang/pkg/ir"
)

// Op is the opcode of one Instruction.
type Op uint16

// The opcode set named by spec.md §4.7/§4.8. Integer and float arithmetic
// are separate families; add, sub, mul and div additionally have a 'K'
// variant (operand C reads the constant pool instead of a register),
// enumerated immediately after its register-register sibling. Mod and pow
// have no 'K' variant.
const (
	NOP Op = iota

	LOADINT
	LOADK
	LOADTRUE
	LOADFALSE
	LOADNIL

	GETLOCAL
	GETLOCALREF
	SETLOCAL
	GETIMPORT
	GETUPVAL

	NEWCLOSURE

	MOVE
	COPY
	COPYREF

	PUSH
	POP
	SAVE
	RESTORE

	CALL
	FREE1
	FREE2
	FREE3
	GETTOP

	TOINT
	TOFLOAT
	TOBOOL
	TOSTRING

	IADD
	IADDK
	ISUB
	ISUBK
	IMUL
	IMULK
	IDIV
	IDIVK
	IMOD
	IPOW

	FADD
	FADDK
	FSUB
	FSUBK
	FMUL
	FMULK
	FDIV
	FDIVK
	FPOW

	BAND
	BOR
	BXOR
	BNOT
	SHL
	SHR
	NEG
	NOT

	IEQ
	INEQ
	ILT
	ILE
	FEQ
	FNEQ
	FLT
	FLE
	BEQ
	BNEQ
	SEQ
	SNEQ

	JMP
	JMPBACK
	JMPIF
	JMPIFBACK
	JMPIFX
	JMPIFXBACK

	RET
	RETNIL
	HALT
)

var opNames = [...]string{
	"NOP",
	"LOADINT", "LOADK", "LOADTRUE", "LOADFALSE", "LOADNIL",
	"GETLOCAL", "GETLOCALREF", "SETLOCAL", "GETIMPORT", "GETUPVAL",
	"NEWCLOSURE",
	"MOVE", "COPY", "COPYREF",
	"PUSH", "POP", "SAVE", "RESTORE",
	"CALL", "FREE1", "FREE2", "FREE3", "GETTOP",
	"TOINT", "TOFLOAT", "TOBOOL", "TOSTRING",
	"IADD", "IADDK", "ISUB", "ISUBK", "IMUL", "IMULK", "IDIV", "IDIVK", "IMOD", "IPOW",
	"FADD", "FADDK", "FSUB", "FSUBK", "FMUL", "FMULK", "FDIV", "FDIVK", "FPOW",
	"BAND", "BOR", "BXOR", "BNOT", "SHL", "SHR", "NEG", "NOT",
	"IEQ", "INEQ", "ILT", "ILE", "FEQ", "FNEQ", "FLT", "FLE", "BEQ", "BNEQ", "SEQ", "SNEQ",
	"JMP", "JMPBACK", "JMPIF", "JMPIFBACK", "JMPIFX", "JMPIFXBACK",
	"RET", "RETNIL", "HALT",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}

	return "<unknown opcode>"
}

// Instruction is the fixed record `(op, a, b, c)` spec.md §3 specifies: all
// operands dense 16-bit values, so registers are 16-bit IDs.
type Instruction struct {
	Op      Op
	A, B, C uint16
}

func (i Instruction) String() string {
	return fmt.Sprintf("%-10s %d, %d, %d", i.Op, i.A, i.B, i.C)
}

// ExecUnit is an immutable compiled bytecode program for one module
// (spec.md §3).
type ExecUnit struct {
	Instructions []Instruction
	Consts       []ir.ConstValue
	Labels       map[uint32]int // block ID -> PC, used by the debugger only
}

func (e *ExecUnit) String() string {
	var sb strings.Builder

	for pc, instr := range e.Instructions {
		fmt.Fprintf(&sb, "%4d  %s\n", pc, instr)
	}

	return sb.String()
}
