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

	"github.com/XnLogicaL/via-lang/pkg/diag"
	"github.com/XnLogicaL/via-lang/pkg/ir"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/types"
)

// jumpFixup is a terminator instruction whose C operand still needs its
// target PC patched in once every block's start address is known.
type jumpFixup struct {
	pc     int    // index of the instruction to patch
	target uint32 // target block ID
}

// Emitter lowers one ir.Tree (one module's top-level declarations) into an
// ExecUnit (spec.md §4.7). One Emitter is reused across every function in
// the tree; per-function state (registers, locals, block offsets) is reset
// between functions.
type Emitter struct {
	diags *diag.Context

	code     []Instruction
	consts   []ir.ConstValue
	constIdx map[ir.ConstValue]uint16

	regs       *regalloc
	locals     map[symbol.Symbol]uint16 // symbol -> register, current function only
	blockStart map[uint32]int           // block ID -> PC, current function only
	fixups     []jumpFixup
}

// New constructs an Emitter that reports unsupported-construct diagnostics
// through diags.
func New(diags *diag.Context) *Emitter {
	return &Emitter{
		diags:    diags,
		constIdx: make(map[ir.ConstValue]uint16),
	}
}

// Emit lowers every top-level statement in tree and returns the assembled
// program. Declarations with no runtime representation (enum/struct/type,
// handled entirely at the IR-builder stage) are skipped.
func (e *Emitter) Emit(tree ir.Tree) *ExecUnit {
	for _, stmt := range tree {
		switch s := stmt.(type) {
		case *ir.StmtFuncDecl:
			e.emitFunc(s)
		case *ir.StmtVarDecl:
			e.emitTopVarDecl(s)
		default:
			// Enum/struct/type declarations and imports carry no bytecode;
			// they were fully consumed by the IR builder.
		}
	}

	e.code = append(e.code, Instruction{Op: HALT})

	return &ExecUnit{Instructions: e.code, Consts: e.consts, Labels: e.blockStart}
}

func (e *Emitter) addConst(v ir.ConstValue) uint16 {
	if idx, ok := e.constIdx[v]; ok {
		return idx
	}

	idx := uint16(len(e.consts))
	e.consts = append(e.consts, v)
	e.constIdx[v] = idx

	return idx
}

func (e *Emitter) emit(instr Instruction) int {
	e.code = append(e.code, instr)
	return len(e.code) - 1
}

// emitTopVarDecl lowers a module-level constant binding the same way a
// local one would be, into a register that lives for the module's lifetime.
// via has no global mutable state beyond module-level const bindings
// (spec.md §4.4 "module-level declarations"), so this is adequate without a
// dedicated global-slot opcode.
func (e *Emitter) emitTopVarDecl(s *ir.StmtVarDecl) {
	e.regs = newRegalloc()
	e.locals = make(map[symbol.Symbol]uint16)

	reg := e.lowerExpr(s.Expr)
	e.locals[s.Symbol] = reg
}

func (e *Emitter) emitFunc(fn *ir.StmtFuncDecl) {
	if fn.Kind == ir.FuncNative {
		// Native function bodies are supplied by the host at module-load
		// time (spec.md §4.6); nothing to emit.
		return
	}

	e.regs = newRegalloc()
	e.locals = make(map[symbol.Symbol]uint16)
	e.blockStart = make(map[uint32]int)
	e.fixups = nil

	for _, p := range fn.Params {
		e.locals[p.Symbol] = e.regs.alloc()
	}

	for _, blk := range fn.Blocks {
		e.blockStart[blk.ID] = len(e.code)

		for _, stmt := range blk.Stmts {
			e.lowerStmt(stmt)
		}

		e.lowerTerm(blk.Term)
	}

	e.patchJumps()
}

// patchJumps resolves every recorded fixup's block-ID target to a PC and
// rewrites the instruction's offset: `target_pc - current_pc`, flipping to
// the *BACK opcode variant with a positive magnitude when the result is
// negative (spec.md §4.7 "Jump patching").
func (e *Emitter) patchJumps() {
	for _, fx := range e.fixups {
		target, ok := e.blockStart[fx.target]
		if !ok {
			panic(fmt.Sprintf("branch to unknown block %d", fx.target))
		}

		offset := target - fx.pc
		instr := &e.code[fx.pc]

		if offset < 0 {
			instr.Op = backVariant(instr.Op)
			instr.C = uint16(-offset)
		} else {
			instr.C = uint16(offset)
		}
	}
}

func backVariant(op Op) Op {
	switch op {
	case JMP:
		return JMPBACK
	case JMPIF:
		return JMPIFBACK
	case JMPIFX:
		return JMPIFXBACK
	default:
		return op
	}
}

// ============================================================================
// Statements
// ============================================================================

func (e *Emitter) lowerStmt(stmt ir.Stmt) {
	switch s := stmt.(type) {
	case *ir.StmtVarDecl:
		reg := e.lowerExpr(s.Expr)
		e.locals[s.Symbol] = reg
	case *ir.StmtAssign:
		e.lowerAssign(s)
	case *ir.StmtExpr:
		e.regs.free(e.lowerExpr(s.Expr))
	case *ir.StmtInstruction:
		e.emit(Instruction{Op: Op(s.Instr.Op), A: s.Instr.A, B: s.Instr.B, C: s.Instr.C})
	default:
		panic(fmt.Sprintf("bytecode: unhandled ir.Stmt %T", stmt))
	}
}

func (e *Emitter) lowerAssign(s *ir.StmtAssign) {
	val := e.lowerExpr(s.Value)

	switch t := s.Target.(type) {
	case *ir.ExprSymbol:
		dst, ok := e.locals[t.Symbol]
		if !ok {
			dst = e.regs.alloc()
			e.locals[t.Symbol] = dst
		}

		e.emit(Instruction{Op: MOVE, A: dst, B: val})
	default:
		// Field/subscript assignment targets have no runtime Value
		// representation in this revision (structs/maps/arrays are
		// type-check-only, per pkg/ir's builder); diagnosing here keeps
		// that restriction visible at the point where it would otherwise
		// silently produce no code.
		e.diags.EmitError(s.Loc(), "assignment to this target is not supported by the bytecode emitter", nil)
	}

	e.regs.free(val)
}

// ============================================================================
// Terminators
// ============================================================================

func (e *Emitter) lowerTerm(term ir.Term) {
	switch t := term.(type) {
	case ir.TrReturn:
		if t.Value == nil {
			e.emit(Instruction{Op: RETNIL})
			return
		}

		val := e.lowerExpr(t.Value)
		e.emit(Instruction{Op: RET, A: val})
		e.regs.free(val)
	case ir.TrBranch:
		pc := e.emit(Instruction{Op: JMP})
		e.fixups = append(e.fixups, jumpFixup{pc: pc, target: t.Target})
	case ir.TrCondBranch:
		cond := e.lowerExpr(t.Cond)
		pc := e.emit(Instruction{Op: JMPIF, A: cond})
		e.fixups = append(e.fixups, jumpFixup{pc: pc, target: t.IfTrue})
		e.regs.free(cond)

		fallthroughPC := e.emit(Instruction{Op: JMP})
		e.fixups = append(e.fixups, jumpFixup{pc: fallthroughPC, target: t.IfFalse})
	default:
		panic(fmt.Sprintf("bytecode: unhandled ir.Term %T", term))
	}
}

// ============================================================================
// Expressions
// ============================================================================

// lowerExpr emits the instructions computing e's value and returns the
// register it was left in. Callers own that register and must free it once
// consumed.
func (e *Emitter) lowerExpr(expr ir.Expr) uint16 {
	switch ex := expr.(type) {
	case *ir.ExprConstant:
		return e.lowerConstant(ex)
	case *ir.ExprSymbol:
		return e.lowerSymbol(ex)
	case *ir.ExprModuleAccess:
		return e.lowerModuleAccess(ex)
	case *ir.ExprAccess:
		e.diags.EmitError(ex.Loc(), "field access has no bytecode realization in this revision", nil)
		return e.regs.alloc()
	case *ir.ExprUnary:
		return e.lowerUnary(ex)
	case *ir.ExprBinary:
		return e.lowerBinary(ex)
	case *ir.ExprCall:
		return e.lowerCall(ex)
	case *ir.ExprSubscript:
		e.diags.EmitError(ex.Loc(), "subscript has no bytecode realization in this revision", nil)
		return e.regs.alloc()
	case *ir.ExprCast:
		return e.lowerCast(ex)
	case *ir.ExprTernary:
		return e.lowerTernary(ex)
	case *ir.ExprArray:
		e.diags.EmitError(ex.Loc(), "array construction has no bytecode realization: the runtime Value union has no array variant in this revision", nil)
		return e.regs.alloc()
	case *ir.ExprTuple:
		e.diags.EmitError(ex.Loc(), "tuples are not supported beyond type-checking", nil)
		return e.regs.alloc()
	case *ir.ExprLambda:
		e.diags.EmitError(ex.Loc(), "lambda expressions are not supported beyond type-checking", nil)
		return e.regs.alloc()
	default:
		panic(fmt.Sprintf("bytecode: unhandled ir.Expr %T", expr))
	}
}

func (e *Emitter) lowerConstant(ex *ir.ExprConstant) uint16 {
	dst := e.regs.alloc()

	switch ex.Value.Kind {
	case ir.ConstNil:
		e.emit(Instruction{Op: LOADNIL, A: dst})
	case ir.ConstBool:
		if ex.Value.B {
			e.emit(Instruction{Op: LOADTRUE, A: dst})
		} else {
			e.emit(Instruction{Op: LOADFALSE, A: dst})
		}
	case ir.ConstInt:
		if ex.Value.I >= 0 && ex.Value.I <= 0xFFFF {
			e.emit(Instruction{Op: LOADINT, A: dst, B: uint16(ex.Value.I)})
		} else {
			idx := e.addConst(ex.Value)
			e.emit(Instruction{Op: LOADK, A: dst, B: idx})
		}
	case ir.ConstFloat, ir.ConstString:
		idx := e.addConst(ex.Value)
		e.emit(Instruction{Op: LOADK, A: dst, B: idx})
	}

	return dst
}

func (e *Emitter) lowerSymbol(ex *ir.ExprSymbol) uint16 {
	reg, ok := e.locals[ex.Symbol]
	if !ok {
		// Resolved by the IR builder against a frame that no longer exists
		// at emission time; an internal inconsistency, not a user error.
		panic(fmt.Sprintf("bytecode: unresolved local %q", symbol.Text(ex.Symbol)))
	}

	dst := e.regs.alloc()
	e.emit(Instruction{Op: GETLOCAL, A: dst, B: reg})

	return dst
}

func (e *Emitter) lowerModuleAccess(ex *ir.ExprModuleAccess) uint16 {
	dst := e.regs.alloc()
	modIdx := e.addConst(ir.ConstValue{Kind: ir.ConstString, S: ex.Module})
	keyIdx := e.addConst(ir.ConstValue{Kind: ir.ConstString, S: ex.Key})

	e.emit(Instruction{Op: GETIMPORT, A: dst, B: modIdx, C: keyIdx})

	return dst
}

func (e *Emitter) lowerUnary(ex *ir.ExprUnary) uint16 {
	src := e.lowerExpr(ex.Expr)
	dst := e.regs.alloc()

	switch ex.Op {
	case ir.OpNeg:
		e.emit(Instruction{Op: NEG, A: dst, B: src})
	case ir.OpNot:
		e.emit(Instruction{Op: NOT, A: dst, B: src})
	case ir.OpBNot:
		e.emit(Instruction{Op: BNOT, A: dst, B: src})
	}

	e.regs.free(src)

	return dst
}

// arithOps maps a promoting binary operator to its {int-family, float-family}
// opcode pair (spec.md §4.7: "separate int/float instruction families").
var arithOps = map[ir.BinaryOp][2]Op{
	ir.OpAdd: {IADD, FADD},
	ir.OpSub: {ISUB, FSUB},
	ir.OpMul: {IMUL, FMUL},
	ir.OpDiv: {IDIV, FDIV},
	ir.OpPow: {IPOW, FPOW},
}

var intOnlyOps = map[ir.BinaryOp]Op{
	ir.OpMod:  IMOD,
	ir.OpBAnd: BAND,
	ir.OpBOr:  BOR,
	ir.OpBXor: BXOR,
	ir.OpShl:  SHL,
	ir.OpShr:  SHR,
}

var intCmpOps = map[ir.BinaryOp]Op{
	ir.OpEq: IEQ, ir.OpNeq: INEQ, ir.OpLt: ILT, ir.OpLe: ILE,
}

var floatCmpOps = map[ir.BinaryOp]Op{
	ir.OpEq: FEQ, ir.OpNeq: FNEQ, ir.OpLt: FLT, ir.OpLe: FLE,
}

// lowerBinary allocates a fresh temp register for the result, dispatching to
// the int or float opcode family by the operand's resolved type and
// inserting an explicit TOFLOAT coercion when one operand is float and the
// other integral — the VM performs no implicit numeric conversion at
// dispatch time (spec.md §4.8 "Arithmetic").
func (e *Emitter) lowerBinary(ex *ir.ExprBinary) uint16 {
	lhs := e.lowerExpr(ex.Lhs)
	rhs := e.lowerExpr(ex.Rhs)

	lf := isFloatTyped(ex.Lhs)
	rf := isFloatTyped(ex.Rhs)

	if lf && !rf {
		coerced := e.regs.alloc()
		e.emit(Instruction{Op: TOFLOAT, A: coerced, B: rhs})
		e.regs.free(rhs)
		rhs = coerced
		rf = true
	} else if rf && !lf {
		coerced := e.regs.alloc()
		e.emit(Instruction{Op: TOFLOAT, A: coerced, B: lhs})
		e.regs.free(lhs)
		lhs = coerced
		lf = true
	}

	dst := e.regs.alloc()

	switch {
	case ex.Op == ir.OpAnd:
		e.emit(Instruction{Op: BAND, A: dst, B: lhs, C: rhs})
	case ex.Op == ir.OpOr:
		e.emit(Instruction{Op: BOR, A: dst, B: lhs, C: rhs})
	case ex.Op == ir.OpGt:
		// `a > b` lowers as `b < a`; `a >= b` as `b <= a` (no dedicated
		// GT/GE opcode family, mirroring the comparison set §4.8 lists).
		op := intCmpOps[ir.OpLt]
		if lf || rf {
			op = floatCmpOps[ir.OpLt]
		}
		e.emit(Instruction{Op: op, A: dst, B: rhs, C: lhs})
	case ex.Op == ir.OpGe:
		op := intCmpOps[ir.OpLe]
		if lf || rf {
			op = floatCmpOps[ir.OpLe]
		}
		e.emit(Instruction{Op: op, A: dst, B: rhs, C: lhs})
	default:
		if pair, ok := arithOps[ex.Op]; ok {
			op := pair[0]
			if lf || rf {
				op = pair[1]
			}
			e.emit(Instruction{Op: op, A: dst, B: lhs, C: rhs})
		} else if op, ok := intOnlyOps[ex.Op]; ok {
			e.emit(Instruction{Op: op, A: dst, B: lhs, C: rhs})
		} else if op, ok := intCmpOps[ex.Op]; ok && !lf && !rf {
			e.emit(Instruction{Op: op, A: dst, B: lhs, C: rhs})
		} else if op, ok := floatCmpOps[ex.Op]; ok {
			e.emit(Instruction{Op: op, A: dst, B: lhs, C: rhs})
		} else {
			panic(fmt.Sprintf("bytecode: unhandled binary op %s", ex.Op))
		}
	}

	e.regs.free(lhs)
	e.regs.free(rhs)

	return dst
}

func isFloatTyped(e ir.Expr) bool {
	qt := e.QualType()
	return qt.Type != nil && types.IsFloat(qt.Type)
}

// lowerCall pushes arguments in reverse (so PUSH order leaves arg0 nearest
// the new frame's base when the callee walks back from its frame pointer,
// spec.md §4.8 "Calling convention"), then CALLs and reads the result off
// the top of the value stack.
func (e *Emitter) lowerCall(ex *ir.ExprCall) uint16 {
	callee := e.lowerExpr(ex.Callee)

	argRegs := make([]uint16, len(ex.Args))
	for i, a := range ex.Args {
		argRegs[i] = e.lowerExpr(a)
	}

	for i := len(ex.Args) - 1; i >= 0; i-- {
		e.emit(Instruction{Op: PUSH, A: argRegs[i]})
		e.regs.free(argRegs[i])
	}

	e.emit(Instruction{Op: CALL, A: callee, B: uint16(len(ex.Args))})
	e.regs.free(callee)

	dst := e.regs.alloc()
	e.emit(Instruction{Op: GETTOP, A: dst})

	return dst
}

// castOps maps a cast's target builtin kind to its coercion opcode.
var castOps = map[types.BuiltinKind]Op{
	types.Int:    TOINT,
	types.Float:  TOFLOAT,
	types.Bool:   TOBOOL,
	types.String: TOSTRING,
}

func (e *Emitter) lowerCast(ex *ir.ExprCast) uint16 {
	src := e.lowerExpr(ex.Expr)

	b, ok := ex.Cast.Type.(*types.BuiltinType)
	if !ok {
		// Casts to non-builtin target types type-check (string<->collection
		// conversions) but have no scalar coercion opcode; pass the value
		// through unconverted rather than emit nothing.
		return src
	}

	op, ok := castOps[b.Kind]
	if !ok {
		return src
	}

	dst := e.regs.alloc()
	e.emit(Instruction{Op: op, A: dst, B: src})
	e.regs.free(src)

	return dst
}

// lowerTernary has no dedicated select opcode; it desugars to the same
// two-branch-plus-merge shape lowerTerm's CondBranch handling uses, writing
// both arms' results into one shared destination register.
func (e *Emitter) lowerTernary(ex *ir.ExprTernary) uint16 {
	cond := e.lowerExpr(ex.Cond)
	dst := e.regs.alloc()

	jmpIfPC := e.emit(Instruction{Op: JMPIF, A: cond})
	e.regs.free(cond)

	falseVal := e.lowerExpr(ex.Rhs)
	e.emit(Instruction{Op: MOVE, A: dst, B: falseVal})
	e.regs.free(falseVal)

	jmpEndPC := e.emit(Instruction{Op: JMP})

	trueStart := len(e.code)
	e.code[jmpIfPC].C = uint16(trueStart - jmpIfPC)

	trueVal := e.lowerExpr(ex.Lhs)
	e.emit(Instruction{Op: MOVE, A: dst, B: trueVal})
	e.regs.free(trueVal)

	end := len(e.code)
	e.code[jmpEndPC].C = uint16(end - jmpEndPC)

	return dst
}
