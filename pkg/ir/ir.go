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

// Package ir defines via's typed intermediate representation: a control-flow
// graph of basic blocks produced by lowering an ast.Tree (spec.md §3 "IR",
// §4.4). Every expression node carries its resolved types.QualType (the zero
// QualType means "a diagnostic was already reported for this expression").
package ir

import (
	"github.com/XnLogicaL/via-lang/pkg/source"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/types"
)

// Node is embedded by every IR node category and exposes its source span.
type Node interface {
	Loc() source.Loc
}

// Expr is implemented by every IR expression node.
type Expr interface {
	Node
	QualType() types.QualType
	exprNode()
}

// Stmt is implemented by every IR statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Term is implemented by every basic-block terminator.
type Term interface {
	termNode()
}

// Base carries the span common to every node; embedded, not used directly.
type Base struct {
	Span source.Loc
}

func (b Base) Loc() source.Loc { return b.Span }

// Typed carries the resolved type common to every expression node.
type Typed struct {
	Typ types.QualType
}

func (t Typed) QualType() types.QualType { return t.Typ }

// Tree is the lowered form of one module: an ordered sequence of top-level
// statements (var/func/enum/struct/type declarations), equivalent to the
// source's `IRTree`.
type Tree []Stmt

// ============================================================================
// Operators
// ============================================================================

// UnaryOp enumerates the prefix operators the builder's operator table is
// indexed by, decoupled from token.Kind so the emitter never needs to know
// about lexical syntax.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "not"
	case OpBNot:
		return "~"
	default:
		return "<unknown unary op>"
	}
}

// BinaryOp enumerates every infix operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpBAnd
	OpBOr
	OpBXor
	OpShl
	OpShr
	OpAnd
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpIs
)

func (op BinaryOp) String() string {
	names := [...]string{
		"+", "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>",
		"and", "or", "==", "!=", "<", "<=", ">", ">=", "is",
	}
	if int(op) < len(names) {
		return names[op]
	}

	return "<unknown binary op>"
}

// ============================================================================
// Constants
// ============================================================================

// ConstKind tags the variant held by a ConstValue.
type ConstKind uint8

const (
	ConstNil ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
)

// ConstValue is the sum `{nil, bool, int64, float64, interned-string}` used
// by the constant pool and ExprConstant (spec.md §3 "ConstValue").
type ConstValue struct {
	Kind ConstKind
	B    bool
	I    int64
	F    float64
	S    symbol.Symbol
}

// ============================================================================
// Expressions
// ============================================================================

// ExprConstant is a fully-evaluated compile-time constant: the result of
// lowering a literal, or an enum member reference (spec.md §4.4 desugars
// static enum access to its discriminant).
type ExprConstant struct {
	Base
	Typed
	Value ConstValue
}

func (*ExprConstant) exprNode() {}

// ExprSymbol is a local or parameter reference, resolved against the
// compile-time frame stack.
type ExprSymbol struct {
	Base
	Typed
	Symbol symbol.Symbol
}

func (*ExprSymbol) exprNode() {}

// AccessKind distinguishes `.` (dynamic/instance) from `::` (static/module)
// member access, mirroring ast.AccessKind one layer down.
type AccessKind uint8

const (
	Dynamic AccessKind = iota
	Static
)

// ExprAccess is a generic static or dynamic member access that did not
// resolve to a module export (spec.md §4.4: "otherwise it lowers to a
// generic ExprAccess").
type ExprAccess struct {
	Base
	Typed
	Kind  AccessKind
	Root  Expr
	Index symbol.Symbol
}

func (*ExprAccess) exprNode() {}

// ExprModuleAccess is `module::symbol` once the builder has confirmed Module
// names an imported module exporting Key (spec.md §4.4, §4.6).
type ExprModuleAccess struct {
	Base
	Typed
	Module symbol.Symbol
	Key    symbol.Symbol
}

func (*ExprModuleAccess) exprNode() {}

// ExprUnary is a prefix operator application.
type ExprUnary struct {
	Base
	Typed
	Op   UnaryOp
	Expr Expr
}

func (*ExprUnary) exprNode() {}

// ExprBinary is an infix operator application.
type ExprBinary struct {
	Base
	Typed
	Op       BinaryOp
	Lhs, Rhs Expr
}

func (*ExprBinary) exprNode() {}

// ExprCall is a function call, already arity/type-checked against the
// callee's FunctionType.
type ExprCall struct {
	Base
	Typed
	Callee Expr
	Args   []Expr
}

func (*ExprCall) exprNode() {}

// ExprSubscript is `lhs[rhs]`.
type ExprSubscript struct {
	Base
	Typed
	Lhs, Rhs Expr
}

func (*ExprSubscript) exprNode() {}

// ExprCast is `expr as Type`, already checked against types.QualType's
// CastResult.
type ExprCast struct {
	Base
	Expr Expr
	Cast types.QualType
}

func (e *ExprCast) QualType() types.QualType { return e.Cast }
func (*ExprCast) exprNode()                  {}

// ExprTernary is `lhs if cond else rhs`.
type ExprTernary struct {
	Base
	Typed
	Cond, Lhs, Rhs Expr
}

func (*ExprTernary) exprNode() {}

// ExprArray is an array literal with a uniform, already-checked element
// type.
type ExprArray struct {
	Base
	Typed
	Values []Expr
}

func (*ExprArray) exprNode() {}

// ExprTuple is a tuple literal. Lowered for structural completeness only;
// the VM's Value union has no tuple variant, so this never reaches the
// bytecode emitter without a diagnostic (spec.md §9 open questions).
type ExprTuple struct {
	Base
	Values []Expr
}

func (e *ExprTuple) QualType() types.QualType { return types.QualType{} }
func (*ExprTuple) exprNode()                  {}

// ExprLambda is an anonymous function literal. Like ExprTuple, it lowers
// but has no bytecode realization in this revision.
type ExprLambda struct {
	Base
	Return types.QualType
	Params []Parameter
	Body   []*Block
}

func (e *ExprLambda) QualType() types.QualType { return types.QualType{} }
func (*ExprLambda) exprNode()                  {}

// ============================================================================
// Statements
// ============================================================================

// Parameter is a single (symbol, type) pair in a function signature.
type Parameter struct {
	Symbol symbol.Symbol
	Type   types.QualType
}

// StmtVarDecl is a local variable binding.
type StmtVarDecl struct {
	Base
	Symbol symbol.Symbol
	Expr   Expr
	Type   types.QualType
	Const  bool
}

func (*StmtVarDecl) stmtNode() {}

// StmtAssign is a plain or compound assignment to an existing lvalue.
// Deviation: ir.hpp has no dedicated assignment node (the grounding source
// apparently folds it directly into emission); this package keeps it
// explicit so the bytecode emitter can pattern-match on IR alone rather
// than re-deriving lvalue-ness from the original AST.
type StmtAssign struct {
	Base
	Target Expr
	Value  Expr
}

func (*StmtAssign) stmtNode() {}

// FuncKind distinguishes an IR-backed function body from a native
// (host-provided) one (spec.md §4.6).
type FuncKind uint8

const (
	FuncIR FuncKind = iota
	FuncNative
)

// StmtFuncDecl is a function declaration. Blocks holds every basic block
// belonging to this function's body, entry block first, addressed by
// Block.ID from Branch/CondBranch terminators; nil for FuncNative.
type StmtFuncDecl struct {
	Base
	Kind   FuncKind
	Symbol symbol.Symbol
	Return types.QualType
	Params []Parameter
	Blocks []*Block
}

func (*StmtFuncDecl) stmtNode() {}

// RawInstruction is the fixed-width bytecode record (op, a, b, c), duplicated
// here rather than imported from pkg/bytecode to avoid an ir<->bytecode
// import cycle (bytecode lowers ir, not the reverse). It exists purely as an
// escape hatch for IR statements that should emit a specific opcode
// verbatim; nothing in this builder constructs one today.
type RawInstruction struct {
	Op   uint16
	A, B, C uint16
}

// StmtInstruction embeds a raw, pre-lowered instruction directly into the IR
// stream (spec.md §3 "Instruction (pre-lowered opcode)").
type StmtInstruction struct {
	Base
	Instr RawInstruction
}

func (*StmtInstruction) stmtNode() {}

// StmtExpr is an expression (always a call, per the parser's grammar)
// evaluated for effect.
type StmtExpr struct {
	Base
	Expr Expr
}

func (*StmtExpr) stmtNode() {}

// ============================================================================
// Basic blocks and terminators
// ============================================================================

// Block is a maximal straight-line IR statement sequence ending in exactly
// one terminator (spec.md §3, GLOSSARY "Basic block").
type Block struct {
	ID    uint32
	Stmts []Stmt
	Term  Term
}

// TrReturn ends a function's control path.
type TrReturn struct {
	Value    Expr // nil for a bare `return`
	Implicit bool
	Type     types.QualType
}

func (TrReturn) termNode() {}

// TrContinue and TrBreak are carried for structural completeness with
// ir.hpp; the current surface grammar has no `break`/`continue` keywords
// (the lexer's keyword table does not include them), so the builder never
// constructs these today.
type TrContinue struct{}

func (TrContinue) termNode() {}

type TrBreak struct{}

func (TrBreak) termNode() {}

// TrBranch is an unconditional jump to Target's block ID.
type TrBranch struct {
	Target uint32
}

func (TrBranch) termNode() {}

// TrCondBranch is a two-way conditional jump.
type TrCondBranch struct {
	Cond            Expr
	IfTrue, IfFalse uint32
}

func (TrCondBranch) termNode() {}
