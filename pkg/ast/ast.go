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

// Package ast defines the via abstract syntax tree: one tagged sum per
// syntactic category (Expr, Stmt, TypeExpr), each variant a concrete struct
// implementing the category's interface, dispatched by type switch rather
// than a class hierarchy (spec.md §3, §9 "re-architect as a single tagged
// sum per category").
package ast

import (
	"github.com/XnLogicaL/via-lang/pkg/source"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/token"
)

// Node is embedded by every AST node category and exposes the node's
// source span.
type Node interface {
	Loc() source.Loc
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// TypeExpr is implemented by every syntactic type node (as written in
// source, before the IR builder resolves it to a types.QualType).
type TypeExpr interface {
	Node
	typeNode()
}

// Base carries the span common to every node; embedded, not used directly.
type Base struct {
	Span source.Loc
}

func (b Base) Loc() source.Loc { return b.Span }

// Tree is the parsed form of one source file: an ordered sequence of
// top-level statements, equivalent to the source's `SyntaxTree`.
type Tree []Stmt

// Parameter is a single (name, type) pair in a function/lambda signature.
type Parameter struct {
	Base
	Name symbol.Symbol
	Type TypeExpr
}

// Scope is a brace-delimited statement sequence, the body of a loop,
// branch, or bare `do` block.
type Scope struct {
	Base
	Stmts []Stmt
}

// ============================================================================
// Expressions
// ============================================================================

// ExprLiteral is an int/float/string/bool/nil literal token. Text is the
// literal's source lexeme, captured at parse time so rendering does not
// need access to the originating source.Buffer.
type ExprLiteral struct {
	Base
	Tok  token.Token
	Text string
}

func (*ExprLiteral) exprNode() {}

// ExprSymbol is a bare identifier reference.
type ExprSymbol struct {
	Base
	Name symbol.Symbol
}

func (*ExprSymbol) exprNode() {}

// AccessKind distinguishes `.` (dynamic/instance) from `::` (static/module)
// member access.
type AccessKind uint8

// The two access kinds.
const (
	Dynamic AccessKind = iota
	Static
)

// ExprAccess is a `root.index` or `root::index` member access.
type ExprAccess struct {
	Base
	Root  Expr
	Index symbol.Symbol
	Kind  AccessKind
}

func (*ExprAccess) exprNode() {}

// ExprUnary is a prefix `-`, `~`, `not`, or `&` application.
type ExprUnary struct {
	Base
	Op   token.Kind
	Expr Expr
}

func (*ExprUnary) exprNode() {}

// ExprBinary is a binary operator application.
type ExprBinary struct {
	Base
	Op       token.Kind
	Lhs, Rhs Expr
}

func (*ExprBinary) exprNode() {}

// ExprGroup is a parenthesized expression, kept distinct from its inner
// expression so re-rendered source preserves the parens.
type ExprGroup struct {
	Base
	Expr Expr
}

func (*ExprGroup) exprNode() {}

// ExprCall is a function call.
type ExprCall struct {
	Base
	Callee Expr
	Args   []Expr
}

func (*ExprCall) exprNode() {}

// ExprSubscript is an `lhs[rhs]` index operation.
type ExprSubscript struct {
	Base
	Lhs, Rhs Expr
}

func (*ExprSubscript) exprNode() {}

// ExprCast is an `expr as Type` cast.
type ExprCast struct {
	Base
	Expr Expr
	Type TypeExpr
}

func (*ExprCast) exprNode() {}

// ExprTernary is `lhs if cond else rhs`.
type ExprTernary struct {
	Base
	Cond, Lhs, Rhs Expr
}

func (*ExprTernary) exprNode() {}

// ExprArray is an array literal.
type ExprArray struct {
	Base
	Values []Expr
}

func (*ExprArray) exprNode() {}

// ExprTuple is a tuple literal. Parses but has no bytecode lowering
// (spec.md §9 open questions: left as an "unimplemented" trap).
type ExprTuple struct {
	Base
	Values []Expr
}

func (*ExprTuple) exprNode() {}

// ExprLambda is an anonymous function literal. Parses but has no bytecode
// lowering (spec.md §9 open questions: left as an "unimplemented" trap).
type ExprLambda struct {
	Base
	Return TypeExpr
	Params []*Parameter
	Body   *Scope
}

func (*ExprLambda) exprNode() {}

// ============================================================================
// Statements
// ============================================================================

// StmtVarDecl is a `var name[: Type] = rval` declaration.
type StmtVarDecl struct {
	Base
	Name  symbol.Symbol
	Type  TypeExpr // nil when the type is inferred from Rval
	Rval  Expr
	Const bool
}

func (*StmtVarDecl) stmtNode() {}

// StmtScope is a bare `do { ... }` scope.
type StmtScope struct {
	Base
	Body *Scope
}

func (*StmtScope) stmtNode() {}

// IfBranch is one arm of an if-chain; Cond is nil for the trailing `else`.
type IfBranch struct {
	Cond Expr
	Body *Scope
}

// StmtIf is an `if`/`else if`/`else` chain.
type StmtIf struct {
	Base
	Branches []IfBranch
}

func (*StmtIf) stmtNode() {}

// StmtFor is a counting `for var x = e1, e2, e3 { ... }` loop.
type StmtFor struct {
	Base
	Init   *StmtVarDecl
	Target Expr // loop bound
	Step   Expr // per-iteration step; nil means default step of 1
	Body   *Scope
}

func (*StmtFor) stmtNode() {}

// StmtForEach is an iterator `for x in e { ... }` loop.
type StmtForEach struct {
	Base
	Name symbol.Symbol
	Expr Expr
	Body *Scope
}

func (*StmtForEach) stmtNode() {}

// StmtWhile is a `while cond { ... }` loop.
type StmtWhile struct {
	Base
	Cond Expr
	Body *Scope
}

func (*StmtWhile) stmtNode() {}

// StmtAssign is a plain or compound assignment.
type StmtAssign struct {
	Base
	Op   token.Kind
	Lval Expr
	Rval Expr
}

func (*StmtAssign) stmtNode() {}

// StmtReturn is a `return [expr]` statement.
type StmtReturn struct {
	Base
	Expr Expr // nil for a bare `return`
}

func (*StmtReturn) stmtNode() {}

// EnumPair is one `Name[= expr]` member of an enum declaration.
type EnumPair struct {
	Name symbol.Symbol
	Expr Expr // nil when the discriminant is implicit
}

// StmtEnum is an `enum Name [of Type] { ... }` declaration.
type StmtEnum struct {
	Base
	Name  symbol.Symbol
	Type  TypeExpr // nil for the default underlying type
	Pairs []EnumPair
}

func (*StmtEnum) stmtNode() {}

// StmtImport is an `import a::b::c` declaration.
type StmtImport struct {
	Base
	Path symbol.QualName
}

func (*StmtImport) stmtNode() {}

// StmtFunctionDecl is a `fn name(params) -> Type { ... }` declaration.
type StmtFunctionDecl struct {
	Base
	Name   symbol.Symbol
	Return TypeExpr
	Params []*Parameter
	Body   *Scope
}

func (*StmtFunctionDecl) stmtNode() {}

// StmtStructDecl is a `struct Name { ... }` declaration.
type StmtStructDecl struct {
	Base
	Name symbol.Symbol
	Body *Scope
}

func (*StmtStructDecl) stmtNode() {}

// StmtTypeDecl is a `type Name = Type` alias declaration.
type StmtTypeDecl struct {
	Base
	Name symbol.Symbol
	Type TypeExpr
}

func (*StmtTypeDecl) stmtNode() {}

// StmtEmpty is a bare `;`.
type StmtEmpty struct {
	Base
}

func (*StmtEmpty) stmtNode() {}

// StmtExpr is an expression used as a statement.
type StmtExpr struct {
	Base
	Expr Expr
}

func (*StmtExpr) stmtNode() {}

// ============================================================================
// Syntactic types
// ============================================================================

// TypeQualifier is the set of `const`/`strong`/`&` prefixes collected by
// parse_type before the primary type, mirroring types.Qualifier one syntax
// layer down (the IR builder is what maps this onto types.QualType).
type TypeQualifier uint8

// The three syntactic qualifier bits.
const (
	QualConst TypeQualifier = 1 << iota
	QualStrong
	QualReference
)

// TypeBuiltin names one of the builtin type keywords or a bare identifier
// resolved later to a user type.
type TypeBuiltin struct {
	Base
	Name  symbol.Symbol
	Quals TypeQualifier
}

func (*TypeBuiltin) typeNode() {}

// TypeOptional is `T?`. The surface grammar has no production that emits
// this node today (neither spec.md nor the grounding source gives Optional
// a written syntax); it exists so the IR builder can still represent an
// optional-typed expression internally without special-casing TypeExpr.
type TypeOptional struct {
	Base
	Inner TypeExpr
	Quals TypeQualifier
}

func (*TypeOptional) typeNode() {}

// TypeArray is `[T]`.
type TypeArray struct {
	Base
	Elem  TypeExpr
	Quals TypeQualifier
}

func (*TypeArray) typeNode() {}

// TypeMap is `{K: V}`.
type TypeMap struct {
	Base
	Key, Value TypeExpr
	Quals      TypeQualifier
}

func (*TypeMap) typeNode() {}

// TypeFunc is `fn (params) -> T`.
type TypeFunc struct {
	Base
	Return TypeExpr
	Params []*Parameter
	Quals  TypeQualifier
}

func (*TypeFunc) typeNode() {}

// NewBase constructs the embeddable span carrier for a node at loc. Exists
// so parser code can write `Base: ast.NewBase(loc)` when building a
// composite literal field-by-field.
func NewBase(loc source.Loc) Base { return Base{Span: loc} }

// IsLvalue reports whether expr may appear on the left of an assignment:
// a bare symbol, a dynamic/static access, or a subscript.
func IsLvalue(expr Expr) bool {
	switch expr.(type) {
	case *ExprSymbol, *ExprAccess, *ExprSubscript:
		return true
	default:
		return false
	}
}
