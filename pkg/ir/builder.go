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
package ir

import (
	"fmt"

	"github.com/XnLogicaL/via-lang/pkg/ast"
	"github.com/XnLogicaL/via-lang/pkg/diag"
	"github.com/XnLogicaL/via-lang/pkg/source"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/token"
	"github.com/XnLogicaL/via-lang/pkg/types"
	"github.com/XnLogicaL/via-lang/pkg/util/collection/stack"
)

// ModuleHandle is what a ModuleEnv hands back for a resolved import: enough
// of the importee's DefTable for static-access type checking and call
// checking, without pkg/ir needing to import pkg/module (which itself
// drives this builder — importing it back would cycle).
type ModuleHandle struct {
	Name    symbol.Symbol
	Exports map[symbol.Symbol]types.QualType
}

// ModuleEnv is the narrow surface the builder needs from a module manager to
// resolve `import` statements and `module::symbol` static access (spec.md
// §4.4's "calls Module::import(qual_name, ast_node)", §4.5). A nil ModuleEnv
// is valid for programs that never import anything.
type ModuleEnv interface {
	Import(path symbol.QualName, from source.Loc) (*ModuleHandle, error)
}

// Def is what the builder records for each top-level declaration it
// lowers, the raw material for pkg/module's per-module DefTable (spec.md §3
// "Definition (Def)").
type Def struct {
	Symbol symbol.Symbol
	Type   types.QualType
	Func   *StmtFuncDecl // nil for a value/enum-member def
	Const  *ConstValue   // nil for a function def
}

// local is a compile-time frame entry: the compiled-time description of one
// name visible in the current scope (spec.md §3 "Stack frame").
type local struct {
	symbol symbol.Symbol
	typ    types.QualType
	slot   int
	mut    bool
}

type frame = map[symbol.Symbol]*local

// Builder lowers one module's ast.Tree into an ir.Tree, performing name
// resolution, type inference/checking and control-flow lowering in a single
// pass (spec.md §4.4). Zero value is not usable; construct with New.
type Builder struct {
	buf   *source.Buffer
	diags *diag.Context
	ctx   *types.Context
	env   ModuleEnv

	frames *stack.Stack[frame]
	slot   int

	poisoned map[symbol.Symbol]bool
	typeDecls map[symbol.Symbol]types.Type
	enumMembers map[symbol.Symbol]map[symbol.Symbol]ConstValue
	structFields map[symbol.Symbol]map[symbol.Symbol]types.QualType

	imports      map[symbol.Symbol]*ModuleHandle
	importedAt   map[symbol.Symbol]source.Loc
	inFunction   bool
	funcRet      *stack.Stack[types.QualType]

	current *Block
	blocks  []*Block
	blockID uint32

	defs []Def
}

// New constructs a Builder for one module. ctx is the build's shared type
// context (spec.md §4.3); env resolves imports and may be nil.
func New(buf *source.Buffer, diags *diag.Context, ctx *types.Context, env ModuleEnv) *Builder {
	return &Builder{
		buf:          buf,
		diags:        diags,
		ctx:          ctx,
		env:          env,
		frames:       stack.NewStack[frame](),
		poisoned:     make(map[symbol.Symbol]bool),
		typeDecls:    make(map[symbol.Symbol]types.Type),
		enumMembers:  make(map[symbol.Symbol]map[symbol.Symbol]ConstValue),
		structFields: make(map[symbol.Symbol]map[symbol.Symbol]types.QualType),
		imports:      make(map[symbol.Symbol]*ModuleHandle),
		importedAt:   make(map[symbol.Symbol]source.Loc),
		funcRet:      stack.NewStack[types.QualType](),
	}
}

// Defs returns every top-level definition lowered by the most recent Build
// call, for pkg/module to fold into the module's DefTable.
func (b *Builder) Defs() []Def { return b.defs }

// poisonSymbol marks sym as already diagnosed, suppressing cascading errors
// from later references to it (spec.md GLOSSARY "Poisoned symbol").
func (b *Builder) poisonSymbol(sym symbol.Symbol) { b.poisoned[sym] = true }
func (b *Builder) isPoisoned(sym symbol.Symbol) bool { return b.poisoned[sym] }

func (b *Builder) pushFrame() { b.frames.Push(make(frame)) }
func (b *Builder) popFrame()  { b.frames.Pop() }

func (b *Builder) bindLocal(sym symbol.Symbol, typ types.QualType, mut bool) *local {
	l := &local{symbol: sym, typ: typ, slot: b.slot, mut: mut}
	b.slot++

	top := b.frames.Peek(0)
	top[sym] = l

	return l
}

// lookupLocal walks the frame stack from innermost to outermost.
func (b *Builder) lookupLocal(sym symbol.Symbol) (*local, bool) {
	for i := uint(0); i < b.frames.Len(); i++ {
		if l, ok := b.frames.Peek(i)[sym]; ok {
			return l, true
		}
	}

	return nil, false
}

func hint(text string) *diag.Footnote    { return &diag.Footnote{Kind: diag.Hint, Text: text} }
func note(text string) *diag.Footnote    { return &diag.Footnote{Kind: diag.Note, Text: text} }
func suggest(text string) *diag.Footnote { return &diag.Footnote{Kind: diag.Suggestion, Text: text} }

// ============================================================================
// Entry point
// ============================================================================

// Build lowers tree into an ir.Tree. Top-level functions are forward
// declared before any body is lowered, so mutual recursion and
// out-of-order calls resolve.
func (b *Builder) Build(tree ast.Tree) Tree {
	b.pushFrame()
	defer b.popFrame()

	for _, s := range tree {
		if fn, ok := s.(*ast.StmtFunctionDecl); ok {
			b.forwardDeclareFunc(fn)
		}
	}

	b.current = &Block{ID: 0}

	for _, s := range tree {
		b.lowerTopStmt(s)
	}

	return Tree(b.current.Stmts)
}

func (b *Builder) forwardDeclareFunc(fn *ast.StmtFunctionDecl) {
	if fn.Return == nil {
		b.diags.EmitError(fn.Loc(), "inferred function return types are not supported", nil)
		return
	}

	ret := b.resolveType(fn.Return)
	params := make([]types.QualType, len(fn.Params))

	for i, p := range fn.Params {
		params[i] = b.resolveType(p.Type)
	}

	ft := types.New(b.ctx.Function(ret, params))
	b.bindLocal(fn.Name, ft, false)
}

// lowerTopStmt lowers a module-level statement directly into the builder's
// single top-level pseudo block. Control flow is not meaningful outside a
// function body, so if/while/for are rejected here rather than silently
// producing unreachable blocks.
func (b *Builder) lowerTopStmt(s ast.Stmt) {
	switch s.(type) {
	case *ast.StmtIf, *ast.StmtWhile, *ast.StmtFor, *ast.StmtForEach:
		b.diags.EmitError(s.Loc(), "control flow is not allowed outside a function body", nil)
		return
	}

	b.lowerStmt(s)
}

// ============================================================================
// Types
// ============================================================================

func (b *Builder) qualsOf(q ast.TypeQualifier) types.Qualifier {
	var out types.Qualifier

	if q&ast.QualConst != 0 {
		out |= types.Const
	}

	if q&ast.QualStrong != 0 {
		out |= types.Strong
	}

	if q&ast.QualReference != 0 {
		out |= types.Reference
	}

	return out
}

// resolveType turns a syntactic ast.TypeExpr into a canonical types.QualType,
// looking up bare identifiers against the five builtins and then the
// module's user-type declarations (spec.md §4.3).
func (b *Builder) resolveType(t ast.TypeExpr) types.QualType {
	switch t := t.(type) {
	case *ast.TypeBuiltin:
		name := symbol.Text(t.Name)

		var base types.Type

		switch name {
		case "nil":
			base = b.ctx.Builtin(types.Nil)
		case "bool":
			base = b.ctx.Builtin(types.Bool)
		case "int":
			base = b.ctx.Builtin(types.Int)
		case "float":
			base = b.ctx.Builtin(types.Float)
		case "string":
			base = b.ctx.Builtin(types.String)
		default:
			ut, ok := b.typeDecls[t.Name]
			if !ok {
				b.diags.EmitError(t.Loc(), fmt.Sprintf("undefined type %q", name), nil)
				return types.QualType{}
			}

			base = ut
		}

		qt := types.WithQuals(base, b.qualsOf(t.Quals))
		if !qt.Valid() {
			b.diags.EmitError(t.Loc(), "'strong' qualifier requires '&'", hint("add '&' before the type"))
		}

		return qt
	case *ast.TypeArray:
		elem := b.resolveType(t.Elem)
		return types.WithQuals(b.ctx.Array(elem), b.qualsOf(t.Quals))
	case *ast.TypeMap:
		key := b.resolveType(t.Key)
		val := b.resolveType(t.Value)

		return types.WithQuals(b.ctx.Map(key, val), b.qualsOf(t.Quals))
	case *ast.TypeFunc:
		ret := b.resolveType(t.Return)
		params := make([]types.QualType, len(t.Params))

		for i, p := range t.Params {
			params[i] = b.resolveType(p.Type)
		}

		return types.WithQuals(b.ctx.Function(ret, params), b.qualsOf(t.Quals))
	case *ast.TypeOptional:
		inner := b.resolveType(t.Inner)
		return types.WithQuals(b.ctx.Optional(inner), b.qualsOf(t.Quals))
	default:
		panic(fmt.Sprintf("ir: unhandled ast.TypeExpr %T", t))
	}
}

// declRef adapts an interned symbol name to types.Decl, so that struct/enum
// declarations can be registered as types.UserType without pkg/types
// depending on pkg/ast (see pkg/types' own Decl doc comment).
type declRef struct{ name string }

func (d declRef) DeclName() string { return d.name }

// ============================================================================
// Statements
// ============================================================================

// emit appends stmt to the current block.
func (b *Builder) emit(stmt Stmt) { b.current.Stmts = append(b.current.Stmts, stmt) }

func (b *Builder) newBlock() *Block {
	blk := &Block{ID: b.blockID}
	b.blockID++
	b.blocks = append(b.blocks, blk)

	return blk
}

// lowerScope lowers every statement of an ast.Scope into the current block,
// stopping (with a diagnostic) at the first statement following one that
// already terminated the block — spec.md §9's open question on
// unreachable-after-return is resolved here in favor of a warning.
func (b *Builder) lowerScope(scope *ast.Scope) {
	for _, s := range scope.Stmts {
		if b.current.Term != nil {
			b.diags.EmitWarning(s.Loc(), "unreachable statement", nil)
			return
		}

		b.lowerStmt(s)
	}
}

func (b *Builder) lowerStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.StmtVarDecl:
		b.lowerVarDecl(s)
	case *ast.StmtAssign:
		b.lowerAssign(s)
	case *ast.StmtScope:
		b.lowerScope(s.Body)
	case *ast.StmtIf:
		b.lowerIf(s)
	case *ast.StmtWhile:
		b.lowerWhile(s)
	case *ast.StmtFor:
		b.lowerFor(s)
	case *ast.StmtForEach:
		b.lowerForEach(s)
	case *ast.StmtReturn:
		b.lowerReturn(s)
	case *ast.StmtEnum:
		b.lowerEnum(s)
	case *ast.StmtStructDecl:
		b.lowerStruct(s)
	case *ast.StmtTypeDecl:
		b.typeDecls[s.Name] = b.resolveType(s.Type).Type
	case *ast.StmtImport:
		b.lowerImport(s)
	case *ast.StmtFunctionDecl:
		b.lowerFuncDecl(s)
	case *ast.StmtExpr:
		expr, _ := b.lowerExpr(s.Expr)
		b.emit(&StmtExpr{Base: Base{s.Loc()}, Expr: expr})
	case *ast.StmtEmpty:
		// nothing to lower
	default:
		panic(fmt.Sprintf("ir: unhandled ast.Stmt %T", s))
	}
}

func (b *Builder) lowerVarDecl(s *ast.StmtVarDecl) {
	rval, rtyp := b.lowerExpr(s.Rval)

	typ := rtyp
	if s.Type != nil {
		typ = b.resolveType(s.Type)

		if typ.Type != nil && rtyp.Type != nil && rtyp.CastResult(typ) == types.INVALID {
			b.diags.EmitError(s.Rval.Loc(),
				fmt.Sprintf("cannot initialize variable of type '%s' with a value of type '%s'", typ, rtyp), nil)
		}
	}

	b.bindLocal(s.Name, typ, !s.Const)
	b.emit(&StmtVarDecl{Base: Base{s.Loc()}, Symbol: s.Name, Expr: rval, Type: typ, Const: s.Const})
}

func (b *Builder) lowerAssign(s *ast.StmtAssign) {
	if !ast.IsLvalue(s.Lval) {
		b.diags.EmitError(s.Lval.Loc(), "left side of assignment is not assignable", nil)
		return
	}

	target, ttyp := b.lowerExpr(s.Lval)
	value, vtyp := b.lowerExpr(s.Rval)

	if sym, ok := s.Lval.(*ast.ExprSymbol); ok {
		if l, found := b.lookupLocal(sym.Name); found && !l.mut {
			b.diags.EmitError(s.Loc(), fmt.Sprintf("cannot assign to const variable '%s'", symbol.Text(sym.Name)), nil)
		}
	}

	if s.Op != token.ASSIGN {
		// Compound assignment (+=, -=, ...) folds to a binary op against the
		// current value; the IR keeps this explicit rather than desugaring
		// to a second ExprBinary node, so the emitter sees one StmtAssign.
		op, ok := compoundOp(s.Op)
		if ok && ttyp.Type != nil && vtyp.Type != nil {
			info, known := binaryOpTable[op]
			if known && !info.isValid(ttyp.Type, vtyp.Type) {
				b.diags.EmitError(s.Loc(), fmt.Sprintf("invalid operand types for '%s'", s.Op), nil)
			}
		}
	} else if ttyp.Type != nil && vtyp.Type != nil && vtyp.CastResult(ttyp) == types.INVALID {
		b.diags.EmitError(s.Rval.Loc(), fmt.Sprintf("cannot assign value of type '%s' to '%s'", vtyp, ttyp), nil)
	}

	b.emit(&StmtAssign{Base: Base{s.Loc()}, Target: target, Value: value})
}

func compoundOp(k token.Kind) (BinaryOp, bool) {
	switch k {
	case token.PLUSEQ:
		return OpAdd, true
	case token.MINUSEQ:
		return OpSub, true
	case token.STAREQ:
		return OpMul, true
	case token.SLASHEQ:
		return OpDiv, true
	case token.PERCENTEQ:
		return OpMod, true
	case token.STARSTAREQ:
		return OpPow, true
	case token.AMPEQ:
		return OpBAnd, true
	case token.PIPEEQ:
		return OpBOr, true
	case token.CARETEQ:
		return OpBXor, true
	case token.SHLEQ:
		return OpShl, true
	case token.SHREQ:
		return OpShr, true
	default:
		return 0, false
	}
}

// lowerIf implements spec.md §4.4's if-chain lowering: a cond block per
// conditional branch, a then block per branch, and a shared merge block
// that every branch falls through to once its body is lowered.
func (b *Builder) lowerIf(s *ast.StmtIf) {
	merge := b.newBlock()
	next := b.current

	for i, branch := range s.Branches {
		thenBlk := b.newBlock()

		if branch.Cond != nil {
			b.current = next

			cond, ctyp := b.lowerExpr(branch.Cond)
			if ctyp.Type != nil && !isBool(ctyp.Type) {
				b.diags.EmitError(branch.Cond.Loc(), "condition must be of type 'bool'", nil)
			}

			var after *Block
			if i == len(s.Branches)-1 {
				after = merge
			} else {
				after = b.newBlock()
			}

			next.Term = TrCondBranch{Cond: cond, IfTrue: thenBlk.ID, IfFalse: after.ID}
			next = after
		} else {
			next.Term = TrBranch{Target: thenBlk.ID}
		}

		b.current = thenBlk
		b.lowerScope(branch.Body)

		if b.current.Term == nil {
			b.current.Term = TrBranch{Target: merge.ID}
		}
	}

	b.current = merge
}

func isBool(t types.Type) bool {
	b, ok := t.(*types.BuiltinType)
	return ok && b.Kind == types.Bool
}

// lowerWhile implements spec.md §4.4's three-block (cond, body, merge)
// while lowering.
func (b *Builder) lowerWhile(s *ast.StmtWhile) {
	cond := b.newBlock()
	body := b.newBlock()
	merge := b.newBlock()

	b.current.Term = TrBranch{Target: cond.ID}
	b.current = cond

	condExpr, ctyp := b.lowerExpr(s.Cond)
	if ctyp.Type != nil && !isBool(ctyp.Type) {
		b.diags.EmitError(s.Cond.Loc(), "condition must be of type 'bool'", nil)
	}

	cond.Term = TrCondBranch{Cond: condExpr, IfTrue: body.ID, IfFalse: merge.ID}
	b.current = body
	b.lowerScope(s.Body)

	if b.current.Term == nil {
		b.current.Term = TrBranch{Target: cond.ID}
	}

	b.current = merge
}

// lowerFor lowers a counting `for var i = init, target, step { ... }` loop
// into an init + (cond, body, merge) triple, desugaring the per-iteration
// step into an implicit StmtAssign at the end of the body. spec.md does not
// literally spell out the comparison/step opcodes for counting for; this
// mirrors the conventional index-loop desugaring (i < target; i += step)
// the grounding source's lowering and spec.md's §4.4 both gesture at
// without pinning down.
func (b *Builder) lowerFor(s *ast.StmtFor) {
	b.pushFrame()
	defer b.popFrame()

	b.lowerVarDecl(s.Init)

	target, _ := b.lowerExpr(s.Target)

	var step Expr
	if s.Step != nil {
		step, _ = b.lowerExpr(s.Step)
	} else {
		step = &ExprConstant{Typed: Typed{types.New(b.ctx.Builtin(types.Int))}, Value: ConstValue{Kind: ConstInt, I: 1}}
	}

	cond := b.newBlock()
	body := b.newBlock()
	merge := b.newBlock()

	b.current.Term = TrBranch{Target: cond.ID}
	b.current = cond

	loopVar, _ := b.lookupLocal(s.Init.Name)
	loopSym := &ExprSymbol{Typed: Typed{loopVar.typ}, Symbol: s.Init.Name}

	cmp := &ExprBinary{Typed: Typed{types.New(b.ctx.Builtin(types.Bool))}, Op: OpLt, Lhs: loopSym, Rhs: target}
	cond.Term = TrCondBranch{Cond: cmp, IfTrue: body.ID, IfFalse: merge.ID}

	b.current = body
	b.lowerScope(s.Body)

	if b.current.Term == nil {
		incType := loopVar.typ
		next := &ExprBinary{Typed: Typed{incType}, Op: OpAdd, Lhs: loopSym, Rhs: step}
		b.emit(&StmtAssign{Target: loopSym, Value: next})
		b.current.Term = TrBranch{Target: cond.ID}
	}

	b.current = merge
}

// lowerForEach lowers `for x in e { ... }` over an array operand into an
// index-loop that subscripts the array each iteration. via's data model has
// no separate iterator protocol (spec.md describes no such abstraction), so
// this is restricted to Array(T) operands, diagnosing anything else.
func (b *Builder) lowerForEach(s *ast.StmtForEach) {
	iterable, ityp := b.lowerExpr(s.Expr)

	arr, ok := ityp.Type.(*types.ArrayType)
	if !ok {
		if ityp.Type != nil {
			b.diags.EmitError(s.Expr.Loc(), fmt.Sprintf("'for ... in' requires an array operand, got '%s'", ityp), nil)
		}

		return
	}

	b.pushFrame()
	defer b.popFrame()

	idxSym := symbol.Intern(fmt.Sprintf("$foreach_idx_%d", b.blockID))
	intTyp := types.New(b.ctx.Builtin(types.Int))

	zero := &ExprConstant{Typed: Typed{intTyp}, Value: ConstValue{Kind: ConstInt, I: 0}}
	b.bindLocal(idxSym, intTyp, true)
	b.emit(&StmtVarDecl{Symbol: idxSym, Expr: zero, Type: intTyp})

	lenExpr := &ExprCall{
		Typed:  Typed{intTyp},
		Callee: &ExprSymbol{Typed: Typed{types.QualType{}}, Symbol: symbol.Intern("len")},
		Args:   []Expr{iterable},
	}

	cond := b.newBlock()
	body := b.newBlock()
	merge := b.newBlock()

	b.current.Term = TrBranch{Target: cond.ID}
	b.current = cond

	idx := &ExprSymbol{Typed: Typed{intTyp}, Symbol: idxSym}
	cmp := &ExprBinary{Typed: Typed{types.New(b.ctx.Builtin(types.Bool))}, Op: OpLt, Lhs: idx, Rhs: lenExpr}
	cond.Term = TrCondBranch{Cond: cmp, IfTrue: body.ID, IfFalse: merge.ID}

	b.current = body

	elem := &ExprSubscript{Typed: Typed{arr.Elem}, Lhs: iterable, Rhs: idx}
	b.bindLocal(s.Name, arr.Elem, false)
	b.emit(&StmtVarDecl{Symbol: s.Name, Expr: elem, Type: arr.Elem})

	b.lowerScope(s.Body)

	if b.current.Term == nil {
		one := &ExprConstant{Typed: Typed{intTyp}, Value: ConstValue{Kind: ConstInt, I: 1}}
		next := &ExprBinary{Typed: Typed{intTyp}, Op: OpAdd, Lhs: idx, Rhs: one}
		b.emit(&StmtAssign{Target: idx, Value: next})
		b.current.Term = TrBranch{Target: cond.ID}
	}

	b.current = merge
}

func (b *Builder) lowerReturn(s *ast.StmtReturn) {
	var (
		value Expr
		typ   types.QualType
	)

	if s.Expr != nil {
		value, typ = b.lowerExpr(s.Expr)
	} else {
		typ = types.New(b.ctx.Builtin(types.Nil))
	}

	if b.funcRet.Len() > 0 {
		want := b.funcRet.Peek(0)
		if want.Type != nil && typ.Type != nil && typ != want {
			b.diags.EmitError(s.Loc(),
				fmt.Sprintf("returned type '%s' does not match declared return type '%s'", typ, want), nil)
		}
	}

	b.current.Term = TrReturn{Value: value, Type: typ}
}

// lowerEnum registers Name as a UserType and each pair as a compile-time
// constant; enums have no runtime IR node (ir.hpp's catalogue has none),
// since `A::B` desugars directly to the member's ConstValue at the access
// site (see lowerAccess).
func (b *Builder) lowerEnum(s *ast.StmtEnum) {
	ut := b.ctx.User(declRef{symbol.Text(s.Name)})
	b.typeDecls[s.Name] = ut

	underlying := types.New(b.ctx.Builtin(types.Int))
	if s.Type != nil {
		underlying = b.resolveType(s.Type)
	}

	members := make(map[symbol.Symbol]ConstValue, len(s.Pairs))

	var next int64

	for _, pair := range s.Pairs {
		val := next

		if pair.Expr != nil {
			if lit, ok := pair.Expr.(*ast.ExprLiteral); ok && lit.Tok.Kind == token.INT {
				fmt.Sscanf(lit.Text, "%d", &val)
			}
		}

		members[pair.Name] = ConstValue{Kind: ConstInt, I: val}
		next = val + 1

		b.defs = append(b.defs, Def{
			Symbol: pair.Name,
			Type:   underlying,
			Const:  &ConstValue{Kind: ConstInt, I: val},
		})
	}

	b.enumMembers[s.Name] = members
}

// lowerStruct registers Name as a UserType and records each field's
// inferred type (from its default initializer) for later dynamic-access
// type checking. Structs carry no runtime Value representation in this
// revision (spec.md §3's Value union is closed over
// {nil,bool,int64,float64,cstring,closure}), so, like ExprTuple/ExprLambda,
// struct instantiation is a parse/type-check-only feature; the bytecode
// emitter diagnoses any attempt to construct or pass one as "unimplemented".
func (b *Builder) lowerStruct(s *ast.StmtStructDecl) {
	ut := b.ctx.User(declRef{symbol.Text(s.Name)})
	b.typeDecls[s.Name] = ut

	fields := make(map[symbol.Symbol]types.QualType)

	for _, stmt := range s.Body.Stmts {
		vd, ok := stmt.(*ast.StmtVarDecl)
		if !ok {
			continue
		}

		_, typ := b.lowerExpr(vd.Rval)
		if vd.Type != nil {
			typ = b.resolveType(vd.Type)
		}

		fields[vd.Name] = typ
	}

	b.structFields[s.Name] = fields
}

// lowerImport resolves an `import` through the ModuleEnv (spec.md §4.4,
// §4.5). Imports have no runtime IR node: cross-module access resolves to
// GETIMPORT purely from the module/key symbol IDs recorded here.
func (b *Builder) lowerImport(s *ast.StmtImport) {
	if b.inFunction {
		b.diags.EmitError(s.Loc(), "import statements may not appear nested inside a function body", nil)
		return
	}

	alias := s.Path.Last()

	if prior, ok := b.importedAt[alias]; ok {
		b.diags.EmitError(s.Loc(), fmt.Sprintf("duplicate import of '%s'", s.Path), nil)
		b.diags.EmitInfo(prior, "first imported here")

		return
	}

	b.importedAt[alias] = s.Loc()

	if b.env == nil {
		b.diags.EmitError(s.Loc(), fmt.Sprintf("cannot resolve import '%s': no module environment configured", s.Path), nil)
		return
	}

	handle, err := b.env.Import(s.Path, s.Loc())
	if err != nil {
		b.diags.EmitError(s.Loc(), err.Error(), nil)
		return
	}

	b.imports[alias] = handle
}

func (b *Builder) lowerFuncDecl(s *ast.StmtFunctionDecl) {
	if s.Return == nil {
		b.diags.EmitError(s.Loc(), "inferred function return types are not supported", nil)
		return
	}

	ret := b.resolveType(s.Return)
	params := make([]Parameter, len(s.Params))
	paramTypes := make([]types.QualType, len(s.Params))

	for i, p := range s.Params {
		ptyp := b.resolveType(p.Type)
		params[i] = Parameter{Symbol: p.Name, Type: ptyp}
		paramTypes[i] = ptyp
	}

	// Already forward-declared at module scope in Build; re-binding here is
	// a no-op for top-level functions and the only binding for a nested one.
	if _, ok := b.lookupLocal(s.Name); !ok {
		b.bindLocal(s.Name, types.New(b.ctx.Function(ret, paramTypes)), false)
	}

	savedBlocks, savedID, savedCurrent := b.blocks, b.blockID, b.current
	b.blocks, b.blockID = nil, 0

	wasInFunction := b.inFunction
	b.inFunction = true
	b.funcRet.Push(ret)
	b.pushFrame()

	for _, p := range params {
		b.bindLocal(p.Symbol, p.Type, false)
	}

	entry := b.newBlock()
	b.current = entry
	b.lowerScope(s.Body)

	if b.current.Term == nil {
		implicitNil := types.New(b.ctx.Builtin(types.Nil))

		if ret.Type != nil && implicitNil.Type != nil && ret != implicitNil {
			b.diags.EmitError(s.Body.Loc(),
				fmt.Sprintf("not every control path returns a value of declared type '%s'", ret),
				note("implicit return here"))
		}

		b.current.Term = TrReturn{Value: nil, Implicit: true, Type: implicitNil}
	}

	b.checkTerminated()

	funcBlocks := b.blocks

	b.popFrame()
	b.funcRet.Pop()
	b.inFunction = wasInFunction
	b.blocks, b.blockID, b.current = savedBlocks, savedID, savedCurrent

	decl := &StmtFuncDecl{Base: Base{s.Loc()}, Kind: FuncIR, Symbol: s.Name, Return: ret, Params: params, Blocks: funcBlocks}
	b.emit(decl)
	b.defs = append(b.defs, Def{Symbol: s.Name, Type: types.New(b.ctx.Function(ret, paramTypes)), Func: decl})
}

// checkTerminated is a builder-internal sanity check (testable property #4:
// every branch target is reachable, every block has exactly one
// terminator), not a user-facing diagnostic: a nil Term or dangling target
// here means a bug in this package, not in the program being compiled.
func (b *Builder) checkTerminated() {
	byID := make(map[uint32]*Block, len(b.blocks))
	for _, blk := range b.blocks {
		byID[blk.ID] = blk
	}

	for _, blk := range b.blocks {
		if blk.Term == nil {
			panic(fmt.Sprintf("ir: block %d left without a terminator", blk.ID))
		}

		switch term := blk.Term.(type) {
		case TrBranch:
			if _, ok := byID[term.Target]; !ok {
				panic(fmt.Sprintf("ir: branch to unknown block %d", term.Target))
			}
		case TrCondBranch:
			if _, ok := byID[term.IfTrue]; !ok {
				panic(fmt.Sprintf("ir: cond-branch to unknown block %d", term.IfTrue))
			}

			if _, ok := byID[term.IfFalse]; !ok {
				panic(fmt.Sprintf("ir: cond-branch to unknown block %d", term.IfFalse))
			}
		}
	}
}
