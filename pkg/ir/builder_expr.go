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
	"strconv"
	"strings"

	"github.com/XnLogicaL/via-lang/pkg/ast"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/token"
	"github.com/XnLogicaL/via-lang/pkg/types"
)

// lowerExpr lowers one ast.Expr, returning the lowered node and its
// resolved type. A zero QualType means a diagnostic was already reported
// for this expression; callers should not cascade further errors off it.
func (b *Builder) lowerExpr(e ast.Expr) (Expr, types.QualType) {
	switch e := e.(type) {
	case *ast.ExprLiteral:
		return b.lowerLiteral(e)
	case *ast.ExprSymbol:
		return b.lowerSymbol(e)
	case *ast.ExprAccess:
		return b.lowerAccess(e)
	case *ast.ExprUnary:
		return b.lowerUnary(e)
	case *ast.ExprBinary:
		return b.lowerBinary(e)
	case *ast.ExprGroup:
		return b.lowerExpr(e.Expr)
	case *ast.ExprCall:
		return b.lowerCall(e)
	case *ast.ExprSubscript:
		return b.lowerSubscript(e)
	case *ast.ExprCast:
		return b.lowerCast(e)
	case *ast.ExprTernary:
		return b.lowerTernary(e)
	case *ast.ExprArray:
		return b.lowerArray(e)
	case *ast.ExprTuple:
		b.diags.EmitWarning(e.Loc(), "tuples are not implemented beyond parsing", nil)

		values := make([]Expr, len(e.Values))
		for i, v := range e.Values {
			values[i], _ = b.lowerExpr(v)
		}

		return &ExprTuple{Base: Base{e.Loc()}, Values: values}, types.QualType{}
	case *ast.ExprLambda:
		b.diags.EmitWarning(e.Loc(), "lambda expressions are not implemented beyond parsing", nil)
		return b.lowerLambdaStub(e), types.QualType{}
	default:
		panic(fmt.Sprintf("ir: unhandled ast.Expr %T", e))
	}
}

func (b *Builder) lowerLiteral(e *ast.ExprLiteral) (Expr, types.QualType) {
	switch e.Tok.Kind {
	case token.KwNil:
		typ := types.New(b.ctx.Builtin(types.Nil))
		return &ExprConstant{Base: Base{e.Loc()}, Typed: Typed{typ}, Value: ConstValue{Kind: ConstNil}}, typ
	case token.KwTrue, token.KwFalse:
		typ := types.New(b.ctx.Builtin(types.Bool))
		val := ConstValue{Kind: ConstBool, B: e.Tok.Kind == token.KwTrue}

		return &ExprConstant{Base: Base{e.Loc()}, Typed: Typed{typ}, Value: val}, typ
	case token.INT:
		typ := types.New(b.ctx.Builtin(types.Int))

		n, err := strconv.ParseInt(e.Text, 0, 64)
		if err != nil {
			b.diags.EmitError(e.Loc(), fmt.Sprintf("invalid integer literal '%s'", e.Text), nil)
		}

		return &ExprConstant{Base: Base{e.Loc()}, Typed: Typed{typ}, Value: ConstValue{Kind: ConstInt, I: n}}, typ
	case token.FLOAT:
		typ := types.New(b.ctx.Builtin(types.Float))

		f, err := strconv.ParseFloat(e.Text, 64)
		if err != nil {
			b.diags.EmitError(e.Loc(), fmt.Sprintf("invalid float literal '%s'", e.Text), nil)
		}

		return &ExprConstant{Base: Base{e.Loc()}, Typed: Typed{typ}, Value: ConstValue{Kind: ConstFloat, F: f}}, typ
	case token.STRING:
		typ := types.New(b.ctx.Builtin(types.String))
		unescaped := unescapeString(e.Text)
		sym := symbol.Intern(unescaped)

		return &ExprConstant{Base: Base{e.Loc()}, Typed: Typed{typ}, Value: ConstValue{Kind: ConstString, S: sym}}, typ
	default:
		panic(fmt.Sprintf("ir: unhandled literal token kind %v", e.Tok.Kind))
	}
}

// unescapeString processes the lexer's recognized escapes (\n \t \r \\ \"
// \0) in a literal's raw lexeme, deferred to this pass rather than done at
// lex time since the lexer keeps tokens as plain source spans (spec.md
// §4.1).
func unescapeString(raw string) string {
	var sb strings.Builder

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if c != '\\' || i == len(raw)-1 {
			sb.WriteByte(c)
			continue
		}

		i++

		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(raw[i])
		}
	}

	return sb.String()
}

func (b *Builder) lowerSymbol(e *ast.ExprSymbol) (Expr, types.QualType) {
	if b.isPoisoned(e.Name) {
		return &ExprSymbol{Base: Base{e.Loc()}, Symbol: e.Name}, types.QualType{}
	}

	l, ok := b.lookupLocal(e.Name)
	if !ok {
		name := symbol.Text(e.Name)
		b.diags.EmitError(e.Loc(), fmt.Sprintf("undefined symbol '%s'", name),
			hint(fmt.Sprintf("declare '%s' with 'var' before using it", name)))
		b.poisonSymbol(e.Name)

		return &ExprSymbol{Base: Base{e.Loc()}, Symbol: e.Name}, types.QualType{}
	}

	return &ExprSymbol{Base: Base{e.Loc()}, Typed: Typed{l.typ}, Symbol: e.Name}, l.typ
}

// lowerAccess resolves `root.index`/`root::index`. A static access whose
// root names an imported module lowers to ExprModuleAccess (spec.md §4.4,
// §4.6); a static access whose root names an enum type desugars directly to
// the member's constant (enums have no runtime representation); everything
// else lowers to a generic ExprAccess against the recorded struct field
// table, since the Value union has no struct variant to carry a runtime
// field offset.
func (b *Builder) lowerAccess(e *ast.ExprAccess) (Expr, types.QualType) {
	if e.Kind == ast.Static {
		if root, ok := e.Root.(*ast.ExprSymbol); ok {
			if handle, ok := b.imports[root.Name]; ok {
				typ, exported := handle.Exports[e.Index]
				if !exported {
					b.diags.EmitError(e.Loc(),
						fmt.Sprintf("module '%s' has no export named '%s'", symbol.Text(root.Name), symbol.Text(e.Index)), nil)

					return &ExprModuleAccess{Base: Base{e.Loc()}, Module: root.Name, Key: e.Index}, types.QualType{}
				}

				return &ExprModuleAccess{Base: Base{e.Loc()}, Typed: Typed{typ}, Module: root.Name, Key: e.Index}, typ
			}

			if members, ok := b.enumMembers[root.Name]; ok {
				val, ok := members[e.Index]
				if !ok {
					b.diags.EmitError(e.Loc(),
						fmt.Sprintf("enum '%s' has no member named '%s'", symbol.Text(root.Name), symbol.Text(e.Index)), nil)

					return &ExprConstant{Base: Base{e.Loc()}}, types.QualType{}
				}

				underlying := types.New(b.ctx.Builtin(types.Int))

				return &ExprConstant{Base: Base{e.Loc()}, Typed: Typed{underlying}, Value: val}, underlying
			}
		}
	}

	root, rtyp := b.lowerExpr(e.Root)

	var fieldTyp types.QualType

	if ut, ok := rtyp.Type.(*types.UserType); ok {
		if dr, ok := ut.Decl.(declRef); ok {
			if fields, ok := b.structFields[symbol.Intern(dr.name)]; ok {
				if ft, ok := fields[e.Index]; ok {
					fieldTyp = ft
				} else {
					b.diags.EmitError(e.Loc(),
						fmt.Sprintf("'%s' has no field named '%s'", dr.name, symbol.Text(e.Index)), nil)
				}
			}
		}
	}

	kind := Dynamic
	if e.Kind == ast.Static {
		kind = Static
	}

	return &ExprAccess{Base: Base{e.Loc()}, Typed: Typed{fieldTyp}, Kind: kind, Root: root, Index: e.Index}, fieldTyp
}

func (b *Builder) lowerUnary(e *ast.ExprUnary) (Expr, types.QualType) {
	operand, otyp := b.lowerExpr(e.Expr)

	// '&' takes a reference rather than computing a new value; it has no
	// counterpart in ir.UnaryOp, so it is modeled as a qualifier change on
	// the operand's own type rather than wrapping it in an ExprUnary node.
	if e.Op == token.AMP {
		return operand, types.WithQuals(otyp.Type, otyp.Quals|types.Reference)
	}

	op, ok := tokenToUnaryOp(e.Op)
	if !ok {
		panic(fmt.Sprintf("ir: unhandled unary operator token %v", e.Op))
	}

	if otyp.Type == nil {
		return &ExprUnary{Base: Base{e.Loc()}, Op: op, Expr: operand}, types.QualType{}
	}

	info := unaryOpTable[op]
	if !info.isValid(otyp.Type) {
		b.diags.EmitError(e.Loc(), fmt.Sprintf("invalid operand type '%s' for unary '%s'", otyp, op), nil)
		return &ExprUnary{Base: Base{e.Loc()}, Op: op, Expr: operand}, types.QualType{}
	}

	result := types.New(info.result(b.ctx, otyp.Type))

	return &ExprUnary{Base: Base{e.Loc()}, Typed: Typed{result}, Op: op, Expr: operand}, result
}

func tokenToUnaryOp(k token.Kind) (UnaryOp, bool) {
	switch k {
	case token.MINUS:
		return OpNeg, true
	case token.KwNot:
		return OpNot, true
	case token.TILDE:
		return OpBNot, true
	default:
		return 0, false
	}
}

func (b *Builder) lowerBinary(e *ast.ExprBinary) (Expr, types.QualType) {
	lhs, ltyp := b.lowerExpr(e.Lhs)
	rhs, rtyp := b.lowerExpr(e.Rhs)

	op, ok := tokenToBinaryOp(e.Op)
	if !ok {
		panic(fmt.Sprintf("ir: unhandled binary operator token %v", e.Op))
	}

	if ltyp.Type == nil || rtyp.Type == nil {
		return &ExprBinary{Base: Base{e.Loc()}, Op: op, Lhs: lhs, Rhs: rhs}, types.QualType{}
	}

	info := binaryOpTable[op]
	if !info.isValid(ltyp.Type, rtyp.Type) {
		b.diags.EmitError(e.Loc(),
			fmt.Sprintf("invalid operand types '%s' and '%s' for '%s'", ltyp, rtyp, op), nil)

		return &ExprBinary{Base: Base{e.Loc()}, Op: op, Lhs: lhs, Rhs: rhs}, types.QualType{}
	}

	result := types.New(info.result(b.ctx, ltyp.Type, rtyp.Type))

	return &ExprBinary{Base: Base{e.Loc()}, Typed: Typed{result}, Op: op, Lhs: lhs, Rhs: rhs}, result
}

func tokenToBinaryOp(k token.Kind) (BinaryOp, bool) {
	switch k {
	case token.PLUS:
		return OpAdd, true
	case token.MINUS:
		return OpSub, true
	case token.STAR:
		return OpMul, true
	case token.SLASH:
		return OpDiv, true
	case token.PERCENT:
		return OpMod, true
	case token.STARSTAR:
		return OpPow, true
	case token.AMP:
		return OpBAnd, true
	case token.PIPE:
		return OpBOr, true
	case token.CARET:
		return OpBXor, true
	case token.SHL:
		return OpShl, true
	case token.SHR:
		return OpShr, true
	case token.KwAnd:
		return OpAnd, true
	case token.KwOr:
		return OpOr, true
	case token.EQEQ:
		return OpEq, true
	case token.NEQ:
		return OpNeq, true
	case token.LT:
		return OpLt, true
	case token.LE:
		return OpLe, true
	case token.GT:
		return OpGt, true
	case token.GE:
		return OpGe, true
	case token.KwIs:
		return OpIs, true
	default:
		return 0, false
	}
}

// lowerCall checks arity and, per argument, cast-compatibility against the
// callee's FunctionType, producing diagnostics worded to match scenario
// S4's exact phrasing.
func (b *Builder) lowerCall(e *ast.ExprCall) (Expr, types.QualType) {
	callee, ctyp := b.lowerExpr(e.Callee)

	args := make([]Expr, len(e.Args))
	argTypes := make([]types.QualType, len(e.Args))

	for i, a := range e.Args {
		args[i], argTypes[i] = b.lowerExpr(a)
	}

	if ctyp.Type == nil {
		return &ExprCall{Base: Base{e.Loc()}, Callee: callee, Args: args}, types.QualType{}
	}

	ft, ok := ctyp.Type.(*types.FunctionType)
	if !ok {
		b.diags.EmitError(e.Callee.Loc(), fmt.Sprintf("'%s' is not callable", ctyp), nil)
		return &ExprCall{Base: Base{e.Loc()}, Callee: callee, Args: args}, types.QualType{}
	}

	switch {
	case len(args) < len(ft.Params):
		b.diags.EmitError(e.Loc(),
			fmt.Sprintf("too few arguments: expected %d, got %d", len(ft.Params), len(args)), nil)
	case len(args) > len(ft.Params):
		b.diags.EmitError(e.Loc(),
			fmt.Sprintf("too many arguments: expected %d, got %d", len(ft.Params), len(args)), nil)
	}

	n := len(args)
	if len(ft.Params) < n {
		n = len(ft.Params)
	}

	for i := 0; i < n; i++ {
		want := ft.Params[i]
		if argTypes[i].Type == nil || want.Type == nil {
			continue
		}

		if argTypes[i] == want {
			continue
		}

		if argTypes[i].CastResult(want) == types.INVALID {
			b.diags.EmitError(e.Args[i].Loc(),
				fmt.Sprintf("argument #%d of type '%s' is incompatible with parameter that expects type '%s'",
					i, argTypes[i], want), nil)
		}
	}

	return &ExprCall{Base: Base{e.Loc()}, Typed: Typed{ft.Return}, Callee: callee, Args: args}, ft.Return
}

func (b *Builder) lowerSubscript(e *ast.ExprSubscript) (Expr, types.QualType) {
	lhs, ltyp := b.lowerExpr(e.Lhs)
	rhs, rtyp := b.lowerExpr(e.Rhs)

	var result types.QualType

	switch lt := ltyp.Type.(type) {
	case *types.ArrayType:
		if rtyp.Type != nil && !types.IsIntegral(rtyp.Type) {
			b.diags.EmitError(e.Rhs.Loc(), "array subscript must be of type 'int'", nil)
		}

		result = lt.Elem
	case *types.MapType:
		if rtyp.Type != nil && rtyp != lt.Key {
			b.diags.EmitError(e.Rhs.Loc(), fmt.Sprintf("map subscript must be of type '%s'", lt.Key), nil)
		}

		result = lt.Value
	default:
		if ltyp.Type != nil {
			b.diags.EmitError(e.Lhs.Loc(), fmt.Sprintf("'%s' is not subscriptable", ltyp), nil)
		}
	}

	return &ExprSubscript{Base: Base{e.Loc()}, Typed: Typed{result}, Lhs: lhs, Rhs: rhs}, result
}

// lowerCast checks the cast against types.QualType.CastResult, warning on a
// redundant cast to the operand's own type (scenario S2) and erroring on an
// INVALID cast.
func (b *Builder) lowerCast(e *ast.ExprCast) (Expr, types.QualType) {
	operand, otyp := b.lowerExpr(e.Expr)
	target := b.resolveType(e.Type)

	if otyp.Type != nil && target.Type != nil {
		switch otyp.CastResult(target) {
		case types.OK, types.THROW:
			if otyp == target {
				b.diags.EmitWarning(e.Loc(), fmt.Sprintf("redundant cast: expression is already of type '%s'", target),
					suggest("remove the 'as' cast"))
			}
		case types.INVALID:
			b.diags.EmitError(e.Loc(), fmt.Sprintf("cannot cast '%s' to '%s'", otyp, target), nil)
		}
	}

	return &ExprCast{Base: Base{e.Loc()}, Expr: operand, Cast: target}, target
}

func (b *Builder) lowerTernary(e *ast.ExprTernary) (Expr, types.QualType) {
	cond, ctyp := b.lowerExpr(e.Cond)
	lhs, ltyp := b.lowerExpr(e.Lhs)
	rhs, rtyp := b.lowerExpr(e.Rhs)

	if ctyp.Type != nil && !isBool(ctyp.Type) {
		b.diags.EmitError(e.Cond.Loc(), "ternary condition must be of type 'bool'", nil)
	}

	result := ltyp

	if ltyp.Type != nil && rtyp.Type != nil && ltyp != rtyp {
		b.diags.EmitError(e.Loc(),
			fmt.Sprintf("ternary branches have incompatible types '%s' and '%s'", ltyp, rtyp), nil)
	}

	return &ExprTernary{Base: Base{e.Loc()}, Typed: Typed{result}, Cond: cond, Lhs: lhs, Rhs: rhs}, result
}

func (b *Builder) lowerArray(e *ast.ExprArray) (Expr, types.QualType) {
	values := make([]Expr, len(e.Values))

	var elem types.QualType

	for i, v := range e.Values {
		var vtyp types.QualType
		values[i], vtyp = b.lowerExpr(v)

		if i == 0 {
			elem = vtyp
		} else if vtyp.Type != nil && elem.Type != nil && vtyp != elem {
			b.diags.EmitError(v.Loc(), fmt.Sprintf("array element of type '%s' does not match preceding elements of type '%s'", vtyp, elem), nil)
		}
	}

	var result types.QualType
	if elem.Type != nil {
		result = types.New(b.ctx.Array(elem))
	}

	return &ExprArray{Base: Base{e.Loc()}, Typed: Typed{result}, Values: values}, result
}

// lowerLambdaStub lowers a lambda's signature and body for structural
// completeness (diagnostics inside the body still fire) without attempting
// to wire it into the enclosing function's closure semantics, consistent
// with treating lambdas as a parse-only feature.
func (b *Builder) lowerLambdaStub(e *ast.ExprLambda) Expr {
	var ret types.QualType
	if e.Return != nil {
		ret = b.resolveType(e.Return)
	}

	params := make([]Parameter, len(e.Params))

	b.pushFrame()

	for i, p := range e.Params {
		ptyp := b.resolveType(p.Type)
		params[i] = Parameter{Symbol: p.Name, Type: ptyp}
		b.bindLocal(p.Name, ptyp, false)
	}

	savedBlocks, savedID, savedCurrent := b.blocks, b.blockID, b.current
	b.blocks, b.blockID = nil, 0
	b.current = b.newBlock()

	b.lowerScope(e.Body)

	if b.current.Term == nil {
		b.current.Term = TrReturn{Implicit: true, Type: types.New(b.ctx.Builtin(types.Nil))}
	}

	body := b.blocks
	b.blocks, b.blockID, b.current = savedBlocks, savedID, savedCurrent
	b.popFrame()

	return &ExprLambda{Base: Base{e.Loc()}, Return: ret, Params: params, Body: body}
}
