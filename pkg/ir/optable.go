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

import "github.com/XnLogicaL/via-lang/pkg/types"

// unaryOpInfo pairs an operand-validity predicate with the function that
// computes the result type once validity holds (spec.md §4.4: "a fixed
// table indexed by operator enum giving (predicate, result-type-fn)").
type unaryOpInfo struct {
	isValid func(t types.Type) bool
	result  func(ctx *types.Context, t types.Type) types.Type
}

var unaryOpTable = map[UnaryOp]unaryOpInfo{
	OpNeg: {
		isValid: types.IsArithmetic,
		result:  func(_ *types.Context, t types.Type) types.Type { return t },
	},
	OpNot: {
		isValid: func(types.Type) bool { return true },
		result:  func(ctx *types.Context, _ types.Type) types.Type { return ctx.Builtin(types.Bool) },
	},
	OpBNot: {
		isValid: types.IsIntegral,
		result:  func(_ *types.Context, t types.Type) types.Type { return t },
	},
}

type binaryOpInfo struct {
	isValid func(lhs, rhs types.Type) bool
	result  func(ctx *types.Context, lhs, rhs types.Type) types.Type
}

func bothArithmetic(lhs, rhs types.Type) bool { return types.IsArithmetic(lhs) && types.IsArithmetic(rhs) }
func bothIntegral(lhs, rhs types.Type) bool   { return types.IsIntegral(lhs) && types.IsIntegral(rhs) }
func promoted(ctx *types.Context, lhs, rhs types.Type) types.Type { return types.Promote(ctx, lhs, rhs) }
func asInt(ctx *types.Context, _, _ types.Type) types.Type        { return ctx.Builtin(types.Int) }
func asBool(ctx *types.Context, _, _ types.Type) types.Type       { return ctx.Builtin(types.Bool) }

// binaryOpTable implements spec.md §4.4's table. Grounded on
// `_examples/original_source/core/ir/builder.cpp`'s `BINARY_OP_TABLE`, with
// one correction: the grounding source's DIV entry returns BOOL as its
// result type, inconsistent with every other promoting arithmetic op (ADD,
// SUB, MUL, POW all return BINARY_OP_PROMOTE(lhs, rhs)) and with spec.md
// §4.4's own prose ("Binary arithmetic promotes to float when either
// operand is float"), which names no exception for division. Treated as a
// copy-paste bug in the source and corrected here: DIV promotes like its
// siblings.
var binaryOpTable = map[BinaryOp]binaryOpInfo{
	OpAdd: {bothArithmetic, promoted},
	OpSub: {bothArithmetic, promoted},
	OpMul: {bothArithmetic, promoted},
	OpDiv: {bothArithmetic, promoted},
	OpPow: {bothArithmetic, promoted},

	OpMod:  {bothIntegral, asInt},
	OpBAnd: {bothIntegral, asInt},
	OpBOr:  {bothIntegral, asInt},
	OpBXor: {bothIntegral, asInt},
	OpShl:  {bothIntegral, asInt},
	OpShr:  {bothIntegral, asInt},

	OpAnd: {func(types.Type, types.Type) bool { return true }, asBool},
	OpOr:  {func(types.Type, types.Type) bool { return true }, asBool},

	OpEq:  {func(types.Type, types.Type) bool { return true }, asBool},
	OpNeq: {func(types.Type, types.Type) bool { return true }, asBool},
	OpLt:  {func(types.Type, types.Type) bool { return true }, asBool},
	OpLe:  {func(types.Type, types.Type) bool { return true }, asBool},
	OpGt:  {func(types.Type, types.Type) bool { return true }, asBool},
	OpGe:  {func(types.Type, types.Type) bool { return true }, asBool},
	OpIs:  {func(types.Type, types.Type) bool { return true }, asBool},
}
