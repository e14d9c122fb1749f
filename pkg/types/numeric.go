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
package types

// IsArithmetic reports whether t is int or float, the operand class spec.md
// §4.4 calls "arithmetic" for unary '-' and the four promoting binary ops.
func IsArithmetic(t Type) bool {
	b, ok := t.(*BuiltinType)
	return ok && (b.Kind == Int || b.Kind == Float)
}

// IsIntegral reports whether t is int, the operand class required by '%'
// and the bitwise family.
func IsIntegral(t Type) bool {
	b, ok := t.(*BuiltinType)
	return ok && b.Kind == Int
}

// IsFloat reports whether t is float.
func IsFloat(t Type) bool {
	b, ok := t.(*BuiltinType)
	return ok && b.Kind == Float
}

// Promote returns Float if either operand is float, else Int — the
// promotion rule spec.md §4.4 gives for '+ - * / **'.
func Promote(ctx *Context, a, b Type) *BuiltinType {
	if IsFloat(a) || IsFloat(b) {
		return ctx.Builtin(Float)
	}

	return ctx.Builtin(Int)
}
