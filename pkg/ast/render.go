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
package ast

import (
	"fmt"
	"strings"

	"github.com/XnLogicaL/via-lang/pkg/symbol"
)

// Render renders expr back into a fully-parenthesized textual form: two
// structurally-equal trees render identically. Re-parsing the rendering
// does not reproduce the same tree: every unary, binary, cast and ternary
// comes back wrapped in an extra ExprGroup, a lambda renders as the
// placeholder `fn(...)` without its parameters or body, and types render
// as RenderType describes.
func Render(expr Expr) string {
	switch e := expr.(type) {
	case *ExprLiteral:
		return e.Text
	case *ExprSymbol:
		return symbol.Text(e.Name)
	case *ExprAccess:
		sep := "."
		if e.Kind == Static {
			sep = "::"
		}

		return Render(e.Root) + sep + symbol.Text(e.Index)
	case *ExprUnary:
		return fmt.Sprintf("(%s %s)", e.Op, Render(e.Expr))
	case *ExprBinary:
		return fmt.Sprintf("(%s %s %s)", Render(e.Lhs), e.Op, Render(e.Rhs))
	case *ExprGroup:
		return "(" + Render(e.Expr) + ")"
	case *ExprCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = Render(a)
		}

		return Render(e.Callee) + "(" + strings.Join(args, ",") + ")"
	case *ExprSubscript:
		return Render(e.Lhs) + "[" + Render(e.Rhs) + "]"
	case *ExprCast:
		return fmt.Sprintf("(%s as %s)", Render(e.Expr), RenderType(e.Type))
	case *ExprTernary:
		return fmt.Sprintf("(%s if %s else %s)", Render(e.Lhs), Render(e.Cond), Render(e.Rhs))
	case *ExprArray:
		vals := make([]string, len(e.Values))
		for i, v := range e.Values {
			vals[i] = Render(v)
		}

		return "[" + strings.Join(vals, ",") + "]"
	case *ExprTuple:
		vals := make([]string, len(e.Values))
		for i, v := range e.Values {
			vals[i] = Render(v)
		}

		return "(" + strings.Join(vals, ",") + ")"
	case *ExprLambda:
		return "fn(...)"
	default:
		return "<?>"
	}
}

// RenderType renders a syntactic type back into textual form. Qualifiers
// (const/strong/&) are not rendered, and a function type's parameters are
// rendered as bare types without their names.
func RenderType(t TypeExpr) string {
	switch t := t.(type) {
	case *TypeBuiltin:
		return symbol.Text(t.Name)
	case *TypeOptional:
		return RenderType(t.Inner) + "?"
	case *TypeArray:
		return "[" + RenderType(t.Elem) + "]"
	case *TypeMap:
		return "{" + RenderType(t.Key) + ":" + RenderType(t.Value) + "}"
	case *TypeFunc:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = RenderType(p.Type)
		}

		return "fn(" + strings.Join(parts, ",") + ") -> " + RenderType(t.Return)
	default:
		return "<?>"
	}
}
