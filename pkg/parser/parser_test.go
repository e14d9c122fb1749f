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
package parser

import (
	"testing"

	"github.com/XnLogicaL/via-lang/pkg/ast"
	"github.com/XnLogicaL/via-lang/pkg/diag"
	"github.com/XnLogicaL/via-lang/pkg/source"
	"github.com/XnLogicaL/via-lang/pkg/token"
)

func parse(t *testing.T, src string) (ast.Tree, *diag.Context) {
	t.Helper()

	buf := source.NewBuffer("test.via", []byte(src))
	diags := diag.NewContext(buf.Filename(), nil)
	toks := token.Lex(buf, diags)
	tree := Parse(buf, toks, diags)

	return tree, diags
}

func Test_Parse_BinaryPrecedence(t *testing.T) {
	tree, diags := parse(t, "var x = 1 + 2 * 3;")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	decl := tree[0].(*ast.StmtVarDecl)
	bin := decl.Rval.(*ast.ExprBinary)

	if bin.Op != token.PLUS {
		t.Fatalf("expected outermost op to be '+', got %s", bin.Op)
	}

	rhs, ok := bin.Rhs.(*ast.ExprBinary)
	if !ok || rhs.Op != token.STAR {
		t.Fatalf("expected rhs of '+' to be a '*' expression, got %#v", bin.Rhs)
	}
}

func Test_Parse_PowerIsRightAssociative(t *testing.T) {
	tree, diags := parse(t, "var x = 2 ** 3 ** 2;")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	decl := tree[0].(*ast.StmtVarDecl)
	top := decl.Rval.(*ast.ExprBinary)

	if _, ok := top.Lhs.(*ast.ExprLiteral); !ok {
		t.Fatalf("expected '**' to be right-associative: lhs should be the literal 2, got %#v", top.Lhs)
	}

	if _, ok := top.Rhs.(*ast.ExprBinary); !ok {
		t.Fatalf("expected '**' to be right-associative: rhs should be the nested '3 ** 2', got %#v", top.Rhs)
	}
}

func Test_Parse_UnaryAndAccessChain(t *testing.T) {
	tree, diags := parse(t, "var x = -a.b::c;")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	decl := tree[0].(*ast.StmtVarDecl)
	un := decl.Rval.(*ast.ExprUnary)

	if un.Op != token.MINUS {
		t.Fatalf("expected leading unary '-', got %s", un.Op)
	}

	access, ok := un.Expr.(*ast.ExprAccess)
	if !ok || access.Kind != ast.Static {
		t.Fatalf("expected outermost access to be static ('::'), got %#v", un.Expr)
	}

	inner, ok := access.Root.(*ast.ExprAccess)
	if !ok || inner.Kind != ast.Dynamic {
		t.Fatalf("expected inner access to be dynamic ('.'), got %#v", access.Root)
	}
}

func Test_Parse_IfElseChain(t *testing.T) {
	tree, diags := parse(t, `
		if a {
			return 1;
		} else if b {
			return 2;
		} else {
			return 3;
		}
	`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	ifs := tree[0].(*ast.StmtIf)
	if len(ifs.Branches) != 3 {
		t.Fatalf("expected 3 branches, got %d", len(ifs.Branches))
	}

	if ifs.Branches[2].Cond != nil {
		t.Fatalf("expected trailing else branch to have a nil condition")
	}
}

func Test_Parse_CountingForLoop(t *testing.T) {
	tree, diags := parse(t, "for var i = 0, 10, 2 { x += i; }")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	fors := tree[0].(*ast.StmtFor)
	if fors.Step == nil {
		t.Fatalf("expected an explicit step expression")
	}
}

func Test_Parse_ForEachLoop(t *testing.T) {
	tree, diags := parse(t, "for item in items { print(item); }")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	if _, ok := tree[0].(*ast.StmtForEach); !ok {
		t.Fatalf("expected a StmtForEach, got %#v", tree[0])
	}
}

func Test_Parse_FunctionDecl(t *testing.T) {
	tree, diags := parse(t, "fn add(a: int, b: int) -> int { return a + b; }")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	fn := tree[0].(*ast.StmtFunctionDecl)
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(fn.Params))
	}

	if fn.Return == nil {
		t.Fatalf("expected a non-nil return type")
	}
}

func Test_Parse_EnumDecl(t *testing.T) {
	tree, diags := parse(t, "enum Color of int { Red = 0, Green = 1, Blue = 2, }")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	en := tree[0].(*ast.StmtEnum)
	if en.Type == nil {
		t.Fatalf("expected an explicit underlying type")
	}

	if len(en.Pairs) != 3 {
		t.Fatalf("expected 3 enumerator pairs, got %d", len(en.Pairs))
	}
}

func Test_Parse_StructDecl(t *testing.T) {
	tree, diags := parse(t, "struct Point { var x = 0; var y = 0; }")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	strc := tree[0].(*ast.StmtStructDecl)
	if len(strc.Body.Stmts) != 2 {
		t.Fatalf("expected 2 statements in struct body, got %d", len(strc.Body.Stmts))
	}
}

func Test_Parse_ImportPath(t *testing.T) {
	tree, diags := parse(t, "import std::io::file;")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	imp := tree[0].(*ast.StmtImport)
	if got, want := imp.Path.String(), "std::io::file"; got != want {
		t.Fatalf("got path %q, want %q", got, want)
	}
}

func Test_Parse_QualifiedType(t *testing.T) {
	tree, diags := parse(t, "fn f(a: const strong &int) { }")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics())
	}

	fn := tree[0].(*ast.StmtFunctionDecl)
	ty := fn.Params[0].Type.(*ast.TypeBuiltin)

	if ty.Quals&ast.QualConst == 0 || ty.Quals&ast.QualStrong == 0 || ty.Quals&ast.QualReference == 0 {
		t.Fatalf("expected all three qualifiers set, got %v", ty.Quals)
	}
}

func Test_Parse_OnlyCallAllowedAsBareStatement(t *testing.T) {
	_, diags := parse(t, "a.b;")
	if !diags.HasErrors() {
		t.Fatalf("expected a bare non-call expression statement to be rejected")
	}
}

// Test_Parse_RecoversAtNextStatement checks that a malformed statement is
// reported but does not prevent later, well-formed statements from being
// parsed (spec.md §4.2: "recovered at the next statement start").
func Test_Parse_RecoversAtNextStatement(t *testing.T) {
	tree, diags := parse(t, "var x = ; var y = 2;")

	if !diags.HasErrors() {
		t.Fatalf("expected the malformed first declaration to be reported")
	}

	var found bool

	for _, stmt := range tree {
		if decl, ok := stmt.(*ast.StmtVarDecl); ok {
			lit, ok := decl.Rval.(*ast.ExprLiteral)
			if ok && lit.Text == "2" {
				found = true
			}
		}
	}

	if !found {
		t.Fatalf("expected parsing to recover and still produce 'var y = 2;', got %#v", tree)
	}
}
