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

import "testing"

func Test_Context_BuiltinUnique(t *testing.T) {
	ctx := NewContext()

	if ctx.Builtin(Int) != ctx.Builtin(Int) {
		t.Errorf("expected get_builtin(Int) == get_builtin(Int)")
	}

	if ctx.Builtin(Int) == ctx.Builtin(Float) {
		t.Errorf("expected distinct builtins to be distinct pointers")
	}
}

func Test_Context_ArrayUnique(t *testing.T) {
	ctx := NewContext()
	intT := New(ctx.Builtin(Int))

	if ctx.Array(intT) != ctx.Array(intT) {
		t.Errorf("expected get_array(T) == get_array(T)")
	}

	floatT := New(ctx.Builtin(Float))
	if ctx.Array(intT) == ctx.Array(floatT) {
		t.Errorf("expected [int] != [float]")
	}
}

func Test_Context_FunctionUnique(t *testing.T) {
	ctx := NewContext()
	intT := New(ctx.Builtin(Int))
	strT := New(ctx.Builtin(String))

	f1 := ctx.Function(intT, []QualType{intT, strT})
	f2 := ctx.Function(intT, []QualType{intT, strT})

	if f1 != f2 {
		t.Errorf("expected structurally equal function types to be pointer-equal")
	}

	f3 := ctx.Function(intT, []QualType{strT, intT})
	if f1 == f3 {
		t.Errorf("expected differently-ordered parameters to produce distinct types")
	}
}

func Test_BuiltinType_CastResult(t *testing.T) {
	ctx := NewContext()

	cases := []struct {
		from, to BuiltinKind
		want     CastResult
	}{
		{Int, Float, OK},
		{Int, String, OK},
		{Float, Int, OK},
		{Bool, String, OK},
		{String, Int, INVALID},
		{Bool, Int, INVALID},
	}

	for _, c := range cases {
		got := ctx.Builtin(c.from).CastResult(ctx.Builtin(c.to))
		if got != c.want {
			t.Errorf("%s -> %s: got %s, want %s", c.from, c.to, got, c.want)
		}
	}
}

func Test_OptionalType_CastResult(t *testing.T) {
	ctx := NewContext()
	intT := New(ctx.Builtin(Int))
	opt := ctx.Optional(intT)

	if got := opt.CastResult(ctx.Builtin(Int)); got != THROW {
		t.Errorf("Optional(int) -> int: got %s, want throw", got)
	}

	if got := opt.CastResult(ctx.Builtin(Nil)); got != THROW {
		t.Errorf("Optional(int) -> nil: got %s, want throw", got)
	}

	if got := opt.CastResult(ctx.Builtin(String)); got != INVALID {
		t.Errorf("Optional(int) -> string: got %s, want invalid", got)
	}
}

func Test_ArrayType_CastResult(t *testing.T) {
	ctx := NewContext()
	intT := New(ctx.Builtin(Int))
	arr := ctx.Array(intT)

	if got := arr.CastResult(ctx.Builtin(String)); got != OK {
		t.Errorf("[int] -> string: got %s, want ok", got)
	}

	m := ctx.Map(intT, intT)
	if got := arr.CastResult(m); got != OK {
		t.Errorf("[int] -> {int: int}: got %s, want ok", got)
	}

	badMap := ctx.Map(New(ctx.Builtin(String)), intT)
	if got := arr.CastResult(badMap); got != INVALID {
		t.Errorf("[int] -> {string: int}: got %s, want invalid", got)
	}
}

func Test_QualType_Qualifiers(t *testing.T) {
	ctx := NewContext()
	intT := ctx.Builtin(Int)

	constInt := WithQuals(intT, Const)
	plainInt := New(intT)

	if got := constInt.CastResult(plainInt); got != INVALID {
		t.Errorf("dropping const: got %s, want invalid", got)
	}

	strongRef := WithQuals(intT, Strong|Reference)
	if !strongRef.Valid() {
		t.Errorf("strong+reference should be a valid combination")
	}

	invalidStrong := WithQuals(intT, Strong)
	if invalidStrong.Valid() {
		t.Errorf("strong without reference should be invalid")
	}

	ref := WithQuals(intT, Reference)
	if got := strongRef.CastResult(ref); got != INVALID {
		t.Errorf("flipping strong: got %s, want invalid", got)
	}
}
