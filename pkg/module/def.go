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
package module

import (
	"fmt"
	"strings"

	"github.com/XnLogicaL/via-lang/pkg/ir"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/types"
)

// ImplKind distinguishes a source-backed definition from a host-provided
// one (spec.md §3 "Definition (Def)").
type ImplKind uint8

const (
	ImplSource ImplKind = iota
	ImplNative
)

// HostFunc is the signature a native module's callbacks are invoked with.
// Args/return are left as `any` rather than a VM Value here so that
// pkg/module never needs to import pkg/vm (pkg/vm depends on pkg/module to
// resolve imports at runtime, not the other way around); pkg/vm adapts its
// own Value to and from this boundary when it calls through a Def.
type HostFunc func(args []any) (any, error)

// DefParameter is one parameter of a FunctionDef's signature, with its
// default value when the declaration supplied one.
type DefParameter struct {
	Symbol  symbol.Symbol
	Type    types.QualType
	Default *ir.ConstValue
}

func (p DefParameter) String() string {
	return fmt.Sprintf("%s: %s", symbol.Text(p.Symbol), p.Type)
}

// Def is a per-module exported symbol (spec.md §3). The only concrete
// variant, as in the grounding source, is FunctionDef.
type Def interface {
	Identity() (symbol.Symbol, bool)
	Signature() string
}

// FunctionDef is a function definition, backed either by an IR function
// declaration or a native callback.
type FunctionDef struct {
	Kind     ImplKind
	Symbol   symbol.Symbol
	Return   types.QualType
	Params   []DefParameter
	Source   *ir.StmtFuncDecl // non-nil when Kind == ImplSource
	Callback HostFunc         // non-nil when Kind == ImplNative
}

func (d *FunctionDef) Identity() (symbol.Symbol, bool) { return d.Symbol, true }

func (d *FunctionDef) Signature() string {
	var sb strings.Builder

	sb.WriteString("fn ")
	sb.WriteString(symbol.Text(d.Symbol))
	sb.WriteByte('(')

	for i, p := range d.Params {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(p.String())
	}

	sb.WriteString(") -> ")
	sb.WriteString(d.Return.String())

	return sb.String()
}

// fromIR builds a FunctionDef from a lowered top-level definition, or nil
// if def does not carry a function body (a plain value/enum-member def has
// no Def representation distinct from its ConstValue, per spec.md §3).
func fromIR(def ir.Def) Def {
	if def.Func == nil {
		return nil
	}

	params := make([]DefParameter, len(def.Func.Params))
	for i, p := range def.Func.Params {
		params[i] = DefParameter{Symbol: p.Symbol, Type: p.Type}
	}

	return &FunctionDef{
		Kind:   ImplSource,
		Symbol: def.Symbol,
		Return: def.Func.Return,
		Params: params,
		Source: def.Func,
	}
}

// DefTable maps every symbol a module exports to its definition.
type DefTable map[symbol.Symbol]Def

// DefTableEntry is one native module export, the Go analogue of the
// grounding ABI's `{SymbolId, const Def*}` pair (spec.md §4.6).
type DefTableEntry struct {
	Name symbol.Symbol
	Def  Def
}

// NativeModuleInfo is what a native module's init function returns: its
// full export table (spec.md §4.6's `{size, begin: DefTableEntry[]}`,
// flattened to a Go slice since Go has no analogous borrowed-array ABI).
type NativeModuleInfo struct {
	Exports []DefTableEntry
}

func (t DefTable) String() string {
	var sb strings.Builder

	for sym, def := range t {
		fmt.Fprintf(&sb, "%s: %s\n", symbol.Text(sym), def.Signature())
	}

	return sb.String()
}
