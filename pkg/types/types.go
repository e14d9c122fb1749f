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

// Package types implements the via type system: an immutable, hash-consed
// set of Type variants held in a Context, and QualType, which wraps a Type
// with const/strong/reference qualifiers and the cast-compatibility rules
// that govern them (spec.md §3, §4.3).
package types

import "fmt"

// BuiltinKind enumerates the scalar built-in types.
type BuiltinKind uint8

// The five builtin kinds.
const (
	Nil BuiltinKind = iota
	Bool
	Int
	Float
	String
)

func (k BuiltinKind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return "<unknown builtin>"
	}
}

// CastResult classifies the compatibility of a cast between two types.
type CastResult uint8

// The three possible outcomes of a cast.
const (
	OK CastResult = iota
	THROW
	INVALID
)

func (r CastResult) String() string {
	switch r {
	case OK:
		return "ok"
	case THROW:
		return "throw"
	default:
		return "invalid"
	}
}

// Decl is satisfied by the AST declaration node a UserType names (a struct,
// enum or type-alias declaration). It carries no behaviour: Type identity
// for user types is the identity of the declaring AST node, so Decl exists
// only so this package need not import pkg/ast (which itself needs Type for
// its own QualType-bearing nodes).
type Decl interface {
	DeclName() string
}

// Type is the common interface implemented by every type variant. Types are
// always handed out by a Context as canonical pointers: two Types are the
// same type iff they are the same Go value behind the interface (pointer
// equality), matching spec.md §4.3's "equality of types is therefore
// pointer equality".
type Type interface {
	fmt.Stringer
	// CastResult reports the compatibility of casting a value of this type
	// to the unqualified type to.
	CastResult(to Type) CastResult
	isType()
}

// ============================================================================
// Builtin
// ============================================================================

// BuiltinType is one of the five scalar builtins.
type BuiltinType struct {
	Kind BuiltinKind
}

func (*BuiltinType) isType() {}

func (t *BuiltinType) String() string { return t.Kind.String() }

// CastResult implements the rule table from spec.md §3: numeric<->numeric
// and anything -> string is OK; everything else involving a builtin
// destination is INVALID (the Optional/Array/Map sources override this via
// their own CastResult).
func (t *BuiltinType) CastResult(to Type) CastResult {
	dst, ok := to.(*BuiltinType)
	if !ok {
		return INVALID
	}

	switch t.Kind {
	case Int:
		if dst.Kind == Float || dst.Kind == String {
			return OK
		}
	case Float:
		if dst.Kind == Int || dst.Kind == String {
			return OK
		}
	case Nil, Bool, String:
		if dst.Kind == String {
			return OK
		}
	}

	return INVALID
}

// ============================================================================
// Optional
// ============================================================================

// OptionalType represents T?.
type OptionalType struct {
	Inner QualType
}

func (*OptionalType) isType() {}

func (t *OptionalType) String() string { return t.Inner.String() + "?" }

// CastResult: Optional(T) -> T is THROW (runtime-checked unwrap); Optional(T)
// -> nil is THROW; anything else is INVALID.
func (t *OptionalType) CastResult(to Type) CastResult {
	if t.Inner.Type == to {
		return THROW
	}

	if b, ok := to.(*BuiltinType); ok && b.Kind == Nil {
		return THROW
	}

	return INVALID
}

// ============================================================================
// Array
// ============================================================================

// ArrayType represents [T].
type ArrayType struct {
	Elem QualType
}

func (*ArrayType) isType() {}

func (t *ArrayType) String() string { return "[" + t.Elem.String() + "]" }

// CastResult: Array(T) -> string is OK; Array(T) -> Map(int, T) is OK;
// else INVALID.
func (t *ArrayType) CastResult(to Type) CastResult {
	if b, ok := to.(*BuiltinType); ok && b.Kind == String {
		return OK
	}

	if m, ok := to.(*MapType); ok {
		if key, ok := m.Key.Type.(*BuiltinType); ok && key.Kind == Int && m.Value.Type == t.Elem.Type {
			return OK
		}
	}

	return INVALID
}

// ============================================================================
// Map
// ============================================================================

// MapType represents {K: V}.
type MapType struct {
	Key   QualType
	Value QualType
}

func (*MapType) isType() {}

func (t *MapType) String() string {
	return "{" + t.Key.String() + ": " + t.Value.String() + "}"
}

// CastResult: Map(K,V) -> string is OK; else INVALID.
func (t *MapType) CastResult(to Type) CastResult {
	if b, ok := to.(*BuiltinType); ok && b.Kind == String {
		return OK
	}

	return INVALID
}

// ============================================================================
// Function
// ============================================================================

// FunctionType represents fn(params...) -> ret.
type FunctionType struct {
	Return QualType
	Params []QualType
}

func (*FunctionType) isType() {}

func (t *FunctionType) String() string {
	s := "fn ("

	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}

		s += p.String()
	}

	return s + ") -> " + t.Return.String()
}

// CastResult: Function -> string is OK; else INVALID.
func (t *FunctionType) CastResult(to Type) CastResult {
	if b, ok := to.(*BuiltinType); ok && b.Kind == String {
		return OK
	}

	return INVALID
}

func (t *FunctionType) equals(ret QualType, params []QualType) bool {
	if t.Return != ret || len(t.Params) != len(params) {
		return false
	}

	for i := range params {
		if t.Params[i] != params[i] {
			return false
		}
	}

	return true
}

// ============================================================================
// User
// ============================================================================

// UserType names a struct, enum or type-alias declaration.
type UserType struct {
	Decl Decl
}

func (*UserType) isType() {}

func (t *UserType) String() string { return t.Decl.DeclName() }

// CastResult: a user type is only ever OK-cast to itself (handled by the
// identical-type fast path in QualType.CastResult); anything else is
// INVALID. User-to-string is intentionally not granted: spec.md's list of
// OK rules never mentions user types.
func (t *UserType) CastResult(Type) CastResult { return INVALID }

// ============================================================================
// Template placeholders
// ============================================================================

// TemplateParamType is an unbound template parameter (spec.md §3: "two
// placeholders for template parameters/specializations"). via's core
// surface does not otherwise specify template instantiation; this variant
// exists so the Type sum is complete and future template support has a
// home without changing the shape of the sum.
type TemplateParamType struct {
	Name string
}

func (*TemplateParamType) isType() {}

func (t *TemplateParamType) String() string { return "template " + t.Name }

func (t *TemplateParamType) CastResult(Type) CastResult { return INVALID }

// TemplateSpecType is a template parameter applied to concrete type
// arguments.
type TemplateSpecType struct {
	Base *TemplateParamType
	Args []QualType
}

func (*TemplateSpecType) isType() {}

func (t *TemplateSpecType) String() string {
	s := t.Base.String() + "<"

	for i, a := range t.Args {
		if i > 0 {
			s += ", "
		}

		s += a.String()
	}

	return s + ">"
}

func (t *TemplateSpecType) CastResult(Type) CastResult { return INVALID }

// ============================================================================
// Qualifiers and QualType
// ============================================================================

// Qualifier is a bitmask of the modifiers a QualType may carry.
type Qualifier uint8

// The three qualifier bits. Strong requires Reference (spec.md §3).
const (
	Const Qualifier = 1 << iota
	Strong
	Reference
)

// QualType pairs a canonical Type with its qualifiers. QualType values are
// comparable and are used directly as hash-consing keys by Context.
type QualType struct {
	Type  Type
	Quals Qualifier
}

// New constructs a QualType, ignoring the const/strong/reference
// distinction (no qualifiers set).
func New(t Type) QualType { return QualType{Type: t} }

// IsConst reports whether the const qualifier is set.
func (q QualType) IsConst() bool { return q.Quals&Const != 0 }

// IsStrong reports whether the strong qualifier is set.
func (q QualType) IsStrong() bool { return q.Quals&Strong != 0 }

// IsReference reports whether the reference qualifier is set.
func (q QualType) IsReference() bool { return q.Quals&Reference != 0 }

// Valid reports whether this QualType's qualifier combination is legal:
// strong requires reference.
func (q QualType) Valid() bool {
	return !q.IsStrong() || q.IsReference()
}

// WithQuals returns a copy of t qualified by quals.
func WithQuals(t Type, quals Qualifier) QualType {
	return QualType{Type: t, Quals: quals}
}

func (q QualType) String() string {
	if q.Type == nil {
		return "<type error>"
	}

	s := ""

	if q.IsConst() {
		s += "const "
	}

	if q.IsStrong() {
		s += "strong "
	}

	if q.IsReference() {
		s += "&"
	}

	return s + q.Type.String()
}

// CastResult implements spec.md §3's qualifier rules before delegating to
// the underlying Type's CastResult: dropping const, flipping strong, or
// flipping reference is INVALID regardless of the underlying types.
func (q QualType) CastResult(to QualType) CastResult {
	if q.Type == nil || to.Type == nil {
		return INVALID
	}

	if q.IsConst() && !to.IsConst() {
		return INVALID
	}

	if q.IsStrong() != to.IsStrong() {
		return INVALID
	}

	if q.IsReference() != to.IsReference() {
		return INVALID
	}

	if q.Type == to.Type {
		return OK
	}

	return q.Type.CastResult(to.Type)
}
