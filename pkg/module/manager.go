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

// Package module implements via's module manager: source/native module
// loading, import resolution with cycle detection, permission inheritance,
// and the per-module definition table (spec.md §3 "Module", §4.5, §4.6).
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/XnLogicaL/via-lang/pkg/diag"
	"github.com/XnLogicaL/via-lang/pkg/ir"
	"github.com/XnLogicaL/via-lang/pkg/parser"
	"github.com/XnLogicaL/via-lang/pkg/source"
	"github.com/XnLogicaL/via-lang/pkg/symbol"
	"github.com/XnLogicaL/via-lang/pkg/token"
	"github.com/XnLogicaL/via-lang/pkg/types"
)

// Kind distinguishes a module backed by source text from one backed by a
// native registration.
type Kind uint8

const (
	KindSource Kind = iota
	KindNative
)

// Module owns one compiled (or loading) unit: its source buffer, IR tree,
// definition table, permission/flag bitmasks and a breadcrumb back to its
// importer (spec.md §3 "Module").
type Module struct {
	Manager  *Manager
	Name     symbol.Symbol
	Path     string
	Kind     Kind
	Perms    Perm
	Flags    Flag
	Importer *Module

	Buf   *source.Buffer // nil for native
	IR    ir.Tree
	Diags *diag.Context

	// Exe is the module's compiled bytecode program, an opaque *bytecode.ExecUnit
	// set by pkg/build after a successful IR build (empty for native modules
	// and for a module whose compile failed). Left untyped here so pkg/module
	// itself never needs to import pkg/bytecode: loading/resolution and
	// bytecode generation are deliberately separate concerns, wired together
	// by pkg/build's pipeline driver.
	Exe any

	irDefs  []ir.Def
	Defs    DefTable
	Imports []*Module
}

// Lookup returns the definition exported under sym, if any.
func (m *Module) Lookup(sym symbol.Symbol) (Def, bool) {
	d, ok := m.Defs[sym]
	return d, ok
}

// NativeInitFunc is the Go analogue of the `viainit_<name>` C entry point
// (spec.md §4.6): given the manager, it returns the module's export table.
// Native modules are registered in-process via RegisterNative rather than
// resolved through dlopen/LoadLibrary — via is a byte-code language host
// embedded in a single Go binary in this revision, and cgo-based dynamic
// loading would tie the toolchain to a single platform/compiler ABI for no
// benefit a pure-Go process-wide registry doesn't already provide. The
// `viainit_<name>` naming convention and NativeModuleInfo shape carry over
// unchanged; only the loading mechanism differs.
type NativeInitFunc func(m *Manager) *NativeModuleInfo

// Manager owns the shared type context, the module search path list, every
// loaded module (keyed by canonical path), the "currently importing" stack
// used for cycle detection, and the native module registry.
type Manager struct {
	Ctx        *types.Context
	SearchPath []string
	Log        *log.Logger

	loaded    map[string]*Module
	importing []symbol.Symbol
	natives   map[string]NativeInitFunc
}

// NewManager constructs a Manager with the given module search path roots,
// in priority order.
func NewManager(searchPath []string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Manager{
		Ctx:        types.NewContext(),
		SearchPath: searchPath,
		Log:        logger,
		loaded:     make(map[string]*Module),
		natives:    make(map[string]NativeInitFunc),
	}
}

// RegisterNative registers a native module's init function under name, the
// symbol `viainit_<name>` would otherwise name (spec.md §4.6).
func (m *Manager) RegisterNative(name string, init NativeInitFunc) {
	m.natives[name] = init
}

// nativeExt is the platform's native module extension (spec.md §6).
func nativeExt() string {
	if runtime.GOOS == "windows" {
		return ".dll"
	}

	return ".so"
}

// candidate is one file the resolver is willing to accept for a given
// logical import path.
type candidate struct {
	kind Kind
	path string
}

// resolveImportPath implements spec.md §4.5 step 3 / §6 "Module
// resolution": `<dir>/<segments>/<name>.via`, `.viac` (reserved, not
// produced by anything in this revision but still probed), the native
// extension, then a `<name>/module.via` subdirectory fallback.
func (m *Manager) resolveImportPath(path symbol.QualName) (candidate, bool) {
	segs := make([]string, len(path)-1)
	for i, s := range path[:len(path)-1] {
		segs[i] = symbol.Text(s)
	}

	name := symbol.Text(path.Last())

	for _, root := range m.SearchPath {
		dir := filepath.Join(append([]string{root}, segs...)...)

		tries := []candidate{
			{KindSource, filepath.Join(dir, name+".via")},
			{KindSource, filepath.Join(dir, name+".viac")},
			{KindNative, filepath.Join(dir, name+nativeExt())},
			{KindSource, filepath.Join(dir, name, "module.via")},
		}

		for _, c := range tries {
			if fi, err := os.Stat(c.path); err == nil && fi.Mode().IsRegular() {
				return c, true
			}
		}

		// A module registered via RegisterNative has no file on disk; accept
		// it under its bare name regardless of search root.
		if _, ok := m.natives[name]; ok {
			return candidate{KindNative, name}, true
		}
	}

	return candidate{}, false
}

func (m *Manager) isImporting(name symbol.Symbol) bool {
	for _, s := range m.importing {
		if s == name {
			return true
		}
	}

	return false
}

// Import implements spec.md §4.5's `import(path, from)` algorithm: cycle
// detection via the importing stack, a loaded-module cache keyed by
// canonical path, candidate resolution, and dispatch to the source or
// native loader. importer is nil for the program's root module.
func (m *Manager) Import(path symbol.QualName, from source.Loc, importer *Module) (*Module, error) {
	alias := path.Last()

	if m.isImporting(alias) {
		return nil, fmt.Errorf("recursive import of '%s'", path)
	}

	perms := ALL
	flags := Flag(0)

	if importer != nil {
		if !importer.Perms.Has(IMPORT) {
			return nil, fmt.Errorf("current module lacks import capabilities")
		}

		perms = importer.Perms
		flags = importer.Flags
	}

	m.importing = append(m.importing, alias)
	defer func() { m.importing = m.importing[:len(m.importing)-1] }()

	cand, ok := m.resolveImportPath(path)
	if !ok {
		return nil, fmt.Errorf("module '%s' not found", path)
	}

	if cached, ok := m.loaded[cand.path]; ok {
		return cached, nil
	}

	switch cand.kind {
	case KindNative:
		return m.loadNative(importer, alias, cand.path, perms, flags)
	default:
		return m.loadSource(importer, alias, cand.path, perms, flags)
	}
}

// LoadRoot loads path as the program's entry module: no importer, and
// explicit perms/flags rather than ones inherited from a caller. While it
// loads, its import name (the file name without extension) is on the
// importing stack, so a module that imports the root back is reported as a
// recursive import. This is the one entry point pkg/build's pipeline uses;
// Import itself is reserved for `import(path, from)` resolution of nested
// modules (spec.md §4.5).
func (m *Manager) LoadRoot(path string, perms Perm, flags Flag) (*Module, error) {
	base := filepath.Base(path)
	name := symbol.Intern(base)

	m.importing = append(m.importing, symbol.Intern(base[:len(base)-len(filepath.Ext(base))]))
	defer func() { m.importing = m.importing[:len(m.importing)-1] }()

	return m.loadSource(nil, name, path, perms, flags)
}

func (m *Manager) loadSource(importer *Module, name symbol.Symbol, path string, perms Perm, flags Flag) (*Module, error) {
	buf, err := source.ReadBuffer(path)
	if err != nil {
		return nil, err
	}

	mod := &Module{
		Manager: m, Name: name, Path: path, Kind: KindSource,
		Perms: perms, Flags: flags, Importer: importer, Buf: buf,
		Diags: diag.NewContext(path, m.Log),
	}

	m.loaded[path] = mod

	toks := token.Lex(buf, mod.Diags)
	if mod.Diags.HasErrors() {
		return mod, nil
	}

	tree := parser.Parse(buf, toks, mod.Diags)
	if mod.Diags.HasErrors() {
		return mod, nil
	}

	builder := ir.New(buf, mod.Diags, m.Ctx, &envAdapter{mgr: m, self: mod})
	mod.IR = builder.Build(tree)
	mod.irDefs = builder.Defs()
	mod.Defs = buildDefTable(mod.irDefs)

	return mod, nil
}

func (m *Manager) loadNative(importer *Module, name symbol.Symbol, path string, perms Perm, flags Flag) (*Module, error) {
	init, ok := m.natives[symbol.Text(name)]
	if !ok {
		return nil, fmt.Errorf("missing native entry point for '%s'", name)
	}

	info := init(m)
	if info == nil || info.Exports == nil {
		return nil, fmt.Errorf("native module '%s' returned no exports", name)
	}

	mod := &Module{
		Manager: m, Name: name, Path: path, Kind: KindNative,
		Perms: perms, Flags: flags, Importer: importer,
		Defs: make(DefTable, len(info.Exports)),
	}

	for _, e := range info.Exports {
		mod.Defs[e.Name] = e.Def
	}

	if flags.Has(DumpDefTable) {
		fmt.Fprintf(os.Stdout, "(%s) %s", symbol.Text(name), mod.Defs)
	}

	m.loaded[path] = mod

	return mod, nil
}

func buildDefTable(defs []ir.Def) DefTable {
	table := make(DefTable, len(defs))

	for _, d := range defs {
		if def := fromIR(d); def != nil {
			table[d.Symbol] = def
		}
	}

	return table
}

// envAdapter implements ir.ModuleEnv for exactly one module's build, so
// the builder's import resolution can reach back into the manager without
// pkg/ir importing pkg/module (see pkg/ir's ModuleEnv doc comment).
type envAdapter struct {
	mgr  *Manager
	self *Module
}

func (e *envAdapter) Import(path symbol.QualName, from source.Loc) (*ir.ModuleHandle, error) {
	imported, err := e.mgr.Import(path, from, e.self)
	if err != nil {
		return nil, err
	}

	e.self.Imports = append(e.self.Imports, imported)

	return &ir.ModuleHandle{Name: path.Last(), Exports: exportsOf(imported)}, nil
}

// exportsOf reduces a loaded module's definitions down to the
// symbol->QualType map ExprModuleAccess type-checking needs. Native
// modules (no irDefs) are reduced from their DefTable instead, so a source
// module can import a native one and still get static type checking on
// `module::symbol` access.
func exportsOf(mod *Module) map[symbol.Symbol]types.QualType {
	exports := make(map[symbol.Symbol]types.QualType, len(mod.irDefs)+len(mod.Defs))

	for _, d := range mod.irDefs {
		switch {
		case d.Func != nil:
			params := make([]types.QualType, len(d.Func.Params))
			for i, p := range d.Func.Params {
				params[i] = p.Type
			}

			exports[d.Symbol] = types.New(mod.Manager.Ctx.Function(d.Func.Return, params))
		case d.Const != nil:
			exports[d.Symbol] = d.Type
		}
	}

	for sym, def := range mod.Defs {
		if _, ok := exports[sym]; ok {
			continue
		}

		if fd, ok := def.(*FunctionDef); ok {
			params := make([]types.QualType, len(fd.Params))
			for i, p := range fd.Params {
				params[i] = p.Type
			}

			exports[sym] = types.New(mod.Manager.Ctx.Function(fd.Return, params))
		}
	}

	return exports
}
