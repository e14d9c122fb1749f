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

// Package debugadapter exposes a via VM session over JSON-RPC, grounded on
// the original implementation's interactive Debugger/CommandTable
// (original_source/core/vm/debugger.hpp) but re-cast as a jsonrpc2 server
// rather than a blocking stdin command loop, so an editor can drive it the
// same way it would a Debug Adapter Protocol backend. There is no DAP
// client library in this revision's dependency set; go.lsp.dev/protocol's
// Position/Range types are reused to describe breakpoint locations since
// they are structurally identical to DAP's, and go.lsp.dev/jsonrpc2 carries
// the wire protocol both specs share (spec.md §4 "Debugging").
package debugadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/XnLogicaL/via-lang/pkg/bytecode"
	"github.com/XnLogicaL/via-lang/pkg/vm"
)

// Breakpoint is one paused-execution location, keyed by block ID (the only
// address granularity ExecUnit.Labels records; spec.md's "Labels" field is
// documented there as existing for exactly this purpose).
type Breakpoint struct {
	Block uint32
	Pos   protocol.Position
}

// Session wraps one running VM with the pause/resume/inspect state a
// front-end needs, and the breakpoint set it checks between Step calls.
type Session struct {
	VM   *vm.VM
	Exe  *bytecode.ExecUnit
	URI  uri.URI
	Log  *zap.Logger
	Done bool

	breakpoints map[uint32]Breakpoint
	atBlockPC   map[int]uint32 // PC -> block ID, inverse of Exe.Labels
}

// NewSession wraps machine for debugging the program loaded from path.
func NewSession(machine *vm.VM, exe *bytecode.ExecUnit, path string, log *zap.Logger) *Session {
	if log == nil {
		log, _ = zap.NewProduction()
	}

	atPC := make(map[int]uint32, len(exe.Labels))
	for block, pc := range exe.Labels {
		atPC[pc] = block
	}

	return &Session{
		VM:          machine,
		Exe:         exe,
		URI:         uri.File(path),
		Log:         log,
		breakpoints: make(map[uint32]Breakpoint),
		atBlockPC:   atPC,
	}
}

// SetBreakpoint arms a pause at the start of the given block.
func (s *Session) SetBreakpoint(block uint32, pos protocol.Position) {
	s.breakpoints[block] = Breakpoint{Block: block, Pos: pos}
}

// ClearBreakpoints disarms every breakpoint.
func (s *Session) ClearBreakpoints() {
	s.breakpoints = make(map[uint32]Breakpoint)
}

// atBreakpoint reports whether the VM's current PC starts a block carrying
// an armed breakpoint.
func (s *Session) atBreakpoint() bool {
	block, ok := s.atBlockPC[s.VM.PC()]
	if !ok {
		return false
	}

	_, armed := s.breakpoints[block]

	return armed
}

// Continue single-steps the VM until it halts, an unhandled error occurs,
// or it reaches an armed breakpoint (in which case Continue returns with
// Done still false).
func (s *Session) Continue() error {
	for {
		if s.atBreakpoint() {
			s.Log.Debug("paused at breakpoint", zap.Int("pc", s.VM.PC()))
			return nil
		}

		halted, err := s.VM.Step()
		if err != nil {
			s.Done = true
			return err
		}

		if halted {
			s.Done = true
			return nil
		}
	}
}

// Next steps exactly one instruction, ignoring breakpoints (the
// single-step-over-one-opcode granularity this register machine supports;
// there is no source-line stepping without a PC-to-line table this
// revision's emitter does not yet produce).
func (s *Session) Next() error {
	halted, err := s.VM.Step()
	if halted {
		s.Done = true
	}

	return err
}

// Handler adapts Session to jsonrpc2.Handler, dispatching the small request
// set this server understands: "via/setBreakpoint", "via/clearBreakpoints",
// "via/continue", "via/next".
func (s *Session) Handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case "via/setBreakpoint":
			var params struct {
				Block uint32            `json:"block"`
				Pos   protocol.Position `json:"position"`
			}
			if err := unmarshalParams(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			s.SetBreakpoint(params.Block, params.Pos)
			return reply(ctx, true, nil)

		case "via/clearBreakpoints":
			s.ClearBreakpoints()
			return reply(ctx, true, nil)

		case "via/continue":
			err := s.Continue()
			return reply(ctx, map[string]any{"pc": s.VM.PC(), "done": s.Done}, err)

		case "via/next":
			err := s.Next()
			return reply(ctx, map[string]any{"pc": s.VM.PC(), "done": s.Done}, err)

		default:
			return reply(ctx, nil, fmt.Errorf("unknown method %q", req.Method()))
		}
	}
}

// unmarshalParams is split out purely so the jsonrpc2.Request.Params
// decoding strategy has one call site; go.lsp.dev/jsonrpc2 requests carry
// their params as raw JSON.
func unmarshalParams(req jsonrpc2.Request, dst any) error {
	return json.Unmarshal(req.Params(), dst)
}
