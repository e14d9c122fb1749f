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

package debugadapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// ServeStdio runs Session's jsonrpc2.Handler over stdin/stdout until the
// connection closes, the way a editor-integrated debug client would drive
// it (spec.md §4 "Debugging": an external front-end talks JSON-RPC to a via
// process rather than via talking to a terminal directly).
func ServeStdio(ctx context.Context, s *Session) error {
	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)

	conn.Go(ctx, s.Handler())
	<-conn.Done()

	return conn.Err()
}

// stdrwc adapts os.Stdin/os.Stdout to the io.ReadWriteCloser a jsonrpc2
// stream needs.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdrwc) Close() error                { return nil }

// REPL drives Session interactively from a terminal, the Go analogue of the
// grounding source's CommandTable-backed Debugger::start() loop
// (debugger.hpp). Commands: "next" (single step), "continue" (run to
// breakpoint/halt), "break <block>" (arm a breakpoint), "quit".
//
// It puts the terminal into raw mode via golang.org/x/term once, for the
// whole session, so that term.Terminal can do its own line editing, and
// restores the previous mode only when the REPL returns. When stdin is not
// a terminal, or raw mode cannot be set, it reads plain lines instead. This
// revision does not implement a curses-style split view, unlike the
// grounding source's TODO-flagged "Modularize" logger.
func REPL(s *Session, log *zap.Logger) error {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return runLineREPL(s, os.Stdin, os.Stdout, log)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return runLineREPL(s, os.Stdin, os.Stdout, log)
	}
	defer term.Restore(fd, state) //nolint:errcheck

	t := term.NewTerminal(os.Stdin, "via> ")

	for {
		line, err := t.ReadLine()
		if err != nil {
			return err
		}

		if done := s.handleLine(strings.TrimSpace(line), log); done {
			return nil
		}
	}
}

// runLineREPL is the non-TTY fallback (e.g. stdin piped from a script),
// using plain buffered line reads instead of x/term's raw-mode editor.
func runLineREPL(s *Session, r io.Reader, w io.Writer, log *zap.Logger) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		fmt.Fprint(w, "via> ")

		if done := s.handleLine(strings.TrimSpace(scanner.Text()), log); done {
			return nil
		}
	}

	return scanner.Err()
}

func (s *Session) handleLine(line string, log *zap.Logger) (done bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "next", "n":
		if err := s.Next(); err != nil {
			log.Error("step failed", zap.Error(err))
		}
	case "continue", "c":
		if err := s.Continue(); err != nil {
			log.Error("run failed", zap.Error(err))
		}
	case "break", "b":
		if len(fields) < 2 {
			log.Warn("usage: break <block-id>")
			return false
		}
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			log.Warn("invalid block id", zap.String("arg", fields[1]))
			return false
		}
		s.SetBreakpoint(uint32(n), protocol.Position{})
	case "quit", "q":
		return true
	default:
		log.Warn("unknown command", zap.String("cmd", fields[0]))
	}

	return s.Done
}
