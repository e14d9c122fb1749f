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

// Package diag implements the structured diagnostics sink shared by every
// compile-time pass: severities, source-anchored messages and the optional
// footnote that accompanies many of them.
package diag

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/XnLogicaL/via-lang/pkg/source"
)

// Severity classifies a Diagnostic.
type Severity int

// The three severities a Diagnostic may carry.
const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// FootnoteKind distinguishes the three flavours of supplementary note a
// Diagnostic may carry.
type FootnoteKind int

// The footnote kinds named by spec.md §7.
const (
	Hint FootnoteKind = iota
	Note
	Suggestion
)

func (k FootnoteKind) String() string {
	switch k {
	case Hint:
		return "hint"
	case Note:
		return "note"
	case Suggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// Footnote is an optional supplementary remark attached to a Diagnostic.
type Footnote struct {
	Kind FootnoteKind
	Text string
}

// Diagnostic bundles a severity, a source location, a message and an
// optional footnote.
type Diagnostic struct {
	Severity Severity
	File     string
	Loc      source.Loc
	Message  string
	Footnote *Footnote
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s:%d: %s", d.Severity, d.File, d.Loc.Begin, d.Message)
	if d.Footnote != nil {
		s += fmt.Sprintf(" (%s: %s)", d.Footnote.Kind, d.Footnote.Text)
	}

	return s
}

// Context is a per-module sink which collects diagnostics in submission
// order. Any Error severity suppresses later pipeline stages for that
// module (spec.md §7).
type Context struct {
	filename string
	items    []Diagnostic
	log      *log.Logger
}

// NewContext constructs an empty diagnostics sink for a named source file.
// A nil logger installs logrus's standard logger.
func NewContext(filename string, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Context{filename: filename, log: logger}
}

// Emit records a diagnostic and logs it at a level derived from severity.
func (c *Context) Emit(sev Severity, loc source.Loc, msg string, footnote *Footnote) {
	d := Diagnostic{sev, c.filename, loc, msg, footnote}
	c.items = append(c.items, d)

	switch sev {
	case Error:
		c.log.WithField("file", c.filename).Debug(d.String())
	case Warning:
		c.log.WithField("file", c.filename).Trace(d.String())
	default:
		c.log.WithField("file", c.filename).Trace(d.String())
	}
}

// EmitInfo records an INFO diagnostic.
func (c *Context) EmitInfo(loc source.Loc, msg string) {
	c.Emit(Info, loc, msg, nil)
}

// EmitWarning records a WARNING diagnostic, optionally with a footnote.
func (c *Context) EmitWarning(loc source.Loc, msg string, footnote *Footnote) {
	c.Emit(Warning, loc, msg, footnote)
}

// EmitError records an ERROR diagnostic, optionally with a footnote.
func (c *Context) EmitError(loc source.Loc, msg string, footnote *Footnote) {
	c.Emit(Error, loc, msg, footnote)
}

// Diagnostics returns every diagnostic recorded so far, in submission order.
func (c *Context) Diagnostics() []Diagnostic { return c.items }

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (c *Context) HasErrors() bool {
	for _, d := range c.items {
		if d.Severity == Error {
			return true
		}
	}

	return false
}

// Count returns the number of diagnostics of a given severity.
func (c *Context) Count(sev Severity) int {
	n := 0

	for _, d := range c.items {
		if d.Severity == sev {
			n++
		}
	}

	return n
}
