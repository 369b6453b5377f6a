// This file is part of vmt - https://github.com/Carlos24Rz/vmt
//
// Copyright 2024 The vmt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Carlos24Rz/vmt/vm"
)

// SyntaxError reports a malformed source line. Line is 1-based.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Parser reads a source unit line by line, strips comments and blank
// lines, and classifies each remaining line into a vm.Command. It is
// strictly streaming: HasMore reads ahead to the next candidate line and
// Advance classifies it.
type Parser struct {
	s    *bufio.Scanner
	name string
	line int
	text string // next candidate line, set by HasMore
	cmd  vm.Command
	err  error
}

// NewParser returns a Parser reading from r. The name parameter is used in
// error messages only; if r is a file, it should be the file name.
func NewParser(name string, r io.Reader) *Parser {
	return &Parser{s: bufio.NewScanner(r), name: name}
}

// HasMore skips comments and blank lines and reports whether another
// command candidate is available. Advance is valid only after HasMore
// returned true.
func (p *Parser) HasMore() bool {
	if p.text != "" {
		return true
	}
	for p.s.Scan() {
		p.line++
		t := p.s.Text()
		if i := strings.Index(t, "//"); i >= 0 {
			t = t[:i]
		}
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		p.text = t
		return true
	}
	p.err = p.s.Err()
	return false
}

// Line returns the 1-based source line number of the current command.
func (p *Parser) Line() int { return p.line }

// Err returns the first error encountered while reading the input, if any.
// Syntax errors are reported by Advance, not here.
func (p *Parser) Err() error { return p.err }

// Current returns the most recently parsed command.
func (p *Parser) Current() vm.Command { return p.cmd }

// Advance classifies the line found by HasMore and makes it the current
// command. On a syntax error the current command is left untouched and the
// parser remains usable: the offending line is consumed and the next
// HasMore/Advance pair moves on.
func (p *Parser) Advance() (vm.Command, error) {
	text := p.text
	p.text = ""

	fields := strings.Fields(text)
	var cmd vm.Command
	switch len(fields) {
	case 1:
		if fields[0] == "return" {
			cmd = vm.Command{Kind: vm.Return}
			break
		}
		// operator validity is the code generator's call
		cmd = vm.Command{Kind: vm.Arithmetic, Arg: fields[0]}
	case 2:
		var k vm.Kind
		switch fields[0] {
		case "label":
			k = vm.Label
		case "goto":
			k = vm.Goto
		case "if-goto":
			k = vm.IfGoto
		default:
			return p.fail("unrecognized command %q", text)
		}
		if !vm.ValidSymbol(fields[1]) {
			return p.fail("invalid symbol %q", fields[1])
		}
		cmd = vm.Command{Kind: k, Arg: fields[1]}
	case 3:
		n, err := strconv.ParseUint(fields[2], 10, 31)
		if err != nil {
			return p.fail("invalid index %q", fields[2])
		}
		switch fields[0] {
		case "push":
			cmd = vm.Command{Kind: vm.Push, Arg: fields[1], Index: int(n)}
		case "pop":
			cmd = vm.Command{Kind: vm.Pop, Arg: fields[1], Index: int(n)}
		case "function", "call":
			if !vm.ValidSymbol(fields[1]) {
				return p.fail("invalid symbol %q", fields[1])
			}
			k := vm.Function
			if fields[0] == "call" {
				k = vm.Call
			}
			cmd = vm.Command{Kind: k, Arg: fields[1], Index: int(n)}
		default:
			return p.fail("unrecognized command %q", text)
		}
	default:
		return p.fail("unrecognized command %q", text)
	}

	p.cmd = cmd
	return cmd, nil
}

func (p *Parser) fail(format string, args ...interface{}) (vm.Command, error) {
	return p.cmd, &SyntaxError{File: p.name, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}
