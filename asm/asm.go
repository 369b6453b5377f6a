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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Carlos24Rz/vmt/vm"
)

// File extensions of source units and of the emitted assembly.
const (
	SourceExt = ".vm"
	OutputExt = ".asm"
)

// Position locates a diagnostic in a source unit.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Error is one translation diagnostic: the command at Pos was reported and
// skipped.
type Error struct {
	Pos Position
	Err error
}

func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Err.Error()
}

// ErrList collects the diagnostics reported while translating. It renders
// at most ten entries.
type ErrList []*Error

func (e ErrList) Error() string {
	var b strings.Builder
	for i, err := range e {
		if i == 10 {
			fmt.Fprintf(&b, "... and %d more errors", len(e)-i)
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Translate translates one source unit read from r, appending assembly to
// w's output stream. The name parameter names the unit: it is used both to
// derive the unit identifier and in diagnostics.
//
// Malformed commands are reported and skipped; translation continues with
// the next line. The returned error is an ErrList of the diagnostics
// collected, unless reading the source or writing the output failed
// outright.
func Translate(w *Writer, name string, r io.Reader) error {
	if err := w.BeginUnit(name); err != nil {
		return err
	}
	var errs ErrList
	p := NewParser(name, r)
	for p.HasMore() {
		cmd, err := p.Advance()
		if err == nil {
			err = generate(w, cmd)
		}
		if err != nil {
			errs = append(errs, &Error{Position{name, p.Line()}, err})
		}
		if w.Err() != nil {
			return w.Err()
		}
	}
	if err := p.Err(); err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// generate dispatches one parsed command to its Writer entry point.
func generate(w *Writer, cmd vm.Command) error {
	switch cmd.Kind {
	case vm.Arithmetic:
		return w.Arithmetic(cmd.Arg)
	case vm.Push:
		return w.Push(cmd.Arg, cmd.Index)
	case vm.Pop:
		return w.Pop(cmd.Arg, cmd.Index)
	case vm.Label:
		return w.Label(cmd.Arg)
	case vm.Goto:
		return w.Goto(cmd.Arg)
	case vm.IfGoto:
		return w.IfGoto(cmd.Arg)
	case vm.Function:
		return w.Function(cmd.Arg, cmd.Index)
	case vm.Call:
		return w.Call(cmd.Arg, cmd.Index)
	case vm.Return:
		return w.Return()
	}
	return errors.Errorf("unhandled command kind %v", cmd.Kind)
}

// TranslateFile translates the single source unit at path. The output is
// written to out, or to a sibling file with the OutputExt extension when
// out is empty. It returns the output path.
func TranslateFile(path, out string, opts ...Option) (string, error) {
	if filepath.Ext(path) != SourceExt {
		return "", errors.Errorf("%s: not a %s source file", path, SourceExt)
	}
	if out == "" {
		out = strings.TrimSuffix(path, SourceExt) + OutputExt
	}
	return out, translateUnits(out, false, []string{path}, opts)
}

// TranslateDir translates every source unit directly under dir, sorted by
// name, into one shared output. The output is written to out, or to
// dir/<base>.asm when out is empty. When bootstrap is true the output
// starts with the power-on preamble. It returns the output path.
func TranslateDir(dir, out string, bootstrap bool, opts ...Option) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "read source directory")
	}
	var units []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == SourceExt {
			units = append(units, filepath.Join(dir, e.Name()))
		}
	}
	if len(units) == 0 {
		return "", errors.Errorf("no %s files in %s", SourceExt, dir)
	}
	sort.Strings(units)
	if out == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		out = filepath.Join(dir, filepath.Base(abs)+OutputExt)
	}
	return out, translateUnits(out, bootstrap, units, opts)
}

// translateUnits drives one full run: open the output, emit the optional
// bootstrap, translate each unit through one shared Writer, flush and
// close. Per-command diagnostics from all units are aggregated; I/O
// failures abort the run.
func translateUnits(out string, bootstrap bool, units []string, opts []Option) error {
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	bw := bufio.NewWriter(f)
	w := NewWriter(bw, opts...)

	var errs ErrList
	if bootstrap {
		if err = w.Bootstrap(); err != nil {
			f.Close()
			return err
		}
	}
	for _, unit := range units {
		in, err := os.Open(unit)
		if err != nil {
			f.Close()
			return errors.Wrap(err, "open source")
		}
		err = Translate(w, unit, in)
		in.Close()
		if list, ok := err.(ErrList); ok {
			errs = append(errs, list...)
		} else if err != nil {
			f.Close()
			return err
		}
	}
	if err = bw.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "write failed")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
