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
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Carlos24Rz/vmt/internal/vti"
	"github.com/Carlos24Rz/vmt/vm"
)

// Code generation failure reasons. Errors returned by Writer methods wrap
// one of these; compare with errors.Cause. All of them are local: the
// failing command is discarded and the Writer remains usable.
var (
	ErrInvalidOperator = errors.New("invalid arithmetic-logical operator")
	ErrInvalidSegment  = errors.New("invalid memory segment")
	ErrConstantPop     = errors.New("constant is not a valid pop destination")
	ErrInvalidIndex    = errors.New("segment index out of range")
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrNameTooLong     = errors.New("name too long")
	ErrNoUnit          = errors.New("no source unit set")
)

// DefaultMaxNameLen bounds unit, function and label names unless
// overridden with the MaxNameLen option.
const DefaultMaxNameLen = 256

// Writer translates parsed VM commands into Hack assembly, expanding one
// fixed template per command on its output stream. It carries the per-unit
// namespacing state (unit identifier, current function) and the monotonic
// counters that keep emitted labels unique.
//
// A Writer owns its output stream exclusively for the duration of a run;
// it is not safe for concurrent use. Label uniqueness depends on strictly
// monotonic counter increments.
type Writer struct {
	out      *vti.ErrWriter
	unit     string // namespaces static variables and branch targets
	fn       string // most recently emitted function command
	boolCnt  int    // one per emitted boolean comparison
	callCnt  int    // one per emitted call site
	maxName  int
	comments bool
}

// Option configures a Writer.
type Option func(*Writer)

// MaxNameLen sets the maximum accepted length for unit, function and label
// names. The default is DefaultMaxNameLen.
func MaxNameLen(n int) Option {
	return func(w *Writer) { w.maxName = n }
}

// NoComments disables the traceability comment emitted before each
// translated command.
func NoComments() Option {
	return func(w *Writer) { w.comments = false }
}

// NewWriter returns a Writer emitting assembly to out.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:      vti.NewErrWriter(out),
		maxName:  DefaultMaxNameLen,
		comments: true,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Err returns the first write error encountered, if any. Once set, every
// entry point keeps returning it.
func (w *Writer) Err() error { return w.out.Err }

// BeginUnit starts a new source unit: the unit identifier is derived from
// path with directory and extension stripped, and the current function is
// cleared. The boolean-branch and call-site counters deliberately keep
// counting across units sharing one output stream.
func (w *Writer) BeginUnit(path string) error {
	name := filepath.Base(path)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if !vm.ValidSymbol(name) {
		return errors.Wrapf(ErrInvalidSymbol, "unit %q", path)
	}
	if len(name) > w.maxName {
		return errors.Wrapf(ErrNameTooLong, "unit %q", name)
	}
	w.unit = name
	w.fn = ""
	return nil
}

// Bootstrap emits the power-on preamble used when several units share one
// output stream: the stack pointer is set to 256 and Sys.init is called
// with no arguments.
func (w *Writer) Bootstrap() error {
	w.comment("bootstrap")
	w.out.Line("@256", "D=A", "@SP", "M=D")
	unit := w.unit
	w.unit = "Bootstrap"
	err := w.Call("Sys.init", 0)
	w.unit = unit
	return err
}

// Arithmetic emits the assembly for one arithmetic-logical command. The
// binary operations stash the first popped operand in R13 while the second
// is popped; eq, gt and lt lower to the uniform -1/0 boolean
// representation through a pair of freshly minted branch labels.
func (w *Writer) Arithmetic(name string) error {
	if err := w.ready(); err != nil {
		return err
	}
	op, ok := vm.OpFor(name)
	if !ok {
		return errors.Wrapf(ErrInvalidOperator, "%q", name)
	}
	w.comment("%s", name)
	w.popD()
	switch op {
	case vm.OpNeg:
		w.out.Line("D=-D")
	case vm.OpNot:
		w.out.Line("D=!D")
	default:
		w.out.Line("@R13", "M=D")
		w.popD()
		w.out.Line("@R13")
		switch op {
		case vm.OpAdd:
			w.out.Line("D=D+M")
		case vm.OpSub:
			w.out.Line("D=D-M")
		case vm.OpAnd:
			w.out.Line("D=D&M")
		case vm.OpOr:
			w.out.Line("D=D|M")
		default:
			w.boolean(op)
		}
	}
	w.pushD()
	return w.out.Err
}

// Push emits the assembly that pushes segment[index], or the literal index
// for the constant segment.
func (w *Writer) Push(segment string, index int) error {
	if err := w.ready(); err != nil {
		return err
	}
	seg, ok := vm.SegmentFor(segment)
	if !ok {
		return errors.Wrapf(ErrInvalidSegment, "%q", segment)
	}
	if err := checkIndex(seg, index); err != nil {
		return err
	}
	w.comment("push %s %d", segment, index)
	switch seg {
	case vm.Constant:
		w.out.Linef("@%d", index)
		w.out.Line("D=A")
	case vm.Static:
		w.out.Linef("@%s.%d", w.unit, index)
		w.out.Line("D=M")
	case vm.Pointer:
		w.out.Linef("@R%d", 3+index)
		w.out.Line("D=M")
	case vm.Temp:
		w.out.Linef("@R%d", 5+index)
		w.out.Line("D=M")
	default: // argument, local, this, that
		w.out.Linef("@%d", index)
		w.out.Line("D=A")
		w.out.Linef("@%s", seg.Base())
		w.out.Line("A=D+M", "D=M")
	}
	w.pushD()
	return w.out.Err
}

// Pop emits the assembly that pops the top of the stack into
// segment[index]. For the indirectly addressed segments the popped value
// waits in R13 while the destination address is computed into R14, so
// neither clobbers the other.
func (w *Writer) Pop(segment string, index int) error {
	if err := w.ready(); err != nil {
		return err
	}
	seg, ok := vm.SegmentFor(segment)
	if !ok {
		return errors.Wrapf(ErrInvalidSegment, "%q", segment)
	}
	if seg == vm.Constant {
		return errors.Wrapf(ErrConstantPop, "pop constant %d", index)
	}
	if err := checkIndex(seg, index); err != nil {
		return err
	}
	w.comment("pop %s %d", segment, index)
	w.popD()
	switch seg {
	case vm.Static:
		w.out.Linef("@%s.%d", w.unit, index)
		w.out.Line("M=D")
	case vm.Pointer:
		w.out.Linef("@R%d", 3+index)
		w.out.Line("M=D")
	case vm.Temp:
		w.out.Linef("@R%d", 5+index)
		w.out.Line("M=D")
	default: // argument, local, this, that
		w.out.Line("@R13", "M=D")
		w.out.Linef("@%d", index)
		w.out.Line("D=A")
		w.out.Linef("@%s", seg.Base())
		w.out.Line("A=D+M", "D=A", "@R14", "M=D")
		w.out.Line("@R13", "D=M", "@R14", "A=M", "M=D")
	}
	return w.out.Err
}

// Label emits a branch-target definition. Targets are namespaced by both
// the unit identifier and the current function, so two functions may reuse
// the same bare label text without collision.
func (w *Writer) Label(label string) error {
	if err := w.checkName(label); err != nil {
		return err
	}
	w.comment("label %s", label)
	w.out.Linef("(%s)", w.target(label))
	return w.out.Err
}

// Goto emits an unconditional jump to label.
func (w *Writer) Goto(label string) error {
	if err := w.checkName(label); err != nil {
		return err
	}
	w.comment("goto %s", label)
	w.out.Linef("@%s", w.target(label))
	w.out.Line("0;JMP")
	return w.out.Err
}

// IfGoto pops the top of the stack and branches to label if it is nonzero.
// The popped value is compared against zero with the boolean idiom, so the
// final jump fires on the false sentinel.
func (w *Writer) IfGoto(label string) error {
	if err := w.checkName(label); err != nil {
		return err
	}
	w.comment("if-goto %s", label)
	w.popD()
	w.out.Line("@R13", "M=D", "D=0")
	w.boolean(vm.OpEq)
	w.out.Linef("@%s", w.target(label))
	w.out.Line("D;JEQ")
	return w.out.Err
}

// Function emits the entry label for name and zero-initializes its nVars
// local variables. name becomes the scope for subsequent branch targets.
func (w *Writer) Function(name string, nVars int) error {
	if err := w.checkName(name); err != nil {
		return err
	}
	if nVars < 0 {
		return errors.Wrapf(ErrInvalidIndex, "function %s %d", name, nVars)
	}
	w.comment("function %s %d", name, nVars)
	w.fn = name
	w.out.Linef("(%s)", name)
	w.out.Line("D=0")
	for i := 0; i < nVars; i++ {
		w.pushD()
	}
	return w.out.Err
}

// Call emits the calling protocol: snapshot SP as the callee's argument
// base, push the return address and the caller's LCL, ARG, THIS and THAT
// base pointers in that order, rebase LCL and ARG, then jump. Return
// restores the four pointers in the exact reverse order; the push order
// here is load-bearing.
func (w *Writer) Call(name string, nArgs int) error {
	if err := w.checkName(name); err != nil {
		return err
	}
	if nArgs < 0 {
		return errors.Wrapf(ErrInvalidIndex, "call %s %d", name, nArgs)
	}
	ret := fmt.Sprintf("%s$ret.%d", w.unit, w.callCnt)
	w.callCnt++
	w.comment("call %s %d", name, nArgs)
	w.out.Line("@SP", "D=M", "@R13", "M=D")
	w.out.Linef("@%s", ret)
	w.out.Line("D=A")
	w.pushD()
	for _, base := range []string{"LCL", "ARG", "THIS", "THAT"} {
		w.out.Linef("@%s", base)
		w.out.Line("D=M")
		w.pushD()
	}
	w.out.Line("@SP", "D=M", "@LCL", "M=D")
	w.out.Line("@R13", "D=M")
	w.out.Linef("@%d", nArgs)
	w.out.Line("D=D-A", "@ARG", "M=D")
	w.out.Linef("@%s", name)
	w.out.Line("0;JMP")
	w.out.Linef("(%s)", ret)
	return w.out.Err
}

// Return emits the returning protocol, the exact inverse of the saved
// frame laid down by Call. The return address is read out of the frame
// before the return value lands in ARG[0]: with zero arguments the two
// slots alias, and reading late would jump through the return value.
func (w *Writer) Return() error {
	if err := w.ready(); err != nil {
		return err
	}
	w.comment("return")
	// frame pointer in R13, return address in R14
	w.out.Line("@LCL", "D=M", "@R13", "M=D")
	w.out.Line("@5", "A=D-A", "D=M", "@R14", "M=D")
	w.popD()
	w.out.Line("@ARG", "A=M", "M=D")
	w.out.Line("D=A+1", "@SP", "M=D")
	for _, base := range []string{"THAT", "THIS", "ARG", "LCL"} {
		w.out.Line("@R13", "AM=M-1", "D=M")
		w.out.Linef("@%s", base)
		w.out.Line("M=D")
	}
	w.out.Line("@R14", "A=M", "0;JMP")
	return w.out.Err
}

// pushD appends the data register to the stack.
func (w *Writer) pushD() {
	w.out.Line("@SP", "A=M", "M=D", "@SP", "M=M+1")
}

// popD pops the top of the stack into the data register.
func (w *Writer) popD() {
	w.out.Line("@SP", "AM=M-1", "D=M")
}

// boolean lowers a comparison to the -1/0 representation. On entry the
// second operand is in D and A addresses the cell holding the first; on
// exit D is exactly the true or false sentinel. Mints one pair of labels
// from the boolean-branch counter.
func (w *Writer) boolean(op vm.Op) {
	n := w.boolCnt
	w.boolCnt++
	w.out.Line("D=D-M")
	w.out.Linef("@BOOLEAN_TRUE.%d", n)
	switch op {
	case vm.OpEq:
		w.out.Line("D;JEQ")
	case vm.OpGt:
		w.out.Line("D;JGT")
	case vm.OpLt:
		w.out.Line("D;JLT")
	}
	w.out.Line("D=0")
	w.out.Linef("@BOOLEAN_CONTINUE.%d", n)
	w.out.Line("0;JMP")
	w.out.Linef("(BOOLEAN_TRUE.%d)", n)
	w.out.Line("D=-1")
	w.out.Linef("(BOOLEAN_CONTINUE.%d)", n)
}

// target builds a branch-target symbol namespaced by unit and function.
func (w *Writer) target(label string) string {
	return w.unit + "." + w.fn + "$" + label
}

func (w *Writer) comment(format string, args ...interface{}) {
	if w.comments {
		w.out.Linef("// "+format, args...)
	}
}

func (w *Writer) ready() error {
	if w.out.Err != nil {
		return w.out.Err
	}
	if w.unit == "" {
		return ErrNoUnit
	}
	return nil
}

func (w *Writer) checkName(name string) error {
	if err := w.ready(); err != nil {
		return err
	}
	if !vm.ValidSymbol(name) {
		return errors.Wrapf(ErrInvalidSymbol, "%q", name)
	}
	if len(name) > w.maxName {
		return errors.Wrapf(ErrNameTooLong, "%q", name)
	}
	return nil
}

func checkIndex(seg vm.Segment, index int) error {
	switch {
	case index < 0:
		return errors.Wrapf(ErrInvalidIndex, "%s %d", seg, index)
	case seg == vm.Pointer && index > 1:
		return errors.Wrapf(ErrInvalidIndex, "pointer %d", index)
	case seg == vm.Temp && index > 7:
		return errors.Wrapf(ErrInvalidIndex, "temp %d", index)
	}
	return nil
}
