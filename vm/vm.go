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

// Package vm defines the vocabulary of the Jack VM instruction set: command
// kinds, arithmetic-logical operations and memory segments. It is shared by
// the command parser and the code generator in package asm.
package vm

// Kind classifies a source command.
type Kind int

// Command kinds.
const (
	Arithmetic Kind = iota
	Push
	Pop
	Label
	Goto
	IfGoto
	Function
	Return
	Call
)

var kindNames = [...]string{
	"arithmetic",
	"push",
	"pop",
	"label",
	"goto",
	"if-goto",
	"function",
	"return",
	"call",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Command is one parsed VM command. Arg holds the operation name for
// Arithmetic, the segment name for Push/Pop, the target label for the branch
// kinds and the function name for Function and Call. Index holds the segment
// offset for Push/Pop, the local-variable count for Function and the
// argument count for Call; it is zero for the other kinds.
type Command struct {
	Kind  Kind
	Arg   string
	Index int
}

// Op identifies an arithmetic-logical operation.
type Op int

// Arithmetic-logical operations.
const (
	OpAdd Op = iota
	OpSub
	OpNeg
	OpEq
	OpGt
	OpLt
	OpAnd
	OpOr
	OpNot
)

var opNames = [...]string{
	"add",
	"sub",
	"neg",
	"eq",
	"gt",
	"lt",
	"and",
	"or",
	"not",
}

var opIndex = make(map[string]Op)

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// Unary reports whether o takes a single operand.
func (o Op) Unary() bool { return o == OpNeg || o == OpNot }

// OpFor returns the operation named by s.
func OpFor(s string) (Op, bool) {
	o, ok := opIndex[s]
	return o, ok
}

// Segment identifies a logical memory addressing space.
type Segment int

// Memory segments.
const (
	Argument Segment = iota
	Local
	Static
	Constant
	This
	That
	Pointer
	Temp
)

var segmentNames = [...]string{
	"argument",
	"local",
	"static",
	"constant",
	"this",
	"that",
	"pointer",
	"temp",
}

// Base pointer cells for the indirectly addressed, relocatable segments.
var segmentBases = map[Segment]string{
	Argument: "ARG",
	Local:    "LCL",
	This:     "THIS",
	That:     "THAT",
}

var segmentIndex = make(map[string]Segment)

func (s Segment) String() string {
	if s < 0 || int(s) >= len(segmentNames) {
		return "unknown"
	}
	return segmentNames[s]
}

// Base returns the name of the pointer cell holding s's base address, or ""
// if s is not an indirectly addressed segment.
func (s Segment) Base() string { return segmentBases[s] }

// Indirect reports whether s is addressed through a base pointer cell.
func (s Segment) Indirect() bool { return segmentBases[s] != "" }

// SegmentFor returns the segment named by s.
func SegmentFor(s string) (Segment, bool) {
	seg, ok := segmentIndex[s]
	return seg, ok
}

func init() {
	for i, v := range opNames {
		opIndex[v] = Op(i)
	}
	for i, v := range segmentNames {
		segmentIndex[v] = Segment(i)
	}
}

// ValidSymbol reports whether s is a well-formed symbol: a non-empty
// sequence of letters, digits, '_', '.', '$' and ':' that does not start
// with a digit.
func ValidSymbol(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '$' || r == ':':
		default:
			return false
		}
	}
	return true
}
