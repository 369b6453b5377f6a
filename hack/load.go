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

package hack

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadError reports a malformed assembly line. Line is 1-based.
type LoadError struct {
	File string
	Line int
	Msg  string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Symbols with fixed addresses.
var predefined = map[string]Cell{
	"SP":     SP,
	"LCL":    LCL,
	"ARG":    ARG,
	"THIS":   THIS,
	"THAT":   THAT,
	"SCREEN": 16384,
	"KBD":    24576,
}

func init() {
	for i := Cell(0); i < 16; i++ {
		predefined["R"+strconv.Itoa(int(i))] = i
	}
}

var jumps = map[string]uint8{
	"JGT": jumpGt,
	"JEQ": jumpEq,
	"JGE": jumpEq | jumpGt,
	"JLT": jumpLt,
	"JNE": jumpLt | jumpGt,
	"JLE": jumpLt | jumpEq,
	"JMP": jumpLt | jumpEq | jumpGt,
}

var comps = map[string]struct {
	code uint8
	m    bool
}{
	"0":   {compZero, false},
	"1":   {compOne, false},
	"-1":  {compNegOne, false},
	"D":   {compD, false},
	"A":   {compA, false},
	"M":   {compA, true},
	"!D":  {compNotD, false},
	"!A":  {compNotA, false},
	"!M":  {compNotA, true},
	"-D":  {compNegD, false},
	"-A":  {compNegA, false},
	"-M":  {compNegA, true},
	"D+1": {compDPlus1, false},
	"A+1": {compAPlus1, false},
	"M+1": {compAPlus1, true},
	"D-1": {compDMinus1, false},
	"A-1": {compAMinus1, false},
	"M-1": {compAMinus1, true},
	"D+A": {compDPlusA, false},
	"D+M": {compDPlusA, true},
	"D-A": {compDMinusA, false},
	"D-M": {compDMinusA, true},
	"A-D": {compAMinusD, false},
	"M-D": {compAMinusD, true},
	"D&A": {compDAndA, false},
	"D&M": {compDAndA, true},
	"D|A": {compDOrA, false},
	"D|M": {compDOrA, true},
}

type sourceLine struct {
	text string
	line int
}

// Load assembles the symbolic Hack source read from r into a ready-to-run
// Machine. Two passes: the first collects label definitions, the second
// decodes instructions, allocating variable symbols from address 16 up.
//
// The name parameter is used only in error messages; if r is a file, it
// should be the file name.
func Load(name string, r io.Reader) (*Machine, error) {
	var lines []sourceLine
	s := bufio.NewScanner(r)
	n := 0
	for s.Scan() {
		n++
		t := s.Text()
		if i := strings.Index(t, "//"); i >= 0 {
			t = t[:i]
		}
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		lines = append(lines, sourceLine{t, n})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	// first pass: label definitions
	symbols := make(map[string]Cell)
	pc := 0
	for _, l := range lines {
		if l.text[0] != '(' {
			pc++
			continue
		}
		if l.text[len(l.text)-1] != ')' {
			return nil, &LoadError{name, l.line, "malformed label " + l.text}
		}
		label := l.text[1 : len(l.text)-1]
		if label == "" {
			return nil, &LoadError{name, l.line, "empty label name"}
		}
		if _, ok := symbols[label]; ok {
			return nil, &LoadError{name, l.line, "label redefinition: " + label}
		}
		symbols[label] = Cell(pc)
	}

	// second pass: decode
	m := &Machine{RAM: make([]Cell, ramSize)}
	next := Cell(16) // first free variable address
	for _, l := range lines {
		if l.text[0] == '(' {
			continue
		}
		in, err := decode(l.text, symbols, &next)
		if err != nil {
			return nil, &LoadError{name, l.line, err.Error()}
		}
		m.rom = append(m.rom, in)
	}
	return m, nil
}

func decode(text string, symbols map[string]Cell, next *Cell) (instruction, error) {
	if text[0] == '@' {
		sym := text[1:]
		if sym == "" {
			return instruction{}, fmt.Errorf("empty address")
		}
		if n, err := strconv.ParseUint(sym, 10, 15); err == nil {
			return instruction{a: true, addr: Cell(n)}, nil
		}
		if v, ok := predefined[sym]; ok {
			return instruction{a: true, addr: v}, nil
		}
		if v, ok := symbols[sym]; ok {
			return instruction{a: true, addr: v}, nil
		}
		// new variable
		v := *next
		*next++
		symbols[sym] = v
		return instruction{a: true, addr: v}, nil
	}

	// dest=comp;jump with dest and jump optional
	var in instruction
	rest := text
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		j, ok := jumps[rest[i+1:]]
		if !ok {
			return in, fmt.Errorf("unknown jump %q", rest[i+1:])
		}
		in.jump = j
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '='); i >= 0 {
		for _, r := range rest[:i] {
			switch r {
			case 'A':
				in.dest |= destA
			case 'D':
				in.dest |= destD
			case 'M':
				in.dest |= destM
			default:
				return in, fmt.Errorf("unknown destination %q", rest[:i])
			}
		}
		rest = rest[i+1:]
	}
	c, ok := comps[rest]
	if !ok {
		return in, fmt.Errorf("unknown computation %q", rest)
	}
	in.comp = c.code
	in.m = c.m
	return in, nil
}
