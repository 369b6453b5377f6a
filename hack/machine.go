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

// Package hack implements the Hack target machine: a loader for symbolic
// assembly and a Machine that executes it. It exists to run translated
// programs, chiefly in the test suite and in vmt's -run mode.
package hack

import "github.com/pkg/errors"

// Cell is the raw type stored in a memory or register location.
type Cell int16

// Reserved RAM addresses.
const (
	SP   = 0 // stack pointer
	LCL  = 1 // local segment base
	ARG  = 2 // argument segment base
	THIS = 3 // this segment base
	THAT = 4 // that segment base
)

// StackBase is the address of the first working-stack cell.
const StackBase = 256

const ramSize = 32768

// ErrHalted is returned by Step once the program counter runs past the end
// of the loaded program.
var ErrHalted = errors.New("machine halted")

// dest bits
const (
	destM = 1 << iota
	destD
	destA
)

// jump bits, matched against the sign of the computed value
const (
	jumpGt = 1 << iota
	jumpEq
	jumpLt
)

// comp codes; the m flag on an instruction selects M over A as operand
const (
	compZero = iota
	compOne
	compNegOne
	compD
	compA
	compNotD
	compNotA
	compNegD
	compNegA
	compDPlus1
	compAPlus1
	compDMinus1
	compAMinus1
	compDPlusA
	compDMinusA
	compAMinusD
	compDAndA
	compDOrA
)

// instruction is one decoded ROM word.
type instruction struct {
	a    bool // A-instruction: load addr into the address register
	m    bool // comp reads M instead of A
	addr Cell
	comp uint8
	dest uint8
	jump uint8
}

// Machine executes a decoded Hack program. RAM is exported so callers can
// seed segment bases and inspect memory; the ROM is fixed at load time.
type Machine struct {
	PC   int
	A, D Cell
	RAM  []Cell
	rom  []instruction
}

// Step executes one instruction. It returns ErrHalted once the program
// counter has run past the end of the program.
func (m *Machine) Step() error {
	if m.PC < 0 || m.PC >= len(m.rom) {
		return ErrHalted
	}
	in := m.rom[m.PC]
	if in.a {
		m.A = in.addr
		m.PC++
		return nil
	}

	y := m.A
	if in.m {
		if int(m.A) < 0 || int(m.A) >= len(m.RAM) {
			return errors.Errorf("pc %d: memory access out of range: %d", m.PC, m.A)
		}
		y = m.RAM[m.A]
	}
	var v Cell
	switch in.comp {
	case compZero:
		v = 0
	case compOne:
		v = 1
	case compNegOne:
		v = -1
	case compD:
		v = m.D
	case compA:
		v = y
	case compNotD:
		v = ^m.D
	case compNotA:
		v = ^y
	case compNegD:
		v = -m.D
	case compNegA:
		v = -y
	case compDPlus1:
		v = m.D + 1
	case compAPlus1:
		v = y + 1
	case compDMinus1:
		v = m.D - 1
	case compAMinus1:
		v = y - 1
	case compDPlusA:
		v = m.D + y
	case compDMinusA:
		v = m.D - y
	case compAMinusD:
		v = y - m.D
	case compDAndA:
		v = m.D & y
	case compDOrA:
		v = m.D | y
	}

	// M is written through the pre-instruction address register
	if in.dest&destM != 0 {
		if int(m.A) < 0 || int(m.A) >= len(m.RAM) {
			return errors.Errorf("pc %d: memory access out of range: %d", m.PC, m.A)
		}
		m.RAM[m.A] = v
	}
	if in.dest&destD != 0 {
		m.D = v
	}
	if in.dest&destA != 0 {
		m.A = v
	}

	switch {
	case in.jump&jumpLt != 0 && v < 0,
		in.jump&jumpEq != 0 && v == 0,
		in.jump&jumpGt != 0 && v > 0:
		m.PC = int(m.A)
	default:
		m.PC++
	}
	return nil
}

// Run executes at most limit instructions and returns the number executed.
// It stops early, without error, when the machine halts.
func (m *Machine) Run(limit int) (int, error) {
	for n := 0; n < limit; n++ {
		switch err := m.Step(); err {
		case nil:
		case ErrHalted:
			return n, nil
		default:
			return n, err
		}
	}
	return limit, nil
}

// Stack returns the live working stack, RAM[StackBase:SP]. Value changes
// are reflected in the machine's memory.
func (m *Machine) Stack() []Cell {
	sp := int(m.RAM[SP])
	if sp < StackBase || sp > len(m.RAM) {
		return nil
	}
	return m.RAM[StackBase:sp]
}

// Size returns the number of loaded instructions.
func (m *Machine) Size() int { return len(m.rom) }
