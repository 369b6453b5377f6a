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

package hack_test

import (
	"strings"
	"testing"

	"github.com/Carlos24Rz/vmt/hack"
)

func load(t *testing.T, code string) *hack.Machine {
	t.Helper()
	m, err := hack.Load("test", strings.NewReader(code))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return m
}

func run(t *testing.T, code string, limit int) *hack.Machine {
	t.Helper()
	m := load(t, code)
	if _, err := m.Run(limit); err != nil {
		t.Fatalf("%+v", err)
	}
	return m
}

func TestMachine_computations(t *testing.T) {
	tests := []struct {
		name string
		code string
		addr int
		want hack.Cell
	}{
		{"store-literal", "@5\nD=A\n@R3\nM=D", 3, 5},
		{"add", "@2\nD=A\n@3\nD=D+A\n@R0\nM=D", 0, 5},
		{"sub", "@2\nD=A\n@7\nD=A-D\n@R1\nM=D", 1, 5},
		{"and", "@12\nD=A\n@10\nD=D&A\n@R2\nM=D", 2, 8},
		{"or", "@12\nD=A\n@10\nD=D|A\n@R2\nM=D", 2, 14},
		{"not", "@0\nD=!A\n@R4\nM=D", 4, -1},
		{"neg", "@7\nD=-A\n@R4\nM=D", 4, -7},
		{"mem-read", "@R5\nM=1\n@R5\nD=M+1\n@R6\nM=D", 6, 2},
		{"inc-m", "@R7\nM=M+1\n@R7\nM=M+1", 7, 2},
	}
	for _, test := range tests {
		m := run(t, test.code, 100)
		if got := m.RAM[test.addr]; got != test.want {
			t.Errorf("%s: RAM[%d] = %d, want %d", test.name, test.addr, got, test.want)
		}
	}
}

func TestMachine_jumps(t *testing.T) {
	// count down from 3, accumulating in R1
	code := `
	@3
	D=A
	(LOOP)
	@R1
	M=M+1
	D=D-1
	@LOOP
	D;JGT
	`
	m := run(t, code, 1000)
	if m.RAM[1] != 3 {
		t.Errorf("RAM[1] = %d, want 3", m.RAM[1])
	}

	// unconditional jump skips the middle block
	m = run(t, "@END\n0;JMP\n@R2\nM=1\n(END)", 100)
	if m.RAM[2] != 0 {
		t.Errorf("jump not taken: RAM[2] = %d", m.RAM[2])
	}
}

func TestMachine_runLimit(t *testing.T) {
	m := load(t, "(LOOP)\n@LOOP\n0;JMP")
	n, err := m.Run(10)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if n != 10 {
		t.Errorf("executed %d instructions, want 10", n)
	}

	m = load(t, "@1\nD=A")
	n, err = m.Run(100)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if n != 2 {
		t.Errorf("executed %d instructions, want 2", n)
	}
	if err = m.Step(); err != hack.ErrHalted {
		t.Errorf("Step after halt: %v", err)
	}
}

func TestMachine_variables(t *testing.T) {
	m := run(t, "@first\nM=1\n@second\nM=-1\n@first\nM=M+1", 100)
	if m.RAM[16] != 2 || m.RAM[17] != -1 {
		t.Errorf("variable cells: RAM[16]=%d RAM[17]=%d", m.RAM[16], m.RAM[17])
	}
	if m.Size() != 6 {
		t.Errorf("Size = %d, want 6", m.Size())
	}
}

func TestMachine_predefined(t *testing.T) {
	m := run(t, "@42\nD=A\n@SP\nM=D\n@THAT\nM=D", 100)
	if m.RAM[hack.SP] != 42 || m.RAM[hack.THAT] != 42 {
		t.Errorf("predefined symbols: SP=%d THAT=%d", m.RAM[hack.SP], m.RAM[hack.THAT])
	}
}

func TestLoad_errors(t *testing.T) {
	tests := []struct {
		code string
		line int
	}{
		{"@1\nD=Q", 2},
		{"Q=D", 1},
		{"@1\n\n// ok\nD;JXX", 4},
		{"(lab\nD=A", 1},
		{"(dup)\n(dup)", 2},
		{"@", 1},
	}
	for _, test := range tests {
		_, err := hack.Load("bad", strings.NewReader(test.code))
		if err == nil {
			t.Errorf("%q: unexpected nil error", test.code)
			continue
		}
		le, ok := err.(*hack.LoadError)
		if !ok {
			t.Errorf("%q: error type %T", test.code, err)
			continue
		}
		if le.Line != test.line {
			t.Errorf("%q: error at line %d, want %d", test.code, le.Line, test.line)
		}
	}
}

func TestMachine_stack(t *testing.T) {
	m := load(t, "@7\nD=A\n@SP\nA=M\nM=D\n@SP\nM=M+1")
	m.RAM[hack.SP] = hack.StackBase
	if _, err := m.Run(100); err != nil {
		t.Fatalf("%+v", err)
	}
	s := m.Stack()
	if len(s) != 1 || s[0] != 7 {
		t.Errorf("Stack() = %v, want [7]", s)
	}
}
