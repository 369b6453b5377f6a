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

// Package vti - vmt internals shared by the translator packages.
package vti

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var nl = []byte{'\n'}

// ErrWriter is a simple wrapper to track io errors. Write will keep
// returning the first error over and over, so emitters can write whole
// instruction sequences without checking after every line.
type ErrWriter struct {
	w   io.Writer
	Err error
}

// NewErrWriter returns a new ErrWriter.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w, nil}
}

func (w *ErrWriter) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// Line writes each argument as one output line. Emitted assembly is line
// oriented, so callers pass one instruction per argument.
func (w *ErrWriter) Line(instructions ...string) {
	for _, s := range instructions {
		io.WriteString(w, s)
		w.Write(nl)
	}
}

// Linef writes one formatted output line.
func (w *ErrWriter) Linef(format string, args ...interface{}) {
	if w.Err != nil {
		return
	}
	fmt.Fprintf(w, format, args...)
	w.Write(nl)
}
