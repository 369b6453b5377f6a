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

// Command vmt translates Jack VM programs into Hack assembly.
//
// Usage:
//
//	vmt [options] file.vm
//	vmt [options] directory
//
// A single file is translated into a sibling .asm file. A directory has
// all of its .vm files, sorted by name, translated into one shared
// <directory>.asm preceded by the bootstrap preamble.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Carlos24Rz/vmt/asm"
	"github.com/Carlos24Rz/vmt/hack"
)

var (
	outName    string
	noBoot     bool
	noComments bool
	runSteps   int
)

func atExit(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// runOutput loads the emitted assembly into a Machine and executes it,
// then dumps the machine state for inspection.
func runOutput(path string, steps int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	m, err := hack.Load(path, f)
	if err != nil {
		return err
	}
	// single-file outputs carry no bootstrap; directory outputs overwrite
	// this immediately
	m.RAM[hack.SP] = hack.StackBase
	n, err := m.Run(steps)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d instructions executed, SP=%d, stack=%v\n",
		path, n, m.RAM[hack.SP], m.Stack())
	return nil
}

func main() {
	flag.StringVar(&outName, "o", "", "write assembly to `filename` instead of the default location")
	flag.BoolVar(&noBoot, "noboot", false, "don't emit the bootstrap preamble in directory mode")
	flag.BoolVar(&noComments, "nocomments", false, "don't emit source-tracking comments")
	flag.IntVar(&runSteps, "run", 0, "execute up to `n` instructions of the output and dump the stack")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] <file%s | directory>\n",
			os.Args[0], asm.SourceExt)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	fi, err := os.Stat(path)
	if err != nil {
		atExit(err)
	}

	var opts []asm.Option
	if noComments {
		opts = append(opts, asm.NoComments())
	}

	var out string
	if fi.IsDir() {
		out, err = asm.TranslateDir(path, outName, !noBoot, opts...)
	} else {
		out, err = asm.TranslateFile(path, outName, opts...)
	}
	if err == nil && runSteps > 0 {
		err = runOutput(out, runSteps)
	}
	atExit(err)
}
