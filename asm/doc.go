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

// Package asm translates Jack VM commands into symbolic Hack assembly.
//
// The work is split between a Parser, which reads a source unit line by
// line and classifies each surviving line into a vm.Command, and a Writer,
// which expands one command at a time into a fixed assembly template on its
// output stream. Translation is streaming and single pass: Translate pulls
// commands from the parser and pushes them into the writer; nothing is
// buffered or reordered across commands.
//
// Malformed commands are reported with their source position and skipped;
// translation continues with the next line. Translate collects those
// diagnostics into an ErrList.
package asm
