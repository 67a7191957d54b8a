// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput reads all of name, or stdin when name is "-".
func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// writeOutput writes data to name, or stdout when name is "-". perm applies
// to newly created files. Unless quiet is set it reports where the data went,
// on stderr when the data itself went to stdout.
func writeOutput(name string, data []byte, perm os.FileMode, quiet bool) error {
	outFile, logFile := os.Stdout, os.Stderr
	if name != "-" {
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer f.Close()
		outFile, logFile = f, os.Stdout
	}

	if _, err := outFile.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !quiet {
		fmt.Fprintln(logFile, "Wrote output to", outFile.Name())
	}
	return nil
}

// readLines returns the non-empty lines of r with surrounding whitespace removed.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
