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

// Package dna encodes text as a sequence of nucleotide symbols, two bits per
// symbol, most significant pair first: 00=A, 01=C, 10=G, 11=T.
package dna

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSymbol indicates a character outside the ACGT alphabet.
var ErrInvalidSymbol = errors.New("dna: invalid symbol")

const alphabet = "ACGT"

// Encode returns the symbol sequence for data. Each byte yields four symbols.
func Encode(data []byte) string {
	var sb strings.Builder
	sb.Grow(4 * len(data))
	for _, b := range data {
		for shift := 6; shift >= 0; shift -= 2 {
			sb.WriteByte(alphabet[(b>>shift)&0x3])
		}
	}
	return sb.String()
}

// Decode reverses Encode. Symbols left over after the last complete group of
// four are dropped.
func Decode(seq string) ([]byte, error) {
	out := make([]byte, 0, len(seq)/4)
	var cur byte
	for i := 0; i < len(seq); i++ {
		v := strings.IndexByte(alphabet, seq[i])
		if v < 0 {
			return nil, fmt.Errorf("%w %q at offset %d", ErrInvalidSymbol, seq[i], i)
		}
		cur = cur<<2 | byte(v)
		if i%4 == 3 {
			out = append(out, cur)
			cur = 0
		}
	}
	return out, nil
}
