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

// Package finitefield represents the finite fields supported by the secret sharing library.
package finitefield

import "fmt"

// ID represents a finite field supported by the secret sharing library.
type ID int

const (
	// GFP127 is the prime field of order 2^127 - 1.
	GFP127 ID = 1 + iota
)

// Default is the field every split and reconstruction uses unless the
// caller names one explicitly.
const Default = GFP127

func (id ID) String() string {
	switch id {
	case GFP127:
		return "GFP127"
	default:
		return fmt.Sprintf("unknown finite field ID: %d", id)
	}
}
