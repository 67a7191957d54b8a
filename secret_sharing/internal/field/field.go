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

// Package field defines a generic definition of a finite field.
package field

import (
	"errors"
	"math/big"

	"github.com/devvault/trustlayer/secret_sharing/finitefield"
)

// Element is an element in a Finite Field. Elements are immutable; every
// operation returns a new element.
type Element interface {
	// Add element `a` and returns a new element.
	Add(a Element) Element
	// Subtract element `a` and returns a new element.
	Subtract(a Element) Element
	// Multiply by element `a` and returns a new element.
	Multiply(a Element) Element
	// Inverse returns an element that's the multiplicative inverse.
	// If element has no inverse, an error is returned.
	Inverse() (Element, error)
	// Equal reports whether the element equals `b`.
	Equal(b Element) bool
	// IsZero reports whether the element is the additive identity.
	IsZero() bool
	// Int returns a copy of the element value.
	Int() *big.Int
	// Bytes returns the element in a minimal big endian encoded byte representation.
	// The zero element encodes to an empty slice.
	Bytes() []byte
}

// GaloisField represents a Finite Field.
type GaloisField interface {
	// CreateElement creates a new field element from i, reduced modulo the field order.
	CreateElement(i int) (Element, error)
	// NewRandom generates a uniformly random element inside the field.
	// The random element is assumed to be good enough for cryptographic purposes.
	NewRandom() (Element, error)
	// ElementFromInt creates an element from v, which must lie in [0, order).
	ElementFromInt(v *big.Int) (Element, error)
	// DecodeElement interprets b as a big endian unsigned integer. It fails if
	// the integer does not lie in [0, order).
	DecodeElement(b []byte) (Element, error)
	// Order returns a copy of the field order.
	Order() *big.Int
	// FieldID returns a unique identifier for the field.
	FieldID() finitefield.ID
}

var (
	// ErrOutOfRange indicates a value that does not lie in [0, order).
	ErrOutOfRange = errors.New("field: value outside field")
	// ErrNoInverse indicates an attempt to invert the zero element.
	ErrNoInverse = errors.New("field: modular inverse isn't defined for identity element")
)
