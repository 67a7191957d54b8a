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

// Package gfp implements a prime field GF(p) over arbitrary-precision
// integers. The default order is the Mersenne prime 2^127 - 1.
package gfp

import (
	"fmt"
	"math/big"

	"github.com/devvault/trustlayer/constants"
	"github.com/devvault/trustlayer/secret_sharing/finitefield"
	"github.com/devvault/trustlayer/secret_sharing/internal/field"
	"github.com/google/tink/go/subtle/random"
)

// Element is an element in GF(p). Its value always lies in [0, p).
type Element struct {
	v *big.Int
	p *big.Int
}

var _ field.Element = (*Element)(nil)

func (f *Field) newElement(v *big.Int) *Element {
	return &Element{v: v, p: f.p}
}

func mod(v, p *big.Int) *big.Int {
	// big.Int.Mod uses Euclidean modulus, so negative values wrap into [0, p).
	return v.Mod(v, p)
}

// Add element by 'x' modulo the field order.
func (e *Element) Add(x field.Element) field.Element {
	sum := new(big.Int).Add(e.v, x.(*Element).v)
	return &Element{v: mod(sum, e.p), p: e.p}
}

// Subtract element by 'x' modulo the field order.
func (e *Element) Subtract(x field.Element) field.Element {
	diff := new(big.Int).Sub(e.v, x.(*Element).v)
	return &Element{v: mod(diff, e.p), p: e.p}
}

// Multiply element by 'x' modulo the field order.
func (e *Element) Multiply(x field.Element) field.Element {
	prod := new(big.Int).Mul(e.v, x.(*Element).v)
	return &Element{v: mod(prod, e.p), p: e.p}
}

// Inverse returns the multiplicative inverse for an element in the field.
func (e *Element) Inverse() (field.Element, error) {
	inv, err := modInverse(e.v, e.p)
	if err != nil {
		return nil, err
	}
	return &Element{v: inv, p: e.p}, nil
}

// Equal reports whether both elements hold the same value.
func (e *Element) Equal(b field.Element) bool {
	return e.v.Cmp(b.(*Element).v) == 0
}

// IsZero reports whether the element is zero.
func (e *Element) IsZero() bool {
	return e.v.Sign() == 0
}

// Int returns a copy of the element value.
func (e *Element) Int() *big.Int {
	return new(big.Int).Set(e.v)
}

// Bytes returns the minimal big endian representation of the element value.
// Zero encodes to an empty, non-nil slice.
func (e *Element) Bytes() []byte {
	b := e.v.Bytes()
	if b == nil {
		return []byte{}
	}
	return b
}

func (e *Element) String() string {
	return e.v.String()
}

// modInverse computes a^-1 mod p with the extended Euclidean algorithm.
// It keeps only the Bezout coefficient of a, since the one of p is unused.
func modInverse(a, p *big.Int) (*big.Int, error) {
	if a.Sign() == 0 {
		return nil, field.ErrNoInverse
	}
	var (
		r0, r1 = new(big.Int).Set(p), new(big.Int).Set(a)
		t0, t1 = big.NewInt(0), big.NewInt(1)
		q, tmp = new(big.Int), new(big.Int)
	)
	for r1.Sign() != 0 {
		q.Quo(r0, r1)

		tmp.Mul(q, r1)
		r0, r1 = r1, new(big.Int).Sub(r0, tmp)

		tmp.Mul(q, t1)
		t0, t1 = t1, new(big.Int).Sub(t0, tmp)
	}
	// gcd(a, p) must be 1 for an inverse to exist; with p prime this only
	// fails when a is a multiple of p.
	if r0.Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("%w: gcd(%v, p) = %v", field.ErrNoInverse, a, r0)
	}
	return mod(t0, p), nil
}

// Field is the prime field GF(p).
type Field struct {
	p       *big.Int
	byteLen int
	topMask byte
	fieldID finitefield.ID
}

var _ field.GaloisField = (*Field)(nil)

// New creates GF(2^127 - 1).
func New() field.GaloisField {
	return newField(constants.FieldPrime, finitefield.GFP127)
}

// NewWithOrder creates GF(p) for an arbitrary prime p. It exists so that
// arithmetic can be exercised against small, hand-checkable fields.
func NewWithOrder(p *big.Int) (field.GaloisField, error) {
	if p == nil || p.Cmp(big.NewInt(2)) < 0 || !p.ProbablyPrime(20) {
		return nil, fmt.Errorf("order %v is not a prime", p)
	}
	return newField(p, 0), nil
}

func newField(p *big.Int, id finitefield.ID) *Field {
	bitLen := p.BitLen()
	byteLen := (bitLen + 7) / 8
	excess := byteLen*8 - bitLen
	return &Field{
		p:       new(big.Int).Set(p),
		byteLen: byteLen,
		topMask: byte(0xFF >> excess),
		fieldID: id,
	}
}

// FieldID returns an ID for the specific field implemented.
func (f *Field) FieldID() finitefield.ID {
	return f.fieldID
}

// Order returns a copy of the field order.
func (f *Field) Order() *big.Int {
	return new(big.Int).Set(f.p)
}

// CreateElement creates an element in the field by performing a modulo
// operation over the field order.
func (f *Field) CreateElement(o int) (field.Element, error) {
	return f.newElement(mod(big.NewInt(int64(o)), f.p)), nil
}

// NewRandom returns a uniformly random element in [0, p) by rejection
// sampling over byteLen random bytes masked to the bit length of p.
func (f *Field) NewRandom() (field.Element, error) {
	for {
		b := random.GetRandomBytes(uint32(f.byteLen))
		b[0] &= f.topMask
		r := new(big.Int).SetBytes(b)
		if r.Cmp(f.p) < 0 {
			return f.newElement(r), nil
		}
	}
}

// ElementFromInt creates an element holding v. v must lie in [0, p).
func (f *Field) ElementFromInt(v *big.Int) (field.Element, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(f.p) >= 0 {
		return nil, field.ErrOutOfRange
	}
	return f.newElement(new(big.Int).Set(v)), nil
}

// DecodeElement reads b as a big endian unsigned integer. Leading zero bytes
// do not change the value.
func (f *Field) DecodeElement(b []byte) (field.Element, error) {
	v := new(big.Int).SetBytes(b)
	if v.Cmp(f.p) >= 0 {
		return nil, fmt.Errorf("%w: %d-bit value, field order has %d bits", field.ErrOutOfRange, v.BitLen(), f.p.BitLen())
	}
	return f.newElement(v), nil
}
