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

package gfp_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/devvault/trustlayer/constants"
	"github.com/devvault/trustlayer/secret_sharing/finitefield"
	"github.com/devvault/trustlayer/secret_sharing/internal/field"
	"github.com/devvault/trustlayer/secret_sharing/internal/field/gfp"
	"github.com/google/go-cmp/cmp"
)

func smallField(t *testing.T, p int64) field.GaloisField {
	t.Helper()
	gf, err := gfp.NewWithOrder(big.NewInt(p))
	if err != nil {
		t.Fatalf("gfp.NewWithOrder(%d) err = %v, want nil", p, err)
	}
	return gf
}

func element(t *testing.T, gf field.GaloisField, v int) field.Element {
	t.Helper()
	e, err := gf.CreateElement(v)
	if err != nil {
		t.Fatalf("CreateElement(%d) err = %v, want nil", v, err)
	}
	return e
}

func TestFieldArithmetic(t *testing.T) {
	type testCase struct {
		tag  string
		a    int
		b    int
		sum  int64
		mult int64
		sub  int64
	}
	gf := smallField(t, 13)
	for _, tc := range []testCase{
		{tag: "no reduction", a: 2, b: 3, sum: 5, mult: 6, sub: 12},
		{tag: "sum wraps", a: 9, b: 7, sum: 3, mult: 11, sub: 2},
		{tag: "zero operand", a: 0, b: 5, sum: 5, mult: 0, sub: 8},
		{tag: "negative input is reduced", a: -1, b: 1, sum: 0, mult: 12, sub: 11},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			a, b := element(t, gf, tc.a), element(t, gf, tc.b)
			if got := a.Add(b).Int(); got.Int64() != tc.sum {
				t.Errorf("%d + %d = %v, want %d", tc.a, tc.b, got, tc.sum)
			}
			if got := a.Multiply(b).Int(); got.Int64() != tc.mult {
				t.Errorf("%d * %d = %v, want %d", tc.a, tc.b, got, tc.mult)
			}
			if got := a.Subtract(b).Int(); got.Int64() != tc.sub {
				t.Errorf("%d - %d = %v, want %d", tc.a, tc.b, got, tc.sub)
			}
		})
	}
}

func TestInverseSmallField(t *testing.T) {
	gf := smallField(t, 13)
	want := map[int]int64{1: 1, 2: 7, 3: 9, 4: 10, 5: 8, 6: 11, 12: 12}
	for v, inv := range want {
		got, err := element(t, gf, v).Inverse()
		if err != nil {
			t.Fatalf("Inverse(%d) err = %v, want nil", v, err)
		}
		if got.Int().Int64() != inv {
			t.Errorf("Inverse(%d) = %v, want %d", v, got, inv)
		}
	}
}

func TestInverseOfZeroFails(t *testing.T) {
	gf := gfp.New()
	if _, err := element(t, gf, 0).Inverse(); !errors.Is(err, field.ErrNoInverse) {
		t.Errorf("Inverse(0) err = %v, want %v", err, field.ErrNoInverse)
	}
}

func TestInverseRandomElements(t *testing.T) {
	gf := gfp.New()
	one := element(t, gf, 1)
	for i := 0; i < 100; i++ {
		e, err := gf.NewRandom()
		if err != nil {
			t.Fatalf("NewRandom() err = %v, want nil", err)
		}
		if e.IsZero() {
			continue
		}
		inv, err := e.Inverse()
		if err != nil {
			t.Fatalf("Inverse(%v) err = %v, want nil", e, err)
		}
		if got := e.Multiply(inv); !got.Equal(one) {
			t.Fatalf("%v * %v = %v, want 1", e, inv, got)
		}
	}
}

func TestNewRandomStaysInField(t *testing.T) {
	gf := smallField(t, 257)
	seen := map[int64]bool{}
	for i := 0; i < 5000; i++ {
		e, err := gf.NewRandom()
		if err != nil {
			t.Fatalf("NewRandom() err = %v, want nil", err)
		}
		v := e.Int()
		if v.Sign() < 0 || v.Cmp(gf.Order()) >= 0 {
			t.Fatalf("NewRandom() = %v, outside [0, %v)", v, gf.Order())
		}
		seen[v.Int64()] = true
	}
	// 5000 uniform draws from 257 values miss one with negligible probability.
	if len(seen) < 250 {
		t.Errorf("NewRandom() produced %d distinct values out of 257, want close to all", len(seen))
	}
}

func TestDecodeElement(t *testing.T) {
	gf := gfp.New()
	pMinusOne := new(big.Int).Sub(constants.FieldPrime, big.NewInt(1))
	for _, tc := range []struct {
		tag     string
		b       []byte
		want    []byte
		wantErr error
	}{
		{tag: "empty is zero", b: nil, want: []byte{}},
		{tag: "leading zeros dropped", b: []byte{0, 0, 'h', 'i'}, want: []byte("hi")},
		{tag: "largest element", b: pMinusOne.Bytes(), want: pMinusOne.Bytes()},
		{tag: "order itself", b: constants.FieldPrime.Bytes(), wantErr: field.ErrOutOfRange},
		{tag: "16 bytes with top bit set", b: []byte("\xffsixteen bytes!!"), wantErr: field.ErrOutOfRange},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			e, err := gf.DecodeElement(tc.b)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("DecodeElement() err = %v, want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if !cmp.Equal(e.Bytes(), tc.want) {
				t.Errorf("DecodeElement().Bytes() = %v, want %v", e.Bytes(), tc.want)
			}
		})
	}
}

func TestElementFromIntRejectsOutOfRange(t *testing.T) {
	gf := gfp.New()
	for _, v := range []*big.Int{nil, big.NewInt(-1), constants.FieldPrime} {
		if _, err := gf.ElementFromInt(v); !errors.Is(err, field.ErrOutOfRange) {
			t.Errorf("ElementFromInt(%v) err = %v, want %v", v, err, field.ErrOutOfRange)
		}
	}
}

func TestNewWithOrderRejectsComposite(t *testing.T) {
	for _, p := range []int64{0, 1, 15, 221} {
		if _, err := gfp.NewWithOrder(big.NewInt(p)); err == nil {
			t.Errorf("NewWithOrder(%d) err = nil, want error", p)
		}
	}
}

func TestDefaultField(t *testing.T) {
	gf := gfp.New()
	if gf.FieldID() != finitefield.GFP127 {
		t.Errorf("FieldID() = %v, want %v", gf.FieldID(), finitefield.GFP127)
	}
	if got := gf.Order().BitLen(); got != constants.FieldPrimeBits {
		t.Errorf("Order().BitLen() = %d, want %d", got, constants.FieldPrimeBits)
	}
}
