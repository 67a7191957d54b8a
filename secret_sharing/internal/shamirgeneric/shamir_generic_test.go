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

package shamirgeneric_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/devvault/trustlayer/constants"
	"github.com/devvault/trustlayer/secret_sharing/finitefield"
	"github.com/devvault/trustlayer/secret_sharing/internal/field/gfp"
	"github.com/devvault/trustlayer/secret_sharing/internal/shamirgeneric"
	"github.com/devvault/trustlayer/secret_sharing/secrets"
	"github.com/google/tink/go/subtle/random"
)

func createMetadata(threshold, numShares int) secrets.Metadata {
	return secrets.Metadata{
		Field:     finitefield.GFP127,
		NumShares: numShares,
		Threshold: threshold,
	}
}

func removeAtIndex(s []secrets.Share, index int) []secrets.Share {
	return append(s[:index], s[index+1:]...)
}

func TestSplitReconstructWorks(t *testing.T) {
	secret := []byte("abcdefghijklmno")
	split, err := shamirgeneric.SplitSecret(createMetadata(4, 6), secret, gfp.New())
	if err != nil {
		t.Fatalf("shamirgeneric.SplitSecret() err = %v, want nil", err)
	}
	recon, err := shamirgeneric.Reconstruct(split.Shares, gfp.New())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := recon, secret; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func TestSharesAreEvaluatedAtOneToN(t *testing.T) {
	split, err := shamirgeneric.SplitSecret(createMetadata(2, 7), []byte("x"), gfp.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(split.Shares) != 7 {
		t.Fatalf("got %d shares, want 7", len(split.Shares))
	}
	for i, s := range split.Shares {
		if s.X != i+1 {
			t.Errorf("share %d has X = %d, want %d", i, s.X, i+1)
		}
		if s.Value.Sign() < 0 || s.Value.Cmp(constants.FieldPrime) >= 0 {
			t.Errorf("share %d value %v outside the field", i, s.Value)
		}
	}
}

func TestThresholdOneSharesEqualSecret(t *testing.T) {
	secret := []byte("solo")
	split, err := shamirgeneric.SplitSecret(createMetadata(1, 3), secret, gfp.New())
	if err != nil {
		t.Fatal(err)
	}
	want := new(big.Int).SetBytes(secret)
	for _, s := range split.Shares {
		if s.Value.Cmp(want) != 0 {
			t.Errorf("share %d = %v, want constant polynomial value %v", s.X, s.Value, want)
		}
		recon, err := shamirgeneric.Reconstruct([]secrets.Share{s}, gfp.New())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(recon, secret) {
			t.Errorf("Reconstruct(share %d) = %q, want %q", s.X, recon, secret)
		}
	}
}

func TestReconstructWithAlteredValueFails(t *testing.T) {
	secret := random.GetRandomBytes(15)
	split, err := shamirgeneric.SplitSecret(createMetadata(2, 3), secret, gfp.New())
	if err != nil {
		t.Fatalf("shamirgeneric.SplitSecret() err = %v, want nil", err)
	}
	shares := split.Shares[:2]
	shares[0].Value = new(big.Int).Add(shares[0].Value, big.NewInt(1))
	shares[0].Value.Mod(shares[0].Value, constants.FieldPrime)
	recon, err := shamirgeneric.Reconstruct(shares, gfp.New())
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(recon, secret) {
		t.Errorf("reconstructing altered value should not yield the secret")
	}
}

func TestWithLessSharesThanThresholdIsWrong(t *testing.T) {
	secret := []byte("abcdefghijklmno")
	split, err := shamirgeneric.SplitSecret(createMetadata(4, 6), secret, gfp.New())
	if err != nil {
		t.Fatal(err)
	}
	shares := removeAtIndex(split.Shares, 5)
	shares = removeAtIndex(shares, 1)
	shares = removeAtIndex(shares, 0)
	recon, err := shamirgeneric.Reconstruct(shares, gfp.New())
	if err != nil {
		t.Fatalf("Reconstruct() err = %v, want nil", err)
	}
	if bytes.Equal(recon, secret) {
		t.Errorf("Reconstruct() with 3 of threshold 4 shares returned the secret")
	}
}

func TestReconstructFromStaticShares(t *testing.T) {
	// f(x) = 33 + 5x + 7x^2 over GF(2^127 - 1).
	shares := []secrets.Share{
		{X: 1, Value: big.NewInt(45)},
		{X: 2, Value: big.NewInt(71)},
		{X: 3, Value: big.NewInt(111)},
		{X: 4, Value: big.NewInt(165)},
		{X: 5, Value: big.NewInt(233)},
	}
	for _, subset := range [][]int{{0, 1, 2}, {0, 2, 4}, {1, 2, 3}, {4, 3, 0}, {0, 1, 2, 3, 4}} {
		var picked []secrets.Share
		for _, i := range subset {
			picked = append(picked, shares[i])
		}
		recon, err := shamirgeneric.Reconstruct(picked, gfp.New())
		if err != nil {
			t.Fatal(err)
		}
		if want := []byte{33}; !bytes.Equal(recon, want) {
			t.Errorf("Reconstruct(%v) = %v, want %v", subset, recon, want)
		}
	}
}

func TestSplitRejectsInvalidInput(t *testing.T) {
	tooLarge := constants.FieldPrime.Bytes()
	for _, tc := range []struct {
		name     string
		metadata secrets.Metadata
		secret   []byte
		wantErr  error
	}{
		{name: "threshold above shares", metadata: createMetadata(4, 3), secret: []byte("s"), wantErr: secrets.ErrInvalidParameters},
		{name: "zero threshold", metadata: createMetadata(0, 3), secret: []byte("s"), wantErr: secrets.ErrInvalidParameters},
		{name: "zero shares", metadata: createMetadata(1, 0), secret: []byte("s"), wantErr: secrets.ErrInvalidParameters},
		{name: "field mismatch", metadata: secrets.Metadata{NumShares: 3, Threshold: 2}, secret: []byte("s"), wantErr: secrets.ErrInvalidParameters},
		{name: "secret equals prime", metadata: createMetadata(2, 3), secret: tooLarge, wantErr: secrets.ErrEncodingTooLarge},
		{name: "sixteen byte secret", metadata: createMetadata(2, 3), secret: bytes.Repeat([]byte{0xff}, 16), wantErr: secrets.ErrEncodingTooLarge},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := shamirgeneric.SplitSecret(tc.metadata, tc.secret, gfp.New()); !errors.Is(err, tc.wantErr) {
				t.Errorf("SplitSecret() err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestReconstructRejectsInvalidShares(t *testing.T) {
	for _, tc := range []struct {
		name   string
		shares []secrets.Share
	}{
		{name: "no shares"},
		{name: "zero index", shares: []secrets.Share{{X: 0, Value: big.NewInt(1)}}},
		{name: "negative index", shares: []secrets.Share{{X: -2, Value: big.NewInt(1)}}},
		{name: "missing value", shares: []secrets.Share{{X: 1}}},
		{name: "duplicate index", shares: []secrets.Share{{X: 1, Value: big.NewInt(1)}, {X: 1, Value: big.NewInt(2)}}},
		{name: "value outside field", shares: []secrets.Share{{X: 1, Value: constants.FieldPrime}}},
		{name: "negative value", shares: []secrets.Share{{X: 1, Value: big.NewInt(-1)}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := shamirgeneric.Reconstruct(tc.shares, gfp.New()); !errors.Is(err, secrets.ErrInvalidParameters) {
				t.Errorf("Reconstruct() err = %v, want %v", err, secrets.ErrInvalidParameters)
			}
		})
	}
}

func TestReconstructZeroSecretIsEmpty(t *testing.T) {
	split, err := shamirgeneric.SplitSecret(createMetadata(2, 3), nil, gfp.New())
	if err != nil {
		t.Fatal(err)
	}
	recon, err := shamirgeneric.Reconstruct(split.Shares, gfp.New())
	if err != nil {
		t.Fatal(err)
	}
	if recon == nil || len(recon) != 0 {
		t.Errorf("Reconstruct() = %#v, want empty non-nil slice", recon)
	}
}
