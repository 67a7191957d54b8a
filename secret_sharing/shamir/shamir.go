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

// Package shamir encapsulates all of the logic needed to perform t-of-n [Shamir
// Secret Sharing] (SSS) of a secret over a prime field. SSS is based on the
// Lagrange interpolation theorem, which states that `k` points are enough to
// uniquely determine a polynomial of degree less than or equal to `k - 1`.
//
// The secret is read as one big endian unsigned integer, which must be smaller
// than the field order (2^127 - 1 by default, so at most 15 arbitrary bytes).
// Leading zero bytes of the secret do not survive a split/reconstruct round
// trip, since reconstruction returns the minimal encoding of the integer.
//
// Any threshold - 1 shares are statistically independent of the secret. Shares
// carry no integrity data, so Reconstruct will not detect bogus or corrupted
// shares.
//
// [Shamir Secret Sharing]: https://web.mit.edu/6.857/OldStuff/Fall03/ref/Shamir-HowToShareAsecrets.pdf
package shamir

import (
	"fmt"
	"unicode/utf8"

	"github.com/devvault/trustlayer/secret_sharing/finitefield"
	"github.com/devvault/trustlayer/secret_sharing/internal/field"
	"github.com/devvault/trustlayer/secret_sharing/internal/field/gfp"
	"github.com/devvault/trustlayer/secret_sharing/internal/shamirgeneric"
	"github.com/devvault/trustlayer/secret_sharing/secrets"
)

func createField(fieldID finitefield.ID) (field.GaloisField, error) {
	switch fieldID {
	case finitefield.GFP127:
		return gfp.New(), nil
	default:
		return nil, fmt.Errorf("%w: invalid field: %v", secrets.ErrInvalidParameters, fieldID)
	}
}

// SplitSecret splits a secret into metadata.NumShares shares where metadata.Threshold
// or more shares can be combined to reconstruct the original secret.
func SplitSecret(metadata secrets.Metadata, secret []byte) (secrets.Split, error) {
	f, err := createField(metadata.Field)
	if err != nil {
		return secrets.Split{}, err
	}
	return shamirgeneric.SplitSecret(metadata, secret, f)
}

// Split splits secret over the default field into numShares shares, any
// threshold of which reconstruct it.
func Split(secret []byte, numShares, threshold int) ([]secrets.Share, error) {
	split, err := SplitSecret(secrets.Metadata{
		Field:     finitefield.Default,
		NumShares: numShares,
		Threshold: threshold,
	}, secret)
	if err != nil {
		return nil, err
	}
	return split.Shares, nil
}

// Reconstruct recovers the secret from shares produced by [Split] over the
// default field. All supplied shares are used; their order does not matter.
//
// The number of shares provided must meet the threshold specified when the
// shares were created, otherwise the result is wrong but no error is returned.
// A secret of integer value zero (for example an empty secret) is returned as
// an empty, non-nil slice.
func Reconstruct(shares []secrets.Share) ([]byte, error) {
	return ReconstructInField(finitefield.Default, shares)
}

// ReconstructInField is [Reconstruct] for an explicitly named field.
func ReconstructInField(fieldID finitefield.ID, shares []secrets.Share) ([]byte, error) {
	f, err := createField(fieldID)
	if err != nil {
		return nil, err
	}
	return shamirgeneric.Reconstruct(shares, f)
}

// ReconstructString is [Reconstruct] for secrets that were UTF-8 text. Bytes that
// do not decode are reported with [secrets.ErrNotUTF8] instead of being replaced.
func ReconstructString(shares []secrets.Share) (string, error) {
	b, err := Reconstruct(shares)
	if err != nil {
		return "", err
	}
	return DecodeUTF8(b)
}

// DecodeUTF8 returns secret as text, or [secrets.ErrNotUTF8] if it is not
// valid UTF-8.
func DecodeUTF8(secret []byte) (string, error) {
	if !utf8.Valid(secret) {
		return "", secrets.ErrNotUTF8
	}
	return string(secret), nil
}
