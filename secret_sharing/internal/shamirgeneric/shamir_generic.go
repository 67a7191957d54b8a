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

// Package shamirgeneric implements shamir secret sharing with a generic group structure.
package shamirgeneric

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/devvault/trustlayer/constants"
	"github.com/devvault/trustlayer/secret_sharing/internal/field"
	"github.com/devvault/trustlayer/secret_sharing/secrets"
)

// SplitSecret splits a secret into n shares where t or more shares can be combined to reconstruct
// the original secret using shamir secret sharing. The whole secret is encoded as a single field
// element, so its big endian integer value must be smaller than the field order.
func SplitSecret(metadata secrets.Metadata, secret []byte, gf field.GaloisField) (secrets.Split, error) {
	if err := validateSplitInput(metadata, gf); err != nil {
		return secrets.Split{}, err
	}
	encoded, err := gf.DecodeElement(secret)
	if err != nil {
		if errors.Is(err, field.ErrOutOfRange) {
			return secrets.Split{}, fmt.Errorf("%w: %v", secrets.ErrEncodingTooLarge, err)
		}
		return secrets.Split{}, err
	}

	// The polynomial has degree threshold-1. The secret is the constant
	// coefficient and every other coefficient is a random field element:
	// secret + R_1 * x^1 + R_2 * X^2 + ... + R_(t-1) * X^(t-1)
	coefficients := make([]field.Element, metadata.Threshold)
	coefficients[0] = encoded
	for i := 1; i < metadata.Threshold; i++ {
		if coefficients[i], err = gf.NewRandom(); err != nil {
			return secrets.Split{}, err
		}
	}

	shares := make([]secrets.Share, metadata.NumShares)
	for i := 0; i < metadata.NumShares; i++ {
		// Each share is the evaluation of the polynomial at X = i+1, giving the point (X, Y).
		xi, err := gf.CreateElement(i + 1)
		if err != nil {
			return secrets.Split{}, err
		}
		shares[i] = secrets.Share{
			X:     i + 1,
			Value: evaluatePolynomial(coefficients, xi).Int(),
		}
	}
	return secrets.Split{
		Shares:   shares,
		Metadata: metadata,
	}, nil
}

// evaluates a polynomial at `x` with Horner's method where `coefficients` take the form:
// f(x) = c[n-1] * x^(n-1) + c[n-2] * x^(n-2) + ... + c[1] * x^1 + c[0]
func evaluatePolynomial(coefficients []field.Element, x field.Element) field.Element {
	sum := coefficients[len(coefficients)-1]
	for i := len(coefficients) - 2; i >= 0; i-- {
		sum = sum.Multiply(x).Add(coefficients[i])
	}
	return sum
}

// Reconstruct interpolates the polynomial through every supplied share and returns its value at
// x = 0 as a minimal big endian byte slice. Supplying fewer shares than the threshold used at
// split time yields a wrong value rather than an error, since shares carry no authenticity data.
func Reconstruct(shares []secrets.Share, gf field.GaloisField) ([]byte, error) {
	if err := validateReconstructInput(shares); err != nil {
		return nil, err
	}
	xVals := make([]field.Element, 0, len(shares))
	yVals := make([]field.Element, 0, len(shares))
	order := gf.Order()
	for _, s := range shares {
		if big.NewInt(int64(s.X)).Cmp(order) >= 0 {
			return nil, fmt.Errorf("%w: X value %d does not fit in the field", secrets.ErrInvalidParameters, s.X)
		}
		xi, err := gf.CreateElement(s.X)
		if err != nil {
			return nil, err
		}
		yi, err := gf.ElementFromInt(s.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: share %d: %v", secrets.ErrInvalidParameters, s.X, err)
		}
		xVals = append(xVals, xi)
		yVals = append(yVals, yi)
	}
	coefficients, err := lagrangeCoefficients(xVals, gf)
	if err != nil {
		return nil, err
	}
	secret, err := interpolatePolynomial(coefficients, yVals, gf)
	if err != nil {
		return nil, err
	}
	return secret.Bytes(), nil
}

// performs lagrange polynomial interpolation at x = 0:
// ∑i={1,n} y[i] * lagrange_coefficient[i]
func interpolatePolynomial(lagCoeff []field.Element, yVals []field.Element, gf field.GaloisField) (field.Element, error) {
	if len(lagCoeff) != len(yVals) {
		return nil, fmt.Errorf("%w: invalid lagrange coefficients", secrets.ErrInternalArithmetic)
	}
	sum, err := gf.CreateElement(0)
	if err != nil {
		return nil, err
	}
	for i, y := range yVals {
		sum = sum.Add(y.Multiply(lagCoeff[i]))
	}
	return sum, nil
}

// recovers the coefficients to perform lagrange polynomial interpolation at x = 0 using the x
// coordinates: ∏j={1,n,j≠i} ( (0 - x[j]) / ( x[i] - x[j] ) )
// A single share yields the empty product 1.
func lagrangeCoefficients(x []field.Element, gf field.GaloisField) ([]field.Element, error) {
	zero, err := gf.CreateElement(0)
	if err != nil {
		return nil, err
	}
	out := make([]field.Element, len(x))
	for i := range x {
		numerator, err := gf.CreateElement(1)
		if err != nil {
			return nil, err
		}
		denominator := numerator
		for j := range x {
			if i == j {
				continue
			}
			numerator = numerator.Multiply(zero.Subtract(x[j]))
			denominator = denominator.Multiply(x[i].Subtract(x[j]))
		}
		inv, err := denominator.Inverse()
		if err != nil {
			// Distinct X values below the order never produce a zero denominator.
			return nil, fmt.Errorf("%w: %v", secrets.ErrInternalArithmetic, err)
		}
		out[i] = numerator.Multiply(inv)
	}
	return out, nil
}

func validateSplitInput(metadata secrets.Metadata, gf field.GaloisField) error {
	if metadata.NumShares < 1 {
		return fmt.Errorf("%w: numShares must be at least 1, got %d", secrets.ErrInvalidParameters, metadata.NumShares)
	}
	if metadata.NumShares > constants.MaxShares {
		return fmt.Errorf("%w: numShares must be at most %d, got %d", secrets.ErrInvalidParameters, constants.MaxShares, metadata.NumShares)
	}
	if metadata.Threshold < 1 {
		return fmt.Errorf("%w: threshold must be at least 1, got %d", secrets.ErrInvalidParameters, metadata.Threshold)
	}
	if metadata.Threshold > metadata.NumShares {
		return fmt.Errorf("%w: threshold %d is larger than numShares %d", secrets.ErrInvalidParameters, metadata.Threshold, metadata.NumShares)
	}
	if gf.Order().Cmp(big.NewInt(int64(metadata.NumShares))) <= 0 {
		return fmt.Errorf("%w: numShares %d does not fit in the field", secrets.ErrInvalidParameters, metadata.NumShares)
	}
	if metadata.Field != gf.FieldID() {
		return fmt.Errorf("%w: field ID mismatch", secrets.ErrInvalidParameters)
	}
	return nil
}

func validateReconstructInput(shares []secrets.Share) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: no shares provided", secrets.ErrInvalidParameters)
	}
	if len(shares) > constants.MaxShares {
		return fmt.Errorf("%w: at most %d shares may be combined, got %d", secrets.ErrInvalidParameters, constants.MaxShares, len(shares))
	}
	seen := make(map[int]bool, len(shares))
	for _, s := range shares {
		if s.X <= 0 {
			return fmt.Errorf("%w: invalid X value %d", secrets.ErrInvalidParameters, s.X)
		}
		if s.Value == nil {
			return fmt.Errorf("%w: share %d has no value", secrets.ErrInvalidParameters, s.X)
		}
		if seen[s.X] {
			return fmt.Errorf("%w: all shares should be unique points, %d repeats", secrets.ErrInvalidParameters, s.X)
		}
		seen[s.X] = true
	}
	return nil
}
