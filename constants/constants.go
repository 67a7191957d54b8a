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

// Package constants contains values shared by the trust layer packages, the
// HTTP binding and the command line tools.
package constants

import "math/big"

// FieldPrimeHex is the Mersenne prime 2^127 - 1 in hexadecimal. Shares
// produced under this prime must only be reconstructed under it.
const FieldPrimeHex = "7fffffffffffffffffffffffffffffff"

// FieldPrimeBits is the bit length of FieldPrime.
const FieldPrimeBits = 127

// FieldPrime is the order of the prime field used for secret sharing.
// Callers must treat it as read-only.
var FieldPrime = func() *big.Int {
	p, ok := new(big.Int).SetString(FieldPrimeHex, 16)
	if !ok {
		panic("constants: invalid field prime")
	}
	return p
}()

// MaxShares is the largest number of shares a secret may be split into.
const MaxShares = 255

// RSAKeyBits is the modulus size of every generated RSA key pair, and the
// minimum accepted when parsing key material.
const RSAKeyBits = 2048

// SessionKeyBytes is the size of the AES-256-GCM session key used by hybrid
// encryption.
const SessionKeyBytes = 32

// HTTPPort is the default listening port for the JSON HTTP binding.
const HTTPPort = 9755

// DefaultConfigName is the default name of the YAML configuration file.
const DefaultConfigName = "devvault.yaml"

// DefaultMFAIssuer is the issuer embedded in TOTP provisioning URIs.
const DefaultMFAIssuer = "DevVault"

// RedactedContent replaces repository content the subject may not read.
const RedactedContent = "[REDACTED: INSUFFICIENT CLEARANCE]"
