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

// Package signature signs and verifies arbitrary data with RSA keys using
// RSASSA-PKCS1-v1_5 over a SHA-256 digest.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/devvault/trustlayer/keys"
)

// Sign signs data with the PEM encoded privateKey.
func Sign(data, privateKey []byte) ([]byte, error) {
	priv, err := keys.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return SignWithKey(data, priv)
}

// SignWithKey is Sign for a parsed private key.
func SignWithKey(data []byte, priv *rsa.PrivateKey) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign data: %w", err)
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature of data under the PEM
// encoded publicKey. A signature that does not verify is not an error; only
// malformed key material is reported, as keys.ErrKeyFormat.
func Verify(data, sig, publicKey []byte) (bool, error) {
	pub, err := keys.ParsePublicKey(publicKey)
	if err != nil {
		return false, err
	}
	return VerifyWithKey(data, sig, pub), nil
}

// VerifyWithKey is Verify for a parsed public key.
func VerifyWithKey(data, sig []byte, pub *rsa.PublicKey) bool {
	digest := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil
}
