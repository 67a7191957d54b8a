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

// Package keys generates and parses the RSA key material shared by hybrid
// encryption and signatures. Keys travel as PEM: private keys as PKCS#1
// "RSA PRIVATE KEY" (PKCS#8 "PRIVATE KEY" is accepted on input) and public
// keys as PKIX "PUBLIC KEY" (PKCS#1 "RSA PUBLIC KEY" is accepted on input).
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/devvault/trustlayer/constants"
)

const (
	privateKeyPEMType      = "RSA PRIVATE KEY"
	pkcs8PrivateKeyPEMType = "PRIVATE KEY"
	publicKeyPEMType       = "PUBLIC KEY"
	pkcs1PublicKeyPEMType  = "RSA PUBLIC KEY"
)

// ErrKeyFormat indicates key material that cannot be decoded as an RSA key
// of at least constants.RSAKeyBits bits.
var ErrKeyFormat = errors.New("keys: malformed key material")

// KeyPair holds a PEM encoded RSA key pair.
type KeyPair struct {
	PrivateKey []byte
	PublicKey  []byte
}

// GenerateKeyPair creates a fresh RSA key pair of constants.RSAKeyBits bits.
// Nothing is cached between calls.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, constants.RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	return MarshalKeyPair(key)
}

// MarshalKeyPair PEM encodes key and its public half.
func MarshalKeyPair(key *rsa.PrivateKey) (*KeyPair, error) {
	pub, err := MarshalPublicKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	priv := pem.EncodeToMemory(&pem.Block{
		Type:  privateKeyPEMType,
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return &KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// MarshalPublicKey PEM encodes pub as a PKIX "PUBLIC KEY" block.
func MarshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: publicKeyPEMType, Bytes: der}), nil
}

// ParsePublicKey decodes a PEM encoded RSA public key.
func ParsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block containing public key", ErrKeyFormat)
	}

	var key *rsa.PublicKey
	switch block.Type {
	case publicKeyPEMType:
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse public key from PEM: %v", ErrKeyFormat, err)
		}
		var ok bool
		if key, ok = pub.(*rsa.PublicKey); !ok {
			return nil, fmt.Errorf("%w: public key is %T, not RSA", ErrKeyFormat, pub)
		}
	case pkcs1PublicKeyPEMType:
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKCS1 public key from PEM: %v", ErrKeyFormat, err)
		}
		key = pub
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrKeyFormat, block.Type)
	}

	if err := checkSize(key); err != nil {
		return nil, err
	}
	return key, nil
}

// ParsePrivateKey decodes a PEM encoded RSA private key.
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block containing private key", ErrKeyFormat)
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case privateKeyPEMType:
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKCS1 private key from PEM: %v", ErrKeyFormat, err)
		}
		key = priv
	case pkcs8PrivateKeyPEMType:
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKCS8 private key from PEM: %v", ErrKeyFormat, err)
		}
		var ok bool
		if key, ok = priv.(*rsa.PrivateKey); !ok {
			return nil, fmt.Errorf("%w: private key is %T, not RSA", ErrKeyFormat, priv)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrKeyFormat, block.Type)
	}

	if err := checkSize(&key.PublicKey); err != nil {
		return nil, err
	}
	return key, nil
}

func checkSize(key *rsa.PublicKey) error {
	if bits := key.N.BitLen(); bits < constants.RSAKeyBits {
		return fmt.Errorf("%w: %d-bit modulus, need at least %d", ErrKeyFormat, bits, constants.RSAKeyBits)
	}
	return nil
}

// Fingerprint returns the base64 encoded SHA-256 digest of the DER encoded
// public key, which identifies a key without revealing it.
func Fingerprint(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	sha := sha256.Sum256(der)
	return base64.StdEncoding.EncodeToString(sha[:]), nil
}
