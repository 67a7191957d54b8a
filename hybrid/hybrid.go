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

// Package hybrid implements hybrid encryption of UTF-8 messages: a fresh
// AES-256-GCM session key encrypts the message and is itself encapsulated
// under the recipient's RSA public key with RSA-OAEP (SHA-256).
package hybrid

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/devvault/trustlayer/constants"
	"github.com/devvault/trustlayer/keys"
	aeadsubtle "github.com/google/tink/go/aead/subtle"
	"github.com/google/tink/go/subtle/random"
)

// Algorithm names the fixed composition used by Encrypt and Decrypt.
const Algorithm = "RSA-OAEP-SHA256+AES-256-GCM"

var (
	// ErrDecryptionFailed is returned for every decryption failure once the
	// private key has been parsed, whichever step failed.
	ErrDecryptionFailed = errors.New("hybrid: decryption failed")

	// ErrInvalidMessage indicates a message that is not valid UTF-8 text.
	ErrInvalidMessage = errors.New("hybrid: message is not valid UTF-8")
)

// Ciphertext is a self-describing hybrid encryption bundle. Byte fields are
// base64 encoded when marshalled to JSON.
type Ciphertext struct {
	EncapsulatedKey []byte `json:"enc_session_key"`
	Nonce           []byte `json:"nonce"`
	Tag             []byte `json:"tag"`
	Ciphertext      []byte `json:"ciphertext"`
}

// GenerateKeyPair creates a fresh RSA key pair for use with Encrypt and Decrypt.
func GenerateKeyPair() (*keys.KeyPair, error) {
	return keys.GenerateKeyPair()
}

// Encrypt encrypts message for the holder of the private key matching the
// PEM encoded publicKey.
func Encrypt(message string, publicKey []byte) (*Ciphertext, error) {
	if !utf8.ValidString(message) {
		return nil, ErrInvalidMessage
	}
	pub, err := keys.ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return EncryptWithKey([]byte(message), pub)
}

// EncryptWithKey is Encrypt for a parsed public key and raw bytes.
func EncryptWithKey(plaintext []byte, pub *rsa.PublicKey) (*Ciphertext, error) {
	sessionKey := random.GetRandomBytes(constants.SessionKeyBytes)
	defer clear(sessionKey)

	encapsulated, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, sessionKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encapsulate session key: %v", err)
	}

	cipher, err := aeadsubtle.NewAESGCM(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("unable to create new cipher: %v", err)
	}

	// The encapsulated key is the associated data.
	sealed, err := cipher.Encrypt(plaintext, encapsulated)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %v", err)
	}

	// Tink lays the output out as nonce || ciphertext || tag.
	tagStart := len(sealed) - aeadsubtle.AESGCMTagSize
	return &Ciphertext{
		EncapsulatedKey: encapsulated,
		Nonce:           sealed[:aeadsubtle.AESGCMIVSize],
		Ciphertext:      sealed[aeadsubtle.AESGCMIVSize:tagStart],
		Tag:             sealed[tagStart:],
	}, nil
}

// Decrypt recovers the message from ct with the PEM encoded privateKey.
// Malformed key material yields keys.ErrKeyFormat; every other failure,
// including a wrong key or any tampering, yields ErrDecryptionFailed.
func Decrypt(ct *Ciphertext, privateKey []byte) (string, error) {
	priv, err := keys.ParsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	plaintext, err := DecryptWithKey(ct, priv)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// DecryptWithKey is Decrypt for a parsed private key, returning raw bytes.
func DecryptWithKey(ct *Ciphertext, priv *rsa.PrivateKey) ([]byte, error) {
	if ct == nil ||
		len(ct.EncapsulatedKey) != priv.Size() ||
		len(ct.Nonce) != aeadsubtle.AESGCMIVSize ||
		len(ct.Tag) != aeadsubtle.AESGCMTagSize {
		return nil, ErrDecryptionFailed
	}

	sessionKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ct.EncapsulatedKey, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	defer clear(sessionKey)
	if len(sessionKey) != constants.SessionKeyBytes {
		return nil, ErrDecryptionFailed
	}

	cipher, err := aeadsubtle.NewAESGCM(sessionKey)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(ct.Nonce)+len(ct.Ciphertext)+len(ct.Tag))
	sealed = append(sealed, ct.Nonce...)
	sealed = append(sealed, ct.Ciphertext...)
	sealed = append(sealed, ct.Tag...)

	plaintext, err := cipher.Decrypt(sealed, ct.EncapsulatedKey)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
