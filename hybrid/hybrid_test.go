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

package hybrid_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/devvault/trustlayer/hybrid"
	"github.com/devvault/trustlayer/keys"
	"github.com/devvault/trustlayer/testutil"
	"github.com/google/go-cmp/cmp"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	kp := testutil.KeyPair(t)
	for _, msg := range []string{
		"Plaintext for testing only.",
		"",
		"Ünïcödé ✓ 机密",
		string(make([]byte, 100000)),
	} {
		ct, err := hybrid.Encrypt(msg, kp.PublicKey)
		if err != nil {
			t.Fatalf("Encrypt() err = %v, want nil", err)
		}
		got, err := hybrid.Decrypt(ct, kp.PrivateKey)
		if err != nil {
			t.Fatalf("Decrypt() err = %v, want nil", err)
		}
		if got != msg {
			t.Errorf("Decrypt(Encrypt(%.20q)) = %.20q", msg, got)
		}
	}
}

func TestEncryptUsesFreshSessionKeyAndNonce(t *testing.T) {
	kp := testutil.KeyPair(t)
	a, err := hybrid.Encrypt("same message", kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	b, err := hybrid.Encrypt("same message", kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Equal(a.EncapsulatedKey, b.EncapsulatedKey) {
		t.Errorf("two encryptions share an encapsulated key")
	}
	if cmp.Equal(a.Nonce, b.Nonce) {
		t.Errorf("two encryptions share a nonce")
	}
	if cmp.Equal(a.Ciphertext, b.Ciphertext) {
		t.Errorf("two encryptions share a ciphertext")
	}
}

func TestBundleSurvivesJSON(t *testing.T) {
	kp := testutil.KeyPair(t)
	ct, err := hybrid.Encrypt("over the wire", kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := json.Marshal(ct)
	if err != nil {
		t.Fatal(err)
	}
	var decoded hybrid.Ciphertext
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ct, &decoded); diff != "" {
		t.Errorf("JSON round trip changed the bundle (-want +got):\n%s", diff)
	}
	got, err := hybrid.Decrypt(&decoded, kp.PrivateKey)
	if err != nil {
		t.Fatal(err)
	}
	if got != "over the wire" {
		t.Errorf("Decrypt() = %q, want %q", got, "over the wire")
	}
}

func flip(b []byte, i int) []byte {
	out := append([]byte(nil), b...)
	out[i] ^= 0x01
	return out
}

func TestDecryptFailuresAreIndistinguishable(t *testing.T) {
	kp := testutil.KeyPair(t)
	other := testutil.OtherKeyPair(t)
	ct, err := hybrid.Encrypt("attack at dawn", kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	otherCT, err := hybrid.Encrypt("attack at dusk", kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name   string
		bundle *hybrid.Ciphertext
		key    []byte
	}{
		{name: "wrong private key", bundle: ct, key: other.PrivateKey},
		{name: "tampered tag", bundle: &hybrid.Ciphertext{EncapsulatedKey: ct.EncapsulatedKey, Nonce: ct.Nonce, Tag: flip(ct.Tag, 0), Ciphertext: ct.Ciphertext}, key: kp.PrivateKey},
		{name: "tampered ciphertext", bundle: &hybrid.Ciphertext{EncapsulatedKey: ct.EncapsulatedKey, Nonce: ct.Nonce, Tag: ct.Tag, Ciphertext: flip(ct.Ciphertext, 3)}, key: kp.PrivateKey},
		{name: "tampered nonce", bundle: &hybrid.Ciphertext{EncapsulatedKey: ct.EncapsulatedKey, Nonce: flip(ct.Nonce, 11), Tag: ct.Tag, Ciphertext: ct.Ciphertext}, key: kp.PrivateKey},
		{name: "tampered encapsulated key", bundle: &hybrid.Ciphertext{EncapsulatedKey: flip(ct.EncapsulatedKey, 17), Nonce: ct.Nonce, Tag: ct.Tag, Ciphertext: ct.Ciphertext}, key: kp.PrivateKey},
		{name: "swapped encapsulated key", bundle: &hybrid.Ciphertext{EncapsulatedKey: otherCT.EncapsulatedKey, Nonce: ct.Nonce, Tag: ct.Tag, Ciphertext: ct.Ciphertext}, key: kp.PrivateKey},
		{name: "truncated encapsulated key", bundle: &hybrid.Ciphertext{EncapsulatedKey: ct.EncapsulatedKey[:10], Nonce: ct.Nonce, Tag: ct.Tag, Ciphertext: ct.Ciphertext}, key: kp.PrivateKey},
		{name: "short nonce", bundle: &hybrid.Ciphertext{EncapsulatedKey: ct.EncapsulatedKey, Nonce: ct.Nonce[:8], Tag: ct.Tag, Ciphertext: ct.Ciphertext}, key: kp.PrivateKey},
		{name: "missing tag", bundle: &hybrid.Ciphertext{EncapsulatedKey: ct.EncapsulatedKey, Nonce: ct.Nonce, Ciphertext: ct.Ciphertext}, key: kp.PrivateKey},
		{name: "nil bundle", bundle: nil, key: kp.PrivateKey},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := hybrid.Decrypt(tc.bundle, tc.key)
			if !errors.Is(err, hybrid.ErrDecryptionFailed) {
				t.Errorf("Decrypt() err = %v, want %v", err, hybrid.ErrDecryptionFailed)
			}
			if err != nil && err.Error() != hybrid.ErrDecryptionFailed.Error() {
				t.Errorf("Decrypt() err = %q leaks detail beyond %q", err, hybrid.ErrDecryptionFailed)
			}
			if got != "" {
				t.Errorf("Decrypt() = %q alongside an error", got)
			}
		})
	}
}

func TestMalformedKeyMaterial(t *testing.T) {
	kp := testutil.KeyPair(t)
	if _, err := hybrid.Encrypt("msg", []byte("garbage")); !errors.Is(err, keys.ErrKeyFormat) {
		t.Errorf("Encrypt() with garbage key err = %v, want %v", err, keys.ErrKeyFormat)
	}
	ct, err := hybrid.Encrypt("msg", kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := hybrid.Decrypt(ct, kp.PublicKey); !errors.Is(err, keys.ErrKeyFormat) {
		t.Errorf("Decrypt() with public key err = %v, want %v", err, keys.ErrKeyFormat)
	}
}

func TestEncryptRejectsInvalidUTF8(t *testing.T) {
	kp := testutil.KeyPair(t)
	if _, err := hybrid.Encrypt("\xff\xfe", kp.PublicKey); !errors.Is(err, hybrid.ErrInvalidMessage) {
		t.Errorf("Encrypt() err = %v, want %v", err, hybrid.ErrInvalidMessage)
	}
}
