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

// Binary to run against a DevVault server to validate API conformance.
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"flag"
	"github.com/alecthomas/colour"
	"github.com/devvault/trustlayer/constants"
	"github.com/devvault/trustlayer/merkle"
)

var (
	serverURL = flag.String("server-url", fmt.Sprintf("http://localhost:%d", constants.HTTPPort), "Base URL of the DevVault server under test")
	timeout   = flag.Duration("timeout", 30*time.Second, "Per-request timeout")
)

type conformanceClient struct {
	base string
	http *http.Client
}

// post sends req as JSON and decodes a 200 response into resp. Other status
// codes are returned as errors.
func (c *conformanceClient) post(path string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpResp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, httpResp.StatusCode)
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}

func (c *conformanceClient) get(path string, resp any) error {
	httpResp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, httpResp.StatusCode)
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}

type keyPair struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

type conformanceTest struct {
	testName string
	run      func(c *conformanceClient) error
}

func macTest(subject, object string, wantRead, wantWrite bool) func(*conformanceClient) error {
	return func(c *conformanceClient) error {
		var resp struct {
			CanRead  bool `json:"can_read"`
			CanWrite bool `json:"can_write"`
		}
		if err := c.post("/api/mac/check", map[string]string{"subject": subject, "object": object}, &resp); err != nil {
			return err
		}
		if resp.CanRead != wantRead || resp.CanWrite != wantWrite {
			return fmt.Errorf("got read=%v write=%v, want read=%v write=%v", resp.CanRead, resp.CanWrite, wantRead, wantWrite)
		}
		return nil
	}
}

func splitReconstructTest(c *conformanceClient) error {
	var split struct {
		Shares []json.RawMessage `json:"shares"`
	}
	if err := c.post("/api/crypto/split", map[string]any{"secret": "hello", "n": 5, "k": 3}, &split); err != nil {
		return err
	}
	if len(split.Shares) != 5 {
		return fmt.Errorf("got %d shares, want 5", len(split.Shares))
	}
	for _, subset := range [][]int{{0, 2, 4}, {1, 2, 3}} {
		var shares []json.RawMessage
		for _, i := range subset {
			shares = append(shares, split.Shares[i])
		}
		var resp struct {
			Secret *string `json:"secret"`
		}
		if err := c.post("/api/crypto/reconstruct", map[string]any{"shares": shares}, &resp); err != nil {
			return err
		}
		if resp.Secret == nil || *resp.Secret != "hello" {
			return fmt.Errorf("shares %v did not reconstruct hello", subset)
		}
	}
	return nil
}

func belowThresholdTest(c *conformanceClient) error {
	var split struct {
		Shares []json.RawMessage `json:"shares"`
	}
	if err := c.post("/api/crypto/split", map[string]any{"secret": "hello", "n": 5, "k": 3}, &split); err != nil {
		return err
	}
	var resp struct {
		Secret *string `json:"secret"`
	}
	if err := c.post("/api/crypto/reconstruct", map[string]any{"shares": split.Shares[:2]}, &resp); err != nil {
		return err
	}
	if resp.Secret != nil && *resp.Secret == "hello" {
		return fmt.Errorf("two of three shares reconstructed the secret")
	}
	return nil
}

func encryptDecryptTest(tamper func(bundle map[string]string), useOtherKey, expectErr bool) func(*conformanceClient) error {
	return func(c *conformanceClient) error {
		var kp, other keyPair
		if err := c.get("/api/crypto/keys", &kp); err != nil {
			return err
		}
		if useOtherKey {
			if err := c.get("/api/crypto/keys", &other); err != nil {
				return err
			}
		}
		bundle := map[string]string{}
		if err := c.post("/api/crypto/encrypt", map[string]string{"message": "conformance", "public_key": kp.PublicKey}, &bundle); err != nil {
			return err
		}
		tamper(bundle)

		privateKey := kp.PrivateKey
		if useOtherKey {
			privateKey = other.PrivateKey
		}
		var resp struct {
			Message string `json:"message"`
		}
		err := c.post("/api/crypto/decrypt", map[string]any{"encrypted_data": bundle, "private_key": privateKey}, &resp)
		if expectErr {
			if err == nil {
				return fmt.Errorf("decryption succeeded, want failure")
			}
			return nil
		}
		if err != nil {
			return err
		}
		if resp.Message != "conformance" {
			return fmt.Errorf("decrypted %q", resp.Message)
		}
		return nil
	}
}

func flipFirstByte(field string) func(map[string]string) {
	return func(bundle map[string]string) {
		raw, err := base64.StdEncoding.DecodeString(bundle[field])
		if err != nil || len(raw) == 0 {
			return
		}
		raw[0] ^= 0x01
		bundle[field] = base64.StdEncoding.EncodeToString(raw)
	}
}

func signVerifyTest(c *conformanceClient) error {
	var kp, other keyPair
	if err := c.get("/api/crypto/keys", &kp); err != nil {
		return err
	}
	if err := c.get("/api/crypto/keys", &other); err != nil {
		return err
	}
	var signed struct {
		Signature string `json:"signature"`
	}
	if err := c.post("/api/utils/sign", map[string]string{"data": "D", "private_key": kp.PrivateKey}, &signed); err != nil {
		return err
	}
	for _, tc := range []struct {
		data, publicKey string
		want            bool
	}{
		{"D", kp.PublicKey, true},
		{"D", other.PublicKey, false},
		{"D'", kp.PublicKey, false},
	} {
		var resp struct {
			Valid bool `json:"valid"`
		}
		if err := c.post("/api/utils/verify", map[string]string{"data": tc.data, "signature": signed.Signature, "public_key": tc.publicKey}, &resp); err != nil {
			return err
		}
		if resp.Valid != tc.want {
			return fmt.Errorf("verify(%q) = %v, want %v", tc.data, resp.Valid, tc.want)
		}
	}
	return nil
}

func merkleTest(c *conformanceClient) error {
	root := func(items ...string) (string, error) {
		var resp struct {
			RootHash string `json:"root_hash"`
		}
		err := c.post("/api/utils/merkle", map[string][]string{"data": items}, &resp)
		return resp.RootHash, err
	}

	ab, err := root("a", "b")
	if err != nil {
		return err
	}
	ba, err := root("b", "a")
	if err != nil {
		return err
	}
	if ab == ba {
		return fmt.Errorf("root is not order sensitive")
	}

	abc, err := root("a", "b", "c")
	if err != nil {
		return err
	}
	l1, l2, l3 := merkle.LeafHash([]byte("a")), merkle.LeafHash([]byte("b")), merkle.LeafHash([]byte("c"))
	if want := merkle.Combine(merkle.Combine(l1, l2), l3); abc != string(want) {
		return fmt.Errorf("odd-carry root = %s, want %s", abc, want)
	}
	return nil
}

func main() {
	flag.Parse()

	c := &conformanceClient{base: *serverURL, http: &http.Client{Timeout: *timeout}}

	testCases := []conformanceTest{
		{"Secret subject reads Confidential object", macTest("Secret", "Confidential", true, false)},
		{"Confidential subject cannot read Secret object", macTest("Confidential", "Secret", false, true)},
		{"Unknown labels rank as Unclassified", macTest("bogus", "Unclassified", true, true)},
		{"Any 3 of 5 shares reconstruct the secret", splitReconstructTest},
		{"2 of 3 required shares do not reconstruct the secret", belowThresholdTest},
		{"Encrypt then decrypt returns the message", encryptDecryptTest(func(map[string]string) {}, false, false)},
		{"Decrypting with another private key fails", encryptDecryptTest(func(map[string]string) {}, true, true)},
		{"Tampered tag fails decryption", encryptDecryptTest(flipFirstByte("tag"), false, true)},
		{"Tampered ciphertext fails decryption", encryptDecryptTest(flipFirstByte("ciphertext"), false, true)},
		{"Tampered encapsulated key fails decryption", encryptDecryptTest(flipFirstByte("enc_session_key"), false, true)},
		{"Signatures verify only for the signed data and key", signVerifyTest},
		{"Merkle root is order sensitive and carries odd nodes", merkleTest},
	}

	fmt.Printf("Running conformance tests against %v...\n", *serverURL)
	failed := 0
	for _, testCase := range testCases {
		if err := testCase.run(c); err == nil {
			colour.Printf("^2 - %v^R\n", testCase.testName)
		} else {
			failed++
			colour.Printf("^1 - %v: %v^R\n", testCase.testName, err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
