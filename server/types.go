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

package server

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/devvault/trustlayer/secret_sharing/secrets"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

type macCheckRequest struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
}

type macCheckResponse struct {
	Subject  string `json:"subject"`
	Object   string `json:"object"`
	CanRead  bool   `json:"can_read"`
	CanWrite bool   `json:"can_write"`
}

type keysResponse struct {
	PrivateKey  string `json:"private_key"`
	PublicKey   string `json:"public_key"`
	Fingerprint string `json:"fingerprint"`
}

type encryptRequest struct {
	Message   string `json:"message"`
	PublicKey string `json:"public_key"`
}

type decryptRequest struct {
	EncryptedData json.RawMessage `json:"encrypted_data"`
	PrivateKey    string          `json:"private_key"`
}

type decryptResponse struct {
	Message string `json:"message"`
}

type splitRequest struct {
	Secret string `json:"secret"`
	// N and K fall back to the configured defaults when omitted.
	N *int `json:"n"`
	K *int `json:"k"`
}

type splitResponse struct {
	Shares []wireShare `json:"shares"`
}

type reconstructRequest struct {
	Shares []wireShare `json:"shares"`
}

type reconstructResponse struct {
	// Secret is set only when the reconstructed bytes are UTF-8 text.
	Secret      *string `json:"secret"`
	SecretHex   string  `json:"secret_hex"`
	DecodeError string  `json:"decode_error,omitempty"`
}

// wireShare is a share on the wire. It is written as an [x, y] pair and read
// from that form or from {"index": x, "value": y}.
type wireShare secrets.Share

func (s wireShare) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.X, s.Value})
}

func (s *wireShare) UnmarshalJSON(data []byte) error {
	var pair []json.Number
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("share pair has %d elements, want 2", len(pair))
		}
		x, err := pair[0].Int64()
		if err != nil {
			return fmt.Errorf("share index %q: %w", pair[0], err)
		}
		v, ok := new(big.Int).SetString(pair[1].String(), 10)
		if !ok {
			return fmt.Errorf("share value %q is not an integer", pair[1])
		}
		*s = wireShare{X: int(x), Value: v}
		return nil
	}

	var share secrets.Share
	if err := json.Unmarshal(data, &share); err != nil {
		return err
	}
	*s = wireShare(share)
	return nil
}

func toShares(ws []wireShare) []secrets.Share {
	out := make([]secrets.Share, len(ws))
	for i, s := range ws {
		out[i] = secrets.Share(s)
	}
	return out
}

func fromShares(ss []secrets.Share) []wireShare {
	out := make([]wireShare, len(ss))
	for i, s := range ss {
		out[i] = wireShare(s)
	}
	return out
}

type merkleRequest struct {
	Data []string `json:"data"`
}

type merkleResponse struct {
	RootHash string `json:"root_hash"`
}

type signRequest struct {
	Data       string `json:"data"`
	PrivateKey string `json:"private_key"`
}

type signResponse struct {
	// Signature is base64 encoded.
	Signature string `json:"signature"`
}

type verifyRequest struct {
	Data      string `json:"data"`
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

type dnaRequest struct {
	Text string `json:"text"`
}

type dnaEncodeResponse struct {
	Encoded string `json:"encoded"`
}

type dnaDecodeResponse struct {
	Decoded string `json:"decoded"`
}

type mfaSetupRequest struct {
	Username string `json:"username"`
}

type mfaSetupResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}

type mfaVerifyRequest struct {
	Secret string `json:"secret"`
	Token  string `json:"token"`
}

type mfaVerifyResponse struct {
	Valid bool `json:"valid"`
}
