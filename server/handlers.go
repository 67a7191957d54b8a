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
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/devvault/trustlayer/dna"
	"github.com/devvault/trustlayer/hybrid"
	"github.com/devvault/trustlayer/keys"
	"github.com/devvault/trustlayer/mac"
	"github.com/devvault/trustlayer/merkle"
	"github.com/devvault/trustlayer/metrics"
	"github.com/devvault/trustlayer/mfa"
	"github.com/devvault/trustlayer/secret_sharing/secrets"
	"github.com/devvault/trustlayer/secret_sharing/shamir"
	"github.com/devvault/trustlayer/signature"
	glog "github.com/golang/glog"
)

// decryptFailedDetail is the only detail ever returned by the decrypt route.
const decryptFailedDetail = "Decryption failed. Invalid Key or Data."

// processHTTPRequest decodes the JSON body of httpReq into req.
func processHTTPRequest(httpReq *http.Request, req any) error {
	defer httpReq.Body.Close()
	reqBody, err := io.ReadAll(httpReq.Body)
	if err != nil {
		return fmt.Errorf("unable to read HTTP request body: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(reqBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return fmt.Errorf("unable to unmarshal HTTP request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		glog.Errorf("Failed to encode JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, detail string, statusCode int) {
	id := RequestID(r.Context())
	glog.Warningf("[%s] %s %s rejected with %d: %s", id, r.Method, r.URL.Path, statusCode, detail)
	writeJSON(w, ErrorResponse{Detail: detail, RequestID: id}, statusCode)
}

// statusFor maps trust layer errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, mac.ErrReadUp), errors.Is(err, mac.ErrWriteDown):
		return http.StatusForbidden
	case errors.Is(err, secrets.ErrInvalidParameters),
		errors.Is(err, secrets.ErrEncodingTooLarge),
		errors.Is(err, keys.ErrKeyFormat),
		errors.Is(err, hybrid.ErrInvalidMessage),
		errors.Is(err, hybrid.ErrDecryptionFailed),
		errors.Is(err, dna.ErrInvalidSymbol):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads the request body, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := processHTTPRequest(r, req); err != nil {
		writeError(w, r, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func observe(op string, start time.Time, err error) {
	metrics.RecordOperation(op, err, time.Since(start).Seconds())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": "Welcome to DevVault API"}, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleMACCheck(w http.ResponseWriter, r *http.Request) {
	req := &macCheckRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	subject, object := mac.ParseClearanceLevel(req.Subject), mac.ParseClearanceLevel(req.Object)
	resp := macCheckResponse{
		Subject:  subject.String(),
		Object:   object.String(),
		CanRead:  mac.CanRead(subject, object),
		CanWrite: mac.CanWrite(subject, object),
	}
	metrics.RecordAccessDecision(mac.Read.String(), resp.CanRead)
	metrics.RecordAccessDecision(mac.Write.String(), resp.CanWrite)
	observe(metrics.OpMACCheck, start, nil)
	writeJSON(w, resp, http.StatusOK)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp, err := generateKeys()
	observe(metrics.OpKeygen, start, err)
	if err != nil {
		writeError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

func generateKeys() (*keysResponse, error) {
	kp, err := hybrid.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	pub, err := keys.ParsePublicKey(kp.PublicKey)
	if err != nil {
		return nil, err
	}
	fp, err := keys.Fingerprint(pub)
	if err != nil {
		return nil, err
	}
	return &keysResponse{
		PrivateKey:  string(kp.PrivateKey),
		PublicKey:   string(kp.PublicKey),
		Fingerprint: fp,
	}, nil
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	req := &encryptRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	ct, err := hybrid.Encrypt(req.Message, []byte(req.PublicKey))
	observe(metrics.OpEncrypt, start, err)
	if err != nil {
		writeError(w, r, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, ct, http.StatusOK)
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	req := &decryptRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	msg, err := s.decrypt(req)
	observe(metrics.OpDecrypt, start, err)
	if err != nil {
		writeError(w, r, decryptFailedDetail, http.StatusBadRequest)
		return
	}
	writeJSON(w, decryptResponse{Message: msg}, http.StatusOK)
}

func (s *Server) decrypt(req *decryptRequest) (string, error) {
	ct := &hybrid.Ciphertext{}
	if err := json.Unmarshal(req.EncryptedData, ct); err != nil {
		return "", hybrid.ErrDecryptionFailed
	}
	return hybrid.Decrypt(ct, []byte(req.PrivateKey))
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	req := &splitRequest{}
	if !decode(w, r, req) {
		return
	}
	n, k := s.cfg.SecretSharing.Shares, s.cfg.SecretSharing.Threshold
	if req.N != nil {
		n = *req.N
	}
	if req.K != nil {
		k = *req.K
	}
	if n < k {
		writeError(w, r, "n must be >= k", http.StatusBadRequest)
		return
	}

	start := time.Now()
	shares, err := shamir.Split([]byte(req.Secret), n, k)
	observe(metrics.OpSplit, start, err)
	if err != nil {
		writeError(w, r, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, splitResponse{Shares: fromShares(shares)}, http.StatusOK)
}

func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	req := &reconstructRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	secret, err := shamir.Reconstruct(toShares(req.Shares))
	observe(metrics.OpReconstruct, start, err)
	if err != nil {
		writeError(w, r, err.Error(), statusFor(err))
		return
	}

	resp := reconstructResponse{SecretHex: hex.EncodeToString(secret)}
	if text, err := shamir.DecodeUTF8(secret); err != nil {
		resp.DecodeError = err.Error()
	} else {
		resp.Secret = &text
	}
	writeJSON(w, resp, http.StatusOK)
}

func (s *Server) handleMerkle(w http.ResponseWriter, r *http.Request) {
	req := &merkleRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	root := merkle.RootStrings(req.Data)
	observe(metrics.OpMerkle, start, nil)
	writeJSON(w, merkleResponse{RootHash: string(root)}, http.StatusOK)
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	req := &signRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	sig, err := signature.Sign([]byte(req.Data), []byte(req.PrivateKey))
	observe(metrics.OpSign, start, err)
	if err != nil {
		writeError(w, r, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, signResponse{Signature: base64.StdEncoding.EncodeToString(sig)}, http.StatusOK)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	req := &verifyRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	valid := false
	sig, err := base64.StdEncoding.DecodeString(req.Signature)
	if err == nil {
		valid, err = signature.Verify([]byte(req.Data), sig, []byte(req.PublicKey))
	} else {
		// An undecodable signature simply does not verify.
		err = nil
	}
	observe(metrics.OpVerify, start, err)
	if err != nil {
		writeError(w, r, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, verifyResponse{Valid: valid}, http.StatusOK)
}

func (s *Server) handleDNAEncode(w http.ResponseWriter, r *http.Request) {
	req := &dnaRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	encoded := dna.Encode([]byte(req.Text))
	observe(metrics.OpDNAEncode, start, nil)
	writeJSON(w, dnaEncodeResponse{Encoded: encoded}, http.StatusOK)
}

func (s *Server) handleDNADecode(w http.ResponseWriter, r *http.Request) {
	req := &dnaRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	decoded, err := dna.Decode(req.Text)
	observe(metrics.OpDNADecode, start, err)
	if err != nil {
		writeError(w, r, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, dnaDecodeResponse{Decoded: string(decoded)}, http.StatusOK)
}

func (s *Server) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	req := &mfaSetupRequest{}
	if !decode(w, r, req) {
		return
	}
	if req.Username == "" {
		writeError(w, r, "username is required", http.StatusBadRequest)
		return
	}
	start := time.Now()
	resp, err := s.enrollMFA(req.Username)
	observe(metrics.OpMFASetup, start, err)
	if err != nil {
		writeError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

func (s *Server) enrollMFA(username string) (*mfaSetupResponse, error) {
	enr, err := mfa.GenerateSecret(username, s.cfg.MFA.Issuer)
	if err != nil {
		return nil, err
	}
	qr, err := mfa.QRCodePNGBase64(enr.URI)
	if err != nil {
		return nil, err
	}
	return &mfaSetupResponse{Secret: enr.Secret, URI: enr.URI, QRCode: qr}, nil
}

func (s *Server) handleMFAVerify(w http.ResponseWriter, r *http.Request) {
	req := &mfaVerifyRequest{}
	if !decode(w, r, req) {
		return
	}
	start := time.Now()
	valid := mfa.Validate(req.Token, req.Secret)
	observe(metrics.OpMFAVerify, start, nil)
	writeJSON(w, mfaVerifyResponse{Valid: valid}, http.StatusOK)
}
