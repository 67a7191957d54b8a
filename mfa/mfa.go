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

// Package mfa provides the TOTP second factor: secret provisioning, QR codes
// for authenticator apps and passcode validation.
package mfa

import (
	"bytes"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/devvault/trustlayer/constants"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// QRCodeSize is the edge length in pixels of generated QR codes.
const QRCodeSize = 256

// Enrollment is a freshly provisioned TOTP secret.
type Enrollment struct {
	// Secret is the base32 encoded shared secret.
	Secret string
	// URI is the otpauth:// provisioning URI.
	URI string
}

// GenerateSecret provisions a new random TOTP secret for account. An empty
// issuer defaults to constants.DefaultMFAIssuer.
func GenerateSecret(account, issuer string) (*Enrollment, error) {
	if issuer == "" {
		issuer = constants.DefaultMFAIssuer
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return &Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// ProvisioningURI returns the otpauth:// URI for an existing base32 secret.
func ProvisioningURI(secret, account, issuer string) (string, error) {
	if issuer == "" {
		issuer = constants.DefaultMFAIssuer
	}
	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Secret:      raw,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build provisioning URI: %w", err)
	}
	return key.URL(), nil
}

// Validate reports whether token is the current passcode for secret.
func Validate(token, secret string) bool {
	return totp.Validate(token, secret)
}

// ValidateAt is Validate at a given time, allowing one period of clock skew.
func ValidateAt(token, secret string, t time.Time) bool {
	ok, err := totp.ValidateCustom(token, secret, t, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// QRCodePNGBase64 renders uri as a QR code and returns the base64 encoded PNG.
func QRCodePNGBase64(uri string) (string, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse provisioning URI: %w", err)
	}
	img, err := key.Image(QRCodeSize, QRCodeSize)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.TrimRight(strings.ToUpper(strings.TrimSpace(secret)), "=")
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("secret is not valid base32: %w", err)
	}
	return raw, nil
}
