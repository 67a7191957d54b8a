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

// Package testutil contains utilities for unit tests.
package testutil

import (
	"sync"
	"testing"

	"github.com/devvault/trustlayer/keys"
)

var (
	pairsOnce sync.Once
	pairs     [2]*keys.KeyPair
	pairsErr  error
)

func generate() {
	for i := range pairs {
		if pairs[i], pairsErr = keys.GenerateKeyPair(); pairsErr != nil {
			return
		}
	}
}

// KeyPair returns an RSA key pair shared by every test in the binary.
func KeyPair(t testing.TB) *keys.KeyPair {
	t.Helper()
	pairsOnce.Do(generate)
	if pairsErr != nil {
		t.Fatalf("keys.GenerateKeyPair() err = %v, want nil", pairsErr)
	}
	return pairs[0]
}

// OtherKeyPair returns a second shared key pair, distinct from KeyPair.
func OtherKeyPair(t testing.TB) *keys.KeyPair {
	t.Helper()
	pairsOnce.Do(generate)
	if pairsErr != nil {
		t.Fatalf("keys.GenerateKeyPair() err = %v, want nil", pairsErr)
	}
	return pairs[1]
}
