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

// Package merkle computes Merkle integrity roots over ordered sequences of
// data items.
//
// Digests are lowercase hex SHA-256 strings. An interior node hashes the
// ASCII concatenation of its children's hex digests, and a level with an odd
// number of nodes carries its last node up unchanged.
package merkle

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Digest is a lowercase hex encoded SHA-256 digest.
type Digest string

// EmptyRoot is the root of an empty sequence.
const EmptyRoot Digest = ""

// LeafHash returns the digest of a single item.
func LeafHash(item []byte) Digest {
	sum := sha256.Sum256(item)
	return Digest(hex.EncodeToString(sum[:]))
}

// Combine returns the digest of the interior node with the given children.
// Combine(a, b) and Combine(b, a) differ whenever a != b.
func Combine(left, right Digest) Digest {
	h := sha256.New()
	h.Write([]byte(left))
	h.Write([]byte(right))
	return Digest(hex.EncodeToString(h.Sum(nil)))
}

// node is an entry in the tree arena. Leaves have no children.
type node struct {
	digest      Digest
	left, right int
}

const noChild = -1

// tree owns its nodes; children are referenced by arena index.
type tree struct {
	nodes []node
}

func (t *tree) add(n node) int {
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

// build constructs the tree bottom up and returns the index of the root.
func build(items [][]byte) (*tree, int) {
	t := &tree{nodes: make([]node, 0, 2*len(items))}

	level := make([]int, len(items))
	for i, item := range items {
		level[i] = t.add(node{digest: LeafHash(item), left: noChild, right: noChild})
	}

	for len(level) > 1 {
		next := make([]int, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			l, r := level[i], level[i+1]
			next = append(next, t.add(node{
				digest: Combine(t.nodes[l].digest, t.nodes[r].digest),
				left:   l,
				right:  r,
			}))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return t, level[0]
}

// Root returns the Merkle root of items, or EmptyRoot if there are none.
func Root(items [][]byte) Digest {
	if len(items) == 0 {
		return EmptyRoot
	}
	t, root := build(items)
	return t.nodes[root].digest
}

// RootStrings is Root over the UTF-8 bytes of each string.
func RootStrings(items []string) Digest {
	b := make([][]byte, len(items))
	for i, s := range items {
		b[i] = []byte(s)
	}
	return Root(b)
}

// Verify reports whether root is the Merkle root of items.
func Verify(items [][]byte, root Digest) bool {
	got := Root(items)
	return subtle.ConstantTimeCompare([]byte(got), []byte(root)) == 1
}
