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

package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sha(s string) Digest {
	sum := sha256.Sum256([]byte(s))
	return Digest(hex.EncodeToString(sum[:]))
}

func TestLeafHash(t *testing.T) {
	// SHA-256("abc").
	want := Digest("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	if got := LeafHash([]byte("abc")); got != want {
		t.Errorf("LeafHash(abc) = %v, want %v", got, want)
	}
}

func TestCombineHashesHexConcatenation(t *testing.T) {
	a, b := LeafHash([]byte("a")), LeafHash([]byte("b"))
	if got, want := Combine(a, b), sha(string(a)+string(b)); got != want {
		t.Errorf("Combine() = %v, want %v", got, want)
	}
	if Combine(a, b) == Combine(b, a) {
		t.Errorf("Combine is not order sensitive")
	}
}

func TestRoot(t *testing.T) {
	l1, l2, l3, l4, l5 := LeafHash([]byte("a")), LeafHash([]byte("b")), LeafHash([]byte("c")), LeafHash([]byte("d")), LeafHash([]byte("e"))

	testCases := []struct {
		name  string
		items []string
		want  Digest
	}{
		{name: "empty", items: nil, want: EmptyRoot},
		{name: "single leaf", items: []string{"a"}, want: l1},
		{name: "two leaves", items: []string{"a", "b"}, want: Combine(l1, l2)},
		{name: "three leaves carry the last", items: []string{"a", "b", "c"}, want: Combine(Combine(l1, l2), l3)},
		{name: "four leaves", items: []string{"a", "b", "c", "d"}, want: Combine(Combine(l1, l2), Combine(l3, l4))},
		{
			name:  "five leaves carry twice",
			items: []string{"a", "b", "c", "d", "e"},
			want:  Combine(Combine(Combine(l1, l2), Combine(l3, l4)), l5),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RootStrings(tc.items); got != tc.want {
				t.Errorf("RootStrings(%q) = %q, want %q", tc.items, got, tc.want)
			}
		})
	}
}

func TestRootKnownValue(t *testing.T) {
	// Root previously stored for the sequence ["a", "b", "c"].
	want := Digest("d71dc32fa2cd95be60b32dbb3e63009fa8064407ee19f457c92a09a5ff841a8a")
	if got := RootStrings([]string{"a", "b", "c"}); got != want {
		t.Errorf("RootStrings(a, b, c) = %v, want %v", got, want)
	}
}

func TestRootIsOrderSensitiveAndDeterministic(t *testing.T) {
	ab := RootStrings([]string{"a", "b"})
	if ba := RootStrings([]string{"b", "a"}); ab == ba {
		t.Errorf("RootStrings(a, b) == RootStrings(b, a) = %v", ab)
	}
	if again := RootStrings([]string{"a", "b"}); again != ab {
		t.Errorf("RootStrings(a, b) not deterministic: %v then %v", ab, again)
	}
}

func TestRootDoesNotDuplicateOddNode(t *testing.T) {
	l1, l2, l3 := LeafHash([]byte("x")), LeafHash([]byte("y")), LeafHash([]byte("z"))
	duplicated := Combine(Combine(l1, l2), Combine(l3, l3))
	if got := RootStrings([]string{"x", "y", "z"}); got == duplicated {
		t.Errorf("RootStrings(x, y, z) self-paired the trailing node")
	}
}

func TestArenaShape(t *testing.T) {
	items := make([][]byte, 7)
	for i := range items {
		items[i] = []byte(fmt.Sprintf("item-%d", i))
	}
	tr, root := build(items)

	// 7 leaves, then 3 + 2 + 1 interior nodes.
	if got, want := len(tr.nodes), 13; got != want {
		t.Errorf("len(nodes) = %d, want %d", got, want)
	}

	var leaves []Digest
	var walk func(i int)
	walk = func(i int) {
		n := tr.nodes[i]
		if n.left == noChild {
			leaves = append(leaves, n.digest)
			return
		}
		if got := Combine(tr.nodes[n.left].digest, tr.nodes[n.right].digest); got != n.digest {
			t.Errorf("node %d digest = %v, want %v", i, n.digest, got)
		}
		walk(n.left)
		walk(n.right)
	}
	walk(root)

	want := make([]Digest, len(items))
	for i, item := range items {
		want[i] = LeafHash(item)
	}
	if diff := cmp.Diff(want, leaves); diff != "" {
		t.Errorf("leaves in order (-want +got):\n%s", diff)
	}
}

func TestVerify(t *testing.T) {
	items := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	root := Root(items)
	if !Verify(items, root) {
		t.Errorf("Verify() = false for the computed root")
	}
	if Verify(items[:2], root) {
		t.Errorf("Verify() = true for a truncated sequence")
	}
	if !Verify(nil, EmptyRoot) {
		t.Errorf("Verify(nil, EmptyRoot) = false")
	}
}
