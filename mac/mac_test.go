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

package mac

import (
	"errors"
	"testing"

	"github.com/devvault/trustlayer/constants"
	"github.com/google/go-cmp/cmp"
)

func TestCanReadCanWrite(t *testing.T) {
	testCases := []struct {
		subject, object ClearanceLevel
		read, write     bool
	}{
		{Secret, Confidential, true, false},
		{Confidential, Secret, false, true},
		{Secret, Secret, true, true},
		{Unclassified, TopSecret, false, true},
		{TopSecret, Unclassified, true, false},
		{Unclassified, Unclassified, true, true},
	}

	for _, tc := range testCases {
		if got := CanRead(tc.subject, tc.object); got != tc.read {
			t.Errorf("CanRead(%v, %v) = %v, want %v", tc.subject, tc.object, got, tc.read)
		}
		if got := CanWrite(tc.subject, tc.object); got != tc.write {
			t.Errorf("CanWrite(%v, %v) = %v, want %v", tc.subject, tc.object, got, tc.write)
		}
	}
}

func TestExhaustiveOrder(t *testing.T) {
	for _, s := range Levels() {
		for _, o := range Levels() {
			if got, want := CanRead(s, o), s >= o; got != want {
				t.Errorf("CanRead(%v, %v) = %v, want %v", s, o, got, want)
			}
			if got, want := CanWrite(s, o), s <= o; got != want {
				t.Errorf("CanWrite(%v, %v) = %v, want %v", s, o, got, want)
			}
			if !CanRead(s, o) && !CanWrite(s, o) {
				t.Errorf("neither read nor write allowed for (%v, %v)", s, o)
			}
		}
	}
}

func TestParseClearanceLevel(t *testing.T) {
	testCases := map[string]ClearanceLevel{
		"Unclassified": Unclassified,
		"Confidential": Confidential,
		"Secret":       Secret,
		"Top Secret":   TopSecret,
		"TOP_SECRET":   TopSecret,
		"TopSecret":    TopSecret,
		" secret ":     Secret,
		"":             Unclassified,
		"Cosmic":       Unclassified,
		"secret-ish":   Unclassified,
	}
	for label, want := range testCases {
		if got := ParseClearanceLevel(label); got != want {
			t.Errorf("ParseClearanceLevel(%q) = %v, want %v", label, got, want)
		}
	}
}

func TestUnknownLabelsRankLowest(t *testing.T) {
	if !CanReadLabels("bogus", "Unclassified") {
		t.Errorf("CanReadLabels(bogus, Unclassified) = false, want true")
	}
	if CanReadLabels("bogus", "Confidential") {
		t.Errorf("CanReadLabels(bogus, Confidential) = true, want false")
	}
	if !CanWriteLabels("Unclassified", "bogus") {
		t.Errorf("CanWriteLabels(Unclassified, bogus) = false, want true")
	}
	if CanWriteLabels("Secret", "bogus") {
		t.Errorf("CanWriteLabels(Secret, bogus) = true, want false")
	}
	if got := ClearanceLevel(42).Rank(); got != 0 {
		t.Errorf("ClearanceLevel(42).Rank() = %d, want 0", got)
	}
	if !CanRead(ClearanceLevel(-1), Unclassified) {
		t.Errorf("CanRead(-1, Unclassified) = false, want true")
	}
}

func TestLabelsRoundTrip(t *testing.T) {
	var got []ClearanceLevel
	for _, l := range Levels() {
		text, err := l.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var parsed ClearanceLevel
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatal(err)
		}
		got = append(got, parsed)
	}
	if diff := cmp.Diff(Levels(), got); diff != "" {
		t.Errorf("label round trip (-want +got):\n%s", diff)
	}
}

func TestAuthorize(t *testing.T) {
	testCases := []struct {
		name    string
		access  Access
		subject ClearanceLevel
		object  ClearanceLevel
		wantErr error
	}{
		{"read down", Read, Secret, Confidential, nil},
		{"read up", Read, Confidential, Secret, ErrReadUp},
		{"write up", Write, Confidential, Secret, nil},
		{"write down", Write, Secret, Confidential, ErrWriteDown},
		{"same level write", Write, TopSecret, TopSecret, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.access, tc.subject, tc.object)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Authorize() err = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Authorize() err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	if got := Redact(TopSecret, Secret, "launch codes"); got != "launch codes" {
		t.Errorf("Redact() = %q, want content", got)
	}
	if got := Redact(Confidential, Secret, "launch codes"); got != constants.RedactedContent {
		t.Errorf("Redact() = %q, want %q", got, constants.RedactedContent)
	}
}
