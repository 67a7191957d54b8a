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

// Package mac implements Bell-LaPadula mandatory access control over ordered
// clearance levels: a subject may not read up and may not write down.
//
// Every function is pure and total. Unrecognised labels and out-of-range
// levels rank as Unclassified, the lowest clearance.
package mac

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devvault/trustlayer/constants"
)

// ClearanceLevel is a classification assigned to a subject or an object.
type ClearanceLevel int

// Clearance levels in ascending rank.
const (
	Unclassified ClearanceLevel = iota
	Confidential
	Secret
	TopSecret
)

// Labels as stored alongside users and repositories.
const (
	LabelUnclassified = "Unclassified"
	LabelConfidential = "Confidential"
	LabelSecret       = "Secret"
	LabelTopSecret    = "Top Secret"
)

var (
	// ErrReadUp is returned by Authorize when a subject reads above its clearance.
	ErrReadUp = errors.New("mac: security violation: no read up")

	// ErrWriteDown is returned by Authorize when a subject writes below its clearance.
	ErrWriteDown = errors.New("mac: security violation: no write down")
)

// Levels lists every clearance level in ascending rank.
func Levels() []ClearanceLevel {
	return []ClearanceLevel{Unclassified, Confidential, Secret, TopSecret}
}

// ParseClearanceLevel resolves a label to its level. Matching ignores case
// and accepts "_" or no separator in place of the space in "Top Secret".
// Anything else resolves to Unclassified.
func ParseClearanceLevel(label string) ClearanceLevel {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.NewReplacer("_", "", " ", "", "-", "").Replace(normalized)
	switch normalized {
	case "confidential":
		return Confidential
	case "secret":
		return Secret
	case "topsecret":
		return TopSecret
	default:
		return Unclassified
	}
}

// Rank returns the position of l in the clearance order.
func (l ClearanceLevel) Rank() int {
	if l < Unclassified || l > TopSecret {
		return int(Unclassified)
	}
	return int(l)
}

// String returns the stored label of l.
func (l ClearanceLevel) String() string {
	switch l {
	case Confidential:
		return LabelConfidential
	case Secret:
		return LabelSecret
	case TopSecret:
		return LabelTopSecret
	default:
		return LabelUnclassified
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l ClearanceLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails.
func (l *ClearanceLevel) UnmarshalText(text []byte) error {
	*l = ParseClearanceLevel(string(text))
	return nil
}

// CanRead implements the simple security property: subject may read object
// only if its rank is at least the object's.
func CanRead(subject, object ClearanceLevel) bool {
	return subject.Rank() >= object.Rank()
}

// CanWrite implements the star property: subject may write object only if
// its rank is at most the object's.
func CanWrite(subject, object ClearanceLevel) bool {
	return subject.Rank() <= object.Rank()
}

// CanReadLabels is CanRead over unparsed labels.
func CanReadLabels(subject, object string) bool {
	return CanRead(ParseClearanceLevel(subject), ParseClearanceLevel(object))
}

// CanWriteLabels is CanWrite over unparsed labels.
func CanWriteLabels(subject, object string) bool {
	return CanWrite(ParseClearanceLevel(subject), ParseClearanceLevel(object))
}

// Access is a kind of operation checked by Authorize.
type Access int

const (
	// Read access.
	Read Access = iota
	// Write access.
	Write
)

func (a Access) String() string {
	if a == Write {
		return "write"
	}
	return "read"
}

// Authorize returns nil if subject may perform access on object, and
// ErrReadUp or ErrWriteDown otherwise.
func Authorize(access Access, subject, object ClearanceLevel) error {
	switch access {
	case Write:
		if !CanWrite(subject, object) {
			return fmt.Errorf("%w: %v subject cannot write %v object", ErrWriteDown, subject, object)
		}
	default:
		if !CanRead(subject, object) {
			return fmt.Errorf("%w: %v subject cannot read %v object", ErrReadUp, subject, object)
		}
	}
	return nil
}

// Redact returns content if subject may read object, and a fixed marker
// otherwise.
func Redact(subject, object ClearanceLevel, content string) string {
	if CanRead(subject, object) {
		return content
	}
	return constants.RedactedContent
}
