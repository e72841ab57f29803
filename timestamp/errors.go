// Copyright 2025 The Witness Contributors
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

package timestamp

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies why a token was rejected.
type ErrorKind string

const (
	MessageExpired   ErrorKind = "MessageExpired"
	InvalidTolerance ErrorKind = "InvalidTolerance"
)

func (k ErrorKind) String() string {
	return string(k)
}

const (
	messageExpiredMessage   = "the security semantics of the message have expired"
	invalidToleranceMessage = "tolerance validation failed: the gap between created and expires exceeds the configured allowance"
)

// Rejection is implemented by every error Validate may report.
type Rejection interface {
	error
	Kind() ErrorKind
}

type ErrMessageExpired struct {
	Expires time.Time
	Now     time.Time
}

func (e ErrMessageExpired) Error() string {
	return messageExpiredMessage
}

func (e ErrMessageExpired) Kind() ErrorKind {
	return MessageExpired
}

type ErrInvalidTolerance struct {
	Created   time.Time
	Expires   time.Time
	Tolerance time.Duration
}

func (e ErrInvalidTolerance) Error() string {
	return invalidToleranceMessage
}

func (e ErrInvalidTolerance) Kind() ErrorKind {
	return InvalidTolerance
}

// ErrInvalidWindow is returned by decoders for a token whose expiry precedes its creation.
type ErrInvalidWindow struct {
	Created time.Time
	Expires time.Time
}

func (e ErrInvalidWindow) Error() string {
	return fmt.Sprintf("timestamp expires (%v) before it is created (%v)", e.Expires.Format(time.RFC3339), e.Created.Format(time.RFC3339))
}

type ErrMissingCreated struct{}

func (e ErrMissingCreated) Error() string {
	return "timestamp has no creation instant"
}

// KindOf reports the rejection kind carried anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var rej Rejection
	if errors.As(err, &rej) {
		return rej.Kind(), true
	}

	return "", false
}
