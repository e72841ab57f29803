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
	"time"
)

// Outcome is the verdict on one token. Err is nil when the token was accepted, otherwise
// it is an ErrMessageExpired or an ErrInvalidTolerance.
type Outcome struct {
	Token Token
	ID    string
	Err   Rejection
}

func (o Outcome) Accepted() bool {
	return o.Err == nil
}

// Kind returns the rejection kind, or the empty kind for an accepted token.
func (o Outcome) Kind() ErrorKind {
	if o.Err == nil {
		return ""
	}

	return o.Err.Kind()
}

// Message returns the rejection message, or the empty string for an accepted token.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}

	return o.Err.Error()
}

// Validate judges the temporal validity of tok under policy at instant now.
//
// A non strict policy and a token without an expiry are always accepted. Otherwise an
// expiry before now is reported as MessageExpired, which wins over the tolerance check:
// with a positive tolerance the token is rejected as InvalidTolerance when created plus
// the tolerance still falls before expires.
func Validate(tok Token, policy Policy, now time.Time) Outcome {
	out := Outcome{
		Token: tok,
		ID:    tok.ID,
	}

	if !policy.Strict || tok.Expires == nil {
		return out
	}

	expires := *tok.Expires
	if expires.Before(now) {
		out.Err = ErrMessageExpired{Expires: expires, Now: now}
		return out
	}

	if policy.ToleranceSeconds > 0 && exceedsTolerance(tok.Created, expires, policy.ToleranceSeconds) {
		out.Err = ErrInvalidTolerance{Created: tok.Created, Expires: expires, Tolerance: policy.tolerance()}
		return out
	}

	return out
}

// exceedsTolerance reports whether created plus seconds falls before expires. It works on
// whole seconds so any non negative int tolerance is exact.
func exceedsTolerance(created, expires time.Time, seconds int) bool {
	d := (expires.Unix() - created.Unix()) - int64(seconds)
	switch {
	case d > 0:
		return true
	case d == 0:
		return expires.Nanosecond() > created.Nanosecond()
	default:
		return false
	}
}

// Validator applies one Policy and remembers the identifier of the last token it saw,
// for collaborators that look the timestamp up by reference after validation.
// A Validator is not safe for concurrent use: give every in-flight message its own.
type Validator struct {
	policy    Policy
	currentID string
	seen      bool
}

func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate records tok's identifier, whatever the verdict, and returns the verdict.
func (v *Validator) Validate(tok Token, now time.Time) Outcome {
	v.currentID = tok.ID
	v.seen = true
	return Validate(tok, v.policy, now)
}

// CurrentIdentifier returns the identifier recorded by the most recent Validate call.
// The boolean is false until Validate has been called or when the last token carried no identifier.
func (v *Validator) CurrentIdentifier() (string, bool) {
	if !v.seen || v.currentID == "" {
		return "", false
	}

	return v.currentID, true
}
