// Copyright 2022 The Witness Contributors
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
	"math"
	"time"
)

// Token is a decoded timestamp: the instant a message claims its validity begins, an
// optional instant it claims its validity ends, and the reference identifier the wire
// form carried. Decoders produce Tokens; they are never modified afterwards.
type Token struct {
	Created time.Time  `json:"created" yaml:"created" jsonschema:"title=Created,description=Instant the message claims its validity begins (UTC)"`
	Expires *time.Time `json:"expires,omitempty" yaml:"expires,omitempty" jsonschema:"title=Expires,description=Instant the message claims its validity ends (UTC). Absent means no stated expiry"`
	ID      string     `json:"id,omitempty" yaml:"id,omitempty" jsonschema:"title=ID,description=Opaque reference identifier carried by the wire form"`
}

// NewToken builds a Token in UTC. expires may be nil. A window that ends before it
// begins is rejected with ErrInvalidWindow.
func NewToken(id string, created time.Time, expires *time.Time) (Token, error) {
	tok := Token{
		Created: created.UTC(),
		ID:      id,
	}

	if expires != nil {
		exp := expires.UTC()
		if exp.Before(tok.Created) {
			return Token{}, ErrInvalidWindow{Created: tok.Created, Expires: exp}
		}

		tok.Expires = &exp
	}

	return tok, nil
}

// Window returns the declared validity length. The boolean is false when the token has no expiry.
func (t Token) Window() (time.Duration, bool) {
	if t.Expires == nil {
		return 0, false
	}

	return t.Expires.Sub(t.Created), true
}

const maxToleranceSeconds = math.MaxInt64 / int64(time.Second)

// Policy is the trust policy a token is judged against.
type Policy struct {
	// Strict enables the temporal checks. A non strict policy accepts every token.
	Strict bool `json:"strict" mapstructure:"strict" jsonschema:"title=Strict,description=Enable expiry and tolerance checks,default=true"`
	// ToleranceSeconds bounds the gap between created and expires. Zero disables the check.
	ToleranceSeconds int `json:"ttl" mapstructure:"ttl" jsonschema:"title=TTL,description=Maximum allowed gap in seconds between created and expires. 0 disables the check,minimum=0"`
}

// DefaultPolicy is strict with no tolerance check.
func DefaultPolicy() Policy {
	return Policy{Strict: true}
}

// tolerance returns the tolerance as a Duration, saturating at the largest Duration.
func (p Policy) tolerance() time.Duration {
	if int64(p.ToleranceSeconds) > maxToleranceSeconds {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(p.ToleranceSeconds) * time.Second
}
