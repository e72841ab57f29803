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
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var jwtAlgorithms = []jose.SignatureAlgorithm{
	jose.EdDSA,
	jose.HS256, jose.HS384, jose.HS512,
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
}

// FromJWT reads the lifetime claims of a compact serialized JWT: iat (or nbf when iat is
// missing) becomes Created, exp becomes Expires and jti becomes the identifier.
// The token signature is not checked here; that is the job of the signature processor.
func FromJWT(raw string) (Token, error) {
	parsed, err := jwt.ParseSigned(strings.TrimSpace(raw), jwtAlgorithms)
	if err != nil {
		return Token{}, fmt.Errorf("failed to parse jwt: %w", err)
	}

	claims := jwt.Claims{}
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return Token{}, fmt.Errorf("failed to read jwt claims: %w", err)
	}

	created := claims.IssuedAt
	if created == nil {
		created = claims.NotBefore
	}

	if created == nil {
		return Token{}, ErrMissingCreated{}
	}

	if claims.Expiry == nil {
		return NewToken(claims.ID, created.Time(), nil)
	}

	expires := claims.Expiry.Time()
	return NewToken(claims.ID, created.Time(), &expires)
}
