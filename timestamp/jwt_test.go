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
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/in-toto/go-freshness/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJWT(t *testing.T) {
	tests := []struct {
		name        string
		claims      jwt.Claims
		wantCreated time.Time
		wantExpires *time.Time
		wantID      string
		wantErr     bool
	}{
		{
			name:        "iat and exp",
			claims:      jwt.Claims{ID: "jti-1", IssuedAt: jwt.NewNumericDate(base), Expiry: jwt.NewNumericDate(at(5 * time.Minute))},
			wantCreated: base,
			wantExpires: ptr(at(5 * time.Minute)),
			wantID:      "jti-1",
		},
		{
			name:        "nbf fallback without exp",
			claims:      jwt.Claims{NotBefore: jwt.NewNumericDate(base)},
			wantCreated: base,
		},
		{
			name:    "no creation claim",
			claims:  jwt.Claims{Expiry: jwt.NewNumericDate(base)},
			wantErr: true,
		},
		{
			name:    "exp before iat",
			claims:  jwt.Claims{IssuedAt: jwt.NewNumericDate(base), Expiry: jwt.NewNumericDate(at(-time.Minute))},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := test.CreateJWT(tt.claims)
			require.NoError(t, err)

			tok, err := FromJWT(raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.wantCreated.Equal(tok.Created))
			assert.Equal(t, tt.wantID, tok.ID)
			if tt.wantExpires == nil {
				assert.Nil(t, tok.Expires)
			} else {
				require.NotNil(t, tok.Expires)
				assert.True(t, tt.wantExpires.Equal(*tok.Expires))
			}
		})
	}
}

func TestFromJWTMalformed(t *testing.T) {
	_, err := FromJWT("not-a-jwt")
	assert.Error(t, err)
}
