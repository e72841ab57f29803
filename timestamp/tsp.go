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
	"fmt"

	"github.com/digitorus/timestamp"
)

// FromRFC3161 decodes a DER encoded RFC 3161 time-stamp response. The TSA's genTime is
// the creation instant and the serial number is the identifier. Time-stamp tokens carry
// no expiry.
func FromRFC3161(resp []byte) (Token, error) {
	ts, err := timestamp.ParseResponse(resp)
	if err != nil {
		return Token{}, fmt.Errorf("failed to parse rfc3161 response: %w", err)
	}

	if ts.Time.IsZero() {
		return Token{}, ErrMissingCreated{}
	}

	id := ""
	if ts.SerialNumber != nil {
		id = ts.SerialNumber.String()
	}

	return NewToken(id, ts.Time, nil)
}
