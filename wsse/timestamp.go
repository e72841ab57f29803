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

package wsse

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/in-toto/go-freshness/log"
	"github.com/in-toto/go-freshness/timestamp"
)

var (
	TimestampName = xml.Name{Space: WSUNamespace, Local: "Timestamp"}
	CreatedName   = xml.Name{Space: WSUNamespace, Local: "Created"}
	ExpiresName   = xml.Name{Space: WSUNamespace, Local: "Expires"}
)

type ErrNotTimestamp xml.Name

func (e ErrNotTimestamp) Error() string {
	return fmt.Sprintf("element {%v}%v is not a wsu:Timestamp", e.Space, e.Local)
}

type ErrDuplicateElement string

func (e ErrDuplicateElement) Error() string {
	return fmt.Sprintf("wsu:Timestamp contains more than one %v element", string(e))
}

type ErrInvalidTime struct {
	Element string
	Value   string
	Err     error
}

func (e ErrInvalidTime) Error() string {
	return fmt.Sprintf("invalid %v value %q: %v", e.Element, e.Value, e.Err)
}

func (e ErrInvalidTime) Unwrap() error {
	return e.Err
}

// DecodeTimestamp decodes a wsu:Timestamp element. wsu:Created is mandatory and
// wsu:Expires optional, each may appear at most once, and an expiry before the creation
// instant is rejected. The wsu:Id attribute becomes the token identifier unchanged.
func DecodeTimestamp(el Element) (timestamp.Token, error) {
	if el.Name != TimestampName {
		return timestamp.Token{}, ErrNotTimestamp(el.Name)
	}

	var created, expires *time.Time
	for _, child := range el.Children {
		switch child.Name {
		case CreatedName:
			if created != nil {
				return timestamp.Token{}, ErrDuplicateElement("Created")
			}

			t, err := parseDateTime("Created", child.Text)
			if err != nil {
				return timestamp.Token{}, err
			}

			created = &t
		case ExpiresName:
			if expires != nil {
				return timestamp.Token{}, ErrDuplicateElement("Expires")
			}

			t, err := parseDateTime("Expires", child.Text)
			if err != nil {
				return timestamp.Token{}, err
			}

			expires = &t
		default:
			log.Debugf("(wsse) ignoring unexpected {%v}%v element in wsu:Timestamp", child.Name.Space, child.Name.Local)
		}
	}

	if created == nil {
		return timestamp.Token{}, timestamp.ErrMissingCreated{}
	}

	return timestamp.NewToken(el.ID(), *created, expires)
}

// parseDateTime accepts xsd:dateTime values that carry a zone designator, with or without
// fractional seconds.
func parseDateTime(element, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, ErrInvalidTime{Element: element, Value: value, Err: err}
	}

	return t.UTC(), nil
}

// FormatDateTime renders t the way wsu:Created and wsu:Expires values are written.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
