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

// Package wsse decodes the WS-Security header of a SOAP message into a namespace
// resolved element tree, and decodes wsu:Timestamp elements into timestamp tokens.
package wsse

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	WSUNamespace  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	WSSENamespace = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"

	maxDepth = 32
)

var (
	SecurityName = xml.Name{Space: WSSENamespace, Local: "Security"}
	IDAttr       = xml.Name{Space: WSUNamespace, Local: "Id"}
)

type ErrNoSecurityHeader struct{}

func (e ErrNoSecurityHeader) Error() string {
	return "no wsse:Security header found in message"
}

type ErrTooDeep struct {
	Depth int
}

func (e ErrTooDeep) Error() string {
	return fmt.Sprintf("security header nests deeper than %d elements", e.Depth)
}

// Element is a namespace resolved XML element.
type Element struct {
	Name     xml.Name   `json:"name"`
	Attrs    []xml.Attr `json:"attrs,omitempty"`
	Text     string     `json:"text,omitempty"`
	Children []Element  `json:"children,omitempty"`
}

// Attr returns the value of the attribute with the given name.
func (e Element) Attr(name xml.Name) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// ID returns the element's wsu:Id, or the empty string when it has none.
func (e Element) ID() string {
	id, _ := e.Attr(IDAttr)
	return id
}

// Header is a decoded wsse:Security header. Elements keeps document order.
type Header struct {
	Attrs    []xml.Attr
	Elements []Element
}

// Find returns every top level element of the header with the given name.
func (h *Header) Find(name xml.Name) []Element {
	found := make([]Element, 0)
	for _, el := range h.Elements {
		if el.Name == name {
			found = append(found, el)
		}
	}

	return found
}

// ParseHeader reads a SOAP envelope, or a bare wsse:Security element, and returns the
// first security header it contains.
func ParseHeader(r io.Reader) (*Header, error) {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSecurityHeader{}
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read message: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name != SecurityName {
			continue
		}

		sec, err := readElement(d, start, 0)
		if err != nil {
			return nil, err
		}

		return &Header{
			Attrs:    sec.Attrs,
			Elements: sec.Children,
		}, nil
	}
}

func readElement(d *xml.Decoder, start xml.StartElement, depth int) (Element, error) {
	if depth > maxDepth {
		return Element{}, ErrTooDeep{Depth: maxDepth}
	}

	el := Element{
		Name:  start.Name,
		Attrs: namespacedAttrs(start.Attr),
	}

	text := strings.Builder{}
	for {
		tok, err := d.Token()
		if err != nil {
			return Element{}, fmt.Errorf("failed to read %v element: %w", start.Name.Local, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := readElement(d, t, depth+1)
			if err != nil {
				return Element{}, err
			}

			el.Children = append(el.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.Text = strings.TrimSpace(text.String())
			return el, nil
		}
	}
}

// namespacedAttrs drops namespace declarations, which carry no meaning once names are resolved.
func namespacedAttrs(attrs []xml.Attr) []xml.Attr {
	result := make([]xml.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}

		result = append(result, a)
	}

	return result
}
