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

package test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/digitorus/timestamp"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

const (
	WSUNamespace  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	WSSENamespace = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	SOAPNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
)

// TimestampElement renders a wsu:Timestamp element. An empty id omits the wsu:Id attribute
// and a nil expires omits wsu:Expires.
func TimestampElement(id string, created time.Time, expires *time.Time) string {
	sb := strings.Builder{}
	sb.WriteString("<wsu:Timestamp")
	if id != "" {
		fmt.Fprintf(&sb, ` wsu:Id="%s"`, id)
	}

	sb.WriteString(">")
	fmt.Fprintf(&sb, "<wsu:Created>%s</wsu:Created>", created.UTC().Format(time.RFC3339Nano))
	if expires != nil {
		fmt.Fprintf(&sb, "<wsu:Expires>%s</wsu:Expires>", expires.UTC().Format(time.RFC3339Nano))
	}

	sb.WriteString("</wsu:Timestamp>")
	return sb.String()
}

// SecurityHeader wraps elements in a wsse:Security header inside a SOAP envelope.
func SecurityHeader(elements ...string) string {
	return fmt.Sprintf(`<soap:Envelope xmlns:soap="%s" xmlns:wsse="%s" xmlns:wsu="%s"><soap:Header><wsse:Security soap:mustUnderstand="1">%s</wsse:Security></soap:Header><soap:Body wsu:Id="Body-1"/></soap:Envelope>`,
		SOAPNamespace, WSSENamespace, WSUNamespace, strings.Join(elements, ""))
}

// BareSecurityHeader renders a wsse:Security element with no SOAP envelope around it.
func BareSecurityHeader(elements ...string) string {
	return fmt.Sprintf(`<wsse:Security xmlns:wsse="%s" xmlns:wsu="%s">%s</wsse:Security>`, WSSENamespace, WSUNamespace, strings.Join(elements, ""))
}

func Ptr[T any](v T) *T {
	return &v
}

// CreateJWT returns an HS256 signed compact JWT carrying claims.
func CreateJWT(claims jwt.Claims) (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: key}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", err
	}

	return jwt.Signed(signer).Claims(claims).Serialize()
}

// CreateTSA returns a self signed time-stamping certificate and its key.
func CreateTSA() (*x509.Certificate, crypto.Signer, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "freshness test tsa",
			Organization: []string{"Freshness Test"},
		},
		NotBefore:             time.Now().Add(-24 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, priv.Public(), priv)
	if err != nil {
		return nil, nil, err
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, err
	}

	return cert, priv, nil
}

// CreateRFC3161Response signs a time-stamp response over payload with genTime and serial.
func CreateRFC3161Response(payload []byte, genTime time.Time, serial int64) ([]byte, error) {
	cert, priv, err := CreateTSA()
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(payload)
	ts := timestamp.Timestamp{
		HashAlgorithm: crypto.SHA256,
		HashedMessage: digest[:],
		Time:          genTime.UTC(),
		SerialNumber:  big.NewInt(serial),
		Policy:        asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 57264, 2},
	}

	return ts.CreateResponseWithOpts(cert, priv, crypto.SHA256)
}
