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

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/in-toto/go-freshness"
	"github.com/in-toto/go-freshness/internal/test"
	"github.com/in-toto/go-freshness/processor"
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

var created = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func envelope() string {
	return test.SecurityHeader(test.TimestampElement("TS-1", created, test.Ptr(created.Add(5*time.Minute))))
}

func TestValidateAccepted(t *testing.T) {
	path := writeFile(t, "message.xml", envelope())
	out, err := execute(t, "", "validate", "--now", "2026-03-04T12:01:00Z", path)
	require.NoError(t, err)

	result := freshness.Result{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Accepted)
	assert.Equal(t, "TS-1", result.ID)
	require.Len(t, result.Results, 1)
}

func TestValidateRejected(t *testing.T) {
	out, err := execute(t, envelope(), "validate", "--now", "2026-03-04T13:00:00Z", "-o", "yaml")
	kind, ok := timestamp.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, timestamp.MessageExpired, kind)

	result := map[string]any{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	assert.Equal(t, false, result["accepted"])
}

func TestValidateTTLFlag(t *testing.T) {
	_, err := execute(t, envelope(), "validate", "--now", "2026-03-04T12:01:00Z", "--ttl", "60")
	kind, ok := timestamp.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, timestamp.InvalidTolerance, kind)

	_, err = execute(t, envelope(), "validate", "--now", "2026-03-04T13:00:00Z", "--strict=false")
	assert.NoError(t, err)
}

func TestValidateConfigFile(t *testing.T) {
	cfg := writeFile(t, "freshness.yaml", "timestamp:\n  strict: false\n")
	_, err := execute(t, envelope(), "validate", "--config", cfg, "--now", "2026-03-04T13:00:00Z")
	assert.NoError(t, err)
}

func TestValidateReplayAcrossFiles(t *testing.T) {
	first := writeFile(t, "first.xml", envelope())
	second := writeFile(t, "second.xml", envelope())

	out, err := execute(t, "", "validate", "--replay-cache", "--now", "2026-03-04T12:01:00Z", first, second)
	var replayErr processor.ErrReplayedTimestamp
	require.ErrorAs(t, err, &replayErr)
	assert.Equal(t, "TS-1", replayErr.ID)
	assert.Contains(t, err.Error(), second)

	dec := json.NewDecoder(strings.NewReader(out))
	results := []freshness.Result{}
	for dec.More() {
		result := freshness.Result{}
		require.NoError(t, dec.Decode(&result))
		results = append(results, result)
	}

	require.Len(t, results, 2)
	assert.True(t, results[0].Accepted)
	assert.False(t, results[1].Accepted)

	_, err = execute(t, "", "validate", "--now", "2026-03-04T12:01:00Z", first, second)
	assert.NoError(t, err, "replay cache is off by default")
}

func TestValidateReplayFromConfig(t *testing.T) {
	cfg := writeFile(t, "freshness.yaml", "timestamp:\n  replay-cache: true\n  replay-ttl: 10m\n")
	msg := writeFile(t, "message.xml", test.SecurityHeader(test.TimestampElement("TS-9", created, nil)))

	_, err := execute(t, "", "validate", "--config", cfg, "--now", "2026-03-04T12:01:00Z", msg, msg)
	assert.ErrorAs(t, err, &processor.ErrReplayedTimestamp{})

	_, err = execute(t, "", "validate", "--config", cfg, "--replay-ttl=-1s", msg)
	assert.Error(t, err)
}

func TestValidateText(t *testing.T) {
	out, err := execute(t, envelope(), "validate", "--now", "2026-03-04T13:00:00Z", "-o", "text")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "REJECTED\n"))
	assert.Contains(t, out, "Timestamp TS-1 created=2026-03-04T12:00:00.000Z expires=2026-03-04T12:05:00.000Z")
	assert.Contains(t, out, "the security semantics of the message have expired")
}

func TestValidateJWT(t *testing.T) {
	raw, err := test.CreateJWT(jwt.Claims{
		ID:       "jwt-1",
		IssuedAt: jwt.NewNumericDate(created),
		Expiry:   jwt.NewNumericDate(created.Add(time.Minute)),
	})
	require.NoError(t, err)

	out, err := execute(t, raw+"\n", "validate", "--format", "jwt", "--now", "2026-03-04T12:00:30Z")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "jwt-1"`)
}

func TestValidateRFC3161(t *testing.T) {
	resp, err := test.CreateRFC3161Response([]byte("payload"), created, 42)
	require.NoError(t, err)

	path := writeFile(t, "response.tsr", string(resp))
	out, err := execute(t, "", "validate", "--format", "rfc3161", "--now", "2027-03-04T12:00:00Z", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "42"`)
}

func TestValidateErrors(t *testing.T) {
	_, err := execute(t, envelope(), "validate", "--now", "yesterday")
	assert.ErrorContains(t, err, "--now")

	_, err = execute(t, envelope(), "validate", "--format", "pem")
	assert.ErrorContains(t, err, "unsupported input format")

	_, err = execute(t, envelope(), "validate", "--now", "2026-03-04T12:01:00Z", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")

	_, err = execute(t, "", "validate", filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)

	_, err = execute(t, envelope(), "validate", "--ttl=-5")
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "", "schema", "config")
	require.NoError(t, err)
	assert.Contains(t, out, `"timestamp"`)

	_, err = execute(t, "", "schema", "policy")
	assert.ErrorContains(t, err, "unknown schema")
}
