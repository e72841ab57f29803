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

package freshness

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/in-toto/go-freshness/config"
	"github.com/in-toto/go-freshness/internal/test"
	"github.com/in-toto/go-freshness/metrics"
	"github.com/in-toto/go-freshness/processor"
	"github.com/in-toto/go-freshness/replay"
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) timestamp.FakeClock {
	return timestamp.FakeClock{T: created.Add(d)}
}

func header(id string, expires *time.Time) *strings.Reader {
	return strings.NewReader(test.SecurityHeader(test.TimestampElement(id, created, expires)))
}

func TestValidate(t *testing.T) {
	expires := test.Ptr(created.Add(5 * time.Minute))

	tests := []struct {
		name     string
		opts     []Option
		expires  *time.Time
		accepted bool
		kind     timestamp.ErrorKind
	}{
		{
			name:     "fresh",
			opts:     []Option{WithClock(at(time.Minute))},
			expires:  expires,
			accepted: true,
		},
		{
			name:    "expired",
			opts:    []Option{WithClock(at(10 * time.Minute))},
			expires: expires,
			kind:    timestamp.MessageExpired,
		},
		{
			name:    "window wider than ttl",
			opts:    []Option{WithClock(at(time.Minute)), WithPolicy(timestamp.Policy{Strict: true, ToleranceSeconds: 60})},
			expires: expires,
			kind:    timestamp.InvalidTolerance,
		},
		{
			name:     "lenient policy accepts expired",
			opts:     []Option{WithClock(at(time.Hour)), WithPolicy(timestamp.Policy{Strict: false})},
			expires:  expires,
			accepted: true,
		},
		{
			name:     "no expiry",
			opts:     []Option{WithClock(at(24 * time.Hour))},
			accepted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate(context.Background(), header("TS-1", tt.expires), tt.opts...)
			assert.Equal(t, tt.accepted, res.Accepted)
			assert.Equal(t, "TS-1", res.ID)
			require.NotNil(t, res.Timestamp)
			assert.True(t, created.Equal(res.Timestamp.Created))
			require.Len(t, res.Results, 1)
			assert.Equal(t, tt.kind, res.Results[0].Kind)

			if tt.accepted {
				assert.NoError(t, err)
				return
			}

			var authErr processor.ErrAuthenticationFailed
			require.ErrorAs(t, err, &authErr)
			kind, ok := timestamp.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestValidateWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Timestamp.TTL = 60
	res, err := Validate(context.Background(), header("TS-1", test.Ptr(created.Add(5*time.Minute))), WithConfig(cfg), WithClock(at(0)))
	require.Error(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, timestamp.InvalidTolerance, res.Results[0].Kind)

	_, err = Validate(context.Background(), header("TS-1", nil), WithPolicy(timestamp.Policy{Strict: true, ToleranceSeconds: -1}))
	var optErr config.ErrInvalidOption
	assert.ErrorAs(t, err, &optErr)
}

func TestValidateReplay(t *testing.T) {
	clock := at(time.Minute)
	cache := replay.NewMemoryCache(replay.WithClock(clock))
	defer cache.Close()

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	expires := test.Ptr(created.Add(5 * time.Minute))
	opts := []Option{WithClock(clock), WithReplayCache(cache), WithMetrics(recorder)}

	res, err := Validate(context.Background(), header("TS-1", expires), opts...)
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	res, err = Validate(context.Background(), header("TS-1", expires), opts...)
	var replayErr processor.ErrReplayedTimestamp
	require.ErrorAs(t, err, &replayErr)
	assert.Equal(t, "TS-1", replayErr.ID)
	assert.False(t, res.Accepted)
	assert.Equal(t, float64(1), testutil.ToFloat64(recorder.Outcomes().WithLabelValues(metrics.OutcomeReplayed)))
}

func TestValidateMalformed(t *testing.T) {
	_, err := Validate(context.Background(), strings.NewReader("<Envelope/>"))
	assert.Error(t, err)

	_, err = Validate(context.Background(), strings.NewReader("not xml"))
	assert.Error(t, err)
}

func TestValidateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Validate(ctx, header("TS-1", nil))
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = ValidateToken(ctx, timestamp.Token{Created: created})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestValidateToken(t *testing.T) {
	raw, err := test.CreateJWT(jwt.Claims{
		ID:       "jwt-1",
		IssuedAt: jwt.NewNumericDate(created),
		Expiry:   jwt.NewNumericDate(created.Add(time.Minute)),
	})
	require.NoError(t, err)

	tok, err := timestamp.FromJWT(raw)
	require.NoError(t, err)

	res, err := ValidateToken(context.Background(), tok, WithClock(at(30*time.Second)))
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "jwt-1", res.ID)

	res, err = ValidateToken(context.Background(), tok, WithClock(at(2*time.Minute)))
	var authErr processor.ErrAuthenticationFailed
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, processor.TimestampName, authErr.Processor)
	assert.Equal(t, "jwt-1", authErr.ID)
	var expired timestamp.ErrMessageExpired
	require.ErrorAs(t, err, &expired)
	assert.False(t, res.Accepted)
	assert.Equal(t, timestamp.MessageExpired, res.Results[0].Kind)
	assert.Equal(t, expired.Error(), res.Results[0].Message)

	cache := replay.NewMemoryCache(replay.WithClock(at(0)))
	defer cache.Close()
	_, err = ValidateToken(context.Background(), tok, WithClock(at(0)), WithReplayCache(cache))
	require.NoError(t, err)
	_, err = ValidateToken(context.Background(), tok, WithClock(at(0)), WithReplayCache(cache))
	assert.ErrorAs(t, err, &processor.ErrReplayedTimestamp{})
}

func TestValidateTokenInvalidOptions(t *testing.T) {
	tok := timestamp.Token{Created: created}

	_, err := ValidateToken(context.Background(), tok, WithPolicy(timestamp.Policy{Strict: true, ToleranceSeconds: -1}))
	var optErr config.ErrInvalidOption
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "ttl", optErr.Option)

	_, err = ValidateToken(context.Background(), tok, WithReplayTTL(-time.Second))
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "replay-ttl", optErr.Option)

	_, err = Validate(context.Background(), header("TS-1", nil), WithReplayTTL(-time.Second))
	assert.ErrorAs(t, err, &optErr)
}

func TestValidateReplayFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Timestamp.ReplayCache = true
	cfg.Timestamp.ReplayTTL = 10 * time.Minute

	clock := at(time.Minute)
	cache := cfg.NewReplayCache(replay.WithClock(clock))
	require.NotNil(t, cache)
	defer cache.Close()

	opts := []Option{WithConfig(cfg), WithClock(clock), WithReplayCache(cache)}
	_, err := Validate(context.Background(), header("TS-1", nil), opts...)
	require.NoError(t, err)

	res, err := Validate(context.Background(), header("TS-1", nil), opts...)
	assert.ErrorAs(t, err, &processor.ErrReplayedTimestamp{})
	assert.False(t, res.Accepted)

	_, err = ValidateToken(context.Background(), timestamp.Token{Created: created, ID: "TS-1"}, opts...)
	assert.ErrorAs(t, err, &processor.ErrReplayedTimestamp{})
}
