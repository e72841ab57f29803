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

package metrics

import (
	"testing"
	"time"

	"github.com/in-toto/go-freshness/timestamp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	created := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	expires := created.Add(200 * time.Second)
	tok := timestamp.Token{Created: created, Expires: &expires, ID: "TS-1"}
	policy := timestamp.Policy{Strict: true, ToleranceSeconds: 100}

	r.ObserveOutcome(timestamp.Validate(tok, policy, created))
	r.ObserveOutcome(timestamp.Validate(tok, policy, created.Add(time.Hour)))
	r.ObserveOutcome(timestamp.Validate(tok, timestamp.Policy{}, created))
	r.ObserveReplay()
	r.ObserveFailure("Timestamp")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues("InvalidTolerance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues("MessageExpired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues(OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues(OutcomeReplayed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("Timestamp")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, mf := range families {
		if mf.GetName() == "freshness_timestamp_window_seconds" {
			require.Len(t, mf.GetMetric(), 1)
			samples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), samples)

	_, err = NewRecorder(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveOutcome(timestamp.Outcome{})
		r.ObserveReplay()
		r.ObserveFailure("Timestamp")
	})
}
