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
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "freshness"

	OutcomeAccepted = "accepted"
	OutcomeReplayed = "replayed"
)

// Recorder counts timestamp verdicts and observes the validity windows tokens declare.
type Recorder struct {
	outcomes *prometheus.CounterVec
	windows  prometheus.Histogram
	failures *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors with reg. A nil reg
// leaves the collectors unregistered.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timestamp",
			Name:      "outcomes_total",
			Help:      "Timestamp validation verdicts by outcome.",
		}, []string{"outcome"}),
		windows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "timestamp",
			Name:      "window_seconds",
			Help:      "Declared gap between created and expires of validated timestamps.",
			Buckets:   []float64{1, 10, 30, 60, 300, 900, 3600, 86400},
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "failures_total",
			Help:      "Security header elements whose processor failed, by processor.",
		}, []string{"processor"}),
	}

	if reg == nil {
		return r, nil
	}

	for _, c := range []prometheus.Collector{r.outcomes, r.windows, r.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// ObserveOutcome records one validation verdict.
func (r *Recorder) ObserveOutcome(out timestamp.Outcome) {
	if r == nil {
		return
	}

	if out.Accepted() {
		r.outcomes.WithLabelValues(OutcomeAccepted).Inc()
	} else {
		r.outcomes.WithLabelValues(out.Kind().String()).Inc()
	}

	if window, ok := out.Token.Window(); ok {
		r.windows.Observe(window.Seconds())
	}
}

// ObserveReplay records a timestamp that was fresh but had been seen before.
func (r *Recorder) ObserveReplay() {
	if r == nil {
		return
	}

	r.outcomes.WithLabelValues(OutcomeReplayed).Inc()
}

// ObserveFailure records a processor failure.
func (r *Recorder) ObserveFailure(processor string) {
	if r == nil {
		return
	}

	r.failures.WithLabelValues(processor).Inc()
}

// Outcomes exposes the verdict counter, labelled by outcome.
func (r *Recorder) Outcomes() *prometheus.CounterVec {
	return r.outcomes
}

// Failures exposes the processor failure counter, labelled by processor name.
func (r *Recorder) Failures() *prometheus.CounterVec {
	return r.failures
}
