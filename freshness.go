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

// Package freshness checks that messages carrying a declared validity window are still
// fresh. Validate handles WS-Security headers end to end, ValidateToken applies the same
// checks to a token decoded from any other wire form.
package freshness

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/in-toto/go-freshness/config"
	"github.com/in-toto/go-freshness/log"
	"github.com/in-toto/go-freshness/metrics"
	"github.com/in-toto/go-freshness/processor"
	"github.com/in-toto/go-freshness/replay"
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/in-toto/go-freshness/wsse"
)

type validateOptions struct {
	policy            timestamp.Policy
	clock             timestamp.Clock
	replayCache       replay.Cache
	replayTTL         time.Duration
	metrics           *metrics.Recorder
	continueOnFailure bool
}

type Option func(*validateOptions)

func WithPolicy(policy timestamp.Policy) Option {
	return func(vo *validateOptions) {
		vo.policy = policy
	}
}

// WithClock sets the clock that provides the current instant. The system clock is used by default.
func WithClock(clock timestamp.Clock) Option {
	return func(vo *validateOptions) {
		if clock != nil {
			vo.clock = clock
		}
	}
}

// WithReplayCache rejects timestamps that were already accepted through the same cache.
func WithReplayCache(cache replay.Cache) Option {
	return func(vo *validateOptions) {
		vo.replayCache = cache
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(vo *validateOptions) {
		vo.metrics = recorder
	}
}

func WithContinueOnFailure(continueOnFailure bool) Option {
	return func(vo *validateOptions) {
		vo.continueOnFailure = continueOnFailure
	}
}

// WithReplayTTL sets how long a timestamp without an expiry is remembered by the replay
// cache. Zero leaves the lifetime to the cache.
func WithReplayTTL(ttl time.Duration) Option {
	return func(vo *validateOptions) {
		vo.replayTTL = ttl
	}
}

// WithConfig applies the policy, replay and engine settings of cfg. The replay cache
// outlives a single call, so it is built once with cfg.NewReplayCache and passed with
// WithReplayCache.
func WithConfig(cfg config.Config) Option {
	return func(vo *validateOptions) {
		vo.policy = cfg.Policy()
		vo.replayTTL = cfg.Timestamp.ReplayTTL
		vo.continueOnFailure = cfg.Engine.ContinueOnFailure
	}
}

// Result holds what processing one message produced. Results is ordered with the
// timestamp result first.
type Result struct {
	Accepted  bool               `json:"accepted" yaml:"accepted" jsonschema:"title=Accepted,description=Whether every processed element passed its checks"`
	ID        string             `json:"id,omitempty" yaml:"id,omitempty" jsonschema:"title=ID,description=Identifier of the processed timestamp"`
	Timestamp *timestamp.Token   `json:"timestamp,omitempty" yaml:"timestamp,omitempty" jsonschema:"title=Timestamp,description=The processed timestamp"`
	Results   []processor.Result `json:"results" yaml:"results" jsonschema:"title=Results,description=Per element results in processing order"`
}

func newOptions(opts []Option) (validateOptions, error) {
	vo := validateOptions{
		policy: timestamp.DefaultPolicy(),
		clock:  timestamp.SystemClock{},
	}

	for _, opt := range opts {
		opt(&vo)
	}

	if vo.policy.ToleranceSeconds < 0 {
		return vo, config.ErrInvalidOption{Option: "ttl", Reason: "must not be negative"}
	}

	if vo.replayTTL < 0 {
		return vo, config.ErrInvalidOption{Option: "replay-ttl", Reason: "must not be negative"}
	}

	return vo, nil
}

// Validate reads a SOAP envelope or a bare wsse:Security element from r and runs its
// elements through the registered processors. The returned Result is populated even when
// validation fails.
func Validate(ctx context.Context, r io.Reader, opts ...Option) (Result, error) {
	vo, err := newOptions(opts)
	if err != nil {
		return Result{}, err
	}

	h, err := wsse.ParseHeader(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse security header: %w", err)
	}

	engine := processor.NewEngine(
		processor.WithProcessorConfig(processor.TimestampName, map[string]any{
			"strict":     vo.policy.Strict,
			"ttl":        vo.policy.ToleranceSeconds,
			"replay-ttl": vo.replayTTL,
		}),
		processor.WithContinueOnFailure(vo.continueOnFailure),
		processor.WithContextOptions(
			processor.WithClock(vo.clock),
			processor.WithReplayCache(vo.replayCache),
			processor.WithMetrics(vo.metrics),
		),
	)

	pctx, err := engine.Process(ctx, h)
	result := newResult(pctx.Results(), err)
	if err != nil {
		return result, err
	}

	log.Debugf("(freshness) processed %d security header elements", len(pctx.CompletedProcessors()))
	return result, nil
}

// ValidateToken applies the configured policy to an already decoded token, for instance
// one returned by timestamp.FromJWT or timestamp.FromRFC3161. Failures are reported as
// processor.ErrAuthenticationFailed, as Validate reports them.
func ValidateToken(ctx context.Context, tok timestamp.Token, opts ...Option) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	vo, err := newOptions(opts)
	if err != nil {
		return Result{}, err
	}

	now := vo.clock.Now()
	out := timestamp.Validate(tok, vo.policy, now)
	vo.metrics.ObserveOutcome(out)

	if !out.Accepted() {
		err = out.Err
	} else {
		err = processor.CheckReplay(vo.replayCache, vo.metrics, tok, now, vo.replayTTL)
	}

	pr := processor.Result{
		Processor: processor.TimestampName,
		ID:        out.ID,
		Accepted:  err == nil,
		Kind:      out.Kind(),
		Timestamp: &out.Token,
	}

	if err == nil {
		return newResult([]processor.Result{pr}, nil), nil
	}

	pr.Message = err.Error()
	vo.metrics.ObserveFailure(processor.TimestampName)
	authErr := processor.ErrAuthenticationFailed{Processor: processor.TimestampName, ID: tok.ID, Err: err}
	log.Warnf("(freshness) %v", authErr)
	return newResult([]processor.Result{pr}, authErr), authErr
}

func newResult(results []processor.Result, err error) Result {
	res := Result{
		Accepted: err == nil,
		Results:  results,
	}

	for _, r := range results {
		if r.Processor == processor.TimestampName {
			res.ID = r.ID
			res.Timestamp = r.Timestamp
			break
		}
	}

	return res
}
