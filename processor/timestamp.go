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

package processor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"github.com/in-toto/go-freshness/log"
	"github.com/in-toto/go-freshness/metrics"
	"github.com/in-toto/go-freshness/registry"
	"github.com/in-toto/go-freshness/replay"
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/in-toto/go-freshness/wsse"
)

const (
	TimestampName = "Timestamp"

	defaultStrict = true
	defaultTTL    = 0
)

type ErrReplayedTimestamp struct {
	ID      string
	Created time.Time
}

func (e ErrReplayedTimestamp) Error() string {
	return fmt.Sprintf("timestamp %q created at %v has already been processed", e.ID, wsse.FormatDateTime(e.Created))
}

type ErrDuplicateTimestamp struct{}

func (e ErrDuplicateTimestamp) Error() string {
	return "security header contains more than one wsu:Timestamp"
}

func init() {
	Register(TimestampName, wsse.TimestampName, func() Processor { return NewTimestampProcessor() },
		registry.BoolConfigOption(
			"strict",
			"Reject expired timestamps and timestamps whose window exceeds the ttl",
			defaultStrict,
			func(p Processor, strict bool) (Processor, error) {
				tp, ok := p.(*TimestampProcessor)
				if !ok {
					return p, fmt.Errorf("unexpected processor type: %T is not a timestamp processor", p)
				}

				WithStrict(strict)(tp)
				return tp, nil
			},
		),
		registry.IntConfigOption(
			"ttl",
			"Maximum gap in seconds between created and expires, 0 disables the check",
			defaultTTL,
			func(p Processor, ttl int) (Processor, error) {
				tp, ok := p.(*TimestampProcessor)
				if !ok {
					return p, fmt.Errorf("unexpected processor type: %T is not a timestamp processor", p)
				}

				if ttl < 0 {
					return p, fmt.Errorf("ttl must not be negative, got %d", ttl)
				}

				WithTTL(ttl)(tp)
				return tp, nil
			},
		),
		registry.DurationConfigOption(
			"replay-ttl",
			"How long a timestamp without an expiry is remembered by the replay cache, 0 uses the cache default",
			0,
			func(p Processor, ttl time.Duration) (Processor, error) {
				tp, ok := p.(*TimestampProcessor)
				if !ok {
					return p, fmt.Errorf("unexpected processor type: %T is not a timestamp processor", p)
				}

				if ttl < 0 {
					return p, fmt.Errorf("replay-ttl must not be negative, got %v", ttl)
				}

				WithReplayTTL(ttl)(tp)
				return tp, nil
			},
		),
	)
}

type TimestampOption func(*TimestampProcessor)

func WithStrict(strict bool) TimestampOption {
	return func(p *TimestampProcessor) {
		p.policy.Strict = strict
	}
}

// WithTTL sets the allowed gap, in seconds, between a timestamp's created and expires values.
func WithTTL(seconds int) TimestampOption {
	return func(p *TimestampProcessor) {
		p.policy.ToleranceSeconds = seconds
	}
}

// WithReplayTTL sets how long a timestamp without an expiry is remembered by the replay
// cache. Zero leaves the lifetime to the cache.
func WithReplayTTL(ttl time.Duration) TimestampOption {
	return func(p *TimestampProcessor) {
		p.replayTTL = ttl
	}
}

func WithPolicy(policy timestamp.Policy) TimestampOption {
	return func(p *TimestampProcessor) {
		p.policy = policy
	}
}

// TimestampProcessor checks the freshness of a wsu:Timestamp. Its result is placed at the
// head of the message results and the token is indexed by its wsu:Id.
type TimestampProcessor struct {
	policy    timestamp.Policy
	replayTTL time.Duration
	id        string
	outcome   *timestamp.Outcome
}

func NewTimestampProcessor(opts ...TimestampOption) *TimestampProcessor {
	p := &TimestampProcessor{
		policy: timestamp.Policy{Strict: defaultStrict, ToleranceSeconds: defaultTTL},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *TimestampProcessor) Name() string {
	return TimestampName
}

func (p *TimestampProcessor) Element() xml.Name {
	return wsse.TimestampName
}

func (p *TimestampProcessor) Policy() timestamp.Policy {
	return p.policy
}

func (p *TimestampProcessor) ReplayTTL() time.Duration {
	return p.replayTTL
}

// ID returns the wsu:Id of the last timestamp this processor handled.
func (p *TimestampProcessor) ID() string {
	return p.id
}

// Outcome returns the verdict on the last timestamp, or nil when none was validated.
func (p *TimestampProcessor) Outcome() *timestamp.Outcome {
	return p.outcome
}

func (p *TimestampProcessor) Process(ctx *Context, el wsse.Element) error {
	log.Debugf("(processor/timestamp) found Timestamp list element")
	p.id = el.ID()

	for _, r := range ctx.Results() {
		if r.Processor == TimestampName {
			return ErrDuplicateTimestamp{}
		}
	}

	tok, err := wsse.DecodeTimestamp(el)
	if err != nil {
		return fmt.Errorf("failed to decode timestamp: %w", err)
	}

	now := ctx.Clock().Now()
	log.Debugf("(processor/timestamp) current time: %v", wsse.FormatDateTime(now))
	log.Debugf("(processor/timestamp) timestamp created: %v", wsse.FormatDateTime(tok.Created))
	if tok.Expires != nil {
		log.Debugf("(processor/timestamp) timestamp expires: %v", wsse.FormatDateTime(*tok.Expires))
	}

	out := timestamp.Validate(tok, p.policy, now)
	p.outcome = &out
	ctx.Metrics().ObserveOutcome(out)

	var procErr error
	if !out.Accepted() {
		procErr = out.Err
	} else {
		procErr = CheckReplay(ctx.ReplayCache(), ctx.Metrics(), tok, now, p.replayTTL)
	}

	result := Result{
		Processor: TimestampName,
		ID:        out.ID,
		Accepted:  procErr == nil,
		Kind:      out.Kind(),
		Timestamp: &out.Token,
	}

	if procErr != nil {
		result.Message = procErr.Error()
	}

	ctx.PrependResult(result)
	if out.ID != "" {
		if err := ctx.DocInfo().Add(out.ID, out.Token); err != nil {
			return errors.Join(procErr, err)
		}
	}

	return procErr
}

// CheckReplay records tok in cache and reports ErrReplayedTimestamp when it was already
// recorded. A token is remembered until its expiry; one without an expiry is remembered
// for ttl from now, or for the cache default when ttl is zero. A nil cache accepts every token.
func CheckReplay(cache replay.Cache, recorder *metrics.Recorder, tok timestamp.Token, now time.Time, ttl time.Duration) error {
	if cache == nil {
		return nil
	}

	var expiry time.Time
	switch {
	case tok.Expires != nil:
		expiry = *tok.Expires
	case ttl > 0:
		expiry = now.Add(ttl)
	}

	if cache.Add(replay.Key(tok), expiry) {
		return nil
	}

	recorder.ObserveReplay()
	return ErrReplayedTimestamp{ID: tok.ID, Created: tok.Created}
}
