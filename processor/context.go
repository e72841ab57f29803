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

package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/in-toto/go-freshness/metrics"
	"github.com/in-toto/go-freshness/replay"
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/in-toto/go-freshness/wsse"
)

type ErrDuplicateID string

func (e ErrDuplicateID) Error() string {
	return fmt.Sprintf("identifier %v is used by more than one security header element", string(e))
}

// Result is the outcome one processor reports for the element it handled.
type Result struct {
	Processor string              `json:"processor" yaml:"processor" jsonschema:"title=Processor,description=Name of the processor that produced the result"`
	ID        string              `json:"id,omitempty" yaml:"id,omitempty" jsonschema:"title=ID,description=wsu:Id of the processed element"`
	Accepted  bool                `json:"accepted" yaml:"accepted" jsonschema:"title=Accepted,description=Whether the element passed its checks"`
	Kind      timestamp.ErrorKind `json:"kind,omitempty" yaml:"kind,omitempty" jsonschema:"title=Kind,description=Rejection kind,enum=MessageExpired,enum=InvalidTolerance"`
	Message   string              `json:"message,omitempty" yaml:"message,omitempty" jsonschema:"title=Message,description=Rejection message"`
	Timestamp *timestamp.Token    `json:"timestamp,omitempty" yaml:"timestamp,omitempty" jsonschema:"title=Timestamp,description=Validity window of a processed timestamp"`
}

// DocInfo indexes the processed elements of one message by their wsu:Id so later
// processors can resolve references to them.
type DocInfo struct {
	byID map[string]any
}

func NewDocInfo() *DocInfo {
	return &DocInfo{byID: make(map[string]any)}
}

func (d *DocInfo) Add(id string, v any) error {
	if _, ok := d.byID[id]; ok {
		return ErrDuplicateID(id)
	}

	d.byID[id] = v
	return nil
}

func (d *DocInfo) Lookup(id string) (any, bool) {
	v, ok := d.byID[id]
	return v, ok
}

// LookupTimestamp returns the timestamp token registered under id.
func (d *DocInfo) LookupTimestamp(id string) (timestamp.Token, bool) {
	v, ok := d.byID[id]
	if !ok {
		return timestamp.Token{}, false
	}

	tok, ok := v.(timestamp.Token)
	return tok, ok
}

type CompletedProcessor struct {
	Processor Processor
	StartTime time.Time
	EndTime   time.Time
	Error     error
}

type ContextOption func(ctx *Context)

func WithContext(ctx context.Context) ContextOption {
	return func(pctx *Context) {
		pctx.ctx = ctx
	}
}

func WithClock(clock timestamp.Clock) ContextOption {
	return func(ctx *Context) {
		if clock != nil {
			ctx.clock = clock
		}
	}
}

func WithReplayCache(cache replay.Cache) ContextOption {
	return func(ctx *Context) {
		ctx.replayCache = cache
	}
}

func WithMetrics(recorder *metrics.Recorder) ContextOption {
	return func(ctx *Context) {
		ctx.metrics = recorder
	}
}

// Context carries the state of processing one message's security header. It is not
// safe for concurrent use.
type Context struct {
	ctx                 context.Context
	clock               timestamp.Clock
	replayCache         replay.Cache
	metrics             *metrics.Recorder
	docInfo             *DocInfo
	results             []Result
	completedProcessors []CompletedProcessor
}

func NewContext(opts ...ContextOption) *Context {
	ctx := &Context{
		ctx:     context.Background(),
		clock:   timestamp.SystemClock{},
		docInfo: NewDocInfo(),
	}

	for _, opt := range opts {
		opt(ctx)
	}

	return ctx
}

func (ctx *Context) Context() context.Context {
	return ctx.ctx
}

func (ctx *Context) Clock() timestamp.Clock {
	return ctx.clock
}

// ReplayCache returns the configured replay cache, or nil when replay detection is off.
func (ctx *Context) ReplayCache() replay.Cache {
	return ctx.replayCache
}

func (ctx *Context) Metrics() *metrics.Recorder {
	return ctx.metrics
}

func (ctx *Context) DocInfo() *DocInfo {
	return ctx.docInfo
}

// Results returns the recorded results in order.
func (ctx *Context) Results() []Result {
	return ctx.results
}

// PrependResult inserts r at the head of the results.
func (ctx *Context) PrependResult(r Result) {
	ctx.results = append([]Result{r}, ctx.results...)
}

func (ctx *Context) AppendResult(r Result) {
	ctx.results = append(ctx.results, r)
}

func (ctx *Context) CompletedProcessors() []CompletedProcessor {
	return ctx.completedProcessors
}

func (ctx *Context) runProcessor(p Processor, el wsse.Element) error {
	startTime := ctx.clock.Now()
	err := p.Process(ctx, el)
	ctx.completedProcessors = append(ctx.completedProcessors, CompletedProcessor{
		Processor: p,
		StartTime: startTime,
		EndTime:   ctx.clock.Now(),
		Error:     err,
	})

	return err
}
