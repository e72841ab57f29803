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
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/in-toto/go-freshness/log"
	"github.com/in-toto/go-freshness/wsse"
)

// ErrAuthenticationFailed reports that a security header element failed its processor.
// Err is the processor's own error, for example a timestamp.ErrMessageExpired.
type ErrAuthenticationFailed struct {
	Processor string
	ID        string
	Err       error
}

func (e ErrAuthenticationFailed) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("authentication failed in %v processor: %v", e.Processor, e.Err)
	}

	return fmt.Sprintf("authentication failed in %v processor for element %v: %v", e.Processor, e.ID, e.Err)
}

func (e ErrAuthenticationFailed) Unwrap() error {
	return e.Err
}

type engineOptions struct {
	processorConfigs  map[string]map[string]any
	continueOnFailure bool
	contextOpts       []ContextOption
}

type EngineOption func(*engineOptions)

// WithProcessorConfig sets the options of the named processor, keyed by option name.
func WithProcessorConfig(name string, config map[string]any) EngineOption {
	return func(eo *engineOptions) {
		eo.processorConfigs[name] = config
	}
}

// WithContinueOnFailure keeps processing the remaining elements after a failure. All
// failures are then reported together.
func WithContinueOnFailure(continueOnFailure bool) EngineOption {
	return func(eo *engineOptions) {
		eo.continueOnFailure = continueOnFailure
	}
}

// WithContextOptions forwards opts to every Context the engine creates.
func WithContextOptions(opts ...ContextOption) EngineOption {
	return func(eo *engineOptions) {
		eo.contextOpts = append(eo.contextOpts, opts...)
	}
}

// Engine runs the registered processors over security headers. An Engine may be shared
// between goroutines: every call to Process works on its own Context and processor instances.
type Engine struct {
	opts engineOptions
}

func NewEngine(opts ...EngineOption) *Engine {
	eo := engineOptions{
		processorConfigs: make(map[string]map[string]any),
	}

	for _, opt := range opts {
		opt(&eo)
	}

	return &Engine{opts: eo}
}

// Process runs every element of h through the processor registered for it, in document
// order. Elements without a processor are skipped. The returned Context holds the results
// even when processing failed.
func (e *Engine) Process(ctx context.Context, h *wsse.Header, opts ...ContextOption) (*Context, error) {
	ctxOpts := append([]ContextOption{WithContext(ctx)}, e.opts.contextOpts...)
	pctx := NewContext(append(ctxOpts, opts...)...)

	var errs *multierror.Error
	for _, el := range h.Elements {
		if err := ctx.Err(); err != nil {
			return pctx, err
		}

		name, ok := NameByElement(el.Name)
		if !ok {
			log.Debugf("(processor) no processor registered for {%v}%v, skipping", el.Name.Space, el.Name.Local)
			continue
		}

		p, err := New(name, e.opts.processorConfigs[name])
		if err != nil {
			return pctx, fmt.Errorf("failed to create %v processor: %w", name, err)
		}

		log.Debugf("(processor) running %v processor", name)
		if err := pctx.runProcessor(p, el); err != nil {
			pctx.Metrics().ObserveFailure(name)
			authErr := ErrAuthenticationFailed{Processor: name, ID: el.ID(), Err: err}
			log.Warnf("(processor) %v", authErr)
			if !e.opts.continueOnFailure {
				return pctx, authErr
			}

			errs = multierror.Append(errs, authErr)
		}
	}

	return pctx, errs.ErrorOrNil()
}
