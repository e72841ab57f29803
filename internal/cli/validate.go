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
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/in-toto/go-freshness"
	"github.com/in-toto/go-freshness/config"
	"github.com/in-toto/go-freshness/log"
	"github.com/in-toto/go-freshness/replay"
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/spf13/cobra"
)

const (
	FormatWSSE    = "wsse"
	FormatJWT     = "jwt"
	FormatRFC3161 = "rfc3161"
)

type validateOptions struct {
	configPath string
	now        string
	format     string
	output     string
}

// flag name to configuration key
var configFlags = map[string]string{
	"strict":              "timestamp.strict",
	"ttl":                 "timestamp.ttl",
	"continue-on-failure": "engine.continue-on-failure",
	"replay-cache":        "timestamp.replay-cache",
	"replay-ttl":          "timestamp.replay-ttl",
	"log-level":           "log.level",
}

func ValidateCmd() *cobra.Command {
	vo := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate the timestamp of messages",
		Long: `Validate reads messages from files, or from stdin when no file is given or the
file is "-", and checks each timestamp against the configured policy. With
--replay-cache a timestamp seen in an earlier message is rejected. The command fails
when any timestamp is rejected.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, vo, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&vo.configPath, "config", "c", "", "Path to a configuration file")
	flags.StringVar(&vo.now, "now", "", "Validate as of this RFC 3339 instant instead of the current time")
	flags.StringVarP(&vo.format, "format", "f", FormatWSSE, "Input format: wsse, jwt or rfc3161")
	flags.StringVarP(&vo.output, "output", "o", "", "Output format: text, json or yaml. Defaults to text on a terminal and json otherwise")
	flags.Bool("strict", true, "Reject expired timestamps and windows wider than --ttl")
	flags.Int("ttl", 0, "Maximum gap in seconds between created and expires, 0 disables the check")
	flags.Bool("continue-on-failure", false, "Process every security header element before failing")
	flags.Bool("replay-cache", false, "Reject timestamps already seen in an earlier message")
	flags.Duration("replay-ttl", replay.DefaultTTL, "How long timestamps without an expiry are remembered by the replay cache")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	return cmd
}

func runValidate(cmd *cobra.Command, vo validateOptions, args []string) error {
	cfg, err := config.Load(vo.configPath, config.WithFlags(cmd.Flags(), configFlags))
	if err != nil {
		return err
	}

	logger, err := log.NewZapLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	log.SetLogger(logger)
	opts := []freshness.Option{freshness.WithConfig(cfg)}
	var clock timestamp.Clock = timestamp.SystemClock{}
	if vo.now != "" {
		now, err := time.Parse(time.RFC3339Nano, vo.now)
		if err != nil {
			return fmt.Errorf("failed to parse --now: %w", err)
		}

		clock = timestamp.FakeClock{T: now.UTC()}
	}

	opts = append(opts, freshness.WithClock(clock))
	if cache := cfg.NewReplayCache(replay.WithClock(clock)); cache != nil {
		defer cache.Close()
		opts = append(opts, freshness.WithReplayCache(cache))
	}

	names := args
	if len(names) == 0 {
		names = []string{"-"}
	}

	var errs *multierror.Error
	for _, name := range names {
		if err := validateOne(cmd, vo, name, opts); err != nil {
			if len(names) > 1 {
				err = fmt.Errorf("%v: %w", name, err)
			}

			errs = multierror.Append(errs, err)
		}
	}

	if errs != nil && len(errs.Errors) == 1 {
		return errs.Errors[0]
	}

	return errs.ErrorOrNil()
}

func validateOne(cmd *cobra.Command, vo validateOptions, name string, opts []freshness.Option) error {
	input, err := readInput(cmd, name)
	if err != nil {
		return err
	}

	result, validateErr := validate(cmd.Context(), vo.format, input, opts)
	if validateErr == nil || len(result.Results) > 0 {
		if err := writeResult(cmd.OutOrStdout(), vo.output, result); err != nil {
			return err
		}
	}

	return validateErr
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", name, err)
	}

	return data, nil
}

func validate(ctx context.Context, format string, input []byte, opts []freshness.Option) (freshness.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	switch format {
	case FormatWSSE:
		return freshness.Validate(ctx, bytes.NewReader(input), opts...)
	case FormatJWT:
		tok, err := timestamp.FromJWT(string(bytes.TrimSpace(input)))
		if err != nil {
			return freshness.Result{}, err
		}

		return freshness.ValidateToken(ctx, tok, opts...)
	case FormatRFC3161:
		tok, err := timestamp.FromRFC3161(input)
		if err != nil {
			return freshness.Result{}, err
		}

		return freshness.ValidateToken(ctx, tok, opts...)
	default:
		return freshness.Result{}, fmt.Errorf("unsupported input format %q", format)
	}
}
