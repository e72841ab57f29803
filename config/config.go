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

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/in-toto/go-freshness/log"
	"github.com/in-toto/go-freshness/replay"
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "FRESHNESS"

type ErrInvalidOption struct {
	Option string
	Reason string
}

func (e ErrInvalidOption) Error() string {
	return fmt.Sprintf("invalid value for option %v: %v", e.Option, e.Reason)
}

type Config struct {
	Timestamp TimestampConfig `mapstructure:"timestamp" json:"timestamp" yaml:"timestamp" jsonschema:"title=Timestamp,description=Timestamp freshness policy"`
	Engine    EngineConfig    `mapstructure:"engine" json:"engine" yaml:"engine" jsonschema:"title=Engine,description=Security header processing"`
	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log" jsonschema:"title=Log,description=Logging"`
}

type TimestampConfig struct {
	Strict      bool          `mapstructure:"strict" json:"strict" yaml:"strict" jsonschema:"title=Strict,description=Reject expired timestamps and windows wider than ttl,default=true"`
	TTL         int           `mapstructure:"ttl" json:"ttl" yaml:"ttl" jsonschema:"title=TTL,description=Maximum gap in seconds between created and expires. 0 disables the check,minimum=0"`
	ReplayCache bool          `mapstructure:"replay-cache" json:"replay-cache" yaml:"replay-cache" jsonschema:"title=Replay cache,description=Reject timestamps that were already accepted"`
	ReplayTTL   time.Duration `mapstructure:"replay-ttl" json:"replay-ttl" yaml:"replay-ttl" jsonschema:"title=Replay TTL,description=How long timestamps without an expiry are remembered"`
}

type EngineConfig struct {
	ContinueOnFailure bool `mapstructure:"continue-on-failure" json:"continue-on-failure" yaml:"continue-on-failure" jsonschema:"title=Continue on failure,description=Process every element and report all failures instead of stopping at the first"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level" jsonschema:"title=Level,enum=debug,enum=info,enum=warn,enum=error"`
	Development bool   `mapstructure:"development" json:"development" yaml:"development" jsonschema:"title=Development,description=Human readable log output"`
}

// Policy returns the timestamp policy described by the configuration.
func (c Config) Policy() timestamp.Policy {
	return timestamp.Policy{
		Strict:           c.Timestamp.Strict,
		ToleranceSeconds: c.Timestamp.TTL,
	}
}

// ProcessorConfig returns the option map of the timestamp processor.
func (c Config) ProcessorConfig() map[string]any {
	return map[string]any{
		"strict":     c.Timestamp.Strict,
		"ttl":        c.Timestamp.TTL,
		"replay-ttl": c.Timestamp.ReplayTTL,
	}
}

// NewReplayCache returns a replay cache remembering timestamps for timestamp.replay-ttl,
// or nil when timestamp.replay-cache is off. The caller closes the cache.
func (c Config) NewReplayCache(opts ...replay.Option) replay.Cache {
	if !c.Timestamp.ReplayCache {
		return nil
	}

	opts = append([]replay.Option{replay.WithDefaultTTL(c.Timestamp.ReplayTTL)}, opts...)
	return replay.NewMemoryCache(opts...)
}

func (c Config) Validate() error {
	if c.Timestamp.TTL < 0 {
		return ErrInvalidOption{Option: "timestamp.ttl", Reason: "must not be negative"}
	}

	if c.Timestamp.ReplayCache && c.Timestamp.ReplayTTL <= 0 {
		return ErrInvalidOption{Option: "timestamp.replay-ttl", Reason: "must be positive when the replay cache is enabled"}
	}

	return nil
}

type Option func(*viper.Viper) error

// WithFlags lets command line flags override file and environment values. Flags are
// matched to keys by name, so a flag named "ttl" overrides "timestamp.ttl".
func WithFlags(flags *pflag.FlagSet, keysByFlag map[string]string) Option {
	return func(v *viper.Viper) error {
		for flag, key := range keysByFlag {
			f := flags.Lookup(flag)
			if f == nil {
				return fmt.Errorf("unknown flag %v", flag)
			}

			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}

		return nil
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timestamp.strict", true)
	v.SetDefault("timestamp.ttl", 0)
	v.SetDefault("timestamp.replay-cache", false)
	v.SetDefault("timestamp.replay-ttl", replay.DefaultTTL)
	v.SetDefault("engine.continue-on-failure", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the configuration from path, when it is not empty, then from FRESHNESS_*
// environment variables (FRESHNESS_TIMESTAMP_TTL for timestamp.ttl) and finally from opts.
func Load(path string, opts ...Option) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		log.Debugf("(config) loading configuration from: %s", path)
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config file not found at %s: %w", path, err)
			}

			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() Config {
	return Config{
		Timestamp: TimestampConfig{
			Strict:    true,
			ReplayTTL: replay.DefaultTTL,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
