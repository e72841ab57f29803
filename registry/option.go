// Copyright 2023 The Witness Contributors
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

package registry

import (
	"fmt"
	"time"
)

type ErrOptionType struct {
	Option   string
	Expected string
	Actual   any
}

func (e ErrOptionType) Error() string {
	return fmt.Sprintf("expected value for option %v to be %v but got %T", e.Option, e.Expected, e.Actual)
}

// Configurer describes an option without exposing its value type.
type Configurer interface {
	Name() string
	Description() string
}

// Option is the set of value types an option may carry.
type Option interface {
	int | bool | time.Duration
}

// OptionSetter applies a value to an entity, returning the (possibly new) entity.
type OptionSetter[T any, TOption Option] func(T, TOption) (T, error)

type ConfigOption[T any, TOption Option] struct {
	name        string
	description string
	defaultVal  TOption
	setter      OptionSetter[T, TOption]
}

func (co *ConfigOption[T, TOption]) Name() string {
	return co.name
}

func (co *ConfigOption[T, TOption]) Description() string {
	return co.description
}

func (co *ConfigOption[T, TOption]) DefaultVal() TOption {
	return co.defaultVal
}

func (co *ConfigOption[T, TOption]) Setter() OptionSetter[T, TOption] {
	return co.setter
}

func IntConfigOption[T any](name, description string, defaultVal int, setter OptionSetter[T, int]) *ConfigOption[T, int] {
	return &ConfigOption[T, int]{name: name, description: description, defaultVal: defaultVal, setter: setter}
}

func BoolConfigOption[T any](name, description string, defaultVal bool, setter OptionSetter[T, bool]) *ConfigOption[T, bool] {
	return &ConfigOption[T, bool]{name: name, description: description, defaultVal: defaultVal, setter: setter}
}

func DurationConfigOption[T any](name, description string, defaultVal time.Duration, setter OptionSetter[T, time.Duration]) *ConfigOption[T, time.Duration] {
	return &ConfigOption[T, time.Duration]{name: name, description: description, defaultVal: defaultVal, setter: setter}
}
