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

package log

import (
	"fmt"
	golog "log"
	"sync"
)

var (
	mu     sync.RWMutex
	logger Logger = SilentLogger{}
)

// Logger is used by the library to emit log messages. By default the library is silent,
// callers wishing to see log output should supply their own Logger with SetLogger.
// A *zap.SugaredLogger satisfies this interface.
type Logger interface {
	Errorf(format string, args ...interface{})
	Error(args ...interface{})
	Warnf(format string, args ...interface{})
	Warn(args ...interface{})
	Debugf(format string, args ...interface{})
	Debug(args ...interface{})
	Infof(format string, args ...interface{})
	Info(args ...interface{})
}

// SetLogger will set the Logger instance that all library log output goes to.
func SetLogger(l Logger) {
	if l == nil {
		l = SilentLogger{}
	}

	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// GetLogger returns the Logger instance currently in use.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Errorf(format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)
	GetLogger().Error(err)
}

func Error(args ...interface{}) {
	GetLogger().Error(args...)
}

func Warnf(format string, args ...interface{}) {
	// We want to wrap the error if there is one.
	for _, a := range args {
		if _, ok := a.(error); ok {
			GetLogger().Warn(fmt.Errorf(format, args...))
			return
		}
	}

	GetLogger().Warnf(format, args...)
}

func Warn(args ...interface{}) {
	GetLogger().Warn(args...)
}

func Debugf(format string, args ...interface{}) {
	for _, a := range args {
		if _, ok := a.(error); ok {
			GetLogger().Debug(fmt.Errorf(format, args...))
			return
		}
	}

	GetLogger().Debugf(format, args...)
}

func Debug(args ...interface{}) {
	GetLogger().Debug(args...)
}

func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

// SilentLogger discards all log output.
type SilentLogger struct{}

func (l SilentLogger) Errorf(format string, args ...interface{}) {}
func (l SilentLogger) Error(args ...interface{})                 {}
func (l SilentLogger) Warnf(format string, args ...interface{})  {}
func (l SilentLogger) Warn(args ...interface{})                  {}
func (l SilentLogger) Debugf(format string, args ...interface{}) {}
func (l SilentLogger) Debug(args ...interface{})                 {}
func (l SilentLogger) Infof(format string, args ...interface{})  {}
func (l SilentLogger) Info(args ...interface{})                  {}

// ConsoleLogger writes everything through the standard library logger. It is mostly
// useful in tests.
type ConsoleLogger struct{}

func (ConsoleLogger) Errorf(format string, args ...interface{}) {
	golog.Printf("[ERROR] "+format, args...)
}

func (ConsoleLogger) Error(args ...interface{}) {
	golog.Print(append([]interface{}{"[ERROR] "}, args...)...)
}

func (ConsoleLogger) Warnf(format string, args ...interface{}) {
	golog.Printf("[WARN] "+format, args...)
}

func (ConsoleLogger) Warn(args ...interface{}) {
	golog.Print(append([]interface{}{"[WARN] "}, args...)...)
}

func (ConsoleLogger) Debugf(format string, args ...interface{}) {
	golog.Printf("[DEBUG] "+format, args...)
}

func (ConsoleLogger) Debug(args ...interface{}) {
	golog.Print(append([]interface{}{"[DEBUG] "}, args...)...)
}

func (ConsoleLogger) Infof(format string, args ...interface{}) {
	golog.Printf("[INFO] "+format, args...)
}

func (ConsoleLogger) Info(args ...interface{}) {
	golog.Print(append([]interface{}{"[INFO] "}, args...)...)
}
