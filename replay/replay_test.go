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

package replay

import (
	"testing"
	"time"

	"github.com/in-toto/go-freshness/timestamp"
	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheAdd(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	now := time.Now()
	assert.True(t, c.Add("a", now.Add(time.Minute)))
	assert.False(t, c.Add("a", now.Add(time.Minute)))
	assert.True(t, c.Add("b", time.Time{}))
	assert.False(t, c.Add("b", time.Time{}))
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(WithDefaultTTL(50 * time.Millisecond))
	defer c.Close()

	assert.True(t, c.Add("a", time.Time{}))
	assert.Eventually(t, func() bool {
		return c.Add("a", time.Time{})
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMemoryCacheCapacity(t *testing.T) {
	c := NewMemoryCache(WithCapacity(2))
	defer c.Close()

	assert.True(t, c.Add("a", time.Time{}))
	assert.True(t, c.Add("b", time.Time{}))
	assert.True(t, c.Add("c", time.Time{}))
	assert.Equal(t, 2, c.Len())
}

func TestKey(t *testing.T) {
	created := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	a := Key(timestamp.Token{Created: created, ID: "TS-1"})
	b := Key(timestamp.Token{Created: created, ID: "TS-2"})
	c := Key(timestamp.Token{Created: created.Add(time.Nanosecond), ID: "TS-1"})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "2026-03-04T12:00:00Z|TS-1", a)
}
