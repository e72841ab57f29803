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
	"encoding/xml"
	"fmt"
	"sync"

	"github.com/in-toto/go-freshness/registry"
	"github.com/in-toto/go-freshness/wsse"
)

var (
	mu                  sync.RWMutex
	processorRegistry   = registry.New[Processor]()
	processorsByElement = map[xml.Name]string{}
)

// Processor handles one kind of security header element. Processors keep per-message
// state, so the engine creates a fresh instance for every message it processes.
type Processor interface {
	Name() string
	Element() xml.Name
	Process(ctx *Context, el wsse.Element) error
}

// Identifier is implemented by processors that expose the identifier of the element
// they handled, for collaborators that resolve references after processing.
type Identifier interface {
	ID() string
}

type ErrProcessorNotFound string

func (e ErrProcessorNotFound) Error() string {
	return fmt.Sprintf("processor not found: %v", string(e))
}

// Register makes a processor available by name and by the element it handles.
func Register(name string, element xml.Name, factory registry.FactoryFunc[Processor], opts ...registry.Configurer) registry.Entry[Processor] {
	mu.Lock()
	defer mu.Unlock()
	processorsByElement[element] = name
	return processorRegistry.Register(name, factory, opts...)
}

func FactoryByName(name string) (registry.FactoryFunc[Processor], bool) {
	mu.RLock()
	defer mu.RUnlock()
	entry, ok := processorRegistry.Entry(name)
	return entry.Factory, ok
}

// NameByElement returns the name of the processor registered for element.
func NameByElement(element xml.Name) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	name, ok := processorsByElement[element]
	return name, ok
}

func RegistrationEntries() []registry.Entry[Processor] {
	mu.RLock()
	defer mu.RUnlock()
	return processorRegistry.AllEntries()
}

// New creates the named processor with its defaults overridden by configMap.
func New(name string, configMap map[string]any) (Processor, error) {
	mu.RLock()
	defer mu.RUnlock()
	if _, ok := processorRegistry.Entry(name); !ok {
		return nil, ErrProcessorNotFound(name)
	}

	return processorRegistry.NewEntityFromConfigMap(name, configMap)
}
