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

package schemagen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/in-toto/go-freshness"
	"github.com/in-toto/go-freshness/config"
	"github.com/in-toto/go-freshness/log"
	"github.com/in-toto/go-freshness/processor"
	"github.com/in-toto/go-freshness/timestamp"
	"github.com/invopop/jsonschema"
)

// Document is a type whose JSON schema gets published.
type Document struct {
	Name        string
	Description string
	Value       any
}

func Documents() []Document {
	return []Document{
		{Name: "token", Description: "Declared validity window of a message", Value: &timestamp.Token{}},
		{Name: "processor-result", Description: "Result one processor reports for a security header element", Value: &processor.Result{}},
		{Name: "result", Description: "Result of validating one message", Value: &freshness.Result{}},
		{Name: "config", Description: "go-freshness configuration file", Value: &config.Config{}},
	}
}

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
		DoNotReference:             true,
		ExpandedStruct:             true,
	}
}

// Schema returns the indented JSON schema of doc.
func Schema(doc Document) ([]byte, error) {
	schema := reflector().Reflect(doc.Value)
	schema.Title = doc.Name
	schema.Description = doc.Description

	schemaJson, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, schemaJson, "", "  "); err != nil {
		return nil, fmt.Errorf("error marshalling JSON schema: %w", err)
	}

	return indented.Bytes(), nil
}

// Generate writes one <name>.json schema per document into directory, creating it if needed.
func Generate(directory string) error {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return err
	}

	for _, doc := range Documents() {
		schema, err := Schema(doc)
		if err != nil {
			return fmt.Errorf("failed to generate schema for %s: %w", doc.Name, err)
		}

		path := filepath.Join(directory, doc.Name+".json")
		log.Infof("Writing schema for %s to %s", doc.Name, path)
		if err := os.WriteFile(path, schema, 0644); err != nil {
			return fmt.Errorf("error writing to file: %w", err)
		}
	}

	return nil
}
