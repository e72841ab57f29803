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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/in-toto/go-freshness"
	"github.com/in-toto/go-freshness/wsse"
	"github.com/mattn/go-isatty"
	"go.yaml.in/yaml/v3"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func writeResult(w io.Writer, output string, result freshness.Result) error {
	if output == "" {
		output = OutputJSON
		if isTerminal(w) {
			output = OutputText
		}
	}

	switch output {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}

		return enc.Close()
	case OutputText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
}

func writeText(w io.Writer, result freshness.Result) error {
	verdict := "ACCEPTED"
	if !result.Accepted {
		verdict = "REJECTED"
	}

	if _, err := fmt.Fprintln(w, verdict); err != nil {
		return err
	}

	for _, r := range result.Results {
		line := fmt.Sprintf("  %s", r.Processor)
		if r.ID != "" {
			line += fmt.Sprintf(" %s", r.ID)
		}

		if r.Timestamp != nil {
			line += fmt.Sprintf(" created=%s", wsse.FormatDateTime(r.Timestamp.Created))
			if r.Timestamp.Expires != nil {
				line += fmt.Sprintf(" expires=%s", wsse.FormatDateTime(*r.Timestamp.Expires))
			}
		}

		if r.Message != "" {
			line += ": " + r.Message
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
