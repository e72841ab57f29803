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
	"fmt"
	"strings"

	"github.com/in-toto/go-freshness/schemagen"
	"github.com/spf13/cobra"
)

func SchemaCmd() *cobra.Command {
	names := []string{}
	for _, doc := range schemagen.Documents() {
		names = append(names, doc.Name)
	}

	return &cobra.Command{
		Use:       "schema <name>",
		Short:     "Print the JSON schema of a document",
		Long:      "Print the JSON schema of one of: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, doc := range schemagen.Documents() {
				if doc.Name != args[0] {
					continue
				}

				schema, err := schemagen.Schema(doc)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
				return err
			}

			return fmt.Errorf("unknown schema %q, expected one of: %s", args[0], strings.Join(names, ", "))
		},
	}
}
