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
	"github.com/spf13/cobra"
)

var Version = "dev"

// New returns the tsverify root command.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:   "tsverify",
		Short: "Check the freshness of timestamped messages",
		Long: `tsverify checks that a message's declared validity window still holds.
It reads WS-Security headers, JWTs or RFC 3161 timestamp responses.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(ValidateCmd())
	root.AddCommand(SchemaCmd())
	return root
}
