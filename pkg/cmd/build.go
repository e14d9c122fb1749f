// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/XnLogicaL/via-lang/pkg/build"
	"github.com/XnLogicaL/via-lang/pkg/module"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] script.via",
	Short: "compile a via script without executing it.",
	Long:  "Lex, parse, build IR for and emit bytecode for a .via script, reporting diagnostics without running it.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pipeline := build.New(GetStringArray(cmd, "path"), logger(cmd))

		flags := module.DumpExe
		if GetFlag(cmd, "quiet") {
			flags &^= module.DumpExe
		}

		_, err := pipeline.Compile(args[0], permsFromFlags(cmd), flags)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().Bool("quiet", false, "suppress the bytecode dump; just report diagnostics")
}
