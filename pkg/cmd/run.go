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

var runCmd = &cobra.Command{
	Use:   "run [flags] script.via",
	Short: "compile and execute a via script.",
	Long:  "Compile a .via script through the full pipeline and execute it to completion.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pipeline := build.New(GetStringArray(cmd, "path"), logger(cmd))

		flags := module.Flag(0)
		if GetFlag(cmd, "dump-exe") {
			flags |= module.DumpExe
		}
		if GetFlag(cmd, "dump-def-table") {
			flags |= module.DumpDefTable
		}

		if _, err := pipeline.Run(args[0], permsFromFlags(cmd), flags); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dump-exe", false, "print the compiled bytecode before executing")
	runCmd.Flags().Bool("dump-def-table", false, "print each native module's definition table as it loads")
}
