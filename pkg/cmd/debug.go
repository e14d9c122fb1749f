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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XnLogicaL/via-lang/pkg/build"
	"github.com/XnLogicaL/via-lang/pkg/debugadapter"
	"github.com/XnLogicaL/via-lang/pkg/module"
	"github.com/XnLogicaL/via-lang/pkg/vm"
)

var debugCmd = &cobra.Command{
	Use:   "debug [flags] script.via",
	Short: "compile a via script and debug it interactively or over JSON-RPC.",
	Long: `Compile a .via script and attach a debug session to its VM: by default an
interactive terminal REPL (next/continue/break/quit), or a JSON-RPC server over
stdio with --rpc for editor integration.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pipeline := build.New(GetStringArray(cmd, "path"), logger(cmd))

		result, err := pipeline.Compile(args[0], permsFromFlags(cmd), module.Debug)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		log, _ := zap.NewDevelopment()
		defer log.Sync() //nolint:errcheck

		machine := vm.New(result.Exe, result.Module, pipeline.Manager, nil)
		session := debugadapter.NewSession(machine, result.Exe, args[0], log)

		if GetFlag(cmd, "rpc") {
			err = debugadapter.ServeStdio(context.Background(), session)
		} else {
			err = debugadapter.REPL(session, log)
		}

		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.Flags().Bool("rpc", false, "serve a JSON-RPC debug session over stdio instead of a terminal REPL")
}
