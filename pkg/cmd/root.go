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

// Package cmd implements via's command-line toolchain: run, build and debug
// subcommands over pkg/build's pipeline driver (spec.md §3 "CLI front-end").
package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled in when building with make; left blank for `go install`.
var Version string

var rootCmd = &cobra.Command{
	Use:   "via",
	Short: "A compiler and runtime for the via scripting language.",
	Long:  "via compiles and executes .via scripts: lexer, parser, typed IR, bytecode emitter and register VM.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("via ")
			if Version != "" {
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				fmt.Printf("%s", info.Main.Version)
			} else {
				fmt.Printf("(unknown version)")
			}
			fmt.Println()
			return
		}

		cmd.Help() //nolint:errcheck
	},
}

// Execute adds all child commands to the root command and runs it. Called
// by cmd/via's main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:errcheck
func init() {
	rootCmd.Flags().Bool("version", false, "report the version of this executable")

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().StringArrayP("path", "I", []string{"."}, "add a directory to the module search path")
	rootCmd.PersistentFlags().Bool("no-read", false, "deny filesystem read permission (FREAD)")
	rootCmd.PersistentFlags().Bool("no-write", false, "deny filesystem write permission (FWRITE)")
	rootCmd.PersistentFlags().Bool("no-network", false, "deny network permission (NETWORK)")
	rootCmd.PersistentFlags().Bool("no-ffi", false, "deny foreign-function-call permission (FFICALL)")
	rootCmd.PersistentFlags().Bool("no-import", false, "deny import permission (IMPORT)")
}

func logger(cmd *cobra.Command) *log.Logger {
	l := log.New()
	if GetFlag(cmd, "verbose") {
		l.SetLevel(log.DebugLevel)
	}

	return l
}
