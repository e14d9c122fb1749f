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

	"github.com/XnLogicaL/via-lang/pkg/module"
)

// GetFlag gets an expected bool flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetStringArray gets an expected string-array flag, or exits if an error
// arises.
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// permsFromFlags derives the root module's permission bitmask from the
// `--no-*` persistent flags (spec.md §6 "Permissions"): everything is
// granted unless explicitly denied.
func permsFromFlags(cmd *cobra.Command) module.Perm {
	perms := module.ALL

	if GetFlag(cmd, "no-read") {
		perms &^= module.FREAD
	}
	if GetFlag(cmd, "no-write") {
		perms &^= module.FWRITE
	}
	if GetFlag(cmd, "no-network") {
		perms &^= module.NETWORK
	}
	if GetFlag(cmd, "no-ffi") {
		perms &^= module.FFICALL
	}
	if GetFlag(cmd, "no-import") {
		perms &^= module.IMPORT
	}

	return perms
}
