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

// Package lex provides a small scanner-combinator engine used to build the
// via lexer. A Scanner reports how many leading items of its input it
// accepts; scanners compose into the token rules consumed by Lexer.
package lex

import "cmp"

// Scanner is a function which reports how many leading items of its input
// it accepts, or zero if it does not match at all.
type Scanner[T any] func(items []T) uint

// Or combines scanners such that the result succeeds if any of them
// succeeds, trying each in turn and taking the first match.
func Or[T any](scanners ...Scanner[T]) Scanner[T] {
	return func(items []T) uint {
		for _, scanner := range scanners {
			if n := scanner(items); n > 0 {
				return n
			}
		}

		return 0
	}
}

// And chains scanners left to right, succeeding only if every scanner
// matches starting where the previous one stopped.
func And[T any](scanners ...Scanner[T]) Scanner[T] {
	return func(items []T) uint {
		n := uint(0)

		for _, scanner := range scanners {
			m := scanner(items[n:])
			if m == 0 {
				return 0
			}

			n += m
		}

		return n
	}
}

// Unit accepts exactly the given sequence of items, in order.
func Unit[T comparable](chars ...T) Scanner[T] {
	return func(items []T) uint {
		if len(items) < len(chars) {
			return 0
		}

		for i, c := range chars {
			if items[i] != c {
				return 0
			}
		}

		return uint(len(chars))
	}
}

// Within accepts any single item in the inclusive range [lowest, highest].
func Within[T cmp.Ordered](lowest, highest T) Scanner[T] {
	return func(items []T) uint {
		if len(items) != 0 && lowest <= items[0] && items[0] <= highest {
			return 1
		}

		return 0
	}
}

// Many greedily matches zero or more repetitions of acceptor.
func Many[T any](acceptor Scanner[T]) Scanner[T] {
	return func(items []T) uint {
		index := uint(0)

		for index < uint(len(items)) {
			n := acceptor(items[index:])
			if n == 0 {
				break
			}

			index += n
		}

		return index
	}
}

// Until matches everything up to (but not including) the first occurrence
// of item, or the whole remaining input if item never occurs.
func Until[T comparable](item T) Scanner[T] {
	return func(items []T) uint {
		index := uint(0)

		for index < uint(len(items)) && items[index] != item {
			index++
		}

		return index
	}
}

// Eof matches only the empty input.
func Eof[T any]() Scanner[T] {
	return func(items []T) uint {
		if len(items) == 0 {
			return 1
		}

		return 0
	}
}
