/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package convert is the Conversion Engine of spec.md §4.4: bidirectional,
// canonicalizing translation between the Linear ("SFILES") and Graph
// ("DEXPI") dialects, including 1:many block-template family expansion.
package convert

import (
	"strings"
	"unicode"

	"github.com/puran-water/dexpi-engine/internal/errs"
)

type tokenKind int

const (
	tokUnit tokenKind = iota
	tokArrow
	tokLParen
	tokRParen
	tokControl
)

type token struct {
	kind  tokenKind
	name  string // unit name, or control kind
	value string // unit kind, for tokUnit
	index int    // token index in the input sequence, for ParseError details
}

// tokenize splits a canonical-form Linear string into tokens (spec.md
// §4.4.1: "tokens of the form unit_name[kind], directed connectors,
// parenthesised branches, control attachments").
func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	n := len(s)
	idx := 0
	skipSpace := func() {
		for i < n && unicode.IsSpace(rune(s[i])) {
			i++
		}
	}
	for {
		skipSpace()
		if i >= n {
			break
		}
		switch {
		case strings.HasPrefix(s[i:], "->"):
			toks = append(toks, token{kind: tokArrow, index: idx})
			i += 2
		case s[i] == '(':
			toks = append(toks, token{kind: tokLParen, index: idx})
			i++
		case s[i] == ')':
			toks = append(toks, token{kind: tokRParen, index: idx})
			i++
		case s[i] == '<':
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				return nil, errs.Newf(errs.ParseError, "unterminated control attachment at token %d", idx).WithDetail("token_index", idx)
			}
			toks = append(toks, token{kind: tokControl, name: s[i+1 : i+end], index: idx})
			i += end + 1
		case isNameStart(rune(s[i])):
			start := i
			for i < n && isNameChar(rune(s[i])) {
				i++
			}
			name := s[start:i]
			skipSpace()
			if i >= n || s[i] != '[' {
				return nil, errs.Newf(errs.ParseError, "expected '[' after unit name %q at token %d", name, idx).WithDetail("token_index", idx)
			}
			i++
			kindStart := i
			for i < n && s[i] != ']' {
				i++
			}
			if i >= n {
				return nil, errs.Newf(errs.ParseError, "unterminated kind bracket for unit %q at token %d", name, idx).WithDetail("token_index", idx)
			}
			kind := s[kindStart:i]
			i++
			toks = append(toks, token{kind: tokUnit, name: name, value: kind, index: idx})
		default:
			return nil, errs.Newf(errs.ParseError, "unexpected character %q at token %d", s[i], idx).WithDetail("token_index", idx)
		}
		idx++
	}
	return toks, nil
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
