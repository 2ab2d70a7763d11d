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

// Package template implements block-template expansion for the Conversion
// Engine (spec.md §4.4.1: a Unit whose kind is on the "block" list is
// replaced by a template's internal components and boundary ports).
//
// Conditional expressions inside a template (`a == b`, `a != b`) are
// parsed and restricted the same way the teacher's expr-lang nodes
// compile scripts (components/transform/expr_filter_node.go), but the
// accepted grammar is deliberately narrower: spec.md §9 forbids unsafe
// dynamic evaluation, so anything beyond a flat equality/inequality
// comparison between identifiers and string literals is rejected at
// compile time, never evaluated.
package template

import (
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/puran-water/dexpi-engine/internal/errs"
)

// substitutionPattern matches the `${name|default}` parameter-substitution
// form (spec.md §9).
var substitutionPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)(\|([^}]*))?\}`)

// Substitute replaces every `${name|default}` occurrence in s with the
// value of name from params, or default when name is absent or empty.
func Substitute(s string, params map[string]string) string {
	return substitutionPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := substitutionPattern.FindStringSubmatch(match)
		name, def := sub[1], sub[3]
		if v, ok := params[name]; ok && v != "" {
			return v
		}
		return def
	})
}

// CompileCondition parses cond and rejects anything richer than a single
// `identifier == literal` or `identifier != literal` comparison (bare
// identifiers and string literals on both sides are allowed, so
// `a == b` works whether b is a param name or a quoted constant). It
// never falls back to full expr-lang evaluation of arbitrary scripts.
func CompileCondition(cond string) (*vm.Program, error) {
	cond = strings.TrimSpace(cond)
	tree, err := parser.Parse(cond)
	if err != nil {
		return nil, errs.Wrap(errs.ParseError, "parsing template condition", err)
	}
	bin, ok := tree.Node.(*ast.BinaryNode)
	if !ok || (bin.Operator != "==" && bin.Operator != "!=") {
		return nil, errs.Newf(errs.ParseError, "template condition %q must be a single == or != comparison", cond)
	}
	if !isAtom(bin.Left) || !isAtom(bin.Right) {
		return nil, errs.Newf(errs.ParseError, "template condition %q must compare identifiers or literals only", cond)
	}

	program, err := expr.Compile(cond, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, errs.Wrap(errs.ParseError, "compiling template condition", err)
	}
	return program, nil
}

func isAtom(n ast.Node) bool {
	switch n.(type) {
	case *ast.IdentifierNode, *ast.StringNode:
		return true
	default:
		return false
	}
}

// EvalCondition runs a program compiled by CompileCondition against env.
func EvalCondition(program *vm.Program, env map[string]any) (bool, error) {
	out, err := vm.Run(program, env)
	if err != nil {
		return false, errs.Wrap(errs.ParseError, "evaluating template condition", err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, errs.New(errs.ParseError, "template condition did not evaluate to a boolean")
	}
	return b, nil
}
