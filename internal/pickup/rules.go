// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package pickup routes incoming items into vaults according to
// per-vault allow/deny rules. Deny always wins: a vault whose deny
// rules match an item refuses it no matter what its allow rules say.
package pickup

import (
	"regexp"
	"strings"

	"github.com/stratavault/strata/internal/logging"
	"github.com/stratavault/strata/internal/model"
)

// Decision is the outcome of evaluating a vault's rules for one item.
type Decision int

const (
	// NoDecision means no rule matched; the vault neither accepts nor
	// refuses the item.
	NoDecision Decision = iota
	// Accept means an allow rule matched and no deny rule did.
	Accept
	// Refuse means a deny rule matched.
	Refuse
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Refuse:
		return "refuse"
	}
	return "no-decision"
}

// Evaluate runs the vault's rules against the item. Deny rules are
// checked first and short-circuit: one deny match refuses regardless of
// any allow rules.
func Evaluate(rules []model.PickupRule, item model.Item) Decision {
	for _, r := range rules {
		if r.Kind == model.RuleDeny && ruleMatches(r.Match, item) {
			return Refuse
		}
	}
	for _, r := range rules {
		if r.Kind == model.RuleAllow && ruleMatches(r.Match, item) {
			return Accept
		}
	}
	return NoDecision
}

// ruleMatches evaluates one match expression. Expressions select a field
// with a prefix; a bare expression is a substring match on the name.
// All plain matches are case-insensitive. A malformed regex matches
// nothing.
//
//	kind:<s>        whole item kind, equality
//	name:<s>        substring of the item name
//	label:<s>       substring of any label
//	regex:<re>      regexp on the item name
//	regex-label:<re> regexp on any label
func ruleMatches(expr string, item model.Item) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false
	}
	switch {
	case strings.HasPrefix(expr, "kind:"):
		// Kinds form a closed vocabulary. A substring match here would
		// let deny rules over-match related kinds, so require equality.
		return strings.EqualFold(item.Kind, strings.TrimSpace(expr[len("kind:"):]))
	case strings.HasPrefix(expr, "name:"):
		return containsFold(item.Name, expr[len("name:"):])
	case strings.HasPrefix(expr, "label:"):
		return anyLabelContains(item.Labels, expr[len("label:"):])
	case strings.HasPrefix(expr, "regex:"):
		re, err := compileFold(expr[len("regex:"):])
		if err != nil {
			logging.Debugf("pickup: bad regex %q: %v", expr, err)
			return false
		}
		return re.MatchString(item.Name)
	case strings.HasPrefix(expr, "regex-label:"):
		re, err := compileFold(expr[len("regex-label:"):])
		if err != nil {
			logging.Debugf("pickup: bad regex %q: %v", expr, err)
			return false
		}
		for _, l := range item.Labels {
			if re.MatchString(l) {
				return true
			}
		}
		return false
	default:
		return containsFold(item.Name, expr)
	}
}

// compileFold compiles a pattern case-insensitively, like every other
// match form here.
func compileFold(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func anyLabelContains(labels []string, needle string) bool {
	for _, l := range labels {
		if containsFold(l, needle) {
			return true
		}
	}
	return false
}
