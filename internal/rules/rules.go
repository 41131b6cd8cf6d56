// Package rules loads and validates compliance rule sets from YAML or
// JSON files. Rule extraction from policy documents happens upstream;
// this package only enforces the rule input contract.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/complyscan/complyscan/internal/types"
)

// ruleFile is the on-disk shape: either a bare list or a "rules:" map.
type ruleFile struct {
	Rules []types.Rule `yaml:"rules" json:"rules"`
}

// LoadFile reads a rule set from path. The format is chosen by
// extension: .json is JSON, everything else is YAML. Category strings are
// normalized onto the closed rule-type set.
func LoadFile(path string) ([]types.Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []types.Rule
	if strings.EqualFold(filepath.Ext(path), ".json") {
		rules, err = parse(b, json.Unmarshal)
	} else {
		rules, err = parse(b, yaml.Unmarshal)
	}
	if err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	for i := range rules {
		rules[i].Type = types.ParseRuleType(string(rules[i].Type))
	}
	return rules, nil
}

func parse(b []byte, unmarshal func([]byte, any) error) ([]types.Rule, error) {
	// A non-nil slice means the wrapped key was present, even when its
	// list is empty; zero rules is a valid file.
	var wrapped ruleFile
	if err := unmarshal(b, &wrapped); err == nil && wrapped.Rules != nil {
		return wrapped.Rules, nil
	}
	var list []types.Rule
	if err := unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

var validSeverities = map[types.Severity]bool{
	types.SevCritical: true,
	types.SevHigh:     true,
	types.SevMed:      true,
	types.SevLow:      true,
}

// Validate reports contract issues with a single rule. An empty result
// means the rule is usable.
func Validate(r types.Rule) []string {
	var issues []string
	if r.ID == "" {
		issues = append(issues, "missing required field: id")
	}
	if r.Type == "" {
		issues = append(issues, "missing required field: type")
	}
	if r.Text == "" {
		issues = append(issues, "missing required field: text")
	}
	if r.Severity != "" && !validSeverities[r.Severity] {
		issues = append(issues, fmt.Sprintf("invalid severity: %s", r.Severity))
	}
	if r.RetentionValue < 0 {
		issues = append(issues, fmt.Sprintf("negative retention value: %d", r.RetentionValue))
	}
	return issues
}

// ValidateAll validates a rule set and returns issues keyed by rule ID
// (or list position for rules without one).
func ValidateAll(rs []types.Rule) map[string][]string {
	out := map[string][]string{}
	for i, r := range rs {
		issues := Validate(r)
		if len(issues) == 0 {
			continue
		}
		key := r.ID
		if key == "" {
			key = fmt.Sprintf("rule[%d]", i)
		}
		out[key] = issues
	}
	return out
}
