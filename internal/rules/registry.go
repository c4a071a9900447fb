package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claimlens/claimlens/internal/model"
)

// Registry holds every insurer's rule set, loaded once at startup and
// read-only afterward. Safe for concurrent readers; passed by reference
// into the engine — no singleton lookup.
type Registry struct {
	sets map[string]*model.RuleSet
}

// LoadRegistry reads every *.yaml / *.yml file in dir as one insurer's rule
// set. Bad or unparseable files surface ErrConfiguration.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read rules dir %s: %v", model.ErrConfiguration, dir, err)
	}

	reg := &Registry{sets: make(map[string]*model.RuleSet)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", model.ErrConfiguration, path, err)
		}

		var rs model.RuleSet
		if err := yaml.Unmarshal(data, &rs); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", model.ErrConfiguration, path, err)
		}
		if err := validateRuleSet(&rs); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrConfiguration, path, err)
		}

		reg.sets[NormalizeInsurer(rs.Insurer)] = &rs
	}

	return reg, nil
}

// Get looks up an insurer's rule set. Name matching is case- and
// space-insensitive ("BlueCross PPO" finds bluecross_ppo).
func (r *Registry) Get(insurer string) (*model.RuleSet, error) {
	rs, ok := r.sets[NormalizeInsurer(insurer)]
	if !ok {
		return nil, fmt.Errorf("%w: no rule set for insurer %q (known: %s)",
			model.ErrConfiguration, insurer, strings.Join(r.Insurers(), ", "))
	}
	return rs, nil
}

// Insurers lists the loaded insurer keys, sorted
func (r *Registry) Insurers() []string {
	keys := make([]string, 0, len(r.sets))
	for k := range r.sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeInsurer canonicalizes an insurer name for lookup
func NormalizeInsurer(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func validateRuleSet(rs *model.RuleSet) error {
	if rs.Insurer == "" {
		return fmt.Errorf("missing insurer name")
	}
	if len(rs.Rules) == 0 {
		return fmt.Errorf("rule set for %q has no rules", rs.Insurer)
	}

	seen := make(map[string]bool)
	for i, rule := range rs.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule %d: missing id", i)
		}
		if seen[rule.ID] {
			return fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true

		if rule.Field == "" {
			return fmt.Errorf("rule %s: missing field", rule.ID)
		}
		if rule.Severity < model.SeverityLow || rule.Severity > model.SeverityCritical {
			return fmt.Errorf("rule %s: severity %d out of range 1..5", rule.ID, rule.Severity)
		}

		switch rule.Constraint {
		case model.ConstraintNone:
		case model.ConstraintEquals, model.ConstraintMin, model.ConstraintMax:
			if rule.Value == "" {
				return fmt.Errorf("rule %s: constraint %q requires value", rule.ID, rule.Constraint)
			}
		case model.ConstraintOneOf:
			if len(rule.Values) == 0 {
				return fmt.Errorf("rule %s: one_of requires values", rule.ID)
			}
		case model.ConstraintMatches:
			if _, err := regexp.Compile(rule.Value); err != nil {
				return fmt.Errorf("rule %s: bad pattern: %v", rule.ID, err)
			}
		default:
			return fmt.Errorf("rule %s: unknown constraint %q", rule.ID, rule.Constraint)
		}
	}
	return nil
}
