// Package synonym implements the domain term expander: trigger phrases found in
// user input pull in related terms before matching.
package synonym

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Rule maps one trigger phrase to its expansion phrases.
type Rule struct {
	Term       string   `yaml:"term" toml:"term"`
	Expansions []string `yaml:"expansions" toml:"expansions"`
}

// Table is an immutable, ordered synonym dictionary.
type Table struct {
	rules []Rule
}

// file is the on-disk layout shared by the YAML and TOML formats.
type file struct {
	Synonyms []Rule `yaml:"synonyms" toml:"synonyms"`
}

// New creates a table. Terms are lowercased; rules with an empty term or no
// expansions are dropped. Input order is kept so expansion is deterministic.
func New(rules []Rule) Table {
	kept := make([]Rule, 0, len(rules))
	for _, r := range rules {
		term := strings.ToLower(strings.TrimSpace(r.Term))
		if term == "" || len(r.Expansions) == 0 {
			continue
		}
		exp := make([]string, len(r.Expansions))
		copy(exp, r.Expansions)
		kept = append(kept, Rule{Term: term, Expansions: exp})
	}
	return Table{rules: kept}
}

// Load reads a table from a .yaml/.yml or .toml file.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Table{}, fmt.Errorf("read synonyms %s: %w", path, err)
	}

	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Table{}, fmt.Errorf("parse synonyms yaml: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return Table{}, fmt.Errorf("parse synonyms toml: %w", err)
		}
	default:
		return Table{}, fmt.Errorf("unsupported synonyms format %q", filepath.Ext(path))
	}
	return New(f.Synonyms), nil
}

// Len returns the number of rules.
func (t Table) Len() int { return len(t.rules) }

// Rules returns a copy of the rules in table order.
func (t Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		exp := make([]string, len(r.Expansions))
		copy(exp, r.Expansions)
		out[i] = Rule{Term: r.Term, Expansions: exp}
	}
	return out
}

// Expand lowercases s and, for every term contained in it, appends that
// term's expansions separated by spaces.
func (t Table) Expand(s string) string {
	lower := strings.ToLower(s)
	var b strings.Builder
	b.WriteString(lower)
	for _, r := range t.rules {
		if strings.Contains(lower, r.Term) {
			b.WriteByte(' ')
			b.WriteString(strings.Join(r.Expansions, " "))
		}
	}
	return b.String()
}

// Fired returns the terms of t that Expand would act on for s.
func (t Table) Fired(s string) []string {
	lower := strings.ToLower(s)
	var out []string
	for _, r := range t.rules {
		if strings.Contains(lower, r.Term) {
			out = append(out, r.Term)
		}
	}
	return out
}
