// Package profile loads, validates, and resolves redaction profiles:
// named, versioned policies mapping PII kinds to enable flags, confidence
// thresholds, and rendering styles, with deterministic inheritance.
package profile

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wudi/gopnik/pii"
	"gopkg.in/yaml.v3"
)

// PrecedenceNote records which ancestor profile contributed a resolved
// field, for audit reproducibility.
type PrecedenceNote struct {
	Kind          pii.Kind
	Field         string
	SourceProfile string
}

// EffectiveProfile is the fully resolved, immutable result of inheritance
// resolution: every PII rule is concrete, and the resolution path is
// recorded.
type EffectiveProfile struct {
	Name            string
	Version         string
	Rules           map[pii.Kind]RuleSpec
	DefaultStyle    StyleSpec
	ConfidenceFloor float64
	Languages       []string
	PrecedenceNotes []PrecedenceNote
}

// EffectiveRule returns the resolved rule for kind. Deterministic and
// pure.
func (p *EffectiveProfile) EffectiveRule(kind pii.Kind) (RuleSpec, bool) {
	r, ok := p.Rules[kind]
	return r, ok
}

// Store holds named raw profiles prior to resolution, as loaded from
// disk, in a flat map keyed by name, resolved on demand to an immutable
// EffectiveProfile value.
type Store struct {
	raw map[string]rawProfile
}

// NewStore returns an empty profile store.
func NewStore() *Store {
	return &Store{raw: make(map[string]rawProfile)}
}

// LoadYAML parses a YAML-encoded profile document and registers it.
func (s *Store) LoadYAML(data []byte) (string, error) {
	var rp rawProfile
	if err := yaml.Unmarshal(data, &rp); err != nil {
		return "", fmt.Errorf("profile: parse yaml: %w", err)
	}
	return s.register(rp)
}

// LoadJSON parses a JSON-encoded profile document and registers it.
func (s *Store) LoadJSON(data []byte) (string, error) {
	var rp rawProfile
	if err := json.Unmarshal(data, &rp); err != nil {
		return "", fmt.Errorf("profile: parse json: %w", err)
	}
	return s.register(rp)
}

func (s *Store) register(rp rawProfile) (string, error) {
	if rp.Name == "" {
		return "", fmt.Errorf("profile: name is required")
	}
	for key := range rp.PIIRules {
		if !pii.Kind(key).Known() {
			return "", fmt.Errorf("profile: unknown pii kind %q", key)
		}
	}
	s.raw[rp.Name] = rp
	return rp.Name, nil
}

// Resolve walks the inheritance chain for name and produces an
// EffectiveProfile, applying deep-merge base->child resolution, cycle
// detection, and confidence-floor clamping.
func (s *Store) Resolve(name string) (*EffectiveProfile, error) {
	chain, err := s.ancestryChain(name)
	if err != nil {
		return nil, err
	}

	merged := map[pii.Kind]rawRule{}
	notes := []PrecedenceNote{}
	var confidenceFloor float64
	var defaultStyleRaw *rawStyle
	var version string
	var languages []string

	// chain is ordered root-ancestor first, name last; apply in that
	// order so later (more specific) entries override earlier ones.
	for _, link := range chain {
		rp := s.raw[link]
		if rp.Version != "" {
			version = rp.Version
		}
		if rp.ConfidenceFloor > confidenceFloor {
			confidenceFloor = rp.ConfidenceFloor
		}
		if rp.DefaultStyle != nil {
			defaultStyleRaw = rp.DefaultStyle
		}
		if len(rp.Languages) > 0 {
			languages = rp.Languages
		}
		kinds := make([]string, 0, len(rp.PIIRules))
		for k := range rp.PIIRules {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			kind := pii.Kind(k)
			child := rp.PIIRules[k]
			prev, existed := merged[kind]
			var base *rawRule
			if existed {
				base = &prev
			}
			result := mergeRule(base, &child)
			merged[kind] = result
			notes = append(notes, precedenceNotesFor(kind, base, &child, link)...)
		}
	}

	defaultStyle := StyleSpec(SolidStyle{Color: [3]uint8{0, 0, 0}})
	if defaultStyleRaw != nil {
		ds, err := styleFromRaw(*defaultStyleRaw)
		if err != nil {
			return nil, err
		}
		defaultStyle = ds
	}

	rules := make(map[pii.Kind]RuleSpec, len(merged))
	for kind, raw := range merged {
		enabled := false
		if raw.Enabled != nil {
			enabled = *raw.Enabled
		}
		minConf := confidenceFloor
		if raw.MinConfidence != nil {
			minConf = *raw.MinConfidence
		}
		if minConf < 0 || minConf > 1 {
			return nil, fmt.Errorf("profile: min_confidence for %q out of [0,1]: %v", kind, minConf)
		}
		if minConf < confidenceFloor {
			minConf = confidenceFloor
		}
		style := defaultStyle
		if raw.Style != nil {
			st, err := styleFromRaw(*raw.Style)
			if err != nil {
				return nil, err
			}
			style = st
		}
		rules[kind] = RuleSpec{Enabled: enabled, MinConfidence: minConf, Style: style}
	}

	return &EffectiveProfile{
		Name:            name,
		Version:         version,
		Rules:           rules,
		DefaultStyle:    defaultStyle,
		ConfidenceFloor: confidenceFloor,
		Languages:       languages,
		PrecedenceNotes: notes,
	}, nil
}

// ancestryChain returns [root, ..., name] or an error if name is unknown
// or the chain contains a cycle.
func (s *Store) ancestryChain(name string) ([]string, error) {
	visited := map[string]bool{}
	var chain []string
	cur := name
	for {
		if visited[cur] {
			return nil, fmt.Errorf("profile: inheritance cycle detected at %q", cur)
		}
		visited[cur] = true
		rp, ok := s.raw[cur]
		if !ok {
			return nil, fmt.Errorf("profile: unknown profile %q", cur)
		}
		chain = append([]string{cur}, chain...)
		if rp.Base == "" {
			return chain, nil
		}
		cur = rp.Base
	}
}

func precedenceNotesFor(kind pii.Kind, base, child *rawRule, sourceProfile string) []PrecedenceNote {
	var notes []PrecedenceNote
	if child.Enabled != nil {
		notes = append(notes, PrecedenceNote{Kind: kind, Field: "enabled", SourceProfile: sourceProfile})
	}
	if child.MinConfidence != nil {
		notes = append(notes, PrecedenceNote{Kind: kind, Field: "min_confidence", SourceProfile: sourceProfile})
	}
	if child.Style != nil {
		notes = append(notes, PrecedenceNote{Kind: kind, Field: "style", SourceProfile: sourceProfile})
	}
	return notes
}
