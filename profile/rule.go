package profile

// RuleSpec controls whether a PII kind is redacted, the confidence floor
// at which a detection of that kind is honored, and the rendering style
// used when it is.
type RuleSpec struct {
	Enabled      bool
	MinConfidence float64
	Style        StyleSpec
}

// rawRule/rawStyle mirror the on-disk (YAML/JSON) shape before validation
// and inheritance resolution produce a RuleSpec.
type rawRule struct {
	Enabled       *bool     `yaml:"enabled" json:"enabled"`
	MinConfidence *float64  `yaml:"min_confidence" json:"min_confidence"`
	Style         *rawStyle `yaml:"style" json:"style"`
}

type rawStyle struct {
	Type       string    `yaml:"type" json:"type"`
	Color      *[3]uint8 `yaml:"color" json:"color"`
	BlockPx    int       `yaml:"block_px" json:"block_px"`
	RadiusPx   int       `yaml:"radius_px" json:"radius_px"`
	Iterations int       `yaml:"iterations" json:"iterations"`
	PatternID  string    `yaml:"pattern_id" json:"pattern_id"`
}

type rawProfile struct {
	Name            string              `yaml:"name" json:"name"`
	Version         string              `yaml:"version" json:"version"`
	Base            string              `yaml:"base" json:"base"`
	PIIRules        map[string]rawRule  `yaml:"pii_rules" json:"pii_rules"`
	DefaultStyle    *rawStyle           `yaml:"default_style" json:"default_style"`
	ConfidenceFloor float64             `yaml:"confidence_floor" json:"confidence_floor"`
	Languages       []string            `yaml:"languages" json:"languages"`
}

// mergeRule computes the merge of a parent rule and a child rule,
// where any field the child specifies wins (deep-merge, child overrides).
func mergeRule(base, child *rawRule) rawRule {
	out := rawRule{}
	if base != nil {
		out = *base
	}
	if child == nil {
		return out
	}
	if child.Enabled != nil {
		out.Enabled = child.Enabled
	}
	if child.MinConfidence != nil {
		out.MinConfidence = child.MinConfidence
	}
	if child.Style != nil {
		out.Style = child.Style
	}
	return out
}
