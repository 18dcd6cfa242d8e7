package profile

import (
	"testing"

	"github.com/wudi/gopnik/pii"
)

const defaultProfileYAML = `
name: default
version: "1"
confidence_floor: 0.5
pii_rules:
  person_name:
    enabled: true
    min_confidence: 0.7
  email:
    enabled: true
    min_confidence: 0.7
  phone:
    enabled: true
    min_confidence: 0.7
default_style:
  type: solid
  color: [0, 0, 0]
`

func TestResolveSimple(t *testing.T) {
	s := NewStore()
	if _, err := s.LoadYAML([]byte(defaultProfileYAML)); err != nil {
		t.Fatalf("load: %v", err)
	}
	eff, err := s.Resolve("default")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	rule, ok := eff.EffectiveRule(pii.KindEmail)
	if !ok || !rule.Enabled || rule.MinConfidence != 0.7 {
		t.Fatalf("unexpected email rule: %+v ok=%v", rule, ok)
	}
}

func TestInheritanceOverrideAndDisable(t *testing.T) {
	// A child profile disables email while inheriting the rest from default.
	s := NewStore()
	if _, err := s.LoadYAML([]byte(defaultProfileYAML)); err != nil {
		t.Fatalf("load default: %v", err)
	}
	childYAML := `
name: no_email
base: default
pii_rules:
  email:
    enabled: false
`
	if _, err := s.LoadYAML([]byte(childYAML)); err != nil {
		t.Fatalf("load child: %v", err)
	}
	eff, err := s.Resolve("no_email")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	emailRule, ok := eff.EffectiveRule(pii.KindEmail)
	if !ok || emailRule.Enabled {
		t.Fatalf("expected email disabled, got %+v", emailRule)
	}
	nameRule, ok := eff.EffectiveRule(pii.KindPersonName)
	if !ok || !nameRule.Enabled {
		t.Fatalf("expected person_name still enabled from ancestor, got %+v ok=%v", nameRule, ok)
	}
}

func TestInheritanceCycleRejected(t *testing.T) {
	s := NewStore()
	if _, err := s.LoadYAML([]byte("name: a\nbase: b\n")); err != nil {
		t.Fatalf("load a: %v", err)
	}
	if _, err := s.LoadYAML([]byte("name: b\nbase: a\n")); err != nil {
		t.Fatalf("load b: %v", err)
	}
	if _, err := s.Resolve("a"); err == nil {
		t.Fatalf("expected cycle error")
	}
}

func TestUnknownKindRejected(t *testing.T) {
	s := NewStore()
	_, err := s.LoadYAML([]byte("name: bad\npii_rules:\n  not_a_kind:\n    enabled: true\n"))
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestConfidenceFloorClampsRules(t *testing.T) {
	yamlDoc := `
name: strict
confidence_floor: 0.9
pii_rules:
  email:
    enabled: true
    min_confidence: 0.5
`
	s := NewStore()
	if _, err := s.LoadYAML([]byte(yamlDoc)); err != nil {
		t.Fatalf("load: %v", err)
	}
	eff, err := s.Resolve("strict")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	rule, _ := eff.EffectiveRule(pii.KindEmail)
	if rule.MinConfidence != 0.9 {
		t.Fatalf("expected floor-clamped min_confidence 0.9, got %v", rule.MinConfidence)
	}
}
