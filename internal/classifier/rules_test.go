package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
)

func TestLoadRulesMissingFileUsesDefaults(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if !reflect.DeepEqual(rules, DefaultRules()) {
		t.Fatal("expected default rules for a missing file")
	}

	rules, err = LoadRules("")
	if err != nil || !reflect.DeepEqual(rules, DefaultRules()) {
		t.Fatalf("expected defaults for empty path, err=%v", err)
	}
}

func TestLoadRulesMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
phishing_keywords: ["lottery", "gift card"]
suspicious_domains: ["evil.example"]
fallbacks: ["Ask me later."]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if !reflect.DeepEqual(rules.PhishingKeywords, []string{"lottery", "gift card"}) {
		t.Fatalf("unexpected keywords: %v", rules.PhishingKeywords)
	}
	if rules.EmailHighThreshold != 3 || rules.EmailMediumThreshold != 1 {
		t.Fatalf("thresholds should keep defaults, got %d/%d", rules.EmailHighThreshold, rules.EmailMediumThreshold)
	}
	if len(rules.DemoPorts) != 4 {
		t.Fatalf("demo ports should keep defaults, got %v", rules.DemoPorts)
	}
	if !reflect.DeepEqual(rules.Fallbacks, []string{"Ask me later."}) {
		t.Fatalf("unexpected fallbacks: %v", rules.Fallbacks)
	}

	c := New(rules)
	if v := c.EvaluateURL("https://EVIL.example/x"); v.Risk != "High" {
		t.Fatalf("override domain not applied: %+v", v)
	}
}

func TestParseRulesRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":           "phishing_keywords: [unterminated",
		"inverted threshold": "email_high_threshold: 1\nemail_medium_threshold: 2\n",
		"empty response":     "responses:\n  - keyword: \"\"\n    answer: hi\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRules([]byte(doc)); !errors.Is(err, sharedErrors.ErrInvalidRules) {
				t.Fatalf("expected ErrInvalidRules, got %v", err)
			}
		})
	}
}

func TestDefaultRulesValidate(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
}
