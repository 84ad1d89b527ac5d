package metnet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseGeneRuleEval(t *testing.T) {
	cases := []struct {
		name   string
		rule   string
		active map[string]bool
		want   bool
	}{
		{"single active", "b0001", map[string]bool{"b0001": true}, true},
		{"single inactive", "b0001", map[string]bool{"b0001": false}, false},
		{"unknown gene assumed functional", "b0001", map[string]bool{}, true},
		{"and requires all", "b0001 and b0002", map[string]bool{"b0001": true, "b0002": false}, false},
		{"or needs one", "b0001 or b0002", map[string]bool{"b0001": false, "b0002": true}, true},
		{"complex dead", "(b0902 and b0903) or b3952", map[string]bool{"b0902": true, "b0903": false, "b3952": false}, false},
		{"complex alive via pair", "(b0902 and b0903) or b3952", map[string]bool{"b0902": true, "b0903": true, "b3952": false}, true},
		{"case insensitive operators", "b0001 AND b0002 OR b0003", map[string]bool{"b0001": false, "b0002": false, "b0003": true}, true},
		{"empty rule", "", map[string]bool{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := ParseGeneRule(tc.rule)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.rule, err)
			}
			if got := rule.Eval(tc.active); got != tc.want {
				t.Errorf("Eval(%q, %v) = %v, want %v", tc.rule, tc.active, got, tc.want)
			}
		})
	}
}

func TestParseGeneRuleGenes(t *testing.T) {
	rule, err := ParseGeneRule("(b0902 and b0903) or b3952 or b0902")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"b0902", "b0903", "b3952"}
	if diff := cmp.Diff(want, rule.Genes()); diff != "" {
		t.Errorf("Genes() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGeneRuleErrors(t *testing.T) {
	for _, expr := range []string{"and", "b0001 and", "(b0001", "b0001 b0002", ")"} {
		if _, err := ParseGeneRule(expr); err == nil {
			t.Errorf("ParseGeneRule(%q) succeeded, want error", expr)
		}
	}
}
