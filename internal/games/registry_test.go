package games

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"gamble", ActionGamble, true},
		{"  Casino ", ActionGamble, true},
		{"JOB", ActionWork, true},
		{"friend", ActionHelp, true},
		{"pay", ActionRepay, true},
		{"reset", ActionReset, true},
		{"teleport", "", false},
	}
	for _, tt := range tests {
		spec, ok := Lookup(tt.in)
		if ok != tt.ok || spec.ID != tt.want {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.in, spec.ID, ok, tt.want, tt.ok)
		}
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"wrok", ActionWork, true},
		{"gambel", ActionGamble, true},
		{"credt", ActionCredit, true},
		{"xyzzyplugh", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Suggest(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEveryActionHasEngineMethod(t *testing.T) {
	e := NewEngine(DefaultRules(), nil)
	for _, spec := range Actions() {
		if _, ok := e.Action(spec.ID); !ok {
			t.Errorf("action %q has no engine method", spec.ID)
		}
	}
	if _, ok := e.Action("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}
