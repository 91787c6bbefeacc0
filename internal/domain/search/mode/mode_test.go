package mode

import "testing"

func TestIsValid(t *testing.T) {
	for _, m := range All() {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "react", "langchain", "DIRECT"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"", Direct, true},
		{"A", Direct, true},
		{"b", Reasoning, true},
		{" Reasoning ", Reasoning, true},
		{"direct", Direct, true},
		{"c", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Parse(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestConstants(t *testing.T) {
	if Direct != "direct" {
		t.Errorf("Direct = %q", Direct)
	}
	if Reasoning != "reasoning" {
		t.Errorf("Reasoning = %q", Reasoning)
	}
}
