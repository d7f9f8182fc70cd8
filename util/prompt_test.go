package util

import (
	"strings"
	"testing"
)

func TestPromptYN(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"Y\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"", true, true},
		{"maybe\n", true, false},
	}
	for _, tt := range tests {
		var out strings.Builder
		p := Prompter{In: strings.NewReader(tt.input), Out: &out}
		if got := p.YN("Overwrite?", tt.def); got != tt.want {
			t.Errorf("YN(%q, %v) = %v, want %v", tt.input, tt.def, got, tt.want)
		}
		if !strings.HasPrefix(out.String(), "Overwrite? (") {
			t.Errorf("prompt written as %q", out.String())
		}
	}
}
