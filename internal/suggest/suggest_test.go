package suggest

import "testing"

func TestClosest(t *testing.T) {
	candidates := []string{"time", "timezone", "duration", "amount-of-money"}
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exact", "time", "time"},
		{"typo", "tiem", "time"},
		{"case", "DURATON", "duration"},
		{"too far", "spaceship", ""},
		{"empty", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Closest(tt.input, candidates); got != tt.want {
				t.Errorf("Closest(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
