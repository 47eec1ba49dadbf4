package services

import "testing"

func TestComputeInitials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two words", "Ana García", "AG"},
		{"single word", "madonna", "M"},
		{"three words keeps two", "Ana María García", "AM"},
		{"empty", "", "?"},
		{"whitespace only", "   ", "?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeInitials(tt.in); got != tt.want {
				t.Fatalf("computeInitials(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorForIsDeterministic(t *testing.T) {
	as := &avatarService{bgColors: defaultAvatarColors}
	first := as.colorFor("user-1")
	for i := 0; i < 5; i++ {
		if as.colorFor("user-1") != first {
			t.Fatal("same id must always map to the same color")
		}
	}
}
