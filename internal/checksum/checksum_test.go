package checksum

import "testing"

func TestSum(t *testing.T) {
	// SHA-256 of the empty string.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum([]byte{}); got != empty {
		t.Errorf("Sum(empty) = %q", got)
	}
	if Of(nil) != "" {
		t.Error("Of(nil) should be empty")
	}
	if Of([]byte{}) != empty {
		t.Error("Of(empty) should hash")
	}
}

func TestMatches(t *testing.T) {
	data := []byte("| ISBN |\n")
	sum := Sum(data)
	tests := []struct {
		token string
		data  []byte
		want  bool
	}{
		{sum, data, true},
		{`"` + sum + `"`, data, true},
		{" " + sum + " ", data, true},
		{"stale", data, false},
		{sum, nil, false},
		{"", data, false},
	}
	for _, tt := range tests {
		if got := Matches(tt.token, tt.data); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}
