package scan

import "testing"

func TestIndexFrom(t *testing.T) {
	buf := []byte{0, 0, 0xFF, 0xFF, 1, 0, 0, 0xFF, 0xFF}
	pat := []byte{0, 0, 0xFF, 0xFF}

	tests := []struct {
		name string
		from int
		want int
	}{
		{"from start", 0, 0},
		{"skip first", 1, 5},
		{"at second", 5, 5},
		{"past last", 6, -1},
		{"negative from", -3, 0},
		{"beyond buffer", 100, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IndexFrom(buf, pat, tt.from); got != tt.want {
				t.Errorf("IndexFrom(%d) = %d, want %d", tt.from, got, tt.want)
			}
		})
	}
}

// A partial match immediately followed by the real one must not be missed.
func TestIndexFromOverlappingPrefix(t *testing.T) {
	buf := []byte{0, 0, 0, 1, 0}
	if got := IndexFrom(buf, []byte{0, 0, 1}, 0); got != 1 {
		t.Errorf("IndexFrom = %d, want 1", got)
	}
}

func TestLastIndex(t *testing.T) {
	buf := []byte{9, 1, 2, 3, 9, 1, 2, 3, 9}
	pat := []byte{1, 2, 3}

	if got := LastIndex(buf, pat); got != 5 {
		t.Errorf("LastIndex = %d, want 5", got)
	}
	if got := LastIndexBefore(buf, pat, 7); got != 1 {
		t.Errorf("LastIndexBefore(7) = %d, want 1", got)
	}
	if got := LastIndexBefore(buf, pat, 8); got != 5 {
		t.Errorf("LastIndexBefore(8) = %d, want 5", got)
	}
	if got := LastIndexBefore(buf, pat, 2); got != -1 {
		t.Errorf("LastIndexBefore(2) = %d, want -1", got)
	}
	if got := LastIndex(buf, nil); got != -1 {
		t.Errorf("LastIndex(empty) = %d, want -1", got)
	}
}
