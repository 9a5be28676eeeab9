package session

import "testing"

func TestChanged(t *testing.T) {
	tests := []struct {
		name     string
		previous []string
		current  []string
		want     bool
	}{
		{"both nil", nil, nil, false},
		{"nil vs empty", nil, []string{}, false},
		{"identical single", []string{"C:\\>"}, []string{"C:\\>"}, false},
		{"identical multi", []string{"a", "b", "c"}, []string{"a", "b", "c"}, false},
		{"grew", []string{"a"}, []string{"a", "b"}, true},
		{"shrank", []string{"a", "b"}, []string{"a"}, true},
		{"element differs", []string{"a", "b"}, []string{"a", "c"}, true},
		{"first element differs", []string{"a", "b"}, []string{"x", "b"}, true},
		{"empty line padding counts", []string{"a", ""}, []string{"a"}, true},
		{"whitespace not normalized", []string{"a "}, []string{"a"}, true},
		{"nil vs content", nil, []string{"a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Changed(tt.previous, tt.current); got != tt.want {
				t.Errorf("Changed(%q, %q) = %v, want %v", tt.previous, tt.current, got, tt.want)
			}
		})
	}
}

func TestChangedIsSymmetricOnInequality(t *testing.T) {
	a := []string{"one", "two"}
	b := []string{"one"}

	if !Changed(a, b) || !Changed(b, a) {
		t.Error("inequality must be detected in both directions")
	}
}
