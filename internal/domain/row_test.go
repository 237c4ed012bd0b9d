package domain

import (
	"slices"
	"testing"
)

func TestNewRow(t *testing.T) {
	tests := []struct {
		name  string
		rec   MapRecord
		links []string
		want  Row
	}{
		{
			name:  "configured order not record order",
			rec:   MapRecord{"id": "BR1", "b": "http://b", "a": "http://a"},
			links: []string{"b", "a"},
			want:  Row{Name: "BR1", Candidates: []string{"http://b", "http://a"}},
		},
		{
			name:  "null markers dropped",
			rec:   MapRecord{"id": "BR2", "a": "nan", "b": "", "c": "http://c", "d": "NaN"},
			links: []string{"a", "b", "c", "d"},
			want:  Row{Name: "BR2", Candidates: []string{"http://c"}},
		},
		{
			name:  "missing field dropped",
			rec:   MapRecord{"id": "BR3", "a": "http://a"},
			links: []string{"a", "absent"},
			want:  Row{Name: "BR3", Candidates: []string{"http://a"}},
		},
		{
			name:  "all null",
			rec:   MapRecord{"id": "BR4", "a": " ", "b": "nan"},
			links: []string{"a", "b"},
			want:  Row{Name: "BR4"},
		},
		{
			name:  "name kept verbatim, links trimmed",
			rec:   MapRecord{"id": " BR5 ", "a": " http://a\t"},
			links: []string{"a"},
			want:  Row{Name: " BR5 ", Candidates: []string{"http://a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRow(tt.rec, "id", tt.links)
			if got.Name != tt.want.Name {
				t.Errorf("Name = %q, want %q", got.Name, tt.want.Name)
			}
			if !slices.Equal(got.Candidates, tt.want.Candidates) {
				t.Errorf("Candidates = %v, want %v", got.Candidates, tt.want.Candidates)
			}
		})
	}
}

func TestIsNull(t *testing.T) {
	for _, v := range []string{"", "  ", "nan", "NaN", "NAN"} {
		if !IsNull(v) {
			t.Errorf("IsNull(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"http://x", "banana", "0"} {
		if IsNull(v) {
			t.Errorf("IsNull(%q) = true, want false", v)
		}
	}
}
