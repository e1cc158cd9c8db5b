package search

import "testing"

func TestListsAndProbesFor(t *testing.T) {
	tests := []struct {
		name      string
		rows      int64
		wantLists int
		wantProbe int
	}{
		{"zero rows", 0, 1, 10},
		{"one row", 1, 1, 10},
		{"30k colors", 30_000, 30, 10},
		{"250k rows", 250_000, 250, 15},
		{"1M rows", 1_000_000, 1000, 31},
		{"4M rows", 4_000_000, 2000, 44},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ListsFor(tt.rows); got != tt.wantLists {
				t.Errorf("ListsFor(%d) = %d, want %d", tt.rows, got, tt.wantLists)
			}
			if got := ProbesFor(tt.rows); got != tt.wantProbe {
				t.Errorf("ProbesFor(%d) = %d, want %d", tt.rows, got, tt.wantProbe)
			}
		})
	}
}
