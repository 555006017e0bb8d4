package sheet

import "testing"

func TestChunks(t *testing.T) {
	mk := func(n int) []RowUpdate {
		out := make([]RowUpdate, n)
		for i := range out {
			out[i] = RowUpdate{Row: i + 2}
		}
		return out
	}

	tests := []struct {
		name      string
		updates   int
		size      int
		wantSizes []int
	}{
		{"empty", 0, 30, nil},
		{"under one batch", 7, 30, []int{7}},
		{"exactly one batch", 30, 30, []int{30}},
		{"one over", 31, 30, []int{30, 1}},
		{"several batches", 95, 30, []int{30, 30, 30, 5}},
		{"non-positive size", 5, 0, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunks := Chunks(mk(tc.updates), tc.size)
			if len(chunks) != len(tc.wantSizes) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tc.wantSizes))
			}
			next := 2
			for i, chunk := range chunks {
				if len(chunk) != tc.wantSizes[i] {
					t.Errorf("chunk %d has %d updates, want %d", i, len(chunk), tc.wantSizes[i])
				}
				for _, u := range chunk {
					if u.Row != next {
						t.Fatalf("chunk %d out of order: row %d, want %d", i, u.Row, next)
					}
					next++
				}
			}
		})
	}
}
