package service

import "testing"

func TestPercentChange(t *testing.T) {
	tests := []struct {
		cur, prev int64
		want      string
	}{
		{0, 0, "0%"},
		{5, 0, "new"},
		{3, 2, "+50%"},
		{1, 3, "-67%"},
		{2, 2, "0%"},
		{0, 4, "-100%"},
	}

	for _, tt := range tests {
		if got := percentChange(tt.cur, tt.prev); got != tt.want {
			t.Fatalf("percentChange(%d, %d) = %q, want %q", tt.cur, tt.prev, got, tt.want)
		}
	}
}
