package pricing

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"180000", 180_000},
		{"1.234.567", 1_234_567},
		{"150.000", 150_000},
		{"1,234,567.50", 1_234_567.5},
		{"1.234.567,89", 1_234_567.89},
		{"12.5", 12.5},
		{"12,5", 12.5},
		{"Rp 150.000", 150_000},
		{"180.000 đ", 180_000},
		{"$1,200", 1_200},
		{"-2.500", -2_500},
		{"(2,500.25)", -2_500.25},
		{"0.125", 0.125},
		{"0,125", 0.125},
		{"Rp -150.000", -150_000},
		{"Rp 150.000-an", 150_000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseAmount(tt.in); !approx(got, tt.want) {
				t.Fatalf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
