package icp

import "testing"

func TestFormatICP(t *testing.T) {
	cases := []struct {
		e8s  uint64
		want string
	}{
		{0, "0.00000000"},
		{1, "0.00000001"},
		{10_000, "0.00010000"},
		{100_000_000, "1.00000000"},
		{123_456_789, "1.23456789"},
		{100_000_000_000_000, "1000000.00000000"},
	}
	for _, tc := range cases {
		if got := FormatICP(tc.e8s); got != tc.want {
			t.Errorf("FormatICP(%d) = %q, want %q", tc.e8s, got, tc.want)
		}
	}
}
