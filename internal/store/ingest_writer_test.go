package store

import "testing"

func TestSuppressGeoRow(t *testing.T) {
	cases := []struct {
		scope, geo string
		want       bool
	}{
		{"region", "US", true},
		{"states", "US", false},
		{"country", "US", false},
		{"dma", "US", false},
		{"region", "GB", false},
	}
	for _, c := range cases {
		if got := suppressGeoRow(c.scope, c.geo); got != c.want {
			t.Errorf("suppressGeoRow(%q, %q) = %v, want %v", c.scope, c.geo, got, c.want)
		}
	}
}
