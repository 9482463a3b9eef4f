package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		want       float64
		tolerance  float64
	}{
		{
			name: "Same point",
			lat1: 43.6532, lon1: -79.3832,
			lat2: 43.6532, lon2: -79.3832,
			want:      0,
			tolerance: 0.001,
		},
		{
			name: "Toronto to Mississauga city centre",
			lat1: 43.6532, lon1: -79.3832,
			lat2: 43.5890, lon2: -79.6441,
			want:      22000,
			tolerance: 1500,
		},
		{
			name: "Short hop within downtown",
			lat1: 43.6532, lon1: -79.3832,
			lat2: 43.6544, lon2: -79.3807,
			want:      240,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestDistanceMetersSymmetric(t *testing.T) {
	d1 := DistanceMeters(43.65, -79.38, 43.70, -79.40)
	d2 := DistanceMeters(43.70, -79.40, 43.65, -79.38)
	assert.InDelta(t, d1, d2, 0.0001)
}

func TestDistanceMetersNaN(t *testing.T) {
	// NaN coordinates must poison the result, never coerce to zero
	got := DistanceMeters(math.NaN(), -79.38, 43.65, -79.38)
	assert.True(t, math.IsNaN(got))

	got = DistanceMeters(43.65, -79.38, 43.65, math.NaN())
	assert.True(t, math.IsNaN(got))
}
