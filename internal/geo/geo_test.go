package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceNMZeroForIdenticalPoints(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{43.6777, -79.6248},
		{-33.9461, 151.1772},
		{89.9, 179.9},
	}

	for _, p := range points {
		assert.Equal(t, 0.0, DistanceNM(p[0], p[1], p[0], p[1]))
	}
}

func TestDistanceNMSymmetric(t *testing.T) {
	d1 := DistanceNM(47.4502, -122.3088, 43.6777, -79.6248)
	d2 := DistanceNM(43.6777, -79.6248, 47.4502, -122.3088)

	assert.Equal(t, d1, d2)
}

func TestDistanceNMKnownDistance(t *testing.T) {
	// One degree of latitude along a meridian is close to 60 NM.
	d := DistanceNM(0, 0, 1, 0)
	assert.InDelta(t, 60.0, d, 0.2)
}

func TestBearingDegRange(t *testing.T) {
	coords := [][4]float64{
		{0, 0, 1, 0},
		{0, 0, -1, 0},
		{0, 0, 0, 1},
		{0, 0, 0, -1},
		{43.6777, -79.6248, 47.4502, -122.3088},
		{47.4502, -122.3088, 43.6777, -79.6248},
	}

	for _, c := range coords {
		b := BearingDeg(c[0], c[1], c[2], c[3])
		assert.GreaterOrEqual(t, b, 0.0)
		assert.Less(t, b, 360.0)
	}
}

func TestBearingDegCardinalDirections(t *testing.T) {
	assert.InDelta(t, 0.0, BearingDeg(0, 0, 1, 0), 0.01)
	assert.InDelta(t, 90.0, BearingDeg(0, 0, 0, 1), 0.01)
	assert.InDelta(t, 180.0, BearingDeg(1, 0, 0, 0), 0.01)
	assert.InDelta(t, 270.0, BearingDeg(0, 1, 0, 0), 0.01)
}

func TestCompassOctant(t *testing.T) {
	tests := []struct {
		bearing float64
		want    Octant
	}{
		{0, North},
		{45, Northeast},
		{90, East},
		{135, Southeast},
		{180, South},
		{225, Southwest},
		{270, West},
		{315, Northwest},
		{359.9, North},
		{337.5, North},
		{22.4, North},
		{22.5, Northeast},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, CompassOctant(tc.bearing), "bearing %v", tc.bearing)
	}
}

func TestDistanceNMPropagatesNaN(t *testing.T) {
	assert.True(t, math.IsNaN(DistanceNM(math.NaN(), 0, 1, 1)))
}
