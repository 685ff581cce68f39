package snapshot

import (
	"math"
	"testing"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantLow, wantHigh      float64
	}{
		{"same point", 51.5, -0.12, 51.5, -0.12, 0, 0},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 340, 347},
		{"one degree along the equator", 0, 0, 0, 1, 111.1, 111.3},
		{"antipodal points", 0, 0, 0, 180, 20014, 20016},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if got < tt.wantLow || got > tt.wantHigh {
				t.Fatalf("HaversineKm() = %v, want between %v and %v", got, tt.wantLow, tt.wantHigh)
			}
		})
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	forward := HaversineKm(51.5074, -0.1278, 40.7128, -74.006)
	back := HaversineKm(40.7128, -74.006, 51.5074, -0.1278)
	if math.Abs(forward-back) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", forward, back)
	}
	// London to New York is about 5570 km.
	if forward < 5540 || forward > 5600 {
		t.Fatalf("HaversineKm() = %v, want about 5570", forward)
	}
}
