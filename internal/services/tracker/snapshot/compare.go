package snapshot

import (
	"sort"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/aircraft"
)

// Movement records one aircraft's displacement between two snapshots.
type Movement struct {
	ICAO24     string
	FromLat    float64
	FromLon    float64
	ToLat      float64
	ToLon      float64
	DistanceKm float64
}

// Diff summarizes how the sky changed between two snapshots.
type Diff struct {
	// Appeared lists aircraft present in after but not in before.
	Appeared []string
	// Disappeared lists aircraft present in before but not in after.
	Disappeared []string
	// Moved lists aircraft present in both whose position changed by more
	// than the movement threshold.
	Moved []Movement
	// Unchanged counts aircraft present in both without qualifying
	// movement.
	Unchanged int
}

// Compare diffs two snapshots by presence. Aircraft that already departed
// in both snapshots are ignored; a pair of positions further apart than
// thresholdKm counts as movement. A nil snapshot compares as an empty sky.
func Compare(before, after *Snapshot, thresholdKm float64) Diff {
	if thresholdKm < 0 {
		thresholdKm = 0
	}
	prev := make(map[string]aircraft.State)
	if before != nil {
		for _, state := range before.Aircraft {
			prev[state.ICAO24] = state
		}
	}

	var diff Diff
	seen := make(map[string]bool)
	if after != nil {
		for _, state := range after.Aircraft {
			seen[state.ICAO24] = true
			old, ok := prev[state.ICAO24]
			switch {
			case state.Present && (!ok || !old.Present):
				diff.Appeared = append(diff.Appeared, state.ICAO24)
			case !state.Present && ok && old.Present:
				diff.Disappeared = append(diff.Disappeared, state.ICAO24)
			case state.Present && ok && old.Present:
				if old.HasPosition() && state.HasPosition() {
					dist := HaversineKm(*old.Lat, *old.Lon, *state.Lat, *state.Lon)
					if dist > thresholdKm {
						diff.Moved = append(diff.Moved, Movement{
							ICAO24:     state.ICAO24,
							FromLat:    *old.Lat,
							FromLon:    *old.Lon,
							ToLat:      *state.Lat,
							ToLon:      *state.Lon,
							DistanceKm: dist,
						})
						continue
					}
				}
				diff.Unchanged++
			}
		}
	}
	// An aircraft can be missing from after entirely when the snapshots
	// come from different journals or run in reverse order.
	for icao, old := range prev {
		if old.Present && !seen[icao] {
			diff.Disappeared = append(diff.Disappeared, icao)
		}
	}
	sort.Strings(diff.Disappeared)
	return diff
}
