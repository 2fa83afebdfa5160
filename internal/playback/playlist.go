package playback

import "github.com/llehouerou/trackvault/internal/track"

// stepIndex returns the next playable index from `from` moving by dir (+1 or
// -1), wrapping at both ends. A negative from means nothing is selected:
// forward then starts at the first entry, backward at the last.
func stepIndex(entries []Entry, from, dir int) (int, bool) {
	n := len(entries)
	if n == 0 {
		return -1, false
	}
	if from < 0 || from >= n {
		if dir > 0 {
			from = -1
		} else {
			from = 0
		}
	}
	for step := 1; step <= n; step++ {
		i := wrap(from+dir*step, n)
		if entries[i].Playable() {
			return i, true
		}
	}
	return -1, false
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

// indexOf finds the entry for a locator, preferring a track id match.
func indexOf(entries []Entry, id track.ID, locator string) int {
	if !id.IsZero() {
		for i, e := range entries {
			if e.TrackID == id && e.Locator == locator {
				return i
			}
		}
	}
	for i, e := range entries {
		if e.Locator == locator {
			return i
		}
	}
	return -1
}
