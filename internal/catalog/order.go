package catalog

import (
	"slices"

	"github.com/llehouerou/trackvault/internal/track"
)

// applyOrder returns tracks sorted by a saved id sequence. Tracks missing from
// the sequence follow, in their original relative order. Order fields are
// left untouched.
func applyOrder(tracks []track.Track, order []track.ID) []track.Track {
	if len(order) == 0 {
		return tracks
	}
	pos := make(map[track.ID]int, len(order))
	for i, id := range order {
		if _, dup := pos[id]; !dup {
			pos[id] = i
		}
	}
	out := slices.Clone(tracks)
	slices.SortStableFunc(out, func(a, b track.Track) int {
		pa, oka := pos[a.ID]
		pb, okb := pos[b.ID]
		switch {
		case oka && okb:
			return pa - pb
		case oka:
			return -1
		case okb:
			return 1
		default:
			return 0
		}
	})
	return out
}

// reorder places the listed ids first, in the given sequence, followed by the
// remaining tracks in their current relative order, and assigns dense
// zero-based Order values. Unknown and repeated ids are ignored.
func reorder(tracks []track.Track, ids []track.ID) []track.Track {
	out := make([]track.Track, 0, len(tracks))
	used := make(map[track.ID]bool, len(ids))
	for _, id := range ids {
		if used[id] {
			continue
		}
		if t, ok := track.Find(tracks, id); ok {
			used[id] = true
			out = append(out, t)
		}
	}
	for _, t := range tracks {
		if !used[t.ID] {
			out = append(out, t)
		}
	}
	for i := range out {
		out[i].Order = i
	}
	return out
}

func idsOf(tracks []track.Track) []track.ID {
	ids := make([]track.ID, len(tracks))
	for i := range tracks {
		ids[i] = tracks[i].ID
	}
	return ids
}
