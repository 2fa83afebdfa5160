package catalog

import (
	"github.com/llehouerou/trackvault/internal/track"
)

// State is the externally visible catalogue snapshot. Published snapshots are
// immutable; Tracks is never modified in place once published.
type State struct {
	Tracks     []track.Track
	Loading    bool
	Error      string
	Success    bool
	SelectedID track.ID
	// Warning carries a non-fatal message from the last operation, e.g.
	// a change that was saved locally only.
	Warning string
}

// Selected returns the selected track, if any.
func (s State) Selected() (track.Track, bool) {
	if s.SelectedID.IsZero() {
		return track.Track{}, false
	}
	return track.Find(s.Tracks, s.SelectedID)
}

// Result is the outcome of a successful or degraded mutation.
type Result struct {
	Track   track.Track
	Warning string
	// Local is set when the change reached local storage but not the remote.
	Local bool
}

func joinWarnings(ws ...string) string {
	out := ""
	for _, w := range ws {
		if w == "" {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += w
	}
	return out
}
