package playback

import (
	"testing"

	"github.com/llehouerou/trackvault/internal/track"
)

func entries(locators ...string) []Entry {
	out := make([]Entry, len(locators))
	for i, l := range locators {
		out[i] = Entry{TrackID: track.RemoteID(uint64(i + 1)), Locator: l}
	}
	return out
}

func TestStepIndex(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		from    int
		dir     int
		want    int
		wantOK  bool
	}{
		{"forward", entries("a", "b", "c"), 0, 1, 1, true},
		{"forward wraps", entries("a", "b", "c"), 2, 1, 0, true},
		{"backward wraps", entries("a", "b", "c"), 0, -1, 2, true},
		{"nothing selected forward", entries("a", "b", "c"), -1, 1, 0, true},
		{"nothing selected backward", entries("a", "b", "c"), -1, -1, 2, true},
		{"skips missing locator", entries("a", "", "c"), 0, 1, 2, true},
		{"skips backward", entries("a", "", "c"), 2, -1, 0, true},
		{"single entry wraps to itself", entries("a"), 0, 1, 0, true},
		{"nothing playable", entries("", ""), 0, 1, -1, false},
		{"empty", nil, -1, 1, -1, false},
		{"stale index", entries("a", "b"), 5, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stepIndex(tt.entries, tt.from, tt.dir)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("stepIndex(%d, %d) = (%d, %v), want (%d, %v)",
					tt.from, tt.dir, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIndexOf_PrefersTrackID(t *testing.T) {
	list := []Entry{
		{TrackID: track.RemoteID(1), Locator: "x"},
		{TrackID: track.RemoteID(2), Locator: "x"},
	}
	if got := indexOf(list, track.RemoteID(2), "x"); got != 1 {
		t.Errorf("indexOf = %d, want 1", got)
	}
	if got := indexOf(list, track.ID{}, "x"); got != 0 {
		t.Errorf("indexOf without id = %d, want 0", got)
	}
	if got := indexOf(list, track.RemoteID(1), "y"); got != -1 {
		t.Errorf("indexOf unknown = %d, want -1", got)
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusStopped, "stopped"},
		{StatusPlaying, "playing"},
		{StatusPaused, "paused"},
		{StatusBuffering, "buffering"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatus_IsActive(t *testing.T) {
	if StatusStopped.IsActive() {
		t.Error("stopped should not be active")
	}
	for _, s := range []Status{StatusPlaying, StatusPaused, StatusBuffering} {
		if !s.IsActive() {
			t.Errorf("%v should be active", s)
		}
	}
}
