package catalog

import (
	"testing"

	"github.com/llehouerou/trackvault/internal/track"
)

func TestApplyOrder(t *testing.T) {
	a, b, c, d := seeded(1, "a"), seeded(2, "b"), seeded(3, "c"), seeded(4, "d")

	got := applyOrder([]track.Track{a, b, c, d}, []track.ID{c.ID, a.ID})
	want := []string{"c", "a", "b", "d"}
	for i, title := range titles(got) {
		if title != want[i] {
			t.Fatalf("applyOrder = %v, want %v", titles(got), want)
		}
	}
}

func TestApplyOrder_EmptyOrderKeepsInput(t *testing.T) {
	in := []track.Track{seeded(2, "b"), seeded(1, "a")}
	got := applyOrder(in, nil)
	if got[0].Title != "b" || got[1].Title != "a" {
		t.Errorf("applyOrder(nil) = %v", titles(got))
	}
}

func TestReorder_DoesNotMutateInput(t *testing.T) {
	in := []track.Track{seeded(1, "a"), seeded(2, "b")}
	in[0].Order, in[1].Order = 5, 6

	out := reorder(in, []track.ID{track.RemoteID(2)})
	if out[0].Title != "b" || out[0].Order != 0 || out[1].Order != 1 {
		t.Errorf("reorder = %+v", out)
	}
	if in[0].Order != 5 || in[1].Order != 6 {
		t.Error("input slice modified")
	}
}
