package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/track"
)

// setupTestStore creates an in-memory cache with the schema initialized.
func setupTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := Open(":memory:", maxBytes)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(id track.ID, title string) track.Track {
	return track.Track{
		ID:             id,
		Title:          title,
		Artist:         "Artist",
		Description:    "Album",
		Category:       track.CategoryJazz,
		FilePath:       "file:///data/" + id.String() + "/audio.mp3",
		FileSize:       2048,
		CoverImage:     "https://cdn.example.com/" + id.String() + ".png",
		CoverImageSize: 512,
		Duration:       3*time.Minute + 15*time.Second,
		Plays:          4,
		Liked:          true,
		AddedDate:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestReadAll_Empty(t *testing.T) {
	s := setupTestStore(t, 0)

	tracks, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected 0 tracks, got %d", len(tracks))
	}
}

func TestUpsertAndReadAll(t *testing.T) {
	s := setupTestStore(t, 0)
	ctx := context.Background()

	want := sample(track.RemoteID(1), "Blue in Green")
	if err := s.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	tracks, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
	got := tracks[0]
	if got.ID != want.ID {
		t.Errorf("ID = %v, want %v", got.ID, want.ID)
	}
	if got.Title != want.Title || got.Artist != want.Artist || got.Description != want.Description {
		t.Errorf("descriptive fields = %+v, want %+v", got, want)
	}
	if got.Category != want.Category {
		t.Errorf("Category = %q, want %q", got.Category, want.Category)
	}
	if got.FilePath != want.FilePath || got.FileSize != want.FileSize {
		t.Errorf("audio = %q/%d, want %q/%d", got.FilePath, got.FileSize, want.FilePath, want.FileSize)
	}
	if got.CoverImage != want.CoverImage || got.CoverImageSize != want.CoverImageSize {
		t.Errorf("cover = %q/%d", got.CoverImage, got.CoverImageSize)
	}
	if got.Duration != want.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, want.Duration)
	}
	if got.Plays != 4 || !got.Liked {
		t.Errorf("usage = plays %d liked %v", got.Plays, got.Liked)
	}
	if !got.AddedDate.Equal(want.AddedDate) {
		t.Errorf("AddedDate = %v, want %v", got.AddedDate, want.AddedDate)
	}
}

func TestUpsert_ReplacesExisting(t *testing.T) {
	s := setupTestStore(t, 0)
	ctx := context.Background()
	id := track.NewLocalID()

	if err := s.Upsert(ctx, sample(id, "First")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	updated := sample(id, "Second")
	updated.CoverImage = ""
	updated.CoverImageSize = 0
	if err := s.Upsert(ctx, updated); err != nil {
		t.Fatalf("Upsert (update) failed: %v", err)
	}

	tracks, _ := s.ReadAll(ctx)
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
	if tracks[0].Title != "Second" {
		t.Errorf("Title = %q, want Second", tracks[0].Title)
	}
	if tracks[0].CoverImage != "" {
		t.Errorf("CoverImage = %q, want empty", tracks[0].CoverImage)
	}
	if tracks[0].ID != id {
		t.Errorf("local id not preserved: %v", tracks[0].ID)
	}
}

func TestUpsert_RequiresID(t *testing.T) {
	s := setupTestStore(t, 0)
	err := s.Upsert(context.Background(), track.Track{Title: "x", Artist: "y"})
	if !errors.Is(err, errmsg.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWriteAll_ReplacesEverything(t *testing.T) {
	s := setupTestStore(t, 0)
	ctx := context.Background()

	if err := s.Upsert(ctx, sample(track.RemoteID(9), "Old")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	batch := []track.Track{
		sample(track.RemoteID(1), "One"),
		sample(track.RemoteID(2), "Two"),
	}
	if err := s.WriteAll(ctx, batch); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	tracks, _ := s.ReadAll(ctx)
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].Title != "One" || tracks[1].Title != "Two" {
		t.Errorf("unexpected tracks: %q, %q", tracks[0].Title, tracks[1].Title)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	s := setupTestStore(t, 0)
	ctx := context.Background()
	id := track.RemoteID(5)

	if err := s.Upsert(ctx, sample(id, "Gone")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := s.WriteOrder(ctx, []track.ID{id}); err != nil {
		t.Fatalf("WriteOrder failed: %v", err)
	}
	for i := range 2 {
		if err := s.Delete(ctx, id); err != nil {
			t.Fatalf("Delete #%d failed: %v", i+1, err)
		}
	}

	tracks, _ := s.ReadAll(ctx)
	if len(tracks) != 0 {
		t.Errorf("expected 0 tracks, got %d", len(tracks))
	}
	order, _ := s.ReadOrder(ctx)
	if len(order) != 0 {
		t.Errorf("expected deleted id to leave the order, got %v", order)
	}
}

func TestWriteOrder_StampsTracks(t *testing.T) {
	s := setupTestStore(t, 0)
	ctx := context.Background()
	a, b, c := track.RemoteID(1), track.RemoteID(2), track.NewLocalID()

	if err := s.WriteAll(ctx, []track.Track{sample(a, "a"), sample(b, "b"), sample(c, "c")}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if err := s.WriteOrder(ctx, []track.ID{c, a, b, a}); err != nil {
		t.Fatalf("WriteOrder failed: %v", err)
	}

	order, err := s.ReadOrder(ctx)
	if err != nil {
		t.Fatalf("ReadOrder failed: %v", err)
	}
	want := []track.ID{c, a, b}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %v, want %v", i, order[i], want[i])
		}
	}

	tracks, _ := s.ReadAll(ctx)
	titles := make([]string, 0, len(tracks))
	for _, tr := range tracks {
		titles = append(titles, tr.Title)
	}
	if got := strings.Join(titles, ","); got != "c,a,b" {
		t.Errorf("ReadAll order = %s, want c,a,b", got)
	}
	if tracks[0].Order != 0 || tracks[1].Order != 1 || tracks[2].Order != 2 {
		t.Errorf("orders = %d,%d,%d", tracks[0].Order, tracks[1].Order, tracks[2].Order)
	}
}

func TestQuota_Upsert(t *testing.T) {
	s := setupTestStore(t, 400)
	ctx := context.Background()

	first := sample(track.RemoteID(1), "fits")
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	big := sample(track.RemoteID(2), "too much")
	big.Description = strings.Repeat("x", 200)
	err := s.Upsert(ctx, big)
	if !errors.Is(err, errmsg.ErrStorageFull) {
		t.Fatalf("expected ErrStorageFull, got %v", err)
	}

	tracks, _ := s.ReadAll(ctx)
	if len(tracks) != 1 {
		t.Errorf("over-quota write must not be stored, got %d tracks", len(tracks))
	}

	// Replacing a record only counts its new size.
	first.Title = "still fits"
	if err := s.Upsert(ctx, first); err != nil {
		t.Errorf("replacement within quota failed: %v", err)
	}
}

func TestQuota_WriteAll(t *testing.T) {
	s := setupTestStore(t, 300)
	ctx := context.Background()

	batch := []track.Track{
		sample(track.RemoteID(1), "a"),
		sample(track.RemoteID(2), "b"),
	}
	err := s.WriteAll(ctx, batch)
	if !errors.Is(err, errmsg.ErrStorageFull) {
		t.Fatalf("expected ErrStorageFull, got %v", err)
	}
	used, err := s.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if used != 0 {
		t.Errorf("usage = %d, want 0 after rejected batch", used)
	}
}

func TestOpen_DefaultQuota(t *testing.T) {
	s := setupTestStore(t, 0)
	if s.MaxBytes() != DefaultMaxBytes {
		t.Errorf("MaxBytes = %d, want %d", s.MaxBytes(), DefaultMaxBytes)
	}
}

func TestOpen_File(t *testing.T) {
	path := t.TempDir() + "/nested/cache.db"
	s, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()
	if err := s.Upsert(ctx, sample(track.RemoteID(1), "persisted")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	s.Close()

	reopened, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	tracks, _ := reopened.ReadAll(ctx)
	if len(tracks) != 1 || tracks[0].Title != "persisted" {
		t.Errorf("tracks after reopen = %+v", tracks)
	}
}
