package cache

import (
	"testing"
	"time"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

func TestPutThenGetReturnsIdenticalValue(t *testing.T) {
	dir := t.TempDir()
	store, err := New([]string{dir}, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	result := &kdoc.ExtractionResult{Content: "hello", MimeType: "text/plain", Tables: []kdoc.Table{}}
	hash := HashContent([]byte("hello"))

	if err := store.Put(hash, "extract", "fp1", result); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := store.Get(hash, "extract", "fp1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Content != result.Content || got.MimeType != result.MimeType {
		t.Errorf("Get() = %+v, want %+v", got, result)
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	store, err := New([]string{dir}, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	if _, ok := store.Get("deadbeef", "extract", "fp"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestClearAllIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := New([]string{dir}, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	store.Put("abc123", "extract", "fp", &kdoc.ExtractionResult{Content: "x"})

	removed, freed, err := store.ClearAll()
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if removed == 0 || freed == 0 {
		t.Errorf("expected non-zero removal on first clear, got removed=%d freed=%d", removed, freed)
	}

	removed, freed, err = store.ClearAll()
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if removed != 0 || freed != 0 {
		t.Errorf("second ClearAll() = (%d, %d), want (0, 0)", removed, freed)
	}
}

func TestFingerprintStableAcrossKeyOrder(t *testing.T) {
	a := map[string]interface{}{"language": "eng", "psm": 3}
	b := map[string]interface{}{"psm": 3, "language": "eng"}

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("Fingerprint(a): %v", err)
	}
	fb, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("Fingerprint(b): %v", err)
	}
	if fa != fb {
		t.Errorf("fingerprints differ for equivalent configs: %s != %s", fa, fb)
	}
}

func TestShardingAcrossMultipleRoots(t *testing.T) {
	d1, d2 := t.TempDir(), t.TempDir()
	store, err := New([]string{d1, d2}, time.Hour, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	for i := 0; i < 20; i++ {
		hash := HashContent([]byte{byte(i)})
		if err := store.Put(hash, "extract", "fp", &kdoc.ExtractionResult{Content: "x"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalFiles != 20 {
		t.Errorf("TotalFiles = %d, want 20", stats.TotalFiles)
	}
}
