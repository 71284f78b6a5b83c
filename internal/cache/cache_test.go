package cache

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestPutGet(t *testing.T) {
	pc, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	key := Key("example.com", "some/song", nil)
	if _, ok := pc.Get(PrefixPage, key); ok {
		t.Fatal("Get() on an empty cache should miss")
	}

	if err := pc.Put(PrefixPage, key, "<html>lyrics</html>"); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}

	got, ok := pc.Get(PrefixPage, key)
	if !ok {
		t.Fatal("Get() after Put() should hit")
	}
	if got != "<html>lyrics</html>" {
		t.Errorf("Get() = %q, want stored page", got)
	}
}

func TestKey(t *testing.T) {
	plain := Key("example.com", "a/b/c", nil)
	if plain != "example.com__a_b_c" {
		t.Errorf("Key() = %q, want example.com__a_b_c", plain)
	}

	params := url.Values{"s": {"query"}}
	hashed := Key("example.com", "a/b/c", params)
	if !strings.HasPrefix(hashed, "example.com__a_b_c__") {
		t.Errorf("Key() with params = %q, want host and endpoint prefix", hashed)
	}
	if hashed == plain {
		t.Error("Key() with params should differ from key without params")
	}
	if hashed != Key("example.com", "a/b/c", url.Values{"s": {"query"}}) {
		t.Error("Key() should be deterministic for equal params")
	}
}

func TestDatedKey(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	key := DatedKey("example.com", "search/q", now)
	if want := "example.com__2024-03-15__search%2Fq"; key != want {
		t.Errorf("DatedKey() = %q, want %q", key, want)
	}
}

func TestPurgeDated(t *testing.T) {
	pc, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	// Stale and fresh dated entries, plus a permanent song page
	if err := pc.Put(PrefixSearch, DatedKey("example.com", "q1", yesterday), "old"); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	if err := pc.Put(PrefixIndex, DatedKey("example.com", "artist", yesterday), "old"); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	freshKey := DatedKey("example.com", "q2", now)
	if err := pc.Put(PrefixSearch, freshKey, "fresh"); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	songKey := Key("example.com", "song/one", nil)
	if err := pc.Put(PrefixPage, songKey, "song"); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}

	removed, err := pc.PurgeDated(now)
	if err != nil {
		t.Fatalf("PurgeDated() returned error: %v", err)
	}
	if removed != 2 {
		t.Errorf("PurgeDated() removed %d entries, want 2", removed)
	}

	if _, ok := pc.Get(PrefixSearch, freshKey); !ok {
		t.Error("fresh dated entry should survive the purge")
	}
	if _, ok := pc.Get(PrefixPage, songKey); !ok {
		t.Error("song page should survive the purge")
	}
}
