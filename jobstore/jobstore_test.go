package jobstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndRecent(t *testing.T) {
	s := openTest(t)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		s.Add(Record{
			ID:        string(rune('a' + i)),
			StartedAt: base.Add(time.Duration(i) * time.Second),
			Mode:      "plain",
			Target:    "pdf",
			FileCount: i + 1,
			Duration:  250 * time.Millisecond,
			Outcome:   "success",
		})
	}

	// writes are async; wait for the background writer to drain
	deadline := time.Now().Add(2 * time.Second)
	var recs []Record
	for time.Now().Before(deadline) {
		var err error
		recs, err = s.Recent(context.Background(), 10)
		if err != nil {
			t.Fatalf("recent: %v", err)
		}
		if len(recs) == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].ID != "c" {
		t.Errorf("newest first: got %q", recs[0].ID)
	}
	if recs[0].Duration != 250*time.Millisecond {
		t.Errorf("duration = %v", recs[0].Duration)
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTest(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if err := s.insert(context.Background(), Record{
			ID: string(rune('a' + i)), StartedAt: now, Mode: "plain",
			Target: "pdf", Outcome: "success",
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	recs, err := s.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jobs.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAddAfterClose(t *testing.T) {
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Must drop the record silently instead of sending on a closed channel.
	s.Add(Record{ID: "late", StartedAt: time.Now(), Mode: "plain", Target: "pdf", Outcome: "success"})

	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
