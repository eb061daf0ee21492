package history

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, maxEntries int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), maxEntries)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndRecent(t *testing.T) {
	s := openTestStore(t, 0)

	for _, p := range []string{"first", "second", "third"} {
		if err := s.Add(p, "French"); err != nil {
			t.Fatalf("Add(%q): %v", p, err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0] != "third" || got[1] != "second" {
		t.Errorf("Recent(2) = %v, want most recent first", got)
	}
}

func TestConsecutiveDuplicatesSkipped(t *testing.T) {
	s := openTestStore(t, 0)

	for i := 0; i < 3; i++ {
		if err := s.Add("same question", "English"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 entry after duplicate adds, got %d", len(got))
	}
}

func TestMaxEntriesTrims(t *testing.T) {
	s := openTestStore(t, 3)

	for _, p := range []string{"a", "b", "c", "d", "e"} {
		if err := s.Add(p, ""); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 retained entries, got %d: %v", len(got), got)
	}
	if got[0] != "e" || got[2] != "c" {
		t.Errorf("oldest entries should be trimmed first: %v", got)
	}
}

func TestEmptyRecent(t *testing.T) {
	s := openTestStore(t, 0)
	got, err := s.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %v", got)
	}
}
