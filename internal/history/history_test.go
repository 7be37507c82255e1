package history

import (
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTemp(t)

	for i := uint32(0); i < 3; i++ {
		if err := s.Record(Entry{Height: 1000 + i, Channel: 2, Nonce: uint64(i), Result: "PENDING"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Height != 1002 {
		t.Fatalf("expected newest-first order, got height %d", recent[0].Height)
	}
}

func TestUpdateResult(t *testing.T) {
	s := openTemp(t)

	if err := s.Record(Entry{Height: 500, Nonce: 42, Result: "PENDING"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.UpdateResult(500, 42, "ACCEPT"); err != nil {
		t.Fatalf("UpdateResult: %v", err)
	}

	recent, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Result != "ACCEPT" {
		t.Fatalf("expected updated ACCEPT result, got %+v", recent)
	}
}
