package worker

import (
	"testing"
	"time"

	"nexusminer/internal/block"
	"nexusminer/internal/codec"
)

func TestNonceRangesAreDisjoint(t *testing.T) {
	a := NonceRangeStart(1)
	b := NonceRangeStart(2)
	if a == b {
		t.Fatalf("expected disjoint starting nonces, got %d == %d", a, b)
	}
}

func TestDifficultyTargetOrdering(t *testing.T) {
	easy := DifficultyTarget(0x04000100)
	hard := DifficultyTarget(0x03008000)
	if easy.Cmp(hard) < 0 {
		t.Fatalf("expected easier target to be numerically larger")
	}
}

func TestCPUWorkerFindsSolutionAtTrivialDifficulty(t *testing.T) {
	w := NewCPUWorker(0)
	defer w.Close()

	var merkle codec.Hash256
	merkle[0] = 1
	h := block.Header{Channel: 2, Height: 1, Bits: 0x20FFFFFF, MerkleRoot: merkle}

	solved := make(chan Solution, 1)
	w.SetBlock(h, h.Bits, 1, func(sol Solution) {
		solved <- sol
	})

	select {
	case sol := <-solved:
		if sol.TemplateID != 1 {
			t.Fatalf("expected template id 1, got %d", sol.TemplateID)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a trivial-difficulty solution")
	}
}

func TestManagerStatisticsCoversAllWorkers(t *testing.T) {
	w1 := NewCPUWorker(1)
	w2 := NewCPUWorker(2)
	defer w1.Close()
	defer w2.Close()

	m := NewManager(w1, w2)
	stats := m.Statistics()
	if len(stats) != 2 {
		t.Fatalf("expected 2 worker stat entries, got %d", len(stats))
	}
}
