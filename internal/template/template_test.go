package template

import (
	"testing"

	"nexusminer/internal/block"
	"nexusminer/internal/codec"
)

func buildHeader(channel, height, bits uint32) block.Header {
	var merkle codec.Hash256
	merkle[0] = 1
	return block.Header{
		Version:    1,
		Channel:    channel,
		Height:     height,
		Bits:       bits,
		MerkleRoot: merkle,
	}
}

func TestApplyBlockDataFeedsOnSuccess(t *testing.T) {
	var fed *block.Header
	iface := New(2, nil, func(h block.Header, bits uint32) {
		fed = &h
	})

	h := buildHeader(2, 1000, 0x7b7f0000)
	payload := block.Encode(h)

	if err := iface.ApplyBlockData(payload, false); err != nil {
		t.Fatalf("ApplyBlockData: %v", err)
	}
	if fed == nil {
		t.Fatalf("expected feed handler invocation")
	}
	if iface.CurrentHeight() != 1000 {
		t.Fatalf("expected height 1000, got %d", iface.CurrentHeight())
	}
}

func TestStaleTemplateRejected(t *testing.T) {
	iface := New(2, nil, nil)
	iface.ApplyBlockData(block.Encode(buildHeader(2, 1000, 1)), false)

	err := iface.ApplyBlockData(block.Encode(buildHeader(2, 999, 1)), false)
	if err != ErrStaleHeight {
		t.Fatalf("expected ErrStaleHeight, got %v", err)
	}
	if iface.Stats.Stale.Load() != 1 {
		t.Fatalf("expected stale counter to increment")
	}
}

func TestEqualHeightAcceptedInStatelessMode(t *testing.T) {
	iface := New(2, nil, nil)
	iface.ApplyBlockData(block.Encode(buildHeader(2, 1000, 1)), false)

	if err := iface.ApplyBlockData(block.Encode(buildHeader(2, 1000, 1)), false); err != nil {
		t.Fatalf("expected equal height to be accepted, got %v", err)
	}
}

func TestStrictGreaterRejectsEqualHeightInPoolMode(t *testing.T) {
	iface := New(2, nil, nil)
	iface.ApplyBlockData(block.Encode(buildHeader(2, 1000, 1)), true)

	if err := iface.ApplyBlockData(block.Encode(buildHeader(2, 1000, 1)), true); err != ErrStaleHeight {
		t.Fatalf("expected ErrStaleHeight in pool mode, got %v", err)
	}
}

func TestChannelMismatchRejected(t *testing.T) {
	iface := New(2, nil, nil)
	err := iface.ApplyBlockData(block.Encode(buildHeader(1, 1000, 1)), false)
	if err != ErrChannelMismatch {
		t.Fatalf("expected ErrChannelMismatch, got %v", err)
	}
}

func TestZeroBitsRejected(t *testing.T) {
	iface := New(2, nil, nil)
	err := iface.ApplyBlockData(block.Encode(buildHeader(2, 1000, 0)), false)
	if err != ErrZeroBits {
		t.Fatalf("expected ErrZeroBits, got %v", err)
	}
}

func TestZeroMerkleRejected(t *testing.T) {
	iface := New(2, nil, nil)
	h := buildHeader(2, 1000, 1)
	h.MerkleRoot = codec.Hash256{}
	err := iface.ApplyBlockData(block.Encode(h), false)
	if err != ErrZeroMerkle {
		t.Fatalf("expected ErrZeroMerkle, got %v", err)
	}
}

func TestVerifySubmissionRequiresActiveTemplate(t *testing.T) {
	iface := New(2, nil, nil)
	if err := iface.VerifySubmission(make([]byte, 64), 0); err != ErrNoTemplate {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}

	iface.ApplyBlockData(block.Encode(buildHeader(2, 1000, 1)), false)
	if err := iface.VerifySubmission(make([]byte, 64), 0); err != nil {
		t.Fatalf("expected zero nonce to be accepted, got %v", err)
	}
	if err := iface.VerifySubmission(make([]byte, 33), 1); err != ErrBadMerkleLen {
		t.Fatalf("expected ErrBadMerkleLen, got %v", err)
	}
}

func TestMarkStaleBlocksFurtherSubmission(t *testing.T) {
	iface := New(2, nil, nil)
	iface.ApplyBlockData(block.Encode(buildHeader(2, 1000, 1)), false)
	iface.MarkStale()

	if err := iface.VerifySubmission(make([]byte, 64), 0); err != ErrNoTemplate {
		t.Fatalf("expected ErrNoTemplate after MarkStale, got %v", err)
	}
}

func TestBindSessionRecordsID(t *testing.T) {
	iface := New(2, nil, nil)
	iface.BindSession(0x40302010)
	if iface.SessionID() != 0x40302010 {
		t.Fatalf("expected session id to be recorded")
	}
}
