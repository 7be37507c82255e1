package llp

import "testing"

func TestFrameParseRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	buf, err := Frame(BlockData, payload)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}

	p, n, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("residual bytes after parse: consumed %d of %d", n, len(buf))
	}
	if p.Opcode != BlockData || string(p.Payload) != string(payload) {
		t.Fatalf("round trip mismatch: %+v", p)
	}
}

func TestHeaderOnlyFraming(t *testing.T) {
	buf, err := Frame(GetBlock, nil)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(buf) != 1 || buf[0] != byte(GetBlock) {
		t.Fatalf("expected single byte frame, got %x", buf)
	}
}

func TestDataClassEmptyPayloadRejected(t *testing.T) {
	if _, err := Frame(BlockData, nil); err != ErrInvalidOpcode {
		t.Fatalf("expected ErrInvalidOpcode, got %v", err)
	}
}

func TestHeaderOnlyWithLengthRejected(t *testing.T) {
	err := Validate(Packet{Opcode: GetBlock, Payload: []byte{1}})
	if err != ErrInvalidOpcode {
		t.Fatalf("expected ErrInvalidOpcode, got %v", err)
	}
}

func TestPartialLengthPrefixIsIncomplete(t *testing.T) {
	// opcode + 1 of 4 length bytes
	buf := []byte{byte(BlockData), 0x00}
	_, _, err := Parse(buf)
	if err != ErrIncomplete {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestParseAllReassemblesAcrossPartialReads(t *testing.T) {
	header := make([]byte, 92)
	for i := range header {
		header[i] = byte(i)
	}
	full, err := Frame(BlockData, header)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}

	// S5: feed [0x00,0x00,0x00] then [0x00, 0x5C] (rest of the length
	// prefix) then the 92 payload bytes
	chunk1 := full[:3]
	packets, residual := ParseAll(chunk1)
	if len(packets) != 0 || residual != len(chunk1) {
		t.Fatalf("expected no packets from partial header, got %d residual %d", len(packets), residual)
	}

	chunk2 := full[:5]
	packets, residual = ParseAll(chunk2)
	if len(packets) != 0 || residual != len(chunk2) {
		t.Fatalf("expected still incomplete with full length prefix but no payload, got %d residual %d", len(packets), residual)
	}

	packets, residual = ParseAll(full)
	if len(packets) != 1 || residual != 0 {
		t.Fatalf("expected exactly one packet with no residual, got %d packets residual %d", len(packets), residual)
	}
	if len(packets[0].Payload) != 92 {
		t.Fatalf("expected 92 byte payload, got %d", len(packets[0].Payload))
	}
}

func TestMultiplePacketsInOneRead(t *testing.T) {
	f1, _ := Frame(GetBlock, nil)
	f2, _ := Frame(BlockHeight, codec32(1000))
	buf := append(append([]byte{}, f1...), f2...)

	packets, residual := ParseAll(buf)
	if residual != 0 || len(packets) != 2 {
		t.Fatalf("expected 2 packets no residual, got %d packets residual %d", len(packets), residual)
	}
	if packets[0].Opcode != GetBlock || packets[1].Opcode != BlockHeight {
		t.Fatalf("unexpected opcodes: %+v", packets)
	}
}

func codec32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
