package block

import (
	"bytes"
	"testing"

	"nexusminer/internal/codec"
)

func sampleHeader() Header {
	var prev, merkle codec.Hash256
	for i := range prev {
		prev[i] = byte(i + 1)
	}
	for i := range merkle {
		merkle[i] = byte(i + 64)
	}
	return Header{
		Version:    1,
		PrevHash:   prev,
		MerkleRoot: merkle,
		Channel:    2,
		Height:     1000,
		Bits:       0x7b7f0000,
		Nonce:      0xDEADBEEFCAFEBABE,
		Time:       1700000000,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := sampleHeader()
	enc := Encode(h)
	if len(enc) != HeaderSize {
		t.Fatalf("expected %d bytes, got %d", HeaderSize, len(enc))
	}

	got, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, h)
	}
}

func TestDecodeTruncated(t *testing.T) {
	enc := Encode(sampleHeader())
	_, err := Decode(enc[:HeaderSize-1])
	if err != codec.ErrTruncatedBuffer {
		t.Fatalf("expected ErrTruncatedBuffer, got %v", err)
	}
}

func TestDecodeIgnoresTrailer(t *testing.T) {
	h := sampleHeader()
	enc := Encode(h)
	withTrailer := append(bytes.Clone(enc), []byte{0xFF, 0xFF, 0xFF}...)

	got, err := Decode(withTrailer)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != h {
		t.Fatalf("decode with trailer mismatch: %+v", got)
	}
}
