package protocol

import (
	"bytes"
	"testing"
)

func TestHeaderRoundtrip(t *testing.T) {
	h := Header{
		Dest:       Broadcast,
		Source:     StationID{1, 2, 3, 4, 5, 6},
		EtherType:  EtherIPv4,
		Kind:       KindData,
		Seq:        42,
		PayloadLen: 1234,
	}

	b, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(b) != HeaderSize {
		t.Fatalf("header size = %d", len(b))
	}

	var h2 Header
	if err := h2.UnmarshalBinary(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if h2 != h {
		t.Fatalf("headers differ: %#v vs %#v", h2, h)
	}
}

func TestHeaderRejectsBadInput(t *testing.T) {
	var h Header
	if err := h.UnmarshalBinary(make([]byte, HeaderSize-1)); err != ErrShortHeader {
		t.Fatalf("short buffer: got %v", err)
	}

	good, _ := (&Header{EtherType: EtherIPv4, Kind: KindData}).MarshalBinary()

	bad := append([]byte(nil), good...)
	bad[12], bad[13] = 0xDE, 0xAD
	if err := h.UnmarshalBinary(bad); err != ErrBadEtherType {
		t.Fatalf("ether type: got %v", err)
	}

	bad = append([]byte(nil), good...)
	bad[14] = 0x7E
	if err := h.UnmarshalBinary(bad); err != ErrUnknownKind {
		t.Fatalf("kind: got %v", err)
	}

	over := Header{EtherType: EtherIPv4, Kind: KindData, PayloadLen: MaxPayloadSize + 1}
	if _, err := over.MarshalBinary(); err != ErrPayloadTooLarge {
		t.Fatalf("oversize: got %v", err)
	}
}

func TestFrameEncodeDecode(t *testing.T) {
	src := StationID{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	f := NewData(src, 7, []byte("hello medium"))

	b, err := f.EncodeFrame()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var d Frame
	if err := d.DecodeFrame(b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(d.Payload, f.Payload) {
		t.Fatalf("payload mismatch")
	}
	if d.Header != f.Header {
		t.Fatalf("header mismatch: %#v vs %#v", d.Header, f.Header)
	}
	if !d.AckFor(src, 7) {
		t.Fatalf("echoed frame should ack its own sequence")
	}
	if d.AckFor(src, 8) || d.AckFor(StationID{1}, 7) {
		t.Fatalf("ack matched wrong seq or station")
	}
}

func TestNoiseFrameSentinel(t *testing.T) {
	n := NewNoise()
	if !n.IsNoise() {
		t.Fatalf("kind = %v", n.Header.Kind)
	}
	if !n.Header.Source.IsZero() || n.Header.Seq != 0 || n.Header.PayloadLen != 0 {
		t.Fatalf("noise frame must carry the zero sentinel: %#v", n.Header)
	}

	b, err := n.EncodeFrame()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(b) != HeaderSize {
		t.Fatalf("noise frame should have no payload bytes, got %d", len(b))
	}

	var d Frame
	if err := d.DecodeFrame(b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.AckFor(StationID{1, 2, 3, 4, 5, 6}, 0) {
		t.Fatalf("noise must never match an ack")
	}
}

func TestFrameReadWriteStream(t *testing.T) {
	var buf bytes.Buffer
	src, err := LocalStationID()
	if err != nil {
		t.Fatalf("station id: %v", err)
	}
	if src.IsZero() {
		t.Fatalf("local station id must not be the sentinel")
	}

	f := NewData(src, 3, bytes.Repeat([]byte{0x5A}, 256))
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	var d Frame
	if _, err := d.ReadFrom(&buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if d.Header != f.Header || !bytes.Equal(d.Payload, f.Payload) {
		t.Fatalf("roundtrip mismatch")
	}
}
