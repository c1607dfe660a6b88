package protocol

import (
	"encoding/binary"
	"errors"
)

// Fixed header layout (24 bytes), shared by every frame on the medium.
// All integer fields are little-endian.
//
//  0  ..5   Dest   [6]byte
//  6  ..11  Source [6]byte
//  12 ..13  EtherType u16 (0x0800)
//  14       Kind   u8 (0x01 data, 0xFF noise)
//  15       Reserved u8
//  16 ..19  Seq    u32
//  20 ..23  PayloadLen u32
const (
	HeaderSize = 24

	// EtherIPv4 is the next-layer type carried by every frame.
	EtherIPv4 = uint16(0x0800)
)

// MaxPayloadSize bounds the payload carried by a single frame.
const MaxPayloadSize = 1500

// MaxFrameSize is the largest on-wire frame (header + full payload).
const MaxFrameSize = HeaderSize + MaxPayloadSize

var (
	ErrShortHeader     = errors.New("short header")
	ErrBadEtherType    = errors.New("bad ether type")
	ErrUnknownKind     = errors.New("unknown frame kind")
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
)

// Header describes the metadata of one frame.
type Header struct {
	Dest       StationID
	Source     StationID
	EtherType  uint16
	Kind       Kind
	Seq        uint32
	PayloadLen uint32
}

// MarshalBinary encodes the header into a 24-byte buffer.
func (h *Header) MarshalBinary() ([]byte, error) {
	if h.PayloadLen > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, HeaderSize)
	copy(buf[0:6], h.Dest[:])
	copy(buf[6:12], h.Source[:])
	binary.LittleEndian.PutUint16(buf[12:14], h.EtherType)
	buf[14] = byte(h.Kind)
	// buf[15] reserved
	binary.LittleEndian.PutUint32(buf[16:20], h.Seq)
	binary.LittleEndian.PutUint32(buf[20:24], h.PayloadLen)
	return buf, nil
}

// UnmarshalBinary decodes the header from a 24-byte buffer.
func (h *Header) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return ErrShortHeader
	}
	copy(h.Dest[:], buf[0:6])
	copy(h.Source[:], buf[6:12])
	h.EtherType = binary.LittleEndian.Uint16(buf[12:14])
	if h.EtherType != EtherIPv4 {
		return ErrBadEtherType
	}
	h.Kind = Kind(buf[14])
	if h.Kind != KindData && h.Kind != KindNoise {
		return ErrUnknownKind
	}
	h.Seq = binary.LittleEndian.Uint32(buf[16:20])
	h.PayloadLen = binary.LittleEndian.Uint32(buf[20:24])
	if h.PayloadLen > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	return nil
}
