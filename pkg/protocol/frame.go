package protocol

import (
	"io"
)

// Frame is the atomic unit of transmission: a header plus the used part of
// the payload. Data frames are built by senders before each attempt; the
// channel echoes them back verbatim as acknowledgment or replaces the slot
// with a single noise frame on collision.
type Frame struct {
	Header  Header
	Payload []byte
}

// NewData builds a data frame addressed to the whole medium.
func NewData(src StationID, seq uint32, payload []byte) Frame {
	return Frame{
		Header: Header{
			Dest:       Broadcast,
			Source:     src,
			EtherType:  EtherIPv4,
			Kind:       KindData,
			Seq:        seq,
			PayloadLen: uint32(len(payload)),
		},
		Payload: payload,
	}
}

// NewNoise builds the collision signal: zero station ids, sequence 0,
// empty payload.
func NewNoise() Frame {
	return Frame{Header: Header{EtherType: EtherIPv4, Kind: KindNoise}}
}

// IsNoise reports whether the frame is a collision signal.
func (f *Frame) IsNoise() bool { return f.Header.Kind == KindNoise }

// AckFor reports whether the frame acknowledges sequence seq sent by src:
// it must be a non-noise frame echoing the same sequence number and the
// sender's own station id.
func (f *Frame) AckFor(src StationID, seq uint32) bool {
	return !f.IsNoise() && f.Header.Seq == seq && f.Header.Source == src
}

// EncodeFrame returns header + used payload as a single byte slice.
func (f *Frame) EncodeFrame() ([]byte, error) {
	f.Header.PayloadLen = uint32(len(f.Payload))
	hb, err := f.Header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, HeaderSize+len(f.Payload))
	copy(out, hb)
	copy(out[HeaderSize:], f.Payload)
	return out, nil
}

// DecodeFrame parses a single frame from buf.
func (f *Frame) DecodeFrame(buf []byte) error {
	if len(buf) < HeaderSize {
		return io.ErrUnexpectedEOF
	}
	if err := f.Header.UnmarshalBinary(buf[:HeaderSize]); err != nil {
		return err
	}
	need := int(f.Header.PayloadLen)
	if HeaderSize+need > len(buf) {
		return io.ErrUnexpectedEOF
	}
	f.Payload = append(f.Payload[:0], buf[HeaderSize:HeaderSize+need]...)
	return nil
}

// WriteTo writes header + payload to w.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.EncodeFrame()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// ReadFrom reads header + payload from r.
func (f *Frame) ReadFrom(r io.Reader) (int64, error) {
	hb := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		return 0, err
	}
	if err := f.Header.UnmarshalBinary(hb); err != nil {
		return int64(HeaderSize), err
	}
	if f.Header.PayloadLen > 0 {
		f.Payload = make([]byte, int(f.Header.PayloadLen))
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return int64(HeaderSize), err
		}
	} else {
		f.Payload = nil
	}
	return int64(HeaderSize + int(f.Header.PayloadLen)), nil
}
