// Package chunk splits files into frame payloads and reassembles them.
package chunk

import (
	"fmt"
	"io"
	"os"

	"alohanet/pkg/protocol"
)

// Split reads r and yields ordered data frames from src: sequence numbers
// start at 0 and each payload carries at most frameSize bytes, with the
// final frame holding the remainder.
func Split(r io.Reader, frameSize int, src protocol.StationID) ([]protocol.Frame, error) {
	if frameSize < 1 || frameSize > protocol.MaxPayloadSize {
		return nil, fmt.Errorf("frame size must be in [1, %d], got %d",
			protocol.MaxPayloadSize, frameSize)
	}
	var frames []protocol.Frame
	for seq := uint32(0); ; seq++ {
		buf := make([]byte, frameSize)
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			frames = append(frames, protocol.NewData(src, seq, buf[:n]))
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read chunk %d: %w", seq, err)
		}
	}
}

// FromFile opens path and splits its contents. Returns the frames and the
// file size in bytes.
func FromFile(path string, frameSize int, src protocol.StationID) ([]protocol.Frame, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	frames, err := Split(f, frameSize, src)
	if err != nil {
		return nil, 0, err
	}
	return frames, st.Size(), nil
}

// Join concatenates frame payloads in slice order. Callers are responsible
// for ordering by sequence number.
func Join(frames []protocol.Frame) []byte {
	var total int
	for i := range frames {
		total += len(frames[i].Payload)
	}
	out := make([]byte, 0, total)
	for i := range frames {
		out = append(out, frames[i].Payload...)
	}
	return out
}
