// Package report renders and serializes the statistics both roles emit
// when they finish.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"alohanet/pkg/codec"
)

// Transfer summarizes one sender-side file transfer.
type Transfer struct {
	File          string        `json:"file"`
	Success       bool          `json:"success"`
	FileBytes     int64         `json:"file_bytes"`
	FrameCount    int           `json:"frame_count"`
	FramesAcked   int           `json:"frames_acked"`
	Duration      time.Duration `json:"duration_ns"`
	TotalAttempts int           `json:"total_attempts"`
	MaxAttempts   int           `json:"max_attempts"`
}

// AvgAttempts is the mean number of transmissions per attempted frame.
func (t Transfer) AvgAttempts() float64 {
	attempted := t.FramesAcked
	if !t.Success {
		attempted++ // the frame that exhausted its attempts
	}
	if attempted == 0 {
		return 0
	}
	return float64(t.TotalAttempts) / float64(attempted)
}

// BandwidthMbps is the achieved payload throughput in megabits per second.
func (t Transfer) BandwidthMbps() float64 {
	if t.Duration <= 0 {
		return 0
	}
	bits := float64(t.FileBytes) * 8
	return bits / t.Duration.Seconds() / 1e6
}

// PeerStats summarizes one station from the channel's point of view.
type PeerStats struct {
	Addr       string `json:"addr"`
	Successes  uint64 `json:"successes"`
	Collisions uint64 `json:"collisions"`
	Active     bool   `json:"active"`
}

// RenderTransfer writes the human-readable end-of-transfer summary.
func RenderTransfer(w io.Writer, t Transfer) {
	result := "Failure"
	if t.Success {
		result = "Success"
	}
	fmt.Fprintf(w, "Sent file: %s\n", t.File)
	fmt.Fprintf(w, "Result: %s\n", result)
	fmt.Fprintf(w, "File size: %d Bytes (%d frames)\n", t.FileBytes, t.FrameCount)
	fmt.Fprintf(w, "Total transfer time: %d milliseconds\n", t.Duration.Milliseconds())
	fmt.Fprintf(w, "Transmissions/frame: average %.2f, maximum %d\n", t.AvgAttempts(), t.MaxAttempts)
	fmt.Fprintf(w, "Average bandwidth: %.3f Mbps\n", t.BandwidthMbps())
}

// RenderPeers writes the human-readable channel shutdown summary.
func RenderPeers(w io.Writer, peers []PeerStats) {
	for _, p := range peers {
		fmt.Fprintf(w, "From %s: %d frames, %d collisions\n", p.Addr, p.Successes, p.Collisions)
	}
}

// Encode serializes v in the requested format (json or cbor).
func Encode(format string, v any) ([]byte, error) {
	reg := codec.NewRegistry()
	var contentType string
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		contentType = "application/json"
	case "cbor":
		c, err := codec.CBOR()
		if err != nil {
			return nil, err
		}
		reg.Register(c)
		contentType = "application/cbor"
	default:
		return nil, fmt.Errorf("unknown report format: %q", format)
	}
	return reg.Get(contentType).Marshal(v)
}

// Dump writes the machine-readable report to path. An empty path disables
// the dump.
func Dump(path, format string, v any) error {
	if path == "" {
		return nil
	}
	b, err := Encode(format, v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
