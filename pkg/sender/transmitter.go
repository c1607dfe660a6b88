// Package sender implements the contender side of the protocol: transmit
// one frame at a time, wait for its echo, and back off on collisions or
// silence.
package sender

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"alohanet/pkg/protocol"
	"alohanet/pkg/report"
	"alohanet/pkg/transport"
)

// State tracks the frame currently in flight.
type State int

const (
	// StatePending means the frame has not been transmitted this attempt.
	StatePending State = iota
	// StateSent means the frame is on the wire, awaiting its echo.
	StateSent
	// StateAcked means the channel echoed the frame back.
	StateAcked
	// StateTimedOut means the attempt ended in noise, a stray frame, or
	// silence.
	StateTimedOut
	// StateFailed means the frame exhausted its attempts; the transfer is
	// aborted.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSent:
		return "sent"
	case StateAcked:
		return "acked"
	case StateTimedOut:
		return "timed-out"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures one Transmitter.
type Options struct {
	Station     protocol.StationID
	Slot        time.Duration // arbitration slot duration
	Timeout     time.Duration // per-attempt acknowledgment wait
	MaxAttempts int           // transmissions per frame before failing
	Rand        *rand.Rand    // seeded backoff source, owned by the transmitter
}

// Transmitter delivers one ordered stream of frames over a single session.
// It owns all of its state; nothing is shared with other contenders.
type Transmitter struct {
	opts Options
	st   transport.Stream
	log  *zap.Logger

	recvCh chan protocol.Frame
}

// New builds a transmitter over an established stream.
func New(st transport.Stream, opts Options, log *zap.Logger) (*Transmitter, error) {
	if opts.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1, got %d", opts.MaxAttempts)
	}
	if opts.Slot <= 0 || opts.Timeout <= 0 {
		return nil, fmt.Errorf("slot and timeout must be positive")
	}
	if opts.Rand == nil {
		return nil, fmt.Errorf("backoff random source is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Transmitter{
		opts:   opts,
		st:     st,
		log:    log,
		recvCh: make(chan protocol.Frame, 16),
	}, nil
}

// Send transmits frames in order with at-least-one-successful-delivery
// semantics per frame. The first frame to exhaust its attempts aborts the
// remaining queue. The returned report is valid in both outcomes.
func (t *Transmitter) Send(ctx context.Context, frames []protocol.Frame) report.Transfer {
	go t.readLoop(ctx)

	start := time.Now()
	res := report.Transfer{FrameCount: len(frames), Success: true}
	for _, f := range frames {
		res.FileBytes += int64(len(f.Payload))
	}

	for _, f := range frames {
		attempts, state := t.sendFrame(ctx, f)
		res.TotalAttempts += attempts
		if attempts > res.MaxAttempts {
			res.MaxAttempts = attempts
		}
		if state != StateAcked {
			res.Success = false
			break
		}
		res.FramesAcked++
	}

	res.Duration = time.Since(start)
	return res
}

// sendFrame runs the per-frame state machine: Pending -> Sent ->
// {Acked, TimedOut} with backoff between attempts, ending in Acked or
// Failed. Returns the number of transmissions used.
func (t *Transmitter) sendFrame(ctx context.Context, f protocol.Frame) (int, State) {
	seq := f.Header.Seq
	b, err := f.EncodeFrame()
	if err != nil {
		t.log.Error("frame encode failed", zap.Uint32("seq", seq), zap.Error(err))
		return 0, StateFailed
	}

	for attempt := 1; attempt <= t.opts.MaxAttempts; attempt++ {
		if err := t.st.SendBytes(b); err != nil {
			t.log.Warn("transmit failed", zap.Uint32("seq", seq), zap.Error(err))
			// The medium is unreachable; the attempt still counts and the
			// usual backoff applies before retrying.
		}

		state := t.awaitAck(ctx, seq)
		t.log.Debug("attempt finished",
			zap.Uint32("seq", seq),
			zap.Int("attempt", attempt),
			zap.Stringer("state", state))

		switch state {
		case StateAcked:
			// Resynchronize with the channel's window boundary before the
			// next frame, discarding straggling echoes and noise.
			t.drain(ctx, t.opts.Slot)
			return attempt, StateAcked
		case StateFailed:
			return attempt, StateFailed
		}

		if attempt == t.opts.MaxAttempts {
			break
		}
		delay := backoffDelay(t.opts.Rand, attempt, t.opts.Slot)
		t.log.Debug("backing off", zap.Uint32("seq", seq), zap.Duration("delay", delay))
		t.drain(ctx, delay)
	}
	return t.opts.MaxAttempts, StateFailed
}

// awaitAck waits for the first frame or the attempt timeout. The first
// arriving frame decides the attempt: anything but this station's own echo
// of seq counts the same as silence, because the wire carries no window
// identifier to wait on.
func (t *Transmitter) awaitAck(ctx context.Context, seq uint32) State {
	timer := time.NewTimer(t.opts.Timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return StateFailed
	case <-timer.C:
		return StateTimedOut
	case f, ok := <-t.recvCh:
		if !ok {
			// Connection gone; treat it as a silent channel and wait out
			// the attempt, then let backoff/exhaustion decide.
			t.recvCh = nil
			select {
			case <-ctx.Done():
				return StateFailed
			case <-timer.C:
				return StateTimedOut
			}
		}
		if f.AckFor(t.opts.Station, seq) {
			return StateAcked
		}
		return StateTimedOut
	}
}

// drain waits for d, receiving and discarding any frames that arrive.
// Those frames are stale echoes or noise from windows this station already
// resolved; consuming one as an acknowledgment later would corrupt the
// protocol.
func (t *Transmitter) drain(ctx context.Context, d time.Duration) {
	if d <= 0 {
		// Still flush anything already queued.
		for {
			select {
			case _, ok := <-t.recvCh:
				if !ok {
					t.recvCh = nil
					return
				}
			default:
				return
			}
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case _, ok := <-t.recvCh:
			if !ok {
				t.recvCh = nil
				select {
				case <-ctx.Done():
				case <-timer.C:
				}
				return
			}
		}
	}
}

// readLoop decodes inbound frames into recvCh until the stream errors.
func (t *Transmitter) readLoop(ctx context.Context) {
	ch := t.recvCh
	defer close(ch)
	for {
		b, err := t.st.RecvBytes()
		if err != nil {
			t.log.Debug("channel receive ended", zap.Error(err))
			return
		}
		var f protocol.Frame
		if err := f.DecodeFrame(b); err != nil {
			t.log.Warn("undecodable frame from channel", zap.Error(err))
			continue
		}
		select {
		case ch <- f:
		case <-ctx.Done():
			return
		}
	}
}
