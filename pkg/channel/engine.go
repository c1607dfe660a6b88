// Package channel implements the arbiter side of the shared medium: one
// loop that owns every station record, slices time into slots, and decides
// per slot whether the medium carried silence, a single frame, or a
// collision.
package channel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"alohanet/pkg/protocol"
	"alohanet/pkg/report"
	"alohanet/pkg/transport"
)

// Engine is the slot-synchronized arbitration engine. It is the sole
// authority on window classification; stations learn slot outcomes only
// through its broadcasts.
type Engine struct {
	lis   transport.Listener
	slot  time.Duration
	log   *zap.Logger
	ticks <-chan time.Time

	peers []*peer
}

// New creates an engine arbitrating over sessions accepted from lis with
// the given slot duration.
func New(lis transport.Listener, slot time.Duration, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{lis: lis, slot: slot, log: log}
}

// WithTicks replaces the wall-clock slot ticker: window boundaries then
// occur only when the provided channel fires. Used by tests to control
// arbitration windows deterministically.
func (e *Engine) WithTicks(ticks <-chan time.Time) *Engine {
	e.ticks = ticks
	return e
}

// Run arbitrates until ctx is canceled, then returns the accumulated
// per-station statistics. Cancellation is observed at window boundaries
// only, so the final window is never torn mid-classification.
func (e *Engine) Run(ctx context.Context) []report.PeerStats {
	joinCh := make(chan transport.Session)
	subCh := make(chan submission, outboxDepth)
	leaveCh := make(chan *peer, outboxDepth)

	go e.acceptLoop(ctx, joinCh)

	ticks := e.ticks
	if ticks == nil {
		ticker := time.NewTicker(e.slot)
		defer ticker.Stop()
		ticks = ticker.C
	}

	// window holds the most recently read frame per submitting station.
	window := make(map[*peer]protocol.Frame)

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return e.Stats()

		case sess := <-joinCh:
			e.register(ctx, sess, subCh, leaveCh)

		case sub := <-subCh:
			if sub.peer.active {
				window[sub.peer] = sub.frame
			}

		case p := <-leaveCh:
			if p.active {
				p.active = false
				close(p.outbox)
				delete(window, p)
				e.log.Info("station left", zap.String("addr", p.addr))
			}

		case <-ticks:
			e.resolve(window)
			for p := range window {
				delete(window, p)
			}
		}
	}
}

// Addr returns the listening address.
func (e *Engine) Addr() string { return e.lis.Addr().String() }

// Stats snapshots every station ever seen, alive or not. Safe to call only
// after Run returned.
func (e *Engine) Stats() []report.PeerStats {
	out := make([]report.PeerStats, 0, len(e.peers))
	for _, p := range e.peers {
		out = append(out, report.PeerStats{
			Addr:       p.addr,
			Successes:  p.successes,
			Collisions: p.collisions,
			Active:     p.active,
		})
	}
	return out
}

func (e *Engine) acceptLoop(ctx context.Context, joinCh chan<- transport.Session) {
	for {
		sess, err := e.lis.Accept(ctx)
		if err != nil {
			return
		}
		select {
		case joinCh <- sess:
		case <-ctx.Done():
			_ = sess.Close()
			return
		}
	}
}

func (e *Engine) register(ctx context.Context, sess transport.Session, subCh chan<- submission, leaveCh chan<- *peer) {
	p := &peer{
		id:     len(e.peers),
		addr:   sess.RemoteAddr().String(),
		sess:   sess,
		outbox: make(chan []byte, outboxDepth),
		active: true,
	}
	e.peers = append(e.peers, p)
	go p.serve(ctx, subCh, leaveCh, e.log)
	e.log.Info("station joined", zap.String("addr", p.addr), zap.Int("id", p.id))
}

// resolve classifies one arbitration window and reacts: a singleton window
// is echoed to every active station as the acknowledgment, two or more
// submitters produce a single noise broadcast and a collision increment
// for each contributor.
func (e *Engine) resolve(window map[*peer]protocol.Frame) {
	switch len(window) {
	case 0:
		return

	case 1:
		for p, f := range window {
			b, err := f.EncodeFrame()
			if err != nil {
				e.log.Warn("echo encode failed", zap.Error(err))
				return
			}
			e.broadcast(b)
			p.successes++
			e.log.Debug("slot success",
				zap.String("addr", p.addr),
				zap.Uint32("seq", f.Header.Seq),
				zap.String("station", f.Header.Source.String()))
		}

	default:
		noise := protocol.NewNoise()
		b, err := noise.EncodeFrame()
		if err != nil {
			e.log.Warn("noise encode failed", zap.Error(err))
			return
		}
		e.broadcast(b)
		for p := range window {
			p.collisions++
		}
		e.log.Debug("slot collision", zap.Int("submitters", len(window)))
	}
}

func (e *Engine) broadcast(b []byte) {
	for _, p := range e.peers {
		if !p.active {
			continue
		}
		select {
		case p.outbox <- b:
		default:
			// Station is not draining its link; the echo is lost the same
			// way a frame on a saturated medium would be.
			e.log.Warn("outbox full, dropping broadcast", zap.String("addr", p.addr))
		}
	}
}

func (e *Engine) shutdown() {
	for _, p := range e.peers {
		if p.active {
			_ = p.sess.Close()
		}
	}
}
