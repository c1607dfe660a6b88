package channel

import (
	"context"

	"go.uber.org/zap"

	"alohanet/pkg/protocol"
	"alohanet/pkg/transport"
)

// outboxDepth bounds broadcasts queued to one station. A station that
// stops draining its link loses echoes rather than stalling the loop.
const outboxDepth = 64

// peer is one station record. Created on accept, never removed: a
// disconnected station stays in the arena with active=false so final
// statistics remain complete. All fields except the outbox are mutated
// only by the arbitration loop.
type peer struct {
	id     int
	addr   string
	sess   transport.Session
	outbox chan []byte

	active     bool
	successes  uint64
	collisions uint64
}

// submission is one frame read from a station within the current window.
type submission struct {
	peer  *peer
	frame protocol.Frame
}

// serve acquires the session stream and pumps both directions. Inbound
// frames go to subCh; any stream error reports the peer on leaveCh once
// per direction (the loop ignores duplicates).
func (p *peer) serve(ctx context.Context, subCh chan<- submission, leaveCh chan<- *peer, log *zap.Logger) {
	st, err := p.sess.Stream(ctx)
	if err != nil {
		log.Warn("station stream failed", zap.String("addr", p.addr), zap.Error(err))
		p.leave(ctx, leaveCh)
		return
	}
	go p.writeLoop(ctx, st, leaveCh, log)
	p.readLoop(ctx, st, subCh, leaveCh, log)
}

func (p *peer) readLoop(ctx context.Context, st transport.Stream, subCh chan<- submission, leaveCh chan<- *peer, log *zap.Logger) {
	for {
		b, err := st.RecvBytes()
		if err != nil {
			log.Debug("station disconnected", zap.String("addr", p.addr), zap.Error(err))
			p.leave(ctx, leaveCh)
			return
		}
		var f protocol.Frame
		if err := f.DecodeFrame(b); err != nil {
			log.Warn("undecodable frame, dropping station",
				zap.String("addr", p.addr), zap.Error(err))
			p.leave(ctx, leaveCh)
			return
		}
		select {
		case subCh <- submission{peer: p, frame: f}:
		case <-ctx.Done():
			return
		}
	}
}

func (p *peer) writeLoop(ctx context.Context, st transport.Stream, leaveCh chan<- *peer, log *zap.Logger) {
	for {
		select {
		case b, ok := <-p.outbox:
			if !ok {
				return
			}
			if err := st.SendBytes(b); err != nil {
				log.Debug("station write failed", zap.String("addr", p.addr), zap.Error(err))
				p.leave(ctx, leaveCh)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *peer) leave(ctx context.Context, leaveCh chan<- *peer) {
	select {
	case leaveCh <- p:
	case <-ctx.Done():
	}
}
