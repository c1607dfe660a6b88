// Package netstack wires transports to configuration and handles
// connection establishment with backoff.
package netstack

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"alohanet/pkg/transport"
	"alohanet/pkg/transport/mem"
	"alohanet/pkg/transport/quic"
	"alohanet/pkg/transport/tcp"
)

// Options tunes dial retry behavior.
type Options struct {
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	BackoffJitter  time.Duration
}

// NewByKind builds a transport by its config name.
func NewByKind(kind string) (transport.Transport, error) {
	switch kind {
	case "tcp", "":
		return tcp.New(), nil
	case "quic":
		return quic.New()
	case "mem":
		return mem.New(), nil
	default:
		return nil, fmt.Errorf("unknown transport kind: %q", kind)
	}
}

// Dial connects to address, retrying with capped exponential backoff until
// the session is established or ctx is done.
func Dial(ctx context.Context, tr transport.Transport, address string, opts Options) (transport.Session, error) {
	backoff := opts.BackoffInitial
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	maxBackoff := opts.BackoffMax
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	for {
		sess, err := tr.Dial(ctx, address, transport.PeerInfo{Addr: address})
		if err == nil {
			return sess, nil
		}
		zap.L().Warn("dial failed",
			zap.String("kind", tr.Kind().String()),
			zap.String("addr", address),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(withJitter(backoff, opts.BackoffJitter)):
		}
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

func withJitter(d, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(int64(jitter)))
}
