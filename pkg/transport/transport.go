// Package transport abstracts the reliable point-to-point links that carry
// frames between stations and the channel.
package transport

import (
	"context"
	"net"
)

// Kind identifies the link type.
type Kind int

const (
	KindUnknown Kind = iota
	KindTCP
	KindQUIC
	KindMem
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindQUIC:
		return "quic"
	case KindMem:
		return "mem"
	default:
		return "unknown"
	}
}

// PeerInfo bundles peer identity and addressing hints.
type PeerInfo struct {
	Addr string // transport-dependent address string
}

// Stream is a bidirectional message stream carrying length-delimited
// frames. Exactly one reader and one writer goroutine are expected;
// SendBytes is additionally safe for concurrent callers.
type Stream interface {
	// SendBytes sends one message frame as opaque bytes.
	SendBytes([]byte) error
	// RecvBytes receives the next message frame and returns its bytes.
	RecvBytes() ([]byte, error)
	Close() error
}

// Session represents one connection to a peer.
type Session interface {
	Peer() PeerInfo
	TransportKind() Kind
	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	// Stream returns the session's message stream.
	Stream(ctx context.Context) (Stream, error)

	// Close closes the entire session.
	Close() error
}

// Listener accepts inbound sessions.
type Listener interface {
	// Accept blocks until an inbound session is available or ctx is done.
	Accept(ctx context.Context) (Session, error)
	// Addr returns the local listening address.
	Addr() net.Addr
	// Close stops the listener and unblocks Accept.
	Close() error
}

// Transport provides dialing/listening for a specific link kind.
type Transport interface {
	Kind() Kind
	// Listen starts accepting inbound sessions on address.
	Listen(ctx context.Context, address string) (Listener, error)
	// Dial creates an outbound session to a peer/address.
	Dial(ctx context.Context, address string, peer PeerInfo) (Session, error)
}
