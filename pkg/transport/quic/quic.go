// Package quic implements the transport over QUIC with a single
// bidirectional stream per session and length-prefixed frames (u32 LE).
package quic

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"errors"
	"io"
	"math/big"
	"net"
	"sync"
	"time"

	quicgo "github.com/quic-go/quic-go"

	"alohanet/pkg/protocol"
	"alohanet/pkg/transport"
)

const alpnProto = "alohanet"

type Transport struct {
	tlsConf  *tls.Config
	quicConf *quicgo.Config
}

func New() (*Transport, error) {
	// Ephemeral self-signed certificate for the listening side. Peer
	// authentication is out of scope for the medium simulation.
	cert, err := selfSignedCert()
	if err != nil {
		return nil, err
	}
	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{alpnProto},
		MinVersion:   tls.VersionTLS13,
	}
	return &Transport{tlsConf: tlsConf, quicConf: &quicgo.Config{}}, nil
}

func (t *Transport) Kind() transport.Kind { return transport.KindQUIC }

func (t *Transport) Listen(ctx context.Context, address string) (transport.Listener, error) {
	l, err := quicgo.ListenAddr(address, t.tlsConf, t.quicConf)
	if err != nil {
		return nil, err
	}
	ql := &listener{l: l, newCh: make(chan *session, 8), closeCh: make(chan struct{})}
	go ql.acceptLoop(ctx)
	go func() { <-ctx.Done(); _ = ql.Close() }()
	return ql, nil
}

func (t *Transport) Dial(ctx context.Context, address string, peer transport.PeerInfo) (transport.Session, error) {
	tlsClient := &tls.Config{
		InsecureSkipVerify: true, // ephemeral self-signed server cert
		NextProtos:         []string{alpnProto},
		MinVersion:         tls.VersionTLS13,
	}
	c, err := quicgo.DialAddr(ctx, address, tlsClient, t.quicConf)
	if err != nil {
		return nil, err
	}
	s := &session{peer: peer, c: c}
	go func() { <-ctx.Done(); _ = s.Close() }()
	return s, nil
}

type listener struct {
	l       *quicgo.Listener
	newCh   chan *session
	closeCh chan struct{}
}

func (l *listener) Addr() net.Addr { return l.l.Addr() }

func (l *listener) Accept(ctx context.Context) (transport.Session, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closeCh:
		return nil, errors.New("quic listener closed")
	case s := <-l.newCh:
		return s, nil
	}
}

func (l *listener) Close() error {
	select {
	case <-l.closeCh:
	default:
		close(l.closeCh)
	}
	return l.l.Close()
}

func (l *listener) acceptLoop(ctx context.Context) {
	for {
		c, err := l.l.Accept(ctx)
		if err != nil {
			return
		}
		s := &session{
			peer:    transport.PeerInfo{Addr: c.RemoteAddr().String()},
			c:       c,
			inbound: true,
		}
		select {
		case l.newCh <- s:
		default:
			_ = s.Close()
		}
	}
}

type session struct {
	peer    transport.PeerInfo
	c       quicgo.Connection
	inbound bool

	mu   sync.Mutex
	ctrl *qstream
}

func (s *session) Peer() transport.PeerInfo      { return s.peer }
func (s *session) TransportKind() transport.Kind { return transport.KindQUIC }
func (s *session) LocalAddr() net.Addr           { return s.c.LocalAddr() }
func (s *session) RemoteAddr() net.Addr          { return s.c.RemoteAddr() }

func (s *session) Stream(ctx context.Context) (transport.Stream, error) {
	s.mu.Lock()
	if s.ctrl != nil {
		st := s.ctrl
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	var (
		qs  quicgo.Stream
		err error
	)
	if s.inbound {
		qs, err = s.c.AcceptStream(ctx)
	} else {
		qs, err = s.c.OpenStreamSync(ctx)
	}
	if err != nil {
		return nil, err
	}
	st := &qstream{s: qs, br: bufio.NewReader(qs), bw: bufio.NewWriter(qs)}
	s.mu.Lock()
	s.ctrl = st
	s.mu.Unlock()
	return st, nil
}

func (s *session) Close() error { return s.c.CloseWithError(0, "") }

type qstream struct {
	mu sync.Mutex
	s  quicgo.Stream
	br *bufio.Reader
	bw *bufio.Writer
}

func (st *qstream) SendBytes(b []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	var lenbuf [4]byte
	binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(b)))
	if _, err := st.bw.Write(lenbuf[:]); err != nil {
		return err
	}
	if _, err := st.bw.Write(b); err != nil {
		return err
	}
	return st.bw.Flush()
}

func (st *qstream) RecvBytes() ([]byte, error) {
	var lenbuf [4]byte
	if _, err := io.ReadFull(st.br, lenbuf[:]); err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint32(lenbuf[:]))
	if n < 0 || n > protocol.MaxFrameSize {
		return nil, errors.New("invalid frame size")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(st.br, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (st *qstream) Close() error { return st.s.Close() }

// selfSignedCert generates a short-lived self-signed TLS certificate for
// local QUIC use.
func selfSignedCert() (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}
	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}
