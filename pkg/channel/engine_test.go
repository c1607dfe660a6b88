package channel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alohanet/pkg/protocol"
	"alohanet/pkg/report"
	"alohanet/pkg/transport"
	"alohanet/pkg/transport/mem"
)

// settle gives queued submissions time to reach the arbitration loop
// before a window boundary is injected.
const settle = 30 * time.Millisecond

type testMedium struct {
	cancel  context.CancelFunc
	ticks   chan time.Time
	statsCh chan []report.PeerStats
	tr      *mem.Transport
	name    string
	ctx     context.Context
}

func startMedium(t *testing.T) *testMedium {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	tr := mem.New()
	name := t.Name()
	lis, err := tr.Listen(ctx, name)
	require.NoError(t, err)

	m := &testMedium{
		cancel:  cancel,
		ticks:   make(chan time.Time),
		statsCh: make(chan []report.PeerStats, 1),
		tr:      tr,
		name:    name,
		ctx:     ctx,
	}
	eng := New(lis, time.Second, zap.NewNop()).WithTicks(m.ticks)
	go func() { m.statsCh <- eng.Run(ctx) }()
	t.Cleanup(cancel)
	return m
}

// tick closes the current arbitration window.
func (m *testMedium) tick(t *testing.T) {
	t.Helper()
	time.Sleep(settle)
	select {
	case m.ticks <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatalf("engine did not consume tick")
	}
}

func (m *testMedium) stop(t *testing.T) []report.PeerStats {
	t.Helper()
	m.cancel()
	select {
	case stats := <-m.statsCh:
		return stats
	case <-time.After(2 * time.Second):
		t.Fatalf("engine did not shut down")
		return nil
	}
}

type station struct {
	id   protocol.StationID
	sess transport.Session
	st   transport.Stream
}

func (m *testMedium) connect(t *testing.T, id byte) *station {
	t.Helper()
	sess, err := m.tr.Dial(m.ctx, m.name, transport.PeerInfo{Addr: m.name})
	require.NoError(t, err)
	st, err := sess.Stream(m.ctx)
	require.NoError(t, err)
	return &station{id: protocol.StationID{id, id, id, id, id, id}, sess: sess, st: st}
}

func (s *station) send(t *testing.T, seq uint32, payload []byte) {
	t.Helper()
	f := protocol.NewData(s.id, seq, payload)
	b, err := f.EncodeFrame()
	require.NoError(t, err)
	require.NoError(t, s.st.SendBytes(b))
}

func (s *station) recv(t *testing.T) protocol.Frame {
	t.Helper()
	type result struct {
		b   []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		b, err := s.st.RecvBytes()
		ch <- result{b, err}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		var f protocol.Frame
		require.NoError(t, f.DecodeFrame(r.b))
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame received")
		return protocol.Frame{}
	}
}

func TestSingletonWindowEchoesToAllPeers(t *testing.T) {
	m := startMedium(t)
	a := m.connect(t, 0xA)
	b := m.connect(t, 0xB)

	a.send(t, 0, []byte("solo"))
	m.tick(t)

	for _, s := range []*station{a, b} {
		f := s.recv(t)
		require.False(t, f.IsNoise())
		require.EqualValues(t, 0, f.Header.Seq)
		require.Equal(t, a.id, f.Header.Source)
		require.Equal(t, []byte("solo"), f.Payload)
	}

	stats := m.stop(t)
	require.Len(t, stats, 2)
	require.EqualValues(t, 1, stats[0].Successes)
	require.EqualValues(t, 0, stats[0].Collisions)
	require.EqualValues(t, 0, stats[1].Successes)
	require.EqualValues(t, 0, stats[1].Collisions)
}

func TestCollisionBroadcastsNoiseAndCountsAllSubmitters(t *testing.T) {
	m := startMedium(t)
	a := m.connect(t, 0xA)
	b := m.connect(t, 0xB)
	c := m.connect(t, 0xC)

	// c stays silent; a and b collide in the same window.
	a.send(t, 0, []byte("first"))
	b.send(t, 0, []byte("second"))
	m.tick(t)

	for _, s := range []*station{a, b, c} {
		f := s.recv(t)
		require.True(t, f.IsNoise())
		require.EqualValues(t, 0, f.Header.PayloadLen)
		require.True(t, f.Header.Source.IsZero())
	}

	stats := m.stop(t)
	require.Len(t, stats, 3)
	require.EqualValues(t, 1, stats[0].Collisions)
	require.EqualValues(t, 1, stats[1].Collisions)
	require.EqualValues(t, 0, stats[2].Collisions)
	for _, ps := range stats {
		require.EqualValues(t, 0, ps.Successes)
	}
}

func TestEmptyWindowsProduceNoTraffic(t *testing.T) {
	m := startMedium(t)
	a := m.connect(t, 0xA)

	m.tick(t)
	m.tick(t)
	a.send(t, 5, []byte("late"))
	m.tick(t)

	f := a.recv(t)
	require.EqualValues(t, 5, f.Header.Seq)

	stats := m.stop(t)
	require.EqualValues(t, 1, stats[0].Successes)
}

func TestMostRecentFrameWinsWithinWindow(t *testing.T) {
	m := startMedium(t)
	a := m.connect(t, 0xA)

	// Two frames from the same station in one window count as a single
	// submitter; the later frame decides the echo.
	a.send(t, 0, []byte("stale"))
	a.send(t, 1, []byte("fresh"))
	m.tick(t)

	f := a.recv(t)
	require.False(t, f.IsNoise())
	require.EqualValues(t, 1, f.Header.Seq)
	require.Equal(t, []byte("fresh"), f.Payload)

	stats := m.stop(t)
	require.EqualValues(t, 1, stats[0].Successes)
	require.EqualValues(t, 0, stats[0].Collisions)
}

func TestDisconnectedPeerDoesNotDisturbOthers(t *testing.T) {
	m := startMedium(t)
	a := m.connect(t, 0xA)
	b := m.connect(t, 0xB)

	require.NoError(t, a.sess.Close())
	time.Sleep(settle)

	b.send(t, 0, []byte("after the fact"))
	m.tick(t)

	f := b.recv(t)
	require.False(t, f.IsNoise())
	require.Equal(t, b.id, f.Header.Source)

	stats := m.stop(t)
	require.Len(t, stats, 2)
	require.False(t, stats[0].Active)
	require.EqualValues(t, 0, stats[0].Successes)
	require.True(t, stats[1].Active)
	require.EqualValues(t, 1, stats[1].Successes)
}

func TestReplayedSequenceFromFreshSessionIsIndependent(t *testing.T) {
	m := startMedium(t)
	a := m.connect(t, 0xA)

	a.send(t, 0, []byte("one"))
	m.tick(t)
	_ = a.recv(t)

	require.NoError(t, a.sess.Close())
	time.Sleep(settle)

	a2 := m.connect(t, 0xA)
	a2.send(t, 0, []byte("one again"))
	m.tick(t)
	f := a2.recv(t)
	require.EqualValues(t, 0, f.Header.Seq)

	stats := m.stop(t)
	require.Len(t, stats, 2)
	require.EqualValues(t, 1, stats[0].Successes)
	require.EqualValues(t, 1, stats[1].Successes)
}
