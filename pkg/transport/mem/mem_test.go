package mem

import (
	"bytes"
	"context"
	"testing"
	"time"

	"alohanet/pkg/transport"
)

func TestPipeRoundtrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr := New()
	lis, err := tr.Listen(ctx, "medium")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	cli, err := tr.Dial(ctx, "medium", transport.PeerInfo{Addr: "medium"})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	srv, err := lis.Accept(ctx)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	cs, _ := cli.Stream(ctx)
	ss, _ := srv.Stream(ctx)

	done := make(chan []byte, 1)
	go func() {
		b, err := ss.RecvBytes()
		if err != nil {
			done <- nil
			return
		}
		done <- b
	}()

	msg := []byte("in-process")
	if err := cs.SendBytes(msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := <-done; !bytes.Equal(got, msg) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestDialUnknownListener(t *testing.T) {
	ctx := context.Background()
	tr := New()
	if _, err := tr.Dial(ctx, "nowhere", transport.PeerInfo{}); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestDuplicateListener(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := New()
	if _, err := tr.Listen(ctx, "medium"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if _, err := tr.Listen(ctx, "medium"); err == nil {
		t.Fatalf("expected duplicate listener error")
	}
}
