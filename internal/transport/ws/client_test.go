package ws

import (
	"context"
	"net"
	"testing"
	"time"

	"quizlive/internal/domain"
)

func TestJoinGameConnectTimeout(t *testing.T) {
	// A listener that accepts but never speaks stalls the handshake.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = JoinGame(ctx, "ws://"+ln.Addr().String(), "123456", "Alice")
	if err != domain.ErrConnectTimeout {
		t.Fatalf("expected ErrConnectTimeout, got %v", err)
	}
}
