package main

import (
	"context"
	"errors"
	"net"

	"github.com/keyd-project/keyd/internal/ipc"
	"github.com/keyd-project/keyd/internal/logging"
)

// acceptControlConnections runs the control channel's accept loop
// (spec.md §6.1, §4.6). Every accepted connection is read once and
// forwarded to the single dispatch goroutine; LAYER_LISTEN connections
// are then held open by the dispatcher's listener set, every other
// request gets exactly one reply and is closed there.
func acceptControlConnections(ctx context.Context, listener net.Listener, out chan<- controlRequest) {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		con, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// spec.md §4.8/§7: accept failure on the control socket is
			// fatal, matching daemon.c's perror("accept"); exit(-1).
			logging.Fatalf("control: accept: %v", err)
			return
		}
		go readOneRequest(ctx, con, out)
	}
}

func readOneRequest(ctx context.Context, con net.Conn, out chan<- controlRequest) {
	msg, err := ipc.ReadMessage(con)
	if err != nil {
		logging.Warnf("control: read: %v", err)
		con.Close()
		return
	}

	select {
	case out <- controlRequest{con: con, msg: msg}:
	case <-ctx.Done():
		con.Close()
	}
}
