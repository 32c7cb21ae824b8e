package eventloop

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/stretchr/testify/require"
)

func TestLoopFiresCallbackOnReadableFD(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	fired := make(chan struct{}, 1)
	require.NoError(t, loop.Register(fds[0], func(uint32) {
		var buf [1]byte
		unix.Read(fds[0], buf[:])
		fired <- struct{}{}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() { _ = loop.Run(ctx, nil) }()

	_, err = unix.Write(fds[1], []byte{1})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("callback was never invoked")
	}
}

func TestSetTimeoutFiresOnTimerExpired(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	require.NoError(t, loop.SetTimeout(10))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	expired := make(chan struct{}, 1)
	go func() {
		_ = loop.Run(ctx, func() { expired <- struct{}{} })
	}()

	select {
	case <-expired:
	case <-ctx.Done():
		t.Fatal("timer never expired")
	}
}
