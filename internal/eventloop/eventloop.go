// Package eventloop implements the Event Loop primitive spec.md §2.1 and
// §4.2 describe only as an interface: a single epoll instance multiplexing
// every registered file descriptor plus one timerfd for the dispatcher's
// outstanding wakeup timeout. Grounded on the golang.org/x/sys/unix usage
// shared across the pack (gazed-vu, gdamore/tcell, bnema-waymon) for raw
// epoll/inotify/ioctl plumbing.
package eventloop

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// Callback is invoked with the raw epoll events bitmask whenever a
// registered fd becomes readable (or reports hangup/error).
type Callback func(events uint32)

// Loop owns one epoll instance, a one-shot timerfd, and the set of
// registered callbacks. It is not safe for concurrent use: spec.md §5
// requires every dispatch to happen on a single thread of control.
type Loop struct {
	epfd    int
	timerfd int
	cbs     map[int]Callback
	order   []int
}

// New creates the epoll instance and an initially-disarmed timerfd,
// registering the timer itself as one of the polled descriptors.
func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventloop: epoll_create1: %w", err)
	}

	tfd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventloop: timerfd_create: %w", err)
	}

	l := &Loop{epfd: epfd, timerfd: tfd, cbs: map[int]Callback{}}
	if err := l.Register(tfd, nil); err != nil {
		unix.Close(tfd)
		unix.Close(epfd)
		return nil, err
	}
	return l, nil
}

// Register adds fd to the poll set. cb may be nil for the timerfd, whose
// firing the Loop handles internally rather than through a callback.
func (l *Loop) Register(fd int, cb Callback) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("eventloop: epoll_ctl add %d: %w", fd, err)
	}
	l.cbs[fd] = cb
	l.order = append(l.order, fd)
	return nil
}

// Unregister removes fd from the poll set, for hot-unplug device removal.
func (l *Loop) Unregister(fd int) error {
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("eventloop: epoll_ctl del %d: %w", fd, err)
	}
	delete(l.cbs, fd)
	for i, existing := range l.order {
		if existing == fd {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetTimeout arms (or disarms, if ms <= 0) the single outstanding wakeup
// timer the dispatcher's Handle return value requests (spec.md §4.2).
// A subsequent call replaces any pending timeout; there is at most one.
func (l *Loop) SetTimeout(ms int) error {
	var spec unix.ItimerSpec
	if ms > 0 {
		spec.Value.Sec = int64(ms / 1000)
		spec.Value.Nsec = int64(ms%1000) * 1_000_000
	}
	if err := unix.TimerfdSettime(l.timerfd, 0, &spec, nil); err != nil {
		return fmt.Errorf("eventloop: timerfd_settime: %w", err)
	}
	return nil
}

// Run polls until ctx is canceled, dispatching one callback per ready fd
// per iteration. The timerfd's own readiness is drained internally and
// reported through the onTimerExpired function passed to Run, not a
// registered Callback, so cmd/keyd can route it straight into
// Dispatcher.Handle(event.Event{Kind: event.KindTimerExpired}).
func (l *Loop) Run(ctx context.Context, onTimerExpired func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		events := make([]unix.EpollEvent, 1+len(l.order))
		n, err := unix.EpollWait(l.epfd, events, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("eventloop: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == l.timerfd {
				var buf [8]byte
				_, _ = unix.Read(l.timerfd, buf[:])
				if onTimerExpired != nil {
					onTimerExpired()
				}
				continue
			}
			if cb, ok := l.cbs[fd]; ok && cb != nil {
				cb(events[i].Events)
			}
		}
	}
}

// Close releases the epoll and timerfd descriptors.
func (l *Loop) Close() error {
	err1 := unix.Close(l.timerfd)
	err2 := unix.Close(l.epfd)
	if err1 != nil {
		return err1
	}
	return err2
}
