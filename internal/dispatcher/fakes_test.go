package dispatcher

import (
	"errors"
	"time"

	"github.com/keyd-project/keyd/internal/device"
	"github.com/keyd-project/keyd/internal/interpreter"
)

// fakeSink records every emission instead of touching a real uinput device.
type fakeSink struct {
	name    string
	keys    [][2]interface{}
	rel     [][2]int32
	abs     [][2]int32
	scrolls [][2]int32
}

func newFakeSink(name string) *fakeSink { return &fakeSink{name: name} }

func (s *fakeSink) KeyPress(code uint8, pressed bool) error {
	s.keys = append(s.keys, [2]interface{}{code, pressed})
	return nil
}
func (s *fakeSink) MoveRelative(dx, dy int32) error {
	s.rel = append(s.rel, [2]int32{dx, dy})
	return nil
}
func (s *fakeSink) MoveAbsolute(x, y int32) error {
	s.abs = append(s.abs, [2]int32{x, y})
	return nil
}
func (s *fakeSink) Scroll(dx, dy int32) error {
	s.scrolls = append(s.scrolls, [2]int32{dx, dy})
	return nil
}
func (s *fakeSink) Name() string { return s.name }

// fakeGrabber tracks grab/ungrab calls and can be told to fail a
// specific device path.
type fakeGrabber struct {
	failPaths map[string]bool
	grabbed   map[string]bool
}

func newFakeGrabber() *fakeGrabber {
	return &fakeGrabber{failPaths: map[string]bool{}, grabbed: map[string]bool{}}
}

func (g *fakeGrabber) Grab(dev *device.Device) error {
	if g.failPaths[dev.Path] {
		return errors.New("grab failed")
	}
	g.grabbed[dev.Path] = true
	return nil
}

func (g *fakeGrabber) Ungrab(dev *device.Device) error {
	delete(g.grabbed, dev.Path)
	return nil
}

// fakeInterpreter is a minimal, inspectable stand-in for
// interpreter.Interpreter.
type fakeInterpreter struct {
	name         string
	processed    []processedKey
	tickCount    int
	nextTimeout  int
	bindAccepts  bool
	lastBindExpr string
}

type processedKey struct {
	code    uint8
	pressed bool
}

func (f *fakeInterpreter) ProcessKey(code uint8, pressed bool) int {
	f.processed = append(f.processed, processedKey{code, pressed})
	return f.nextTimeout
}

func (f *fakeInterpreter) Tick() int {
	f.tickCount++
	return 0
}

func (f *fakeInterpreter) Bind(expr string) error {
	f.lastBindExpr = expr
	if f.bindAccepts {
		return nil
	}
	return errors.New("rejected: " + expr)
}

var _ interpreter.Interpreter = (*fakeInterpreter)(nil)

// fakeLoader returns a fixed registry built around fakeInterpreters,
// regardless of what's on disk.
type fakeLoader struct {
	build func() []*ConfigEntry
	err   error
}

func (l *fakeLoader) Load(emit interpreter.Emitter, onLayer interpreter.LayerObserver) ([]*ConfigEntry, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.build(), nil
}

func scoreExact(vendor, product uint16) func(uint32) int {
	id := uint32(vendor)<<16 | uint32(product)
	return func(candidate uint32) int {
		if candidate == id {
			return 2
		}
		return 0
	}
}

func scoreWildcard() func(uint32) int {
	return func(uint32) int { return 1 }
}

// fakeConn is an in-memory Listener for exercising listener fan-out,
// short writes and timeouts without a real socket.
type fakeConn struct {
	written   []byte
	closed    bool
	failWrite bool
	shortBy   int
	deadline  time.Time
}

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("closed")
	}
	if c.failWrite {
		return 0, errors.New("write failed")
	}
	n := len(p) - c.shortBy
	if n < 0 {
		n = 0
	}
	c.written = append(c.written, p[:n]...)
	return n, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.deadline = t
	return nil
}

var _ Listener = (*fakeConn)(nil)
