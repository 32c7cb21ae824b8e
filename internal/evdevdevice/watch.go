package evdevdevice

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/keyd-project/keyd/internal/device"
)

// ptrAt reinterprets buf[offset:] as a pointer to an inotify_event
// header, mirroring the standard fsnotify-style cast used to parse
// raw inotify read buffers.
func ptrAt(buf []byte, offset int) unsafe.Pointer {
	return unsafe.Pointer(&buf[offset])
}

// Watcher reports device hot-plug by watching /dev/input for file
// creation and deletion via inotify, the same primitive family
// (golang.org/x/sys/unix) the rest of the pack uses for raw Linux
// event sources. The dispatcher itself has no notion of hot-plug; it
// only sees the DeviceAdded/DeviceRemoved events this produces.
type Watcher struct {
	fd      int
	wd      int
	backend *Backend
}

// NewWatcher opens an inotify instance on /dev/input.
func NewWatcher(backend *Backend) (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("evdevdevice: inotify_init1: %w", err)
	}

	wd, err := unix.InotifyAddWatch(fd, "/dev/input", unix.IN_CREATE|unix.IN_DELETE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("evdevdevice: inotify_add_watch: %w", err)
	}

	return &Watcher{fd: fd, wd: wd, backend: backend}, nil
}

// FD exposes the inotify descriptor for registration with
// internal/eventloop.
func (w *Watcher) FD() int { return w.fd }

// Read drains one batch of inotify events, returning the devices added
// and the paths removed. Every add still needs a round trip through
// Enumerate to pick up the device's name and capabilities; a bare
// inotify IN_CREATE only tells us a path appeared.
func (w *Watcher) Read() (added []*device.Device, removedPaths []string, err error) {
	buf := make([]byte, 4096)
	n, err := unix.Read(w.fd, buf)
	if err != nil {
		return nil, nil, fmt.Errorf("evdevdevice: read inotify: %w", err)
	}

	offset := 0
	var createdNames []string
	for offset+unix.SizeofInotifyEvent <= n {
		raw := (*unix.InotifyEvent)(ptrAt(buf, offset))
		nameStart := offset + unix.SizeofInotifyEvent
		nameEnd := nameStart + int(raw.Len)
		name := strings.TrimRight(string(buf[nameStart:nameEnd]), "\x00")

		if !strings.HasPrefix(name, "event") {
			offset = nameEnd
			continue
		}

		switch {
		case raw.Mask&unix.IN_CREATE != 0:
			createdNames = append(createdNames, name)
		case raw.Mask&unix.IN_DELETE != 0:
			removedPaths = append(removedPaths, "/dev/input/"+name)
		}
		offset = nameEnd
	}

	if len(createdNames) > 0 {
		all, enumErr := w.backend.Enumerate()
		if enumErr != nil {
			return nil, removedPaths, enumErr
		}
		wanted := map[string]bool{}
		for _, name := range createdNames {
			wanted["/dev/input/"+name] = true
		}
		for _, dev := range all {
			if wanted[dev.Path] {
				added = append(added, dev)
			}
		}
	}

	return added, removedPaths, nil
}

// Close releases the inotify descriptor.
func (w *Watcher) Close() error {
	return unix.Close(w.fd)
}
