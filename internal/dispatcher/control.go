package dispatcher

import (
	"github.com/keyd-project/keyd/internal/ipc"
)

// FatalFunc is called when a control-channel request triggers a fatal
// condition (spec.md §7: configuration parse failure during reload).
// Production wires this to process exit; tests can record the call.
type FatalFunc func(error)

// HandleRequest implements spec.md §4.6: decode one request already
// read from a freshly accepted connection and act on it. con is kept
// open only for LAYER_LISTEN; every other request gets exactly one
// reply and con is then closed.
func (d *Dispatcher) HandleRequest(con Listener, msg ipc.Message, onFatal FatalFunc) {
	switch msg.Type {
	case ipc.Reload:
		if err := d.Reload(); err != nil {
			if onFatal != nil {
				onFatal(err)
			}
			return
		}
		_ = ipc.WriteMessage(con, ipc.SuccessMessage("Success"))
		_ = con.Close()

	case ipc.Bind:
		success := false
		lastErr := ""
		for _, entry := range d.registry {
			if err := entry.Interpreter.Bind(string(msg.Data)); err != nil {
				lastErr = err.Error()
			} else {
				success = true
			}
		}
		if success {
			_ = ipc.WriteMessage(con, ipc.SuccessMessage("Success"))
		} else {
			_ = ipc.WriteMessage(con, ipc.FailMessage(lastErr))
		}
		_ = con.Close()

	case ipc.LayerListen:
		if !d.listens.add(con) {
			_, _ = con.Write([]byte("Max listeners exceeded\n"))
			_ = con.Close()
		}
		// Registered; kept open for asynchronous layer-state streaming.

	default:
		_ = ipc.WriteMessage(con, ipc.FailMessage("Unknown command"))
		_ = con.Close()
	}
}
