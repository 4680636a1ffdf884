package server

import "github.com/lanhub/lanhub/internal/protocol"

// Ask commands a worker may submit to the master.
const (
	askUser = "user" // args: [userID, password]; payload: *users.Record
	askMsg  = "msg"  // args: [Message]
)

// ask is a synchronous request from a worker to the master: the worker
// enqueues it and blocks on done; the master fills status and payload, then
// closes done. Workers never touch master state directly.
type ask struct {
	cmd  string
	args []any

	status  protocol.Status
	payload any
	done    chan struct{}
}

func newAsk(cmd string, args ...any) *ask {
	return &ask{cmd: cmd, args: args, done: make(chan struct{})}
}

// answer resolves the ask. Must be called exactly once, by the master.
func (a *ask) answer(status protocol.Status, payload any) {
	a.status = status
	a.payload = payload
	close(a.done)
}
