// Package server implements the lanhub core: the master coordinator, the
// per-connection workers, and the file-transfer side channels.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanhub/lanhub/internal/logger"
	"github.com/lanhub/lanhub/internal/perms"
	"github.com/lanhub/lanhub/internal/protocol"
	"github.com/lanhub/lanhub/internal/share"
	"github.com/lanhub/lanhub/internal/users"
	"github.com/lanhub/lanhub/pkg/metrics"
)

// tickInterval is the cadence of the master coordination loop.
const tickInterval = 10 * time.Millisecond

// Options configures a Master.
type Options struct {
	BindAddress string
	Port        int

	Share *share.Share
	Users *users.Table
	Perms *perms.Table

	// AcceptWindow bounds how long a file-transfer endpoint waits for the
	// peer. Zero means the 3 s default.
	AcceptWindow time.Duration

	// MaxTransferSize caps declared upload sizes. Zero means no cap.
	MaxTransferSize int64

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// accepted carries one result of the accept loop to the master. A nil conn
// is the sentinel for listener death, with reason in err.
type accepted struct {
	conn net.Conn
	err  error
}

// binding pairs a user record with the worker currently logged in as that
// user, if any.
type binding struct {
	record *users.Record
	worker *Worker
}

// Master is the singleton coordinator. It owns the authoritative user
// bindings and worker map, arbitrates logins, fans out messages, and reaps
// dead workers. All of that state is touched only by the master goroutine;
// workers communicate exclusively through their ask queues.
type Master struct {
	share           *share.Share
	perms           *perms.Table
	metrics         *metrics.Metrics
	acceptWindow    time.Duration
	maxTransferSize int64

	listener net.Listener
	accepted chan accepted

	// workerMap holds every worker that has not been reaped, by peer addr.
	workerMap map[string]*Worker
	// userMap holds one slot per user id from the user table.
	userMap map[string]*binding

	// serverMsgs carries operator messages into the next tick.
	serverMsgs chan Message
	// tap mirrors every fanned-out message for local observers. Bounded;
	// drops when nobody listens.
	tap chan Message

	running  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	connCount  atomic.Int32
	loginCount atomic.Int32
	startedAt  time.Time
}

// New creates a Master. Call Start to begin serving.
func New(opts Options) (*Master, error) {
	if opts.Share == nil || opts.Users == nil || opts.Perms == nil {
		return nil, fmt.Errorf("share, users, and perms are required")
	}

	m := &Master{
		share:           opts.Share,
		perms:           opts.Perms,
		metrics:         opts.Metrics,
		acceptWindow:    opts.AcceptWindow,
		maxTransferSize: opts.MaxTransferSize,
		accepted:        make(chan accepted, 16),
		workerMap:       make(map[string]*Worker),
		userMap:         make(map[string]*binding),
		serverMsgs:      make(chan Message, 64),
		tap:             make(chan Message, 256),
		stopCh:          make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, id := range opts.Users.IDs() {
		m.userMap[id] = &binding{record: opts.Users.Lookup(id)}
	}

	addr := fmt.Sprintf("%s:%d", opts.BindAddress, opts.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	m.listener = ln
	return m, nil
}

// Start launches the accept loop and the coordination loop.
func (m *Master) Start() {
	m.running.Store(true)
	m.startedAt = time.Now()
	logger.Info("server listening", "addr", m.listener.Addr().String())
	go m.acceptLoop()
	go m.run()
}

// Addr returns the TCP listen address.
func (m *Master) Addr() net.Addr {
	return m.listener.Addr()
}

// acceptLoop blocks on the listener and feeds the master. Closing the
// listener is the shutdown signal; any error ends the loop with a sentinel
// so the master can observe listener death.
func (m *Master) acceptLoop() {
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			select {
			case m.accepted <- accepted{err: err}:
			case <-m.stopCh:
			}
			return
		}
		select {
		case m.accepted <- accepted{conn: conn}:
		case <-m.stopCh:
			_ = conn.Close()
			return
		}
	}
}

// run is the coordination loop: every tick it admits one accepted socket,
// drains worker asks, fans out the tick's messages, and reaps the dead.
func (m *Master) run() {
	defer close(m.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Master) tick() {
	var msgs []Message

	// Operator messages queued since the last tick.
	for {
		select {
		case msg := <-m.serverMsgs:
			msgs = append(msgs, msg)
			continue
		default:
		}
		break
	}

	// Admit one pending connection.
	select {
	case acc := <-m.accepted:
		if acc.conn == nil {
			if m.running.Load() {
				logger.Error("listener died", logger.KeyError, acc.err)
			}
		} else {
			w := newWorker(m, acc.conn)
			w.start()
			m.workerMap[w.peerAddr] = w
			m.connCount.Store(int32(len(m.workerMap)))
			m.metrics.ConnectionAccepted()
			logger.Info("client connected", logger.KeyClientAddr, w.peerAddr)
		}
	default:
	}

	// Drain every worker's ask queue.
	for _, w := range m.workerMap {
		for {
			select {
			case a := <-w.asks:
				msgs = m.handleAsk(w, a, msgs)
				continue
			default:
			}
			break
		}
	}

	// Fan-out, then reaping, then the local tap.
	m.fanOut(msgs)
	m.reap()
	for _, msg := range msgs {
		select {
		case m.tap <- msg:
		default:
		}
	}
}

// handleAsk services one worker ask and returns the (possibly extended)
// tick message list.
func (m *Master) handleAsk(w *Worker, a *ask, msgs []Message) []Message {
	switch a.cmd {
	case askUser:
		m.handleLoginAsk(w, a)
	case askMsg:
		msg := a.args[0].(Message)
		msgs = append(msgs, msg)
		a.answer(protocol.StatusOK, nil)
	default:
		a.answer(protocol.StatusErrNoPermission, nil)
	}
	return msgs
}

// handleLoginAsk verifies credentials and binds the asking worker to the
// user, displacing a previously bound live worker in the same step. The
// displaced connection is closed by the server; the new login does not need
// to retry.
func (m *Master) handleLoginAsk(w *Worker, a *ask) {
	id := a.args[0].(string)
	password := a.args[1].(string)

	b, ok := m.userMap[id]
	if !ok {
		logger.Warn("login refused: unknown user",
			logger.KeyClientAddr, w.peerAddr, logger.KeyUser, id)
		m.metrics.LoginAttempt("bad_user")
		a.answer(protocol.StatusErrUserUndefined, nil)
		return
	}
	if b.record.Password != password {
		logger.Warn("login refused: wrong password",
			logger.KeyClientAddr, w.peerAddr, logger.KeyUser, id)
		m.metrics.LoginAttempt("bad_password")
		a.answer(protocol.StatusErrPswdUnmatch, nil)
		return
	}

	if prev := b.worker; prev != nil && prev != w && prev.loggedIn.Load() {
		logger.Info("displacing previous connection",
			logger.KeyUser, id, "old_addr", prev.peerAddr, "new_addr", w.peerAddr)
		prev.stop()
	}
	b.worker = w
	m.metrics.LoginAttempt("success")
	a.answer(protocol.StatusOK, b.record)
}

// fanOut delivers the tick's messages to every bound live worker allowed
// to receive them: everyone when distributeMessage is set, otherwise only
// self-echo and operator broadcasts.
func (m *Master) fanOut(msgs []Message) {
	if len(msgs) == 0 {
		return
	}
	distribute := m.perms.DistributeMessage()
	delivered := 0
	for _, b := range m.userMap {
		w := b.worker
		if w == nil || !w.running.Load() || !w.loggedIn.Load() {
			continue
		}
		for _, msg := range msgs {
			if distribute || msg.Sender == b.record.ID || msg.Sender == SenderServer {
				w.msgInbox.push(msg)
				delivered++
			}
		}
	}
	m.metrics.MessageFanned(delivered)
}

// reap drops workers whose loops have exited and clears their bindings.
func (m *Master) reap() {
	for addr, w := range m.workerMap {
		if w.running.Load() {
			continue
		}
		delete(m.workerMap, addr)
		m.metrics.ConnectionClosed()
		for _, b := range m.userMap {
			if b.worker == w {
				b.worker = nil
			}
		}
	}

	logins := 0
	for _, b := range m.userMap {
		if b.worker != nil && b.worker.loggedIn.Load() {
			logins++
		}
	}
	m.connCount.Store(int32(len(m.workerMap)))
	m.loginCount.Store(int32(logins))
	m.metrics.SetLoggedInUsers(logins)
}

// SendMessage queues an operator message for the next tick. Safe from any
// goroutine.
func (m *Master) SendMessage(body string) {
	msg := Message{Sender: SenderServer, Time: time.Now(), Body: body}
	select {
	case m.serverMsgs <- msg:
	case <-m.stopCh:
	}
}

// Tap returns the mirror stream of fanned-out messages for local
// observers. Messages are dropped, not blocked on, when the consumer lags.
func (m *Master) Tap() <-chan Message {
	return m.tap
}

// ActiveConnections returns the number of unreaped workers.
func (m *Master) ActiveConnections() int {
	return int(m.connCount.Load())
}

// LoggedInUsers returns the number of users currently bound to a live,
// authenticated worker.
func (m *Master) LoggedInUsers() int {
	return int(m.loginCount.Load())
}

// Uptime reports time since Start.
func (m *Master) Uptime() time.Duration {
	if m.startedAt.IsZero() {
		return 0
	}
	return time.Since(m.startedAt)
}

// Stop shuts the server down: close the listener (ends the accept loop),
// stop the coordination loop, stop every worker, and close any accepted
// sockets nobody serviced. Idempotent and safe from any goroutine.
func (m *Master) Stop() {
	m.stopOnce.Do(func() {
		m.running.Store(false)
		_ = m.listener.Close()
		close(m.stopCh)
		<-m.done

		for _, w := range m.workerMap {
			w.stop()
		}
		for {
			select {
			case acc := <-m.accepted:
				if acc.conn != nil {
					_ = acc.conn.Close()
				}
				continue
			default:
			}
			break
		}
		logger.Info("server stopped")
	})
}
