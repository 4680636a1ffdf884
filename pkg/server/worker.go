package server

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanhub/lanhub/internal/logger"
	"github.com/lanhub/lanhub/internal/protocol"
	"github.com/lanhub/lanhub/internal/users"
)

// errStopped is returned by askMaster when the worker shut down before the
// master answered.
var errStopped = errors.New("worker stopped")

// Worker serves one client connection. Three goroutines cooperate per
// worker: a receiver framing inbound packets, a sender writing responses,
// and the main loop dispatching one request at a time. Requests on a
// connection are therefore handled strictly in arrival order.
type Worker struct {
	master *Master
	conn   net.Conn

	peerAddr string
	peerIP   string

	// requests carries framed inbound packets from the receiver to the
	// main loop; nil marks stream death.
	requests  chan *protocol.Packet
	responses chan *protocol.Packet

	// asks is drained by the master's tick loop.
	asks chan *ask

	msgInbox inbox

	user     *users.Record // set exactly when loggedIn flips to true
	loggedIn atomic.Bool
	running  atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}

	done chan struct{} // closed when the main loop exits
}

func newWorker(m *Master, conn net.Conn) *Worker {
	addr := conn.RemoteAddr().String()
	ip := addr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		ip = host
	}
	w := &Worker{
		master:    m,
		conn:      conn,
		peerAddr:  addr,
		peerIP:    ip,
		requests:  make(chan *protocol.Packet, 16),
		responses: make(chan *protocol.Packet, 16),
		asks:      make(chan *ask, 16),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	w.running.Store(true)
	return w
}

// start launches the receiver, sender, and main goroutines.
func (w *Worker) start() {
	go w.recvLoop()
	go w.sendLoop()
	go w.run()
}

// recvLoop frames inbound packets onto w.requests. A nil packet signals
// stream death to the main loop.
func (w *Worker) recvLoop() {
	for {
		pkt, err := protocol.ReadPacket(w.conn)
		if err != nil {
			select {
			case w.requests <- nil:
			case <-w.stopCh:
			}
			return
		}
		select {
		case w.requests <- pkt:
		case <-w.stopCh:
			return
		}
	}
}

// sendLoop drains w.responses onto the socket. A nil response or stop
// signal ends it.
func (w *Worker) sendLoop() {
	for {
		select {
		case pkt := <-w.responses:
			if pkt == nil {
				return
			}
			if err := protocol.WritePacket(w.conn, pkt); err != nil {
				logger.Debug("response write failed",
					logger.KeyClientAddr, w.peerAddr, logger.KeyError, err)
				return
			}
		case <-w.stopCh:
			return
		}
	}
}

// run is the worker main loop: one packet at a time, never concurrent.
func (w *Worker) run() {
	defer func() {
		w.stop()
		close(w.done)
	}()

	for {
		select {
		case pkt := <-w.requests:
			if pkt == nil {
				logger.Info("client disconnected", logger.KeyClientAddr, w.peerAddr)
				return
			}
			w.dispatch(pkt)
		case <-w.stopCh:
			return
		}
	}
}

// dispatch routes one request through the command table and replies.
// A panic in a handler is confined to the request: the client gets
// ERR_SERVER_BUSY and the connection stays up.
func (w *Worker) dispatch(pkt *protocol.Packet) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic handling request",
				logger.KeyClientAddr, w.peerAddr, logger.KeyCmd, pkt.Cmd, "panic", r)
			w.reply(pkt, protocol.StatusErrServerBusy, nil)
		}
	}()

	if !w.loggedIn.Load() && pkt.Cmd != protocol.CmdLogin {
		logger.Warn("request before login refused",
			logger.KeyClientAddr, w.peerAddr, logger.KeyCmd, pkt.Cmd)
		w.reply(pkt, protocol.StatusErrNoLogin, nil)
		return
	}
	if w.loggedIn.Load() && pkt.Cmd == protocol.CmdLogin {
		w.reply(pkt, protocol.StatusErrUserRelogin, nil)
		return
	}

	handler, ok := commandTable[pkt.Cmd]
	if !ok {
		w.reply(pkt, protocol.StatusErrUndefCmd, nil)
		return
	}
	status, payload := handler(w, pkt)
	w.reply(pkt, status, payload)
}

// reply queues the response for pkt.
func (w *Worker) reply(pkt *protocol.Packet, status protocol.Status, payload any) {
	if status != protocol.StatusOK {
		logger.Debug("request failed",
			logger.KeyClientAddr, w.peerAddr, logger.KeyCmd, pkt.Cmd,
			logger.KeyPacketID, pkt.ID, logger.KeyStatus, status.String())
	}
	select {
	case w.responses <- protocol.NewResponse(pkt, status, payload):
	case <-w.stopCh:
	}
}

// askMaster submits an ask and blocks until the master answers or the
// worker is stopped.
func (w *Worker) askMaster(a *ask) error {
	select {
	case w.asks <- a:
	case <-w.stopCh:
		return errStopped
	}
	select {
	case <-a.done:
		return nil
	case <-w.stopCh:
		return errStopped
	}
}

// stop tears the worker down: flip running, unblock the receiver with an
// immediate read deadline, close the socket, release the sender and main
// loops. Safe from any goroutine and idempotent.
func (w *Worker) stop() {
	w.stopOnce.Do(func() {
		w.running.Store(false)
		w.loggedIn.Store(false)
		_ = w.conn.SetReadDeadline(time.Now())
		close(w.stopCh)
		_ = w.conn.Close()
	})
}

// UserID returns the logged-in user id, or "" before login.
func (w *Worker) UserID() string {
	if !w.loggedIn.Load() || w.user == nil {
		return ""
	}
	return w.user.ID
}
