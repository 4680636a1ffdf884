package server

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/lanhub/lanhub/internal/logger"
)

type direction string

const (
	directionSend direction = "send" // server -> client (download)
	directionRecv direction = "recv" // client -> server (upload)
)

// transfer is one file-transfer side channel: an ephemeral listener that
// serves exactly one connection from the expected peer, streams the file,
// and dies. It never touches the control connection.
type transfer struct {
	master *Master
	dir    direction

	path   string // resolved absolute path inside the share
	size   int64  // file size (send) or declared upload size (recv)
	offset int64  // resume point for downloads

	peerIP string
	ln     *net.TCPListener
	window time.Duration
}

func newTransfer(m *Master, dir direction, path string, size, offset int64, peerIP string) (*transfer, error) {
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("open transfer listener: %w", err)
	}
	window := m.acceptWindow
	if window <= 0 {
		window = 3 * time.Second
	}
	return &transfer{
		master: m,
		dir:    dir,
		path:   path,
		size:   size,
		offset: offset,
		peerIP: peerIP,
		ln:     ln,
		window: window,
	}, nil
}

// port returns the ephemeral port handed back to the client.
func (t *transfer) port() int {
	return t.ln.Addr().(*net.TCPAddr).Port
}

// run accepts the peer and moves the bytes. Runs on its own goroutine.
func (t *transfer) run() {
	conn := t.accept()
	if conn == nil {
		t.master.metrics.TransferDone(string(t.dir), "timeout", 0)
		return
	}
	defer conn.Close()

	var (
		n   int64
		err error
	)
	switch t.dir {
	case directionSend:
		n, err = t.send(conn)
	case directionRecv:
		n, err = t.recv(conn)
	}
	if err != nil {
		logger.Warn("transfer failed",
			logger.KeyPath, t.path, logger.KeyClientIP, t.peerIP,
			"direction", string(t.dir), logger.KeyError, err)
		t.master.metrics.TransferDone(string(t.dir), "error", n)
		return
	}
	logger.Info("transfer complete",
		logger.KeyPath, t.path, logger.KeyClientIP, t.peerIP,
		"direction", string(t.dir), logger.KeySize, n)
	t.master.metrics.TransferDone(string(t.dir), "ok", n)
}

// accept waits up to the configured window for a connection from the
// expected peer IP. Connections from anyone else are closed and the wait
// continues inside the same window. Returns nil on timeout.
func (t *transfer) accept() net.Conn {
	defer t.ln.Close()

	deadline := time.Now().Add(t.window)
	_ = t.ln.SetDeadline(deadline)
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			logger.Info("transfer accept window expired",
				logger.KeyPath, t.path, logger.KeyClientIP, t.peerIP, logger.KeyPort, t.port())
			return nil
		}
		ip := conn.RemoteAddr().String()
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if ip != t.peerIP {
			logger.Warn("transfer connection from unexpected peer",
				logger.KeyClientIP, ip, "expected_ip", t.peerIP)
			_ = conn.Close()
			continue
		}
		return conn
	}
}

// send streams the file from the resume offset, then waits for one drain
// byte from the client before closing so the client can confirm receipt.
func (t *transfer) send(conn net.Conn) (int64, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to %d: %w", t.offset, err)
	}
	n, err := io.Copy(conn, f)
	if err != nil {
		return n, fmt.Errorf("send bytes: %w", err)
	}

	// Drain/fin handshake: the client sends one byte when it has read
	// everything, so closing here cannot truncate the stream.
	one := make([]byte, 1)
	_, _ = conn.Read(one)
	return n, nil
}

// recv ingests exactly the declared size into a temporary file in the
// share, then renames it into place. Excess bytes are left unread; a short
// stream aborts without creating the target.
func (t *transfer) recv(conn net.Conn) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".lanhub-upload-*")
	if err != nil {
		return 0, fmt.Errorf("create upload temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	n, err := io.CopyN(tmp, conn, t.size)
	if err != nil {
		cleanup()
		return n, fmt.Errorf("receive bytes (%d of %d): %w", n, t.size, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return n, fmt.Errorf("flush upload: %w", err)
	}

	// The existence check at request time is advisory; re-check before the
	// rename so a concurrent upload cannot silently overwrite.
	if _, err := os.Stat(t.path); err == nil {
		os.Remove(tmpName)
		return n, fmt.Errorf("target %s already exists", t.path)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return n, fmt.Errorf("finalize upload: %w", err)
	}
	return n, nil
}
