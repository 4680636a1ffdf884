// Package discovery answers LAN broadcast probes with the server identity,
// letting clients find the hub without configuration.
package discovery

import (
	"fmt"
	"net"
	"regexp"
	"sync"

	"github.com/lanhub/lanhub/internal/logger"
)

// Port is the fixed UDP port clients probe.
const Port = 57777

// ProbePayload is the exact datagram body a client sends to locate servers.
const ProbePayload = "REQUIRE_SERVER"

var nameRe = regexp.MustCompile(`^[A-Za-z0-9-]*$`)

// Responder listens on UDP and replies to discovery probes with
// RESPONSE_SERVER_<name>_ip_port.
type Responder struct {
	name string
	ip   string
	port int

	conn *net.UDPConn

	closeOnce sync.Once
	done      chan struct{}
}

// New validates the advertised identity and binds the discovery socket.
// name may contain alphanumerics and '-'; ip is the advertised IPv4 of the
// TCP listener; port its TCP port.
func New(name, ip string, port int) (*Responder, error) {
	if !nameRe.MatchString(name) {
		return nil, fmt.Errorf("invalid server name %q: only alphanumerics and '-' allowed", name)
	}
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("invalid advertised ip %q", ip)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: Port})
	if err != nil {
		return nil, fmt.Errorf("bind discovery port %d: %w", Port, err)
	}

	return &Responder{
		name: name,
		ip:   ip,
		port: port,
		conn: conn,
		done: make(chan struct{}),
	}, nil
}

// Response returns the reply payload sent to probing clients.
func (r *Responder) Response() string {
	return fmt.Sprintf("RESPONSE_SERVER_<%s>_%s_%d", r.name, r.ip, r.port)
}

// Serve answers probes until Close is called. Malformed probes are dropped
// silently. Socket errors other than close are logged and the responder
// exits without cascading.
func (r *Responder) Serve() {
	logger.Info("discovery responder listening", "port", Port, "name", r.name)

	reply := []byte(r.Response())
	buf := make([]byte, 1024)
	for {
		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.done:
				// Closed by Close; expected.
			default:
				logger.Warn("discovery socket error", "error", err)
			}
			return
		}
		if string(buf[:n]) != ProbePayload {
			continue
		}
		if _, err := r.conn.WriteToUDP(reply, addr); err != nil {
			logger.Debug("discovery reply failed", "peer", addr, "error", err)
		}
	}
}

// Close stops the responder. Safe to call more than once.
func (r *Responder) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		_ = r.conn.Close()
	})
}
