package discovery

import (
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseFormat(t *testing.T) {
	r, err := New("S1", "192.168.1.10", 9000)
	require.NoError(t, err)
	defer r.Close()

	got := r.Response()
	assert.Equal(t, "RESPONSE_SERVER_<S1>_192.168.1.10_9000", got)
	assert.Regexp(t, regexp.MustCompile(`^RESPONSE_SERVER_<[A-Za-z0-9-]*>_\d{1,3}(\.\d{1,3}){3}_\d{1,5}$`), got)
}

func TestNewValidation(t *testing.T) {
	_, err := New("bad name!", "127.0.0.1", 9000)
	assert.Error(t, err)

	_, err = New("ok", "not-an-ip", 9000)
	assert.Error(t, err)
}

func TestProbeReply(t *testing.T) {
	r, err := New("S1", "127.0.0.1", 9000)
	if err != nil {
		t.Skipf("discovery port unavailable: %v", err)
	}
	defer r.Close()
	go r.Serve()

	client, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: Port})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))

	// Malformed probe: no reply expected, responder stays alive.
	_, err = client.Write([]byte("HELLO?"))
	require.NoError(t, err)

	_, err = client.Write([]byte(ProbePayload))
	require.NoError(t, err)

	buf := make([]byte, 256)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, r.Response(), string(buf[:n]))
}

func TestCloseIdempotent(t *testing.T) {
	r, err := New("S1", "127.0.0.1", 9000)
	if err != nil {
		t.Skipf("discovery port unavailable: %v", err)
	}
	r.Close()
	r.Close()
}
