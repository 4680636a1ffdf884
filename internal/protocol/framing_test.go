package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowReader delivers one byte per Read call to exercise short reads.
type slowReader struct {
	data []byte
}

func (r *slowReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := []byte(`{"id":1,"cmd":"login","args":["alice","pw"]}`)

	require.NoError(t, WriteFrame(&buf, body))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestReadFrameShortReads(t *testing.T) {
	var buf bytes.Buffer
	body := []byte("0123456789abcdef")
	require.NoError(t, WriteFrame(&buf, body))

	got, err := ReadFrame(&slowReader{data: buf.Bytes()})
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestReadFrameEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameTruncated(t *testing.T) {
	t.Run("partial header", func(t *testing.T) {
		_, err := ReadFrame(bytes.NewReader([]byte{0, 0}))
		assert.Equal(t, io.ErrUnexpectedEOF, err)
	})

	t.Run("partial body", func(t *testing.T) {
		var head [4]byte
		binary.BigEndian.PutUint32(head[:], 100)
		data := append(head[:], []byte("only a little")...)
		_, err := ReadFrame(bytes.NewReader(data))
		assert.Equal(t, io.ErrUnexpectedEOF, err)
	})
}

func TestReadFrameHostileLength(t *testing.T) {
	var head [4]byte
	binary.BigEndian.PutUint32(head[:], MaxFrameSize+1)
	_, err := ReadFrame(bytes.NewReader(head[:]))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestPacketOverWire(t *testing.T) {
	var buf bytes.Buffer
	req := &Packet{ID: NextID(), Cmd: CmdGetFileList, Args: []any{"/docs"}}
	require.NoError(t, WritePacket(&buf, req))

	got, err := ReadPacket(&buf)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, req.Cmd, got.Cmd)

	path, err := got.StringArg(0)
	require.NoError(t, err)
	assert.Equal(t, "/docs", path)
}
