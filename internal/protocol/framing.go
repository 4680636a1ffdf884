package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize caps the declared body length of a single frame. Anything
// larger is treated as a hostile or corrupted header and kills the
// connection rather than allocating the declared amount.
const MaxFrameSize = 16 << 20 // 16 MiB

// ErrFrameTooLarge is returned when a frame header declares a body larger
// than MaxFrameSize. The connection is not recoverable afterwards because
// the stream position is unknown.
var ErrFrameTooLarge = fmt.Errorf("frame exceeds %d bytes", MaxFrameSize)

// ReadFrame reads one length-prefixed frame from r and returns the body.
//
// Both the 4-byte header and the body are read with io.ReadFull: a short
// read is not end-of-message. io.EOF is returned unwrapped when the stream
// ends cleanly between frames; an EOF mid-frame surfaces as
// io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader) ([]byte, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(head[:])
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

// WriteFrame writes body to w as one length-prefixed frame.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var head [4]byte
	binary.BigEndian.PutUint32(head[:], uint32(len(body)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadPacket reads and decodes one packet from r.
func ReadPacket(r io.Reader) (*Packet, error) {
	body, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// WritePacket encodes and writes one packet to w.
func WritePacket(w io.Writer, p *Packet) error {
	body, err := p.Encode()
	if err != nil {
		return err
	}
	return WriteFrame(w, body)
}
