// Package protocol implements the lanhub control protocol: a correlated
// request/response envelope serialized as UTF-8 JSON inside length-prefixed
// frames.
//
// Wire form of one packet:
//
//	uint32 big-endian body length ++ body
//
// where body is the JSON encoding of {"id": ..., "cmd": ..., "args": [...]}.
// A response reuses the request's id and carries cmd "return" with
// args [status, payload].
package protocol

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// CmdReturn marks a packet as a response to a previous request.
const CmdReturn = "return"

// Request command names understood by the server.
const (
	CmdLogin       = "login"
	CmdGetFileList = "getFileList"
	CmdGetMessage  = "getMessage"
	CmdPutMessage  = "putMessage"
	CmdGetFile     = "getFile"
	CmdPutFile     = "putFile"
)

// Packet is the control-protocol envelope exchanged on the main connection.
type Packet struct {
	ID   uint64 `json:"id"`
	Cmd  string `json:"cmd"`
	Args []any  `json:"args"`
}

// nextID is the process-wide packet id counter. Ids start at 1.
var nextID atomic.Uint64

// NextID returns a fresh packet id, unique within this process.
func NextID() uint64 {
	return nextID.Add(1)
}

// NewResponse builds the response packet for req with the given status and
// optional payload.
func NewResponse(req *Packet, status Status, payload any) *Packet {
	return &Packet{
		ID:   req.ID,
		Cmd:  CmdReturn,
		Args: []any{status, payload},
	}
}

// Encode serializes the packet body (without the length prefix).
func (p *Packet) Encode() ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode packet %d: %w", p.ID, err)
	}
	return body, nil
}

// Decode parses a packet body (without the length prefix).
func Decode(body []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode packet: %w", err)
	}
	return &p, nil
}

// IsReturn reports whether the packet is a response.
func (p *Packet) IsReturn() bool {
	return p.Cmd == CmdReturn
}

// StringArg returns args[i] as a string.
func (p *Packet) StringArg(i int) (string, error) {
	if i >= len(p.Args) {
		return "", fmt.Errorf("missing argument %d for %q", i, p.Cmd)
	}
	s, ok := p.Args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d for %q: expected string, got %T", i, p.Cmd, p.Args[i])
	}
	return s, nil
}

// IntArg returns args[i] as an int64. JSON numbers decode as float64, so the
// value is converted; fractional values are rejected.
func (p *Packet) IntArg(i int) (int64, error) {
	if i >= len(p.Args) {
		return 0, fmt.Errorf("missing argument %d for %q", i, p.Cmd)
	}
	switch v := p.Args[i].(type) {
	case float64:
		n := int64(v)
		if float64(n) != v {
			return 0, fmt.Errorf("argument %d for %q: expected integer, got %v", i, p.Cmd, v)
		}
		return n, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %d for %q: %w", i, p.Cmd, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %d for %q: expected number, got %T", i, p.Cmd, p.Args[i])
	}
}
