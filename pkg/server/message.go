package server

import (
	"sync"
	"time"
)

// SenderServer is the sentinel sender id for operator-originated messages.
const SenderServer = "SERVER"

// Message is one broadcast-channel message. Messages are never persisted;
// they live in worker inboxes until the next getMessage drains them.
type Message struct {
	Sender string
	Time   time.Time
	Body   string
}

// wire returns the protocol form of the message: [sender, unixSeconds, body].
func (m Message) wire() []any {
	return []any{m.Sender, m.Time.Unix(), m.Body}
}

// inbox is an unbounded FIFO of messages, filled by the master's fan-out
// and drained by the owning worker. Single producer, single consumer, but
// on different goroutines.
type inbox struct {
	mu   sync.Mutex
	msgs []Message
}

func (b *inbox) push(m Message) {
	b.mu.Lock()
	b.msgs = append(b.msgs, m)
	b.mu.Unlock()
}

// drain removes and returns all queued messages in arrival order.
func (b *inbox) drain() []Message {
	b.mu.Lock()
	msgs := b.msgs
	b.msgs = nil
	b.mu.Unlock()
	return msgs
}
