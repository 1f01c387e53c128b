package relay

import (
	"context"

	"github.com/rs/zerolog/log"
)

var (
	_ Sender   = (*Channel)(nil)
	_ Receiver = (*Channel)(nil)
)

// Channel is an in-process Sender bound to a single receiver origin.
// Mismatched origins are dropped silently (logged, not errored), mirroring
// how browser cross-window messaging discards posts to the wrong origin.
type Channel struct {
	origin   string
	messages chan Message
}

func NewChannel(origin string, buffer int) *Channel {
	return &Channel{
		origin:   origin,
		messages: make(chan Message, buffer),
	}
}

// Send never blocks. When the buffer is full the message is dropped with a
// warning, the same way a post to a closed opener window goes nowhere. A
// blocked Send would stall the callback request that triggered it.
func (c *Channel) Send(_ context.Context, msg Message) error {
	if msg.TargetOrigin != c.origin {
		log.Warn().
			Str("target_origin", msg.TargetOrigin).
			Str("channel_origin", c.origin).
			Msg("dropping completion message for foreign origin")
		return nil
	}

	select {
	case c.messages <- msg:
		return nil
	default:
		log.Warn().
			Str("type", string(msg.Type)).
			Str("id", msg.ID).
			Msg("dropping completion message, nothing is draining the relay")
		return nil
	}
}

// Receive exposes the delivery side of the channel.
func (c *Channel) Receive() <-chan Message {
	return c.messages
}
