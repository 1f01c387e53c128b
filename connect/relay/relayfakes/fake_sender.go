package relayfakes

import (
	"context"
	"sync"

	"github.com/bizpilot/go-auth-client/connect/relay"
)

var _ relay.Sender = (*FakeSender)(nil)

// FakeSender records every message it is asked to deliver.
type FakeSender struct {
	lock     sync.Mutex
	messages []relay.Message
}

func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

func (fs *FakeSender) Send(_ context.Context, msg relay.Message) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.messages = append(fs.messages, msg)
	return nil
}

func (fs *FakeSender) Messages() []relay.Message {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return append([]relay.Message(nil), fs.messages...)
}
