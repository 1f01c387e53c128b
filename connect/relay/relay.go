// Package relay carries the connect flow's completion message back to the
// window that opened the popup. Delivery is origin-filtered: a message only
// reaches a receiver registered for the exact origin it targets.
package relay

import "context"

type MessageType string

const (
	TypeConnectSuccess MessageType = "INSTAGRAM_CONNECT_SUCCESS"
	TypeConnectError   MessageType = "INSTAGRAM_CONNECT_ERROR"
)

// SuccessData is what the opener needs to finish linking the account. The
// link itself is completed by the opener, which holds the dashboard session
// credential this flow never sees.
type SuccessData struct {
	PageID            string `json:"page_id"`
	PageAccessToken   string `json:"page_access_token"`
	BusinessID        string `json:"business_id"`
	InstagramID       string `json:"instagram_id"`
	InstagramUsername string `json:"instagram_username"`
}

type Message struct {
	ID           string       `json:"id"`
	Type         MessageType  `json:"type"`
	TargetOrigin string       `json:"-"`
	Data         *SuccessData `json:"data,omitempty"`
	Error        string       `json:"error,omitempty"`
	ErrorDesc    string       `json:"error_description,omitempty"`
}

// Sender delivers a completion message to the opener. Implementations must
// drop, not deliver, messages whose TargetOrigin does not match the
// receiver's origin.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Receiver is the delivery side: whoever acts for the opener drains pending
// completion messages from here.
type Receiver interface {
	Receive() <-chan Message
}
