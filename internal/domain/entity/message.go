package entity

import "time"

// Message is immutable once written. CreatedAt is assigned by the store.
type Message struct {
	ID            string    `json:"id" firestore:"id"`
	Thread        ThreadKey `json:"thread" firestore:"-"`
	SenderID      string    `json:"sender_id" firestore:"senderId"`
	SenderRole    Role      `json:"sender_role" firestore:"senderRole"`
	Body          string    `json:"body" firestore:"body"`
	AttachmentURL string    `json:"attachment_url,omitempty" firestore:"attachmentUrl,omitempty"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt,serverTimestamp"`
	Counted       bool      `json:"-" firestore:"counted"`
}

// MessageBatch is one delivery of a thread subscription. The initial batch
// carries the full ordered log, later batches only added or changed messages.
type MessageBatch struct {
	Thread   ThreadKey  `json:"thread"`
	Messages []*Message `json:"messages"`
	Initial  bool       `json:"initial"`
}

// Before orders messages by store timestamp, then ID for equal timestamps.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
