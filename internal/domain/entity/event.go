package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMessageAppended      EventType = "message.appended"
	EventProjectStatusChanged EventType = "project.status_changed"
)

// Event is the envelope carried by the trigger bus.
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewEvent(eventType EventType, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	}, nil
}

func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

type MessageAppended struct {
	Thread        ThreadKey `json:"thread"`
	MessageID     string    `json:"message_id"`
	SenderID      string    `json:"sender_id"`
	SenderRole    Role      `json:"sender_role"`
	Body          string    `json:"body"`
	HasAttachment bool      `json:"has_attachment"`
}

type ProjectStatusChanged struct {
	ProjectID   string        `json:"project_id"`
	ProjectName string        `json:"project_name"`
	OwnerID     string        `json:"owner_id"`
	OldStatus   ProjectStatus `json:"old_status"`
	NewStatus   ProjectStatus `json:"new_status"`
}
