package queue

import (
	"encoding/json"
	"time"

	"hrms-backend/internal/hr"
)

// MessageVersion is bumped when the payload shape changes.
const MessageVersion = 1

// Message is the payload sent to downstream stream consumers for one
// committed activity entry.
type Message struct {
	EntryID     int64     `json:"entryId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
	Version     int       `json:"version"`
}

// FromEntry builds the message for an activity entry.
func FromEntry(e hr.ActivityEntry) Message {
	return Message{
		EntryID:     e.ID,
		Type:        e.Type,
		Title:       e.Title,
		Description: e.Description,
		OccurredAt:  e.Timestamp.UTC(),
		Version:     MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
