package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types published by the API.
const (
	TypeMarked   = "attendance.marked"
	TypeReset    = "attendance.reset"
	TypeRestored = "ledger.restored"
)

// Event is the JSON body of every ledger message.
type Event struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Class      string    `json:"class,omitempty"`
	CheckIn    string    `json:"check_in,omitempty"`
	Status     string    `json:"status,omitempty"`
	Date       string    `json:"date,omitempty"`
	TotalDays  int       `json:"total_days,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Encode wraps an event in a message of the given type.
func Encode(typ string, evt Event) (Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", typ, err)
	}
	return Message{Type: typ, Body: body}, nil
}

// Decode parses the body of a message produced by Encode.
func Decode(msg Message) (Event, error) {
	var evt Event
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return Event{}, fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	return evt, nil
}
