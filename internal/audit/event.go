package audit

import "classroll/internal/queue"

// FromEvent converts a queue event of type typ into an audit entry.
func FromEvent(typ string, evt queue.Event) Entry {
	return Entry{
		ID:         evt.ID,
		EventType:  typ,
		StudentID:  evt.StudentID,
		Name:       evt.Name,
		Class:      evt.Class,
		CheckIn:    evt.CheckIn,
		Status:     evt.Status,
		Day:        evt.Date,
		OccurredAt: evt.OccurredAt,
	}
}
