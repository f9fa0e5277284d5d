package types

import "time"

// EventType identifies what happened to a record or an upload.
type EventType string

// Supported event types.
const (
	// EventEmployeeCreated is emitted after a new employee is stored.
	EventEmployeeCreated EventType = "employee.created"

	// EventEmployeeUpdated is emitted after an employee is merge-patched.
	EventEmployeeUpdated EventType = "employee.updated"

	// EventEmployeeDeleted is emitted after an employee is removed.
	EventEmployeeDeleted EventType = "employee.deleted"

	// EventImageUploaded is emitted after an image is written to storage.
	EventImageUploaded EventType = "image.uploaded"
)

// Event is the payload published to the message broker when records or
// uploads change. Consumers should treat delivery as at-least-once.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type is the kind of change that happened.
	Type EventType `json:"type"`

	// EmployeeID is set for employee events.
	EmployeeID int `json:"employeeId,omitempty"`

	// Employee is the record state after the change. It is omitted for
	// deletions and upload events.
	Employee *Employee `json:"employee,omitempty"`

	// ImageURL is set for upload events.
	ImageURL string `json:"imageUrl,omitempty"`

	// OccurredAt is the time the change was applied.
	OccurredAt time.Time `json:"occurredAt"`
}
