package messaging

import (
	"fmt"
	"time"
)

// Event routing keys as constants
const (
	// Order lifecycle events
	EventOrderCreated   = "order.created"
	EventOrderCompleted = "order.completed"
	EventOrderFailed    = "order.failed"
	EventOrderReset     = "order.reset"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// OrderCreatedEvent is emitted when a submission passes intake and the order
// is committed.
type OrderCreatedEvent struct {
	BaseEvent
	Data OrderCreatedData `json:"data"`
}

type OrderCreatedData struct {
	OrderID        string    `json:"order_id"`
	PatientID      string    `json:"patient_id"`
	ProviderID     string    `json:"provider_id"`
	MedicationName string    `json:"medication_name"`
	Source         string    `json:"source,omitempty"`
	Queued         bool      `json:"queued"`
	WarningsCount  int       `json:"warnings_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderCompletedEvent is emitted when care-plan generation succeeds.
type OrderCompletedEvent struct {
	BaseEvent
	Data OrderCompletedData `json:"data"`
}

type OrderCompletedData struct {
	OrderID     string    `json:"order_id"`
	Model       string    `json:"model"`
	Attempts    int       `json:"attempts"`
	CompletedAt time.Time `json:"completed_at"`
}

// OrderFailedEvent is emitted when generation exhausts its retries.
type OrderFailedEvent struct {
	BaseEvent
	Data OrderFailedData `json:"data"`
}

type OrderFailedData struct {
	OrderID  string    `json:"order_id"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// OrderResetEvent is emitted when a failed order is returned to pending for
// another generation run.
type OrderResetEvent struct {
	BaseEvent
	Data OrderResetData `json:"data"`
}

type OrderResetData struct {
	OrderID string    `json:"order_id"`
	Queued  bool      `json:"queued"`
	ResetAt time.Time `json:"reset_at"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     fmt.Sprintf("%d", time.Now().UnixNano()),
		Timestamp:   time.Now().UTC(), // Explicitly set to UTC
		ServiceName: "careplan-service",
	}
}
