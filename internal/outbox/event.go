package outbox

// Topics published by this service. One event type per Kafka topic.
const (
	TopicAppointmentBooked   = "appointments.appointment.booked.v1"
	TopicAppointmentCanceled = "appointments.appointment.canceled.v1"
	TopicReminderDue         = "appointments.reminder.due.v1"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
