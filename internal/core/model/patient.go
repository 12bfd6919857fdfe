package model

import "time"

type PatientStatus string

const (
	StatusNeedsIntake PatientStatus = "needs_intake"
	StatusPending     PatientStatus = "pending"
	StatusCompleted   PatientStatus = "completed"
)

// Patient is one row on the doctor dashboard. Status only ever moves
// forward: needs_intake -> pending -> completed.
type Patient struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Age             int           `json:"age"`
	AppointmentDate time.Time     `json:"appointmentDate"`
	Status          PatientStatus `json:"status"`
	LastIntake      *time.Time    `json:"lastIntake,omitempty"`
	ChiefComplaint  string        `json:"chiefComplaint,omitempty"`
}

type NotificationType string

const (
	NotificationSent      NotificationType = "sent"
	NotificationCompleted NotificationType = "completed"
	NotificationScheduled NotificationType = "scheduled"
)

// Notification is a display-only dashboard event. The list is append-only,
// newest first.
type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Type      NotificationType `json:"type"`
	PatientID string           `json:"patientId"`
}
