package service

import (
	"context"
	"encoding/json"
	"time"

	"clinic-appointment-server/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Scheduling event types published to the notification channel.
const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentCompleted = "appointment.completed"
	EventAppointmentUpdated   = "appointment.updated"
	EventRescheduleRequested  = "reschedule.requested"
	EventRescheduleApproved   = "reschedule.approved"
	EventRescheduleRejected   = "reschedule.rejected"
)

// NotificationChannel is the Redis pub/sub channel the notification worker
// (a separate service) subscribes to for email/SMS delivery.
const NotificationChannel = "appointments:events"

const publishTimeout = 5 * time.Second

// AppointmentEvent is the wire format of one scheduling event.
type AppointmentEvent struct {
	Type            string    `json:"type"`
	AppointmentID   uuid.UUID `json:"appointment_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	AppointmentDate string    `json:"appointment_date"`
	StartTime       string    `json:"start_time"`
	Status          string    `json:"status"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Notifier informs the notification collaborator about scheduling events.
// Publishing is fire-and-forget: a failed publish must never roll back or
// fail the scheduling state change it reports.
type Notifier interface {
	Publish(ctx context.Context, eventType string, appointment *entity.Appointment)
}

// NotificationService publishes scheduling events to Redis pub/sub.
type NotificationService struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewNotificationService(redisClient *redis.Client, log *logrus.Logger) *NotificationService {
	return &NotificationService{
		redisClient: redisClient,
		log:         log,
	}
}

// Publish serializes the event and publishes it on the notification channel.
// Errors are logged and swallowed. A fresh timeout context is used so the
// publish is not cut short when the request context is already done.
func (s *NotificationService) Publish(ctx context.Context, eventType string, appointment *entity.Appointment) {
	event := AppointmentEvent{
		Type:            eventType,
		AppointmentID:   appointment.ID,
		PatientID:       appointment.PatientID,
		DoctorID:        appointment.DoctorID,
		AppointmentDate: appointment.AppointmentDate.Format("2006-01-02"),
		StartTime:       appointment.StartTime,
		Status:          string(appointment.Status),
		OccurredAt:      time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Warnf("Failed to encode %s event for appointment %s: %+v", eventType, appointment.ID, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.redisClient.Publish(pubCtx, NotificationChannel, payload).Err(); err != nil {
		s.log.Warnf("Failed to publish %s event for appointment %s (non-fatal): %+v", eventType, appointment.ID, err)
		return
	}

	s.log.Debugf("Published %s event for appointment %s", eventType, appointment.ID)
}
