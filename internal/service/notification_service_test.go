package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"clinic-appointment-server/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testAppointment() *entity.Appointment {
	return &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		DoctorID:        uuid.New(),
		AppointmentDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		Status:          entity.AppointmentStatusPending,
	}
}

func TestPublishDeliversEvent(t *testing.T) {
	client := newTestRedis(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewNotificationService(client, log)

	sub := client.Subscribe(context.Background(), NotificationChannel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	appointment := testAppointment()
	svc.Publish(context.Background(), EventAppointmentBooked, appointment)

	msg, err := sub.ReceiveTimeout(context.Background(), time.Second)
	require.NoError(t, err)
	payload, ok := msg.(*redis.Message)
	require.True(t, ok)

	var event AppointmentEvent
	require.NoError(t, json.Unmarshal([]byte(payload.Payload), &event))
	assert.Equal(t, EventAppointmentBooked, event.Type)
	assert.Equal(t, appointment.ID, event.AppointmentID)
	assert.Equal(t, "2026-09-07", event.AppointmentDate)
	assert.Equal(t, "10:00", event.StartTime)
	assert.Equal(t, "pending", event.Status)
}

func TestPublishSwallowsBrokerFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewNotificationService(client, log)

	// Publishing against a dead broker must not panic or propagate.
	svc.Publish(context.Background(), EventAppointmentCancelled, testAppointment())
}

func TestPublishOutlivesCancelledRequestContext(t *testing.T) {
	client := newTestRedis(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewNotificationService(client, log)

	sub := client.Subscribe(context.Background(), NotificationChannel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Publish(ctx, EventAppointmentConfirmed, testAppointment())

	msg, err := sub.ReceiveTimeout(context.Background(), time.Second)
	require.NoError(t, err)
	_, ok := msg.(*redis.Message)
	assert.True(t, ok)
}
