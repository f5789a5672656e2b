package usecase_test

import (
	"testing"
	"time"

	"clinic-appointment-server/internal/delivery/dto"
	"clinic-appointment-server/internal/domain/entity"
	"clinic-appointment-server/internal/schedule"
	"clinic-appointment-server/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDoctors(t *testing.T) {
	f := newFixture(t)

	resp, err := f.doctorUC.ListDoctors(f.patientCtx())
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, f.doctorID, resp.Doctors[0].ID)
	assert.Equal(t, "Cardiology", resp.Doctors[0].Specialization)
}

func TestGetDoctor(t *testing.T) {
	f := newFixture(t)

	resp, err := f.doctorUC.GetDoctor(f.patientCtx(), f.doctorID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Carter", resp.FullName)

	_, err = f.doctorUC.GetDoctor(f.patientCtx(), uuid.New())
	assert.ErrorIs(t, err, usecase.ErrDoctorNotFound)
}

func TestSetAvailability(t *testing.T) {
	f := newFixture(t)

	next := schedule.WeeklyAvailability{
		schedule.Monday:   {Start: "08:00", End: "12:00", Available: true},
		schedule.Saturday: {Start: "10:00", End: "14:00", Available: true},
	}

	resp, err := f.doctorUC.SetAvailability(f.doctorCtx(), &dto.UpdateAvailabilityRequest{Availability: next})
	require.NoError(t, err)
	assert.Equal(t, next, resp.Availability)
	assert.Equal(t, []string{entity.AuditActionAvailabilityUpdate}, f.audit.actions)

	// Readers see the new template immediately.
	current, err := f.doctorUC.GetAvailability(f.patientCtx(), f.doctorID)
	require.NoError(t, err)
	assert.Equal(t, next, current.Availability)

	// And slot generation follows it: Saturday is now bookable.
	saturday := nextWeekday(time.Saturday).Format("2006-01-02")
	slots, err := f.appointmentUC.GetAvailableSlots(f.patientCtx(), f.doctorID, saturday)
	require.NoError(t, err)
	assert.Equal(t, "10:00", slots.Slots[0])
	assert.Len(t, slots.Slots, 8)
}

func TestSetAvailabilityInvalid(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		tmpl schedule.WeeklyAvailability
	}{
		{"start after end", schedule.WeeklyAvailability{
			schedule.Monday: {Start: "17:00", End: "09:00", Available: true},
		}},
		{"malformed clock", schedule.WeeklyAvailability{
			schedule.Monday: {Start: "9am", End: "17:00", Available: true},
		}},
		{"unknown weekday", schedule.WeeklyAvailability{
			"funday": {Start: "09:00", End: "17:00", Available: true},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.doctorUC.SetAvailability(f.doctorCtx(), &dto.UpdateAvailabilityRequest{Availability: tc.tmpl})
			assert.ErrorIs(t, err, usecase.ErrInvalidAvailability)
		})
	}

	// Unavailable days pass validation without hours.
	_, err := f.doctorUC.SetAvailability(f.doctorCtx(), &dto.UpdateAvailabilityRequest{
		Availability: schedule.WeeklyAvailability{schedule.Sunday: {Available: false}},
	})
	assert.NoError(t, err)
}

func TestSetAvailabilityUnknownDoctor(t *testing.T) {
	f := newFixture(t)

	_, err := f.doctorUC.SetAvailability(authCtx(uuid.New(), entity.RoleIDDoctor), &dto.UpdateAvailabilityRequest{
		Availability: schedule.DefaultWeeklyAvailability(),
	})
	assert.ErrorIs(t, err, usecase.ErrDoctorNotFound)
}

func TestGetMyAvailability(t *testing.T) {
	f := newFixture(t)

	resp, err := f.doctorUC.GetMyAvailability(f.doctorCtx())
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultWeeklyAvailability(), resp.Availability)
}
