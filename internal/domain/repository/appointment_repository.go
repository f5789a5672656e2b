package repository

import (
	"time"

	"clinic-appointment-server/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentRepository is the persistence contract of the scheduling engine.
//
// The guarded mutation methods (ConfirmIfPending and friends) issue a single
// conditional UPDATE and report affected rows: 1 means the transition won,
// 0 means the persisted state no longer allowed it. Together with the partial
// unique index on active (doctor, date, time) slots this is what serializes
// concurrent writers; the usecase-level pre-checks only improve error messages.
type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorAndDateRange(db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error)

	// FindBookedTimes returns the start times held by active appointments of
	// one doctor on one date, in slot order.
	FindBookedTimes(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error)

	// CountActiveAtSlot counts active appointments at an exact slot,
	// optionally excluding one appointment id (for self-moves).
	CountActiveAtSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (int64, error)

	ConfirmIfPending(db *gorm.DB, id uuid.UUID) (int64, error)
	CancelIfActive(db *gorm.DB, id uuid.UUID, cancelledBy uuid.UUID, reason string) (int64, error)
	CompleteIfConfirmed(db *gorm.DB, id uuid.UUID) (int64, error)

	// RescheduleSlotIfActive moves an active appointment to a new slot.
	// The partial unique index rejects the move when the target is taken.
	RescheduleSlotIfActive(db *gorm.DB, id uuid.UUID, date time.Time, startTime string, reason string) (int64, error)

	// OpenRescheduleCycle stores a proposed slot and flips the sub-record to
	// pending, only while the appointment is active and no cycle is pending.
	OpenRescheduleCycle(db *gorm.DB, id uuid.UUID, r entity.Reschedule) (int64, error)

	// ApprovePendingReschedule copies the proposed slot onto the
	// authoritative date/time fields and marks the cycle approved.
	ApprovePendingReschedule(db *gorm.DB, id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error)

	// RejectPendingReschedule marks the cycle rejected, leaving the
	// authoritative date/time untouched.
	RejectPendingReschedule(db *gorm.DB, id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error)
}
