package repository

import (
	"errors"
	"time"

	"clinic-appointment-server/internal/domain/entity"
	domainRepo "clinic-appointment-server/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Patient.User").Preload("Doctor.User").Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Doctor.User").
		Where("patient_id = ?", patientID).
		Order("appointment_date DESC, start_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Patient.User").
		Where("doctor_id = ?", doctorID).
		Order("appointment_date DESC, start_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByDoctorAndDateRange(db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Patient.User").
		Where("doctor_id = ? AND appointment_date >= ? AND appointment_date <= ?", doctorID, from, to).
		Order("appointment_date ASC, start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindBookedTimes(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error) {
	var times []string
	err := db.Model(&entity.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND status IN ?", doctorID, date, entity.ActiveStatuses).
		Order("start_time ASC").
		Pluck("start_time", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (r *appointmentRepository) CountActiveAtSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (int64, error) {
	query := db.Model(&entity.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND start_time = ? AND status IN ?",
			doctorID, date, startTime, entity.ActiveStatuses)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *appointmentRepository) ConfirmIfPending(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusPending).
		Update("status", entity.AppointmentStatusConfirmed)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) CancelIfActive(db *gorm.DB, id uuid.UUID, cancelledBy uuid.UUID, reason string) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, entity.ActiveStatuses).
		Updates(map[string]interface{}{
			"status":        entity.AppointmentStatusCancelled,
			"cancelled_by":  cancelledBy,
			"cancel_reason": reason,
		})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) CompleteIfConfirmed(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusConfirmed).
		Update("status", entity.AppointmentStatusCompleted)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) RescheduleSlotIfActive(db *gorm.DB, id uuid.UUID, date time.Time, startTime string, reason string) (int64, error) {
	updates := map[string]interface{}{
		"appointment_date": date,
		"start_time":       startTime,
	}
	if reason != "" {
		updates["reason"] = reason
	}
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, entity.ActiveStatuses).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) OpenRescheduleCycle(db *gorm.DB, id uuid.UUID, resched entity.Reschedule) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status IN ? AND reschedule_status != ?",
			id, entity.ActiveStatuses, entity.RescheduleStatusPending).
		Updates(map[string]interface{}{
			"reschedule_status":       entity.RescheduleStatusPending,
			"reschedule_requested_at": resched.RequestedAt,
			"reschedule_requested_by": resched.RequestedBy,
			"reschedule_reason":       resched.Reason,
			"reschedule_new_date":     resched.NewDate,
			"reschedule_new_time":     resched.NewTime,
			"reschedule_resolved_at":  nil,
			"reschedule_resolved_by":  nil,
		})
	return result.RowsAffected, result.Error
}

// ApprovePendingReschedule promotes the proposed slot in a single UPDATE so
// the partial unique index vets the target slot atomically with the move.
func (r *appointmentRepository) ApprovePendingReschedule(db *gorm.DB, id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND reschedule_status = ?", id, entity.RescheduleStatusPending).
		Updates(map[string]interface{}{
			"appointment_date":       gorm.Expr("reschedule_new_date"),
			"start_time":             gorm.Expr("reschedule_new_time"),
			"reschedule_status":      entity.RescheduleStatusApproved,
			"reschedule_resolved_at": resolvedAt,
			"reschedule_resolved_by": resolvedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) RejectPendingReschedule(db *gorm.DB, id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND reschedule_status = ?", id, entity.RescheduleStatusPending).
		Updates(map[string]interface{}{
			"reschedule_status":      entity.RescheduleStatusRejected,
			"reschedule_resolved_at": resolvedAt,
			"reschedule_resolved_by": resolvedBy,
		})
	return result.RowsAffected, result.Error
}
