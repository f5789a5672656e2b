package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AppointmentStatus is the primary appointment lifecycle state.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// ActiveStatuses are the statuses that hold a slot. The partial unique index
// on (doctor_id, appointment_date, start_time) is scoped to exactly this set.
var ActiveStatuses = []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed}

// RescheduleStatus is the nested negotiation state of a reschedule request.
type RescheduleStatus string

const (
	RescheduleStatusNone     RescheduleStatus = "none"
	RescheduleStatusPending  RescheduleStatus = "pending"
	RescheduleStatusApproved RescheduleStatus = "approved"
	RescheduleStatusRejected RescheduleStatus = "rejected"
)

// PreConsultationForm is the intake form the patient fills at booking time.
type PreConsultationForm struct {
	Symptoms           []string `json:"symptoms"`
	CurrentMedications []string `json:"current_medications"`
	Allergies          []string `json:"allergies"`
	MedicalHistory     string   `json:"medical_history"`
	AdditionalNotes    string   `json:"additional_notes"`
}

// Reschedule is the sub-record of a reschedule negotiation, embedded in the
// appointment row. At most one cycle is pending at a time; a resolved cycle
// keeps its fields as history until a new request overwrites them.
type Reschedule struct {
	Status      RescheduleStatus `gorm:"column:status;type:varchar(20);not null;default:'none'" json:"status"`
	RequestedAt *time.Time       `gorm:"column:requested_at" json:"requested_at,omitempty"`
	RequestedBy *uuid.UUID       `gorm:"column:requested_by;type:uuid" json:"requested_by,omitempty"`
	Reason      string           `gorm:"column:reason;type:text" json:"reason,omitempty"`
	NewDate     *time.Time       `gorm:"column:new_date;type:date" json:"new_date,omitempty"`
	NewTime     string           `gorm:"column:new_time;type:varchar(5)" json:"new_time,omitempty"`
	ResolvedAt  *time.Time       `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy  *uuid.UUID       `gorm:"column:resolved_by;type:uuid" json:"resolved_by,omitempty"`
}

// Appointment is a scheduled consultation between a patient and a doctor.
// AppointmentDate is a calendar day; StartTime is a 24h HH:MM slot start.
type Appointment struct {
	ID              uuid.UUID                                 `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID                                 `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID                                 `gorm:"type:uuid;not null;index:idx_appointments_doctor_date" json:"doctor_id"`
	AppointmentDate time.Time                                 `gorm:"type:date;not null;index:idx_appointments_doctor_date" json:"appointment_date"`
	StartTime       string                                    `gorm:"type:varchar(5);not null" json:"start_time"`
	Status          AppointmentStatus                         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Reason          string                                    `gorm:"type:text;not null" json:"reason"`
	PreConsultation datatypes.JSONType[PreConsultationForm] `gorm:"type:jsonb;not null" json:"pre_consultation"`
	CancelledBy     *uuid.UUID                                `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelReason    string                                    `gorm:"type:text" json:"cancel_reason,omitempty"`
	Reschedule      Reschedule                                `gorm:"embedded;embeddedPrefix:reschedule_" json:"reschedule"`
	CreatedAt       time.Time                                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                                 `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient PatientProfile `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  DoctorProfile  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsActive reports whether the appointment currently holds its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == AppointmentStatusPending || a.Status == AppointmentStatusConfirmed
}

// CanConfirm reports whether a confirm transition is legal.
func (a *Appointment) CanConfirm() bool {
	return a.Status == AppointmentStatusPending
}

// CanCancel reports whether a cancel transition is legal. Cancelled and
// completed are terminal.
func (a *Appointment) CanCancel() bool {
	return a.IsActive()
}

// CanComplete reports whether a complete transition is legal.
func (a *Appointment) CanComplete() bool {
	return a.Status == AppointmentStatusConfirmed
}

// CanRequestReschedule reports whether a new reschedule cycle may start:
// the appointment must still hold its slot and no cycle may be pending.
func (a *Appointment) CanRequestReschedule() bool {
	return a.IsActive() && a.Reschedule.Status != RescheduleStatusPending
}

// HasPendingReschedule reports whether a reschedule cycle awaits resolution.
func (a *Appointment) HasPendingReschedule() bool {
	return a.Reschedule.Status == RescheduleStatusPending
}

// IsParty reports whether the given user is the patient or the doctor of
// this appointment.
func (a *Appointment) IsParty(userID uuid.UUID) bool {
	return a.PatientID == userID || a.DoctorID == userID
}
