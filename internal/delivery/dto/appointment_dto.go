package dto

import (
	"time"

	"clinic-appointment-server/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

type PreConsultationFormRequest struct {
	Symptoms           []string `json:"symptoms" validate:"required,min=1,dive,max=255"`
	CurrentMedications []string `json:"current_medications" validate:"dive,max=255"`
	Allergies          []string `json:"allergies" validate:"dive,max=255"`
	MedicalHistory     string   `json:"medical_history" validate:"max=5000"`
	AdditionalNotes    string   `json:"additional_notes" validate:"max=5000"`
}

type BookAppointmentRequest struct {
	DoctorID        uuid.UUID                  `json:"doctor_id" validate:"required"`
	Date            string                     `json:"date" validate:"required"`
	Time            string                     `json:"time" validate:"required"`
	Reason          string                     `json:"reason" validate:"required,max=2000"`
	PreConsultation PreConsultationFormRequest `json:"pre_consultation" validate:"required"`
}

type UpdateAppointmentRequest struct {
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`
	Reason string `json:"reason,omitempty" validate:"max=2000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type RequestRescheduleRequest struct {
	NewDate string `json:"new_date" validate:"required"`
	NewTime string `json:"new_time" validate:"required"`
	Reason  string `json:"reason" validate:"required,max=2000"`
}

type ResolveRescheduleRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// Response DTOs

type DoctorSummary struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Specialization string    `json:"specialization"`
}

type PatientSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

type RescheduleResponse struct {
	Status      string     `json:"status"`
	RequestedAt *time.Time `json:"requested_at,omitempty"`
	RequestedBy *uuid.UUID `json:"requested_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	NewDate     string     `json:"new_date,omitempty"`
	NewTime     string     `json:"new_time,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy  *uuid.UUID `json:"resolved_by,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID                  `json:"id"`
	PatientID       uuid.UUID                  `json:"patient_id"`
	DoctorID        uuid.UUID                  `json:"doctor_id"`
	Date            string                     `json:"date"`
	Time            string                     `json:"time"`
	Status          string                     `json:"status"`
	Reason          string                     `json:"reason"`
	PreConsultation entity.PreConsultationForm `json:"pre_consultation"`
	CancelledBy     *uuid.UUID                 `json:"cancelled_by,omitempty"`
	CancelReason    string                     `json:"cancel_reason,omitempty"`
	Reschedule      RescheduleResponse         `json:"reschedule"`
	Patient         *PatientSummary            `json:"patient,omitempty"`
	Doctor          *DoctorSummary             `json:"doctor,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type AvailableSlotsResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
}
