package dto

import (
	"clinic-appointment-server/internal/schedule"

	"github.com/google/uuid"
)

// Request DTOs

type UpdateAvailabilityRequest struct {
	Availability schedule.WeeklyAvailability `json:"availability" validate:"required"`
}

// Response DTOs

type DoctorResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	LicenseNumber   string    `json:"license_number"`
	Specialization  string    `json:"specialization"`
	ConsultationFee float64   `json:"consultation_fee"`
	Biography       string    `json:"biography,omitempty"`
	IsActive        bool      `json:"is_active"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}

type AvailabilityResponse struct {
	DoctorID     uuid.UUID                   `json:"doctor_id"`
	Availability schedule.WeeklyAvailability `json:"availability"`
}
