package converter

import (
	"clinic-appointment-server/internal/delivery/dto"
	"clinic-appointment-server/internal/domain/entity"
)

// DoctorToResponse converts a DoctorProfile entity to DoctorResponse DTO
func DoctorToResponse(doctor *entity.DoctorProfile) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	isActive := false
	if doctor.User.IsActive != nil {
		isActive = *doctor.User.IsActive
	}

	return &dto.DoctorResponse{
		ID:              doctor.UserID,
		Email:           doctor.User.Email,
		FullName:        doctor.User.FullName,
		LicenseNumber:   doctor.LicenseNumber,
		Specialization:  doctor.Specialization,
		ConsultationFee: doctor.ConsultationFee,
		Biography:       doctor.Biography,
		IsActive:        isActive,
	}
}

// DoctorsToResponses converts a slice of DoctorProfile entities to response DTOs
func DoctorsToResponses(doctors []entity.DoctorProfile) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i := range doctors {
		resp := DoctorToResponse(&doctors[i])
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
