package converter

import (
	"clinic-appointment-server/internal/delivery/dto"
	"clinic-appointment-server/internal/domain/entity"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:              appointment.ID,
		PatientID:       appointment.PatientID,
		DoctorID:        appointment.DoctorID,
		Date:            appointment.AppointmentDate.Format(dateLayout),
		Time:            appointment.StartTime,
		Status:          string(appointment.Status),
		Reason:          appointment.Reason,
		PreConsultation: appointment.PreConsultation.Data(),
		CancelledBy:     appointment.CancelledBy,
		CancelReason:    appointment.CancelReason,
		Reschedule:      rescheduleToResponse(appointment.Reschedule),
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}

	if appointment.Doctor.UserID != uuid.Nil {
		response.Doctor = &dto.DoctorSummary{
			ID:             appointment.Doctor.UserID,
			FullName:       appointment.Doctor.User.FullName,
			Specialization: appointment.Doctor.Specialization,
		}
	}
	if appointment.Patient.UserID != uuid.Nil {
		response.Patient = &dto.PatientSummary{
			ID:       appointment.Patient.UserID,
			FullName: appointment.Patient.User.FullName,
		}
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to response DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		resp := AppointmentToResponse(&appointments[i])
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}

func rescheduleToResponse(r entity.Reschedule) dto.RescheduleResponse {
	response := dto.RescheduleResponse{
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
		RequestedBy: r.RequestedBy,
		Reason:      r.Reason,
		NewTime:     r.NewTime,
		ResolvedAt:  r.ResolvedAt,
		ResolvedBy:  r.ResolvedBy,
	}
	if r.NewDate != nil {
		response.NewDate = r.NewDate.Format(dateLayout)
	}
	return response
}
