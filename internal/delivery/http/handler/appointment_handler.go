package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinic-appointment-server/internal/delivery/dto"
	"clinic-appointment-server/internal/usecase"
	"clinic-appointment-server/pkg/response"
	"clinic-appointment-server/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	rescheduleUsecase  usecase.RescheduleUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(
	appointmentUsecase usecase.AppointmentUsecase,
	rescheduleUsecase usecase.RescheduleUsecase,
	validator *validator.CustomValidator,
) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		rescheduleUsecase:  rescheduleUsecase,
		validator:          validator,
	}
}

// writeAppointmentError maps usecase errors to HTTP responses. Wrapped
// sentinels are matched before their parents, so the order matters.
func writeAppointmentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, "Appointment not found")
	case errors.Is(err, usecase.ErrDoctorNotFound):
		response.NotFound(w, "Doctor not found")
	case errors.Is(err, usecase.ErrPatientNotFound):
		response.NotFound(w, "Patient profile not found")
	case errors.Is(err, usecase.ErrRescheduleOwnRequest):
		response.Forbidden(w, "Reschedule requests are resolved by the other party")
	case errors.Is(err, usecase.ErrNotAppointmentParty):
		response.Forbidden(w, "You are not a party to this appointment")
	case errors.Is(err, usecase.ErrSlotConflict):
		response.Conflict(w, "Time slot is already booked")
	case errors.Is(err, usecase.ErrRescheduleAlreadyPending):
		response.Conflict(w, "A reschedule request is already pending")
	case errors.Is(err, usecase.ErrNoPendingReschedule):
		response.Conflict(w, "No pending reschedule request")
	case errors.Is(err, usecase.ErrInvalidTransition):
		response.Conflict(w, "Appointment status does not allow this action")
	case errors.Is(err, usecase.ErrDoctorUnavailable):
		response.UnprocessableEntity(w, "Doctor is not available at the requested time")
	case errors.Is(err, usecase.ErrPastAppointment):
		response.BadRequest(w, "Appointment time is in the past")
	case errors.Is(err, usecase.ErrInvalidDateFormat):
		response.BadRequest(w, "Date must be in YYYY-MM-DD format")
	case errors.Is(err, usecase.ErrInvalidTimeFormat):
		response.BadRequest(w, "Time must be in HH:MM format")
	default:
		response.InternalServerError(w, fallback)
	}
}

func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.BookAppointment(r.Context(), &req)
	if err != nil {
		writeAppointmentError(w, err, "Failed to book appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

func (h *AppointmentHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointmentUsecase.GetMyAppointments(r.Context())
	if err != nil {
		writeAppointmentError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), appointmentID)
	if err != nil {
		writeAppointmentError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	var req dto.UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateAppointment(r.Context(), appointmentID, &req)
	if err != nil {
		writeAppointmentError(w, err, "Failed to update appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

func (h *AppointmentHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.ConfirmAppointment(r.Context(), appointmentID)
	if err != nil {
		writeAppointmentError(w, err, "Failed to confirm appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment confirmed successfully", appointment)
}

func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	var req dto.CancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.CancelAppointment(r.Context(), appointmentID, &req)
	if err != nil {
		writeAppointmentError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appointment)
}

func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.CompleteAppointment(r.Context(), appointmentID)
	if err != nil {
		writeAppointmentError(w, err, "Failed to complete appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment completed successfully", appointment)
}

func (h *AppointmentHandler) RequestReschedule(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	var req dto.RequestRescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.rescheduleUsecase.RequestReschedule(r.Context(), appointmentID, &req)
	if err != nil {
		writeAppointmentError(w, err, "Failed to request reschedule")
		return
	}

	response.Success(w, http.StatusCreated, "Reschedule requested successfully", appointment)
}

func (h *AppointmentHandler) ResolveReschedule(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	var req dto.ResolveRescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.rescheduleUsecase.ResolveReschedule(r.Context(), appointmentID, &req)
	if err != nil {
		writeAppointmentError(w, err, "Failed to resolve reschedule")
		return
	}

	response.Success(w, http.StatusOK, "Reschedule resolved successfully", appointment)
}

func (h *AppointmentHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.Error(w, http.StatusBadRequest, "Query parameter date is required", nil)
		return
	}

	slots, err := h.appointmentUsecase.GetAvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		writeAppointmentError(w, err, "Failed to get available slots")
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved successfully", slots)
}

func (h *AppointmentHandler) GetDoctorSchedule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	appointments, err := h.appointmentUsecase.GetDoctorSchedule(r.Context(), doctorID, from, to)
	if err != nil {
		writeAppointmentError(w, err, "Failed to get doctor schedule")
		return
	}

	response.Success(w, http.StatusOK, "Schedule retrieved successfully", appointments)
}

func parseIDVar(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
