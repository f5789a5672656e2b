package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-appointment-server/internal/converter"
	"clinic-appointment-server/internal/delivery/dto"
	"clinic-appointment-server/internal/delivery/http/middleware"
	"clinic-appointment-server/internal/domain/entity"
	"clinic-appointment-server/internal/domain/repository"
	"clinic-appointment-server/internal/schedule"
	"clinic-appointment-server/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Expected scheduling outcomes. All of these are final answers for the
// attempt: the engine never retries internally (retrying the same slot
// cannot succeed), and infrastructure errors propagate separately, wrapped.
var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorUnavailable   = errors.New("doctor is not available at the requested time")
	ErrSlotConflict        = errors.New("time slot is already booked")
	ErrInvalidTransition   = errors.New("appointment state does not allow this action")
	ErrNotAppointmentParty = errors.New("appointment does not belong to you")
	ErrPastAppointment     = errors.New("cannot schedule an appointment in the past")
	ErrInvalidDateFormat   = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTimeFormat   = errors.New("invalid time format, use HH:MM")
)

const dateLayout = "2006-01-02"

type AppointmentUsecase interface {
	BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	GetMyAppointments(ctx context.Context) (*dto.AppointmentListResponse, error)
	UpdateAppointment(ctx context.Context, appointmentID uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	ConfirmAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, appointmentID uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	CompleteAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error)
	GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID, from, to string) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorProfileRepository
	patientRepo     repository.PatientProfileRepository
	auditService    service.AuditService
	notifier        service.Notifier
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorProfileRepository,
	patientRepo repository.PatientProfileRepository,
	auditService service.AuditService,
	notifier service.Notifier,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		patientRepo:     patientRepo,
		auditService:    auditService,
		notifier:        notifier,
	}
}

// parseSlot validates a date + HH:MM pair. Dates are normalized to midnight
// UTC so equality against the DATE column is exact.
func parseSlot(dateStr, timeStr string) (time.Time, error) {
	date, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	if _, err := schedule.ParseClock(timeStr); err != nil {
		return time.Time{}, ErrInvalidTimeFormat
	}
	return date, nil
}

func slotInPast(date time.Time, clock string) bool {
	minutes, err := schedule.ParseClock(clock)
	if err != nil {
		return false
	}
	slotStart := date.Add(time.Duration(minutes) * time.Minute)
	return slotStart.Before(time.Now().UTC())
}

// checkSlotAvailable runs the working-hours check and the application-level
// duplicate pre-check for one doctor/date/time. The pre-check only exists to
// produce a friendly error before the write: the partial unique index is the
// arbiter under concurrency.
func (u *appointmentUsecase) checkSlotAvailable(db *gorm.DB, doctor *entity.DoctorProfile, date time.Time, clock string, excludeID *uuid.UUID) error {
	day := doctor.WeeklyAvailability().Day(schedule.WeekdayOf(date))
	if !schedule.WithinHours(day, clock) {
		return ErrDoctorUnavailable
	}

	count, err := u.appointmentRepo.CountActiveAtSlot(db, doctor.UserID, date, clock, excludeID)
	if err != nil {
		u.log.Warnf("Failed to check slot %s %s for doctor %s: %+v", date.Format(dateLayout), clock, doctor.UserID, err)
		return err
	}
	if count > 0 {
		return ErrSlotConflict
	}
	return nil
}

// BookAppointment creates a pending appointment after validating the doctor's
// working hours and the slot. A duplicate-key error from the insert means a
// concurrent booker won the slot between pre-check and write.
func (u *appointmentUsecase) BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	patientID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	db := u.db.WithContext(ctx)

	patient, err := u.patientRepo.FindByUserID(db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	doctor, err := u.doctorRepo.FindByUserID(db, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	date, err := parseSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if slotInPast(date, req.Time) {
		return nil, ErrPastAppointment
	}

	if err := u.checkSlotAvailable(db, doctor, date, req.Time, nil); err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: date,
		StartTime:       req.Time,
		Status:          entity.AppointmentStatusPending,
		Reason:          req.Reason,
		Reschedule:      entity.Reschedule{Status: entity.RescheduleStatusNone},
	}
	appointment.PreConsultation = datatypes.NewJSONType(entity.PreConsultationForm{
		Symptoms:           req.PreConsultation.Symptoms,
		CurrentMedications: req.PreConsultation.CurrentMedications,
		Allergies:          req.PreConsultation.Allergies,
		MedicalHistory:     req.PreConsultation.MedicalHistory,
		AdditionalNotes:    req.PreConsultation.AdditionalNotes,
	})

	if err := u.appointmentRepo.Create(db, appointment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotConflict
		}
		u.log.Warnf("Failed to create appointment for doctor %s at %s %s: %+v", req.DoctorID, req.Date, req.Time, err)
		return nil, err
	}

	_ = u.auditService.RecordTransition(db, &patientID, entity.AuditActionAppointmentBook, "appointment", appointment.ID,
		nil, entity.AppointmentStatusPending)
	u.notifier.Publish(ctx, service.EventAppointmentBooked, appointment)
	u.log.Infof("Appointment booked: id=%s, doctor=%s, slot=%s %s", appointment.ID, req.DoctorID, req.Date, req.Time)

	return u.reload(db, appointment)
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)
	appointment, err := u.loadForActor(ctx, db, appointmentID)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// GetMyAppointments lists the caller's appointments, newest slot first.
// Doctors see the appointments booked with them, patients the ones they made.
func (u *appointmentUsecase) GetMyAppointments(ctx context.Context) (*dto.AppointmentListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)
	db := u.db.WithContext(ctx)

	var (
		appointments []entity.Appointment
		err          error
	)
	if roleID == entity.RoleIDDoctor {
		appointments, err = u.appointmentRepo.FindByDoctorID(db, userID)
	} else {
		appointments, err = u.appointmentRepo.FindByPatientID(db, userID)
	}
	if err != nil {
		u.log.Warnf("Failed to find appointments for user %s: %+v", userID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// UpdateAppointment moves an active appointment to a new date/time (or just
// updates the reason). A slot change re-runs the full availability and
// conflict checks, excluding the appointment itself from the scan.
func (u *appointmentUsecase) UpdateAppointment(ctx context.Context, appointmentID uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	actorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	db := u.db.WithContext(ctx)

	appointment, err := u.loadForActor(ctx, db, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appointment.IsActive() {
		return nil, ErrInvalidTransition
	}

	newDate := appointment.AppointmentDate
	newTime := appointment.StartTime
	if req.Date != "" || req.Time != "" {
		dateStr := req.Date
		if dateStr == "" {
			dateStr = appointment.AppointmentDate.Format(dateLayout)
		}
		if req.Time != "" {
			newTime = req.Time
		}
		newDate, err = parseSlot(dateStr, newTime)
		if err != nil {
			return nil, err
		}
	}

	slotChanged := !newDate.Equal(appointment.AppointmentDate) || newTime != appointment.StartTime
	if slotChanged {
		if slotInPast(newDate, newTime) {
			return nil, ErrPastAppointment
		}
		doctor, err := u.doctorRepo.FindByUserID(db, appointment.DoctorID)
		if err != nil {
			u.log.Warnf("Failed to find doctor %s: %+v", appointment.DoctorID, err)
			return nil, err
		}
		if doctor == nil {
			return nil, ErrDoctorNotFound
		}
		if err := u.checkSlotAvailable(db, doctor, newDate, newTime, &appointment.ID); err != nil {
			return nil, err
		}
	}

	affected, err := u.appointmentRepo.RescheduleSlotIfActive(db, appointment.ID, newDate, newTime, req.Reason)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotConflict
		}
		u.log.Warnf("Failed to update appointment %s: %+v", appointment.ID, err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	_ = u.auditService.RecordTransition(db, &actorID, entity.AuditActionAppointmentUpdate, "appointment", appointment.ID,
		entity.JSON{"date": appointment.AppointmentDate.Format(dateLayout), "time": appointment.StartTime},
		entity.JSON{"date": newDate.Format(dateLayout), "time": newTime})

	updated, err := u.appointmentRepo.FindByID(db, appointment.ID)
	if err != nil || updated == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return converter.AppointmentToResponse(appointment), nil
	}
	if slotChanged {
		u.notifier.Publish(ctx, service.EventAppointmentUpdated, updated)
	}
	return converter.AppointmentToResponse(updated), nil
}

// ConfirmAppointment is a doctor action, legal only from pending.
func (u *appointmentUsecase) ConfirmAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, appointmentID, transitionSpec{
		action:    entity.AuditActionAppointmentConfirm,
		event:     service.EventAppointmentConfirmed,
		newStatus: entity.AppointmentStatusConfirmed,
		allowed:   func(a *entity.Appointment) bool { return a.CanConfirm() },
		onlyParty: partyDoctor,
		apply: func(db *gorm.DB, a *entity.Appointment, actorID uuid.UUID) (int64, error) {
			return u.appointmentRepo.ConfirmIfPending(db, a.ID)
		},
	})
}

// CancelAppointment is legal for either party while the appointment is
// active. Cancelled and completed are terminal.
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, appointmentID uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, appointmentID, transitionSpec{
		action:    entity.AuditActionAppointmentCancel,
		event:     service.EventAppointmentCancelled,
		newStatus: entity.AppointmentStatusCancelled,
		allowed:   func(a *entity.Appointment) bool { return a.CanCancel() },
		onlyParty: partyAny,
		apply: func(db *gorm.DB, a *entity.Appointment, actorID uuid.UUID) (int64, error) {
			return u.appointmentRepo.CancelIfActive(db, a.ID, actorID, req.Reason)
		},
	})
}

// CompleteAppointment is a doctor action, legal only from confirmed.
func (u *appointmentUsecase) CompleteAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, appointmentID, transitionSpec{
		action:    entity.AuditActionAppointmentComplete,
		event:     service.EventAppointmentCompleted,
		newStatus: entity.AppointmentStatusCompleted,
		allowed:   func(a *entity.Appointment) bool { return a.CanComplete() },
		onlyParty: partyDoctor,
		apply: func(db *gorm.DB, a *entity.Appointment, actorID uuid.UUID) (int64, error) {
			return u.appointmentRepo.CompleteIfConfirmed(db, a.ID)
		},
	})
}

// GetAvailableSlots composes the availability template and the day's active
// bookings into the remaining bookable slots, in generation order.
func (u *appointmentUsecase) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, dateStr string) (*dto.AvailableSlotsResponse, error) {
	db := u.db.WithContext(ctx)

	doctor, err := u.doctorRepo.FindByUserID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	date, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	day := doctor.WeeklyAvailability().Day(schedule.WeekdayOf(date))
	slots := schedule.GenerateSlots(day)

	booked, err := u.appointmentRepo.FindBookedTimes(db, doctorID, date)
	if err != nil {
		u.log.Warnf("Failed to find booked times for doctor %s on %s: %+v", doctorID, dateStr, err)
		return nil, err
	}

	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}
	free := []string{}
	for _, slot := range slots {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}

	return &dto.AvailableSlotsResponse{
		DoctorID: doctorID,
		Date:     dateStr,
		Slots:    free,
	}, nil
}

// GetDoctorSchedule returns a doctor's appointments in a date range,
// defaulting to the week starting today.
func (u *appointmentUsecase) GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID, from, to string) (*dto.AppointmentListResponse, error) {
	db := u.db.WithContext(ctx)

	doctor, err := u.doctorRepo.FindByUserID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if from != "" {
		start, err = time.ParseInLocation(dateLayout, from, time.UTC)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
	}
	end := start.AddDate(0, 0, 6)
	if to != "" {
		end, err = time.ParseInLocation(dateLayout, to, time.UTC)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
	}
	if end.Before(start) {
		return nil, ErrInvalidDateFormat
	}

	appointments, err := u.appointmentRepo.FindByDoctorAndDateRange(db, doctorID, start, end)
	if err != nil {
		u.log.Warnf("Failed to find schedule for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

type partyRule int

const (
	partyAny partyRule = iota
	partyDoctor
)

type transitionSpec struct {
	action    string
	event     string
	newStatus entity.AppointmentStatus
	allowed   func(*entity.Appointment) bool
	onlyParty partyRule
	apply     func(db *gorm.DB, a *entity.Appointment, actorID uuid.UUID) (int64, error)
}

// transition runs one primary-status state change: load, authorize, pre-check
// the observed state for a friendly error, then apply the guarded UPDATE.
// Zero affected rows after a passing pre-check means a concurrent transition
// won; the loser gets ErrInvalidTransition based on post-serialization state.
func (u *appointmentUsecase) transition(ctx context.Context, appointmentID uuid.UUID, spec transitionSpec) (*dto.AppointmentResponse, error) {
	actorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	// Doctor-only transitions stay with the doctor even for admins; the
	// others allow any party, with an admin bypass.
	switch spec.onlyParty {
	case partyDoctor:
		if appointment.DoctorID != actorID {
			return nil, ErrNotAppointmentParty
		}
	default:
		if roleID != entity.RoleIDAdmin && !appointment.IsParty(actorID) {
			return nil, ErrNotAppointmentParty
		}
	}

	if !spec.allowed(appointment) {
		return nil, ErrInvalidTransition
	}

	affected, err := spec.apply(db, appointment, actorID)
	if err != nil {
		u.log.Warnf("Failed to apply %s on appointment %s: %+v", spec.action, appointmentID, err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	_ = u.auditService.RecordTransition(db, &actorID, spec.action, "appointment", appointmentID, appointment.Status, spec.newStatus)
	u.log.Infof("Appointment %s: %s -> %s by %s", appointmentID, appointment.Status, spec.newStatus, actorID)

	updated, err := u.appointmentRepo.FindByID(db, appointmentID)
	if err != nil || updated == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointmentID, err)
		appointment.Status = spec.newStatus
		u.notifier.Publish(ctx, spec.event, appointment)
		return converter.AppointmentToResponse(appointment), nil
	}
	u.notifier.Publish(ctx, spec.event, updated)
	return converter.AppointmentToResponse(updated), nil
}

// loadForActor fetches an appointment and verifies the caller is one of its
// parties (admins excepted).
func (u *appointmentUsecase) loadForActor(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) (*entity.Appointment, error) {
	actorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if roleID != entity.RoleIDAdmin && !appointment.IsParty(actorID) {
		return nil, ErrNotAppointmentParty
	}
	return appointment, nil
}

func (u *appointmentUsecase) reload(db *gorm.DB, appointment *entity.Appointment) (*dto.AppointmentResponse, error) {
	full, err := u.appointmentRepo.FindByID(db, appointment.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return converter.AppointmentToResponse(appointment), nil
	}
	return converter.AppointmentToResponse(full), nil
}
