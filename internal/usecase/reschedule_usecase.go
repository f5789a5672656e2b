package usecase

import (
	"context"
	"errors"
	"fmt"
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
	"gorm.io/gorm"
)

// Reschedule preconditions are state-machine violations, so both sentinels
// wrap ErrInvalidTransition.
var (
	ErrRescheduleAlreadyPending = fmt.Errorf("%w: a reschedule request is already pending", ErrInvalidTransition)
	ErrNoPendingReschedule      = fmt.Errorf("%w: no pending reschedule request to resolve", ErrInvalidTransition)
)

// ErrRescheduleOwnRequest keeps resolution with the counterparty or an admin.
// Letting the requester resolve would collapse the cycle into a unilateral move.
var ErrRescheduleOwnRequest = fmt.Errorf("%w: the requesting party cannot resolve its own reschedule request", ErrNotAppointmentParty)

// Reschedule actions.
const (
	RescheduleActionApprove = "approve"
	RescheduleActionReject  = "reject"
)

type RescheduleUsecase interface {
	RequestReschedule(ctx context.Context, appointmentID uuid.UUID, req *dto.RequestRescheduleRequest) (*dto.AppointmentResponse, error)
	ResolveReschedule(ctx context.Context, appointmentID uuid.UUID, req *dto.ResolveRescheduleRequest) (*dto.AppointmentResponse, error)
}

type rescheduleUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorProfileRepository
	auditService    service.AuditService
	notifier        service.Notifier
}

func NewRescheduleUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
	notifier service.Notifier,
) RescheduleUsecase {
	return &rescheduleUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		auditService:    auditService,
		notifier:        notifier,
	}
}

// RequestReschedule opens a reschedule cycle on an active appointment. The
// proposed slot is validated against working hours and other active bookings
// (the appointment itself excluded), but the authoritative date/time stay
// untouched until approval.
func (u *rescheduleUsecase) RequestReschedule(ctx context.Context, appointmentID uuid.UUID, req *dto.RequestRescheduleRequest) (*dto.AppointmentResponse, error) {
	actorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !appointment.IsParty(actorID) {
		return nil, ErrNotAppointmentParty
	}
	if !appointment.IsActive() {
		return nil, ErrInvalidTransition
	}
	if appointment.HasPendingReschedule() {
		return nil, ErrRescheduleAlreadyPending
	}

	newDate, err := parseSlot(req.NewDate, req.NewTime)
	if err != nil {
		return nil, err
	}

	if err := u.validateProposedSlot(db, appointment, newDate, req.NewTime); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	affected, err := u.appointmentRepo.OpenRescheduleCycle(db, appointmentID, entity.Reschedule{
		RequestedAt: &now,
		RequestedBy: &actorID,
		Reason:      req.Reason,
		NewDate:     &newDate,
		NewTime:     req.NewTime,
	})
	if err != nil {
		u.log.Warnf("Failed to open reschedule cycle on appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if affected == 0 {
		// A concurrent request or cancellation changed the state first.
		return nil, ErrRescheduleAlreadyPending
	}

	_ = u.auditService.RecordTransition(db, &actorID, entity.AuditActionRescheduleRequest, "appointment", appointmentID,
		string(appointment.Reschedule.Status),
		entity.JSON{"status": entity.RescheduleStatusPending, "new_date": req.NewDate, "new_time": req.NewTime})
	u.log.Infof("Reschedule requested on appointment %s: %s %s by %s", appointmentID, req.NewDate, req.NewTime, actorID)

	return u.reloadWithEvent(ctx, db, appointmentID, service.EventRescheduleRequested)
}

// ResolveReschedule approves or rejects the pending cycle. Only the party that
// did not raise the request may resolve it; admins may resolve either side.
// Approval re-validates the proposed slot against the current slot map before
// promoting it: a slot taken between request and approval surfaces as
// ErrSlotConflict and the cycle stays pending for the caller to reject.
func (u *rescheduleUsecase) ResolveReschedule(ctx context.Context, appointmentID uuid.UUID, req *dto.ResolveRescheduleRequest) (*dto.AppointmentResponse, error) {
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
	if roleID != entity.RoleIDAdmin && !appointment.IsParty(actorID) {
		return nil, ErrNotAppointmentParty
	}
	if !appointment.HasPendingReschedule() {
		return nil, ErrNoPendingReschedule
	}
	if roleID != entity.RoleIDAdmin && appointment.Reschedule.RequestedBy != nil && *appointment.Reschedule.RequestedBy == actorID {
		return nil, ErrRescheduleOwnRequest
	}

	now := time.Now().UTC()
	var (
		affected int64
		action   string
		event    string
	)
	switch req.Action {
	case RescheduleActionApprove:
		if appointment.Reschedule.NewDate == nil {
			return nil, fmt.Errorf("reschedule cycle on appointment %s has no proposed date", appointmentID)
		}
		if err := u.validateProposedSlot(db, appointment, *appointment.Reschedule.NewDate, appointment.Reschedule.NewTime); err != nil {
			return nil, err
		}

		action = entity.AuditActionRescheduleApprove
		event = service.EventRescheduleApproved
		affected, err = u.appointmentRepo.ApprovePendingReschedule(db, appointmentID, actorID, now)
		if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent booking took the proposed slot after our pre-check;
			// the unique index has the final word.
			return nil, ErrSlotConflict
		}
	case RescheduleActionReject:
		action = entity.AuditActionRescheduleReject
		event = service.EventRescheduleRejected
		affected, err = u.appointmentRepo.RejectPendingReschedule(db, appointmentID, actorID, now)
	default:
		return nil, fmt.Errorf("unknown reschedule action %q", req.Action)
	}
	if err != nil {
		u.log.Warnf("Failed to resolve reschedule on appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNoPendingReschedule
	}

	_ = u.auditService.RecordTransition(db, &actorID, action, "appointment", appointmentID,
		entity.RescheduleStatusPending, req.Action)
	u.log.Infof("Reschedule %sd on appointment %s by %s", req.Action, appointmentID, actorID)

	return u.reloadWithEvent(ctx, db, appointmentID, event)
}

// validateProposedSlot checks that a proposed slot is still in the future,
// inside working hours, and free of active-appointment conflicts (the
// appointment being moved excluded). Runs at request and again at approval,
// since a proposal can lapse or collide while the cycle sits pending.
func (u *rescheduleUsecase) validateProposedSlot(db *gorm.DB, appointment *entity.Appointment, date time.Time, clock string) error {
	if slotInPast(date, clock) {
		return ErrPastAppointment
	}

	doctor, err := u.doctorRepo.FindByUserID(db, appointment.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", appointment.DoctorID, err)
		return err
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}

	day := doctor.WeeklyAvailability().Day(schedule.WeekdayOf(date))
	if !schedule.WithinHours(day, clock) {
		return ErrDoctorUnavailable
	}

	count, err := u.appointmentRepo.CountActiveAtSlot(db, appointment.DoctorID, date, clock, &appointment.ID)
	if err != nil {
		u.log.Warnf("Failed to check slot %s %s for doctor %s: %+v", date.Format(dateLayout), clock, appointment.DoctorID, err)
		return err
	}
	if count > 0 {
		return ErrSlotConflict
	}
	return nil
}

func (u *rescheduleUsecase) reloadWithEvent(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID, event string) (*dto.AppointmentResponse, error) {
	updated, err := u.appointmentRepo.FindByID(db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if updated == nil {
		return nil, ErrAppointmentNotFound
	}
	u.notifier.Publish(ctx, event, updated)
	return converter.AppointmentToResponse(updated), nil
}
