package usecase

import (
	"context"
	"errors"
	"fmt"

	"clinic-appointment-server/internal/converter"
	"clinic-appointment-server/internal/delivery/dto"
	"clinic-appointment-server/internal/delivery/http/middleware"
	"clinic-appointment-server/internal/domain/entity"
	"clinic-appointment-server/internal/domain/repository"
	"clinic-appointment-server/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrInvalidAvailability = errors.New("invalid availability template")

type DoctorUsecase interface {
	ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	GetAvailability(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityResponse, error)
	GetMyAvailability(ctx context.Context) (*dto.AvailabilityResponse, error)
	SetAvailability(ctx context.Context, req *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type doctorUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	doctorRepo   repository.DoctorProfileRepository
	auditService service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:           db,
		log:          log,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

func (u *doctorUsecase) ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToResponse(doctor), nil
}

// GetAvailability returns the doctor's weekly template, read fresh from the
// profile row. The template is never cached: concurrent bookers must all see
// the latest doctor edit.
func (u *doctorUsecase) GetAvailability(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityResponse, error) {
	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return &dto.AvailabilityResponse{
		DoctorID:     doctor.UserID,
		Availability: doctor.WeeklyAvailability(),
	}, nil
}

// GetMyAvailability returns the weekly template of the calling doctor.
func (u *doctorUsecase) GetMyAvailability(ctx context.Context) (*dto.AvailabilityResponse, error) {
	doctorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	return u.GetAvailability(ctx, doctorID)
}

// SetAvailability overwrites the caller's own weekly template. Every present
// day entry marked available must carry a valid HH:MM range with start < end;
// days the template omits read as unavailable.
func (u *doctorUsecase) SetAvailability(ctx context.Context, req *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	doctorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	db := u.db.WithContext(ctx)

	if err := req.Availability.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAvailability, err)
	}

	affected, err := u.doctorRepo.UpdateAvailability(db, doctorID, req.Availability)
	if err != nil {
		u.log.Warnf("Failed to update availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrDoctorNotFound
	}

	_ = u.auditService.RecordTransition(db, &doctorID, entity.AuditActionAvailabilityUpdate, "doctor_profile", doctorID,
		nil, req.Availability)
	u.log.Infof("Availability updated for doctor %s", doctorID)

	return &dto.AvailabilityResponse{
		DoctorID:     doctorID,
		Availability: req.Availability,
	}, nil
}
