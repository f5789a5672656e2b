package repository

import (
	"clinic-appointment-server/internal/domain/entity"
	"clinic-appointment-server/internal/schedule"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	Create(db *gorm.DB, profile *entity.DoctorProfile) error
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	FindAll(db *gorm.DB) ([]entity.DoctorProfile, error)
	UpdateAvailability(db *gorm.DB, userID uuid.UUID, availability schedule.WeeklyAvailability) (int64, error)
}
