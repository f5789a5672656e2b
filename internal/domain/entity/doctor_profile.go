package entity

import (
	"clinic-appointment-server/internal/schedule"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DoctorProfile holds doctor-specific profile data, including the weekly
// availability template that drives slot generation. The template is created
// with defaults when the profile is created and only ever overwritten by the
// doctor, never deleted.
type DoctorProfile struct {
	UserID          uuid.UUID                                        `gorm:"type:uuid;primaryKey" json:"user_id"`
	LicenseNumber   string                                           `gorm:"type:varchar(50);uniqueIndex;not null" json:"license_number"`
	Specialization  string                                           `gorm:"type:varchar(100);not null;index" json:"specialization"`
	ConsultationFee float64                                          `gorm:"type:numeric(10,2);not null;default:0" json:"consultation_fee"`
	Biography       string                                           `gorm:"type:text" json:"biography,omitempty"`
	Availability    datatypes.JSONType[schedule.WeeklyAvailability] `gorm:"type:jsonb;not null" json:"availability"`

	// Relationships
	User         User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"appointments,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// WeeklyAvailability unwraps the JSONB availability column.
func (d *DoctorProfile) WeeklyAvailability() schedule.WeeklyAvailability {
	return d.Availability.Data()
}

// SetWeeklyAvailability replaces the availability template.
func (d *DoctorProfile) SetWeeklyAvailability(w schedule.WeeklyAvailability) {
	d.Availability = datatypes.NewJSONType(w)
}
