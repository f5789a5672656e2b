package usecase_test

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"clinic-appointment-server/internal/delivery/dto"
	"clinic-appointment-server/internal/delivery/http/middleware"
	"clinic-appointment-server/internal/domain/entity"
	"clinic-appointment-server/internal/schedule"
	"clinic-appointment-server/internal/usecase"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB returns a gorm handle over a sqlmock connection. The in-memory
// repositories never touch it; it only satisfies the usecase wiring.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	return gdb
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func authCtx(userID uuid.UUID, roleID int) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID)
	return context.WithValue(ctx, middleware.RoleIDKey, roleID)
}

// memoryAppointmentRepo is an in-memory stand-in for the Postgres-backed
// repository. Its guarded methods enforce the same conditions as the
// conditional UPDATEs, and slot collisions surface as gorm.ErrDuplicatedKey
// the way the partial unique index would.
type memoryAppointmentRepo struct {
	byID map[uuid.UUID]*entity.Appointment
}

func newMemoryAppointmentRepo() *memoryAppointmentRepo {
	return &memoryAppointmentRepo{byID: map[uuid.UUID]*entity.Appointment{}}
}

func (r *memoryAppointmentRepo) slotTaken(doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) bool {
	for id, a := range r.byID {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.AppointmentDate.Equal(date) && a.StartTime == startTime && a.IsActive() {
			return true
		}
	}
	return false
}

func (r *memoryAppointmentRepo) Create(db *gorm.DB, a *entity.Appointment) error {
	if a.IsActive() && r.slotTaken(a.DoctorID, a.AppointmentDate, a.StartTime, nil) {
		return gorm.ErrDuplicatedKey
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *memoryAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memoryAppointmentRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.byID {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryAppointmentRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.byID {
		if a.DoctorID == doctorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryAppointmentRepo) FindByDoctorAndDateRange(db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.byID {
		if a.DoctorID == doctorID && !a.AppointmentDate.Before(from) && !a.AppointmentDate.After(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryAppointmentRepo) FindBookedTimes(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error) {
	var times []string
	for _, a := range r.byID {
		if a.DoctorID == doctorID && a.AppointmentDate.Equal(date) && a.IsActive() {
			times = append(times, a.StartTime)
		}
	}
	sort.Strings(times)
	return times, nil
}

func (r *memoryAppointmentRepo) CountActiveAtSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (int64, error) {
	if r.slotTaken(doctorID, date, startTime, excludeID) {
		return 1, nil
	}
	return 0, nil
}

func (r *memoryAppointmentRepo) ConfirmIfPending(db *gorm.DB, id uuid.UUID) (int64, error) {
	a, ok := r.byID[id]
	if !ok || a.Status != entity.AppointmentStatusPending {
		return 0, nil
	}
	a.Status = entity.AppointmentStatusConfirmed
	return 1, nil
}

func (r *memoryAppointmentRepo) CancelIfActive(db *gorm.DB, id uuid.UUID, cancelledBy uuid.UUID, reason string) (int64, error) {
	a, ok := r.byID[id]
	if !ok || !a.IsActive() {
		return 0, nil
	}
	a.Status = entity.AppointmentStatusCancelled
	a.CancelledBy = &cancelledBy
	a.CancelReason = reason
	return 1, nil
}

func (r *memoryAppointmentRepo) CompleteIfConfirmed(db *gorm.DB, id uuid.UUID) (int64, error) {
	a, ok := r.byID[id]
	if !ok || a.Status != entity.AppointmentStatusConfirmed {
		return 0, nil
	}
	a.Status = entity.AppointmentStatusCompleted
	return 1, nil
}

func (r *memoryAppointmentRepo) RescheduleSlotIfActive(db *gorm.DB, id uuid.UUID, date time.Time, startTime string, reason string) (int64, error) {
	a, ok := r.byID[id]
	if !ok || !a.IsActive() {
		return 0, nil
	}
	if r.slotTaken(a.DoctorID, date, startTime, &id) {
		return 0, gorm.ErrDuplicatedKey
	}
	a.AppointmentDate = date
	a.StartTime = startTime
	if reason != "" {
		a.Reason = reason
	}
	return 1, nil
}

func (r *memoryAppointmentRepo) OpenRescheduleCycle(db *gorm.DB, id uuid.UUID, resched entity.Reschedule) (int64, error) {
	a, ok := r.byID[id]
	if !ok || !a.IsActive() || a.Reschedule.Status == entity.RescheduleStatusPending {
		return 0, nil
	}
	a.Reschedule = entity.Reschedule{
		Status:      entity.RescheduleStatusPending,
		RequestedAt: resched.RequestedAt,
		RequestedBy: resched.RequestedBy,
		Reason:      resched.Reason,
		NewDate:     resched.NewDate,
		NewTime:     resched.NewTime,
	}
	return 1, nil
}

func (r *memoryAppointmentRepo) ApprovePendingReschedule(db *gorm.DB, id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error) {
	a, ok := r.byID[id]
	if !ok || a.Reschedule.Status != entity.RescheduleStatusPending || a.Reschedule.NewDate == nil {
		return 0, nil
	}
	if r.slotTaken(a.DoctorID, *a.Reschedule.NewDate, a.Reschedule.NewTime, &id) {
		return 0, gorm.ErrDuplicatedKey
	}
	a.AppointmentDate = *a.Reschedule.NewDate
	a.StartTime = a.Reschedule.NewTime
	a.Reschedule.Status = entity.RescheduleStatusApproved
	a.Reschedule.ResolvedAt = &resolvedAt
	a.Reschedule.ResolvedBy = &resolvedBy
	return 1, nil
}

func (r *memoryAppointmentRepo) RejectPendingReschedule(db *gorm.DB, id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error) {
	a, ok := r.byID[id]
	if !ok || a.Reschedule.Status != entity.RescheduleStatusPending {
		return 0, nil
	}
	a.Reschedule.Status = entity.RescheduleStatusRejected
	a.Reschedule.ResolvedAt = &resolvedAt
	a.Reschedule.ResolvedBy = &resolvedBy
	return 1, nil
}

type memoryDoctorRepo struct {
	byID map[uuid.UUID]*entity.DoctorProfile
}

func newMemoryDoctorRepo() *memoryDoctorRepo {
	return &memoryDoctorRepo{byID: map[uuid.UUID]*entity.DoctorProfile{}}
}

func (r *memoryDoctorRepo) Create(db *gorm.DB, profile *entity.DoctorProfile) error {
	cp := *profile
	r.byID[profile.UserID] = &cp
	return nil
}

func (r *memoryDoctorRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	p, ok := r.byID[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memoryDoctorRepo) FindAll(db *gorm.DB) ([]entity.DoctorProfile, error) {
	var out []entity.DoctorProfile
	for _, p := range r.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryDoctorRepo) UpdateAvailability(db *gorm.DB, userID uuid.UUID, availability schedule.WeeklyAvailability) (int64, error) {
	p, ok := r.byID[userID]
	if !ok {
		return 0, nil
	}
	p.Availability = datatypes.NewJSONType(availability)
	return 1, nil
}

type memoryPatientRepo struct {
	byID map[uuid.UUID]*entity.PatientProfile
}

func newMemoryPatientRepo() *memoryPatientRepo {
	return &memoryPatientRepo{byID: map[uuid.UUID]*entity.PatientProfile{}}
}

func (r *memoryPatientRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	p, ok := r.byID[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

type recordingAuditService struct {
	actions []string
}

func (s *recordingAuditService) RecordTransition(db *gorm.DB, actorID *uuid.UUID, action string, entityName string, entityID uuid.UUID, oldValue, newValue interface{}) error {
	s.actions = append(s.actions, action)
	return nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Publish(ctx context.Context, eventType string, appointment *entity.Appointment) {
	n.events = append(n.events, eventType)
}

// fixture wires the scheduling usecases over in-memory repositories with one
// doctor (default weekday hours) and one patient.
type fixture struct {
	db           *gorm.DB
	appointments *memoryAppointmentRepo
	doctors      *memoryDoctorRepo
	patients     *memoryPatientRepo
	audit        *recordingAuditService
	notifier     *recordingNotifier

	appointmentUC usecase.AppointmentUsecase
	rescheduleUC  usecase.RescheduleUsecase
	doctorUC      usecase.DoctorUsecase

	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:           newTestDB(t),
		appointments: newMemoryAppointmentRepo(),
		doctors:      newMemoryDoctorRepo(),
		patients:     newMemoryPatientRepo(),
		audit:        &recordingAuditService{},
		notifier:     &recordingNotifier{},
		doctorID:     uuid.New(),
		patientID:    uuid.New(),
	}

	f.doctors.byID[f.doctorID] = &entity.DoctorProfile{
		UserID:         f.doctorID,
		LicenseNumber:  "LIC-001",
		Specialization: "Cardiology",
		Availability:   datatypes.NewJSONType(schedule.DefaultWeeklyAvailability()),
		User:           entity.User{ID: f.doctorID, RoleID: entity.RoleIDDoctor, FullName: "Dr. Carter"},
	}
	f.patients.byID[f.patientID] = &entity.PatientProfile{
		UserID: f.patientID,
		Gender: entity.GenderFemale,
		User:   entity.User{ID: f.patientID, RoleID: entity.RoleIDPatient, FullName: "Jane Doe"},
	}

	log := newTestLogger()
	f.appointmentUC = usecase.NewAppointmentUsecase(f.db, log, f.appointments, f.doctors, f.patients, f.audit, f.notifier)
	f.rescheduleUC = usecase.NewRescheduleUsecase(f.db, log, f.appointments, f.doctors, f.audit, f.notifier)
	f.doctorUC = usecase.NewDoctorUsecase(f.db, log, f.doctors, f.audit)

	return f
}

func (f *fixture) patientCtx() context.Context {
	return authCtx(f.patientID, entity.RoleIDPatient)
}

func (f *fixture) doctorCtx() context.Context {
	return authCtx(f.doctorID, entity.RoleIDDoctor)
}

// nextWeekday returns the first date at least a week out that falls on the
// given weekday, at midnight UTC. Keeping bookings in the future avoids the
// past-slot guard.
func nextWeekday(day time.Weekday) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func bookReq(doctorID uuid.UUID, date, clock string) *dto.BookAppointmentRequest {
	return &dto.BookAppointmentRequest{
		DoctorID: doctorID,
		Date:     date,
		Time:     clock,
		Reason:   "routine checkup",
		PreConsultation: dto.PreConsultationFormRequest{
			Symptoms: []string{"headache"},
		},
	}
}

func (f *fixture) mustBook(t *testing.T, date, clock string) *dto.AppointmentResponse {
	t.Helper()
	resp, err := f.appointmentUC.BookAppointment(f.patientCtx(), bookReq(f.doctorID, date, clock))
	require.NoError(t, err)
	return resp
}
