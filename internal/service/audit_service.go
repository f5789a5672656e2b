package service

import (
	"clinic-appointment-server/internal/domain/entity"
	"clinic-appointment-server/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService records scheduling state changes. A failed audit write is
// logged and reported but callers treat it as non-fatal: the scheduling
// change itself has already been persisted.
type AuditService interface {
	RecordTransition(db *gorm.DB, actorID *uuid.UUID, action string, entityName string, entityID uuid.UUID, oldValue, newValue interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) RecordTransition(db *gorm.DB, actorID *uuid.UUID, action string, entityName string, entityID uuid.UUID, oldValue, newValue interface{}) error {
	metadata := entity.JSON{
		"entity":    entityName,
		"entity_id": entityID.String(),
		"old_value": oldValue,
		"new_value": newValue,
	}

	auditLog := &entity.AuditLog{
		UserID:   actorID,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(db, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log for %s on %s: %+v", action, entityID, err)
		return err
	}

	return nil
}
