package repository

import (
	"context"
	"errors"
	"time"

	constant "github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/model"
	"gorm.io/gorm"
)

type ApplicationRepository struct {
	*baseRepository
}

// Create allocates the application number and persists the application with
// its first status-history row in one transaction.
func (ar ApplicationRepository) Create(ctx context.Context, tx *gorm.DB, application *model.Application) (*model.Application, error) {
	ar.logger.Debugf("Create application for holder: %s", application.HolderID)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	err := ar.withTx(db.WithContext(ctx), func(tx *gorm.DB) error {
		seq := SequenceRepository{baseRepository: ar.baseRepository}
		number, err := seq.NextApplicationNumber(ctx, tx, time.Now())
		if err != nil {
			return err
		}

		application.ApplicationNumber = number
		application.Status = constant.ApplicationStatusSubmitted

		if err := tx.Model(&model.Application{}).Create(application).Error; err != nil {
			return err
		}

		return tx.Model(&model.ApplicationStatusLog{}).Create(&model.ApplicationStatusLog{
			ApplicationID: application.ID,
			Status:        constant.ApplicationStatusSubmitted,
			ChangedByID:   application.HolderID,
			Notes:         "Application submitted",
		}).Error
	})
	if err != nil {
		return application, err
	}

	return application, nil
}

// GetById returns (nil, nil) when the id is unknown.
func (ar ApplicationRepository) GetById(ctx context.Context, tx *gorm.DB, id string) (*model.Application, error) {
	ar.logger.Debugf("Get application by id: %s", id)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var application model.Application
	if err := db.WithContext(ctx).Model(&model.Application{}).Where(&model.Application{
		BaseModel: model.BaseModel{ID: id},
	}).Preload("Holder").Preload("AssignedDoctor").Preload("StatusHistory").First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &application, nil
}

func (ar ApplicationRepository) ListByHolder(ctx context.Context, tx *gorm.DB, holderId string) ([]model.Application, error) {
	ar.logger.Debugf("List applications by holder: %s", holderId)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var applications []model.Application
	if err := db.WithContext(ctx).Model(&model.Application{}).Where(&model.Application{
		HolderID: holderId,
	}).Order("created_at desc").Find(&applications).Error; err != nil {
		return nil, err
	}

	return applications, nil
}

func (ar ApplicationRepository) ListByStatus(ctx context.Context, tx *gorm.DB, status constant.ApplicationStatus) ([]model.Application, error) {
	ar.logger.Debugf("List applications by status: %s", status)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var applications []model.Application
	if err := db.WithContext(ctx).Model(&model.Application{}).Where(&model.Application{
		Status: status,
	}).Preload("Holder").Order("created_at asc").Find(&applications).Error; err != nil {
		return nil, err
	}

	return applications, nil
}

// ApplicationUpdate carries the optional field changes that ride along with
// a status transition.
type ApplicationUpdate struct {
	AssignedDoctorID   *string
	AssessedPercentage *int
	DoctorNotes        *string
	AssessmentDate     *time.Time
	AdminNotes         *string
	RejectionReason    *string
}

// UpdateStatus transitions the application and appends a status-history row.
// Field changes and the transition commit atomically.
func (ar ApplicationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, applicationId string, status constant.ApplicationStatus, changedById, notes string, update *ApplicationUpdate) error {
	ar.logger.Debugf("Update application %s status to %s", applicationId, status)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return ar.withTx(db.WithContext(ctx), func(tx *gorm.DB) error {
		values := map[string]any{"status": status}
		if update != nil {
			if update.AssignedDoctorID != nil {
				values["assigned_doctor_id"] = *update.AssignedDoctorID
			}
			if update.AssessedPercentage != nil {
				values["assessed_percentage"] = *update.AssessedPercentage
			}
			if update.DoctorNotes != nil {
				values["doctor_notes"] = *update.DoctorNotes
			}
			if update.AssessmentDate != nil {
				values["assessment_date"] = *update.AssessmentDate
			}
			if update.AdminNotes != nil {
				values["admin_notes"] = *update.AdminNotes
			}
			if update.RejectionReason != nil {
				values["rejection_reason"] = *update.RejectionReason
			}
		}

		if err := tx.Model(&model.Application{}).Where("id = ?", applicationId).Updates(values).Error; err != nil {
			return err
		}

		return tx.Model(&model.ApplicationStatusLog{}).Create(&model.ApplicationStatusLog{
			ApplicationID: applicationId,
			Status:        status,
			ChangedByID:   changedById,
			Notes:         notes,
		}).Error
	})
}
