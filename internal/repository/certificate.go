package repository

import (
	"context"
	"errors"

	constant "github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/model"
	"gorm.io/gorm"
)

type CertificateRepository struct {
	*baseRepository
}

// Create persists an issued certificate. The unique indexes on
// application_id, certificate_number and certificate_hash are the real
// guard against concurrent double-issuance, callers translate
// gorm.ErrDuplicatedKey accordingly.
func (cr CertificateRepository) Create(ctx context.Context, tx *gorm.DB, certificate *model.Certificate) (*model.Certificate, error) {
	cr.logger.Debugf("Create certificate: %s", certificate.CertificateNumber)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.Certificate{}).Create(certificate).Error; err != nil {
		return certificate, err
	}

	return certificate, nil
}

func (cr CertificateRepository) getOne(ctx context.Context, tx *gorm.DB, where any) (*model.Certificate, error) {
	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificate model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).Where(where).
		Preload("Holder").Preload("Application").Preload("IssuedBy").First(&certificate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &certificate, nil
}

// The Get* lookups return (nil, nil) on absence, a missing certificate is a
// normal verification outcome rather than a failure.

func (cr CertificateRepository) GetById(ctx context.Context, tx *gorm.DB, id string) (*model.Certificate, error) {
	cr.logger.Debugf("Get certificate by id: %s", id)
	return cr.getOne(ctx, tx, &model.Certificate{BaseModel: model.BaseModel{ID: id}})
}

func (cr CertificateRepository) GetByApplicationId(ctx context.Context, tx *gorm.DB, applicationId string) (*model.Certificate, error) {
	cr.logger.Debugf("Get certificate by application id: %s", applicationId)
	return cr.getOne(ctx, tx, &model.Certificate{ApplicationID: applicationId})
}

func (cr CertificateRepository) GetByCertificateNumber(ctx context.Context, tx *gorm.DB, certificateNumber string) (*model.Certificate, error) {
	cr.logger.Debugf("Get certificate by number: %s", certificateNumber)
	return cr.getOne(ctx, tx, &model.Certificate{CertificateNumber: certificateNumber})
}

func (cr CertificateRepository) GetByDigest(ctx context.Context, tx *gorm.DB, digest string) (*model.Certificate, error) {
	cr.logger.Debugf("Get certificate by digest: %s", digest)
	return cr.getOne(ctx, tx, &model.Certificate{CertificateHash: digest})
}

func (cr CertificateRepository) ListByHolder(ctx context.Context, tx *gorm.DB, holderId string) ([]model.Certificate, error) {
	cr.logger.Debugf("List certificates by holder: %s", holderId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificates []model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).Where(&model.Certificate{
		HolderID: holderId,
	}).Preload("Application").Order("issue_date desc").Find(&certificates).Error; err != nil {
		return nil, err
	}

	return certificates, nil
}

// List pages through all certificates, used by the reconciler audit.
func (cr CertificateRepository) List(ctx context.Context, tx *gorm.DB, page, pageSize int) ([]model.Certificate, error) {
	cr.logger.Debugf("List certificates page %d size %d", page, pageSize)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificates []model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).
		Order("created_at asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&certificates).Error; err != nil {
		return nil, err
	}

	return certificates, nil
}

// SetActive is the soft-revocation hook. The row itself is never deleted.
func (cr CertificateRepository) SetActive(ctx context.Context, tx *gorm.DB, id string, active bool) error {
	cr.logger.Debugf("Set certificate %s active=%t", id, active)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.Certificate{}).Where("id = ?", id).
		Update("is_active", active).Error
}

// SetLedgerVerified refreshes the cached receipt flag. Verification never
// trusts this column, only the reconciler and display layers read it.
func (cr CertificateRepository) SetLedgerVerified(ctx context.Context, tx *gorm.DB, id string, verified bool) error {
	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.Certificate{}).Where("id = ?", id).
		Update("ledger_verified", verified).Error
}
