package repository

import (
	"context"
	"fmt"
	"time"

	constant "github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/model"
	"gorm.io/gorm"
)

type SequenceRepository struct {
	*baseRepository
}

// Next bumps the named per-year counter and returns the new value in a
// single atomic upsert. Two concurrent calls can never observe the same
// value, which is what makes certificate numbers collision-free without any
// application-side locking.
func (sr SequenceRepository) Next(ctx context.Context, tx *gorm.DB, name string, year int) (int64, error) {
	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var value int64
	err := db.WithContext(ctx).Raw(
		`INSERT INTO sequences (name, year, value) VALUES (?, ?, 1)
		 ON CONFLICT (name, year) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`,
		name, year,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}

	return value, nil
}

// NextCertificateNumber allocates the next UDID-<year>-<sequence> number.
// An issuance aborted after allocation leaves a gap, numbers are opaque
// identifiers so gaps are acceptable.
func (sr SequenceRepository) NextCertificateNumber(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	year := now.UTC().Year()

	value, err := sr.Next(ctx, tx, model.SequenceCertificate, year)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%0*d", constant.CertificateNumberPrefix, year, constant.CertificateSequenceDigits, value), nil
}

// NextApplicationNumber allocates the next DCA-<year>-<sequence> number.
func (sr SequenceRepository) NextApplicationNumber(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	year := now.UTC().Year()

	value, err := sr.Next(ctx, tx, model.SequenceApplication, year)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%0*d", constant.ApplicationNumberPrefix, year, constant.ApplicationSequenceDigits, value), nil
}
