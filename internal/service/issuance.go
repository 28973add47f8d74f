package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/model"
	"github.com/udid-foundation/udid-chain/internal/queue"
	"github.com/udid-foundation/udid-chain/pkg/udid"
	"gorm.io/gorm"
)

// IssuanceService turns an approved application into a certificate. The flow
// is strictly ordered: preconditions, digest computation, ledger commit,
// database write. The ledger commit happens before the database transaction
// and is never retried, so a ledger failure leaves the application in
// APPROVED and the whole operation can simply be invoked again.
type IssuanceService struct {
	*baseService
	mail        MailPublisher
	frontendURL string
}

func (is IssuanceService) Issue(ctx context.Context, applicationId, issuerId string) (*model.Certificate, error) {
	is.logger.Debugf("Issue certificate for application %s by %s", applicationId, issuerId)

	app, err := is.repo.Application.GetById(ctx, nil, applicationId)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	if app.Status != constant.ApplicationStatusApproved {
		return nil, fmt.Errorf("%w, current status is %s", ErrInvalidState, app.Status)
	}
	if app.AssessedPercentage == nil {
		return nil, fmt.Errorf("%w, application carries no assessed percentage", ErrInvalidState)
	}

	existing, err := is.repo.Certificate.GetByApplicationId(ctx, nil, applicationId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyIssued
	}

	issueDate := time.Now().UTC()
	validUntil := issueDate.AddDate(constant.CertificateValidityYears, 0, 0)

	// The sequence counter runs outside the certificate transaction. A later
	// failure leaves a gap in the numbering, which is acceptable, numbers
	// only need to be unique.
	certificateNumber, err := is.repo.Sequence.NextCertificateNumber(ctx, nil, issueDate)
	if err != nil {
		return nil, err
	}

	digest, err := udid.ComputeDigest(udid.CertificateFields{
		CertificateNumber:    certificateNumber,
		HolderID:             app.HolderID,
		ApplicationID:        app.ID,
		DisabilityType:       app.DisabilityType,
		DisabilityPercentage: *app.AssessedPercentage,
		IssueDate:            issueDate,
		ValidUntil:           validUntil,
	})
	if err != nil {
		return nil, err
	}

	receipt, err := is.ledger.StoreDigest(ctx, digest)
	if err != nil {
		is.logger.Errorf("Issue ledger commit failed for application %s: %v", applicationId, err)
		return nil, fmt.Errorf("%w: %w", ErrLedgerCommit, err)
	}

	qrPayload, err := udid.BuildVerificationPayload(certificateNumber, digest, is.frontendURL)
	if err != nil {
		return nil, err
	}

	confirmedAt := receipt.ConfirmedAt
	certificate := &model.Certificate{
		ApplicationID:        app.ID,
		HolderID:             app.HolderID,
		CertificateNumber:    certificateNumber,
		DisabilityType:       app.DisabilityType,
		DisabilityPercentage: *app.AssessedPercentage,
		IssueDate:            &issueDate,
		ValidUntil:           &validUntil,
		CertificateHash:      digest,
		Ledger: model.LedgerReceipt{
			TransactionID: receipt.TransactionID,
			BlockHeight:   receipt.BlockHeight,
			ConfirmedAt:   &confirmedAt,
			Verified:      true,
		},
		QrPayload:  qrPayload,
		IssuedByID: issuerId,
		IsActive:   true,
	}

	err = is.repo.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := is.repo.Certificate.Create(ctx, tx, certificate); err != nil {
			return err
		}

		return is.repo.Application.UpdateStatus(ctx, tx, app.ID, constant.ApplicationStatusCertificateIssued, issuerId, "Certificate issued", nil)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyIssued
		}

		return nil, err
	}

	is.notify(app, certificate)

	return certificate, nil
}

// notify publishes the issued-certificate mail job. Best effort, a dead
// broker must not fail an issuance that is already on the ledger.
func (is IssuanceService) notify(app *model.Application, certificate *model.Certificate) {
	if is.mail == nil {
		return
	}

	err := is.mail.PublishCertificateIssued(queue.CertificateIssuedPayload{
		Email:             app.Holder.Email,
		HolderName:        app.Holder.FullName(),
		CertificateNumber: certificate.CertificateNumber,
		DisabilityType:    certificate.DisabilityType,
		ValidUntil:        *certificate.ValidUntil,
		VerifyURL:         udid.VerifyURL(certificate.CertificateNumber, is.frontendURL),
	})
	if err != nil {
		is.logger.Errorf("notify publish certificate issued mail: %v", err)
	}
}

// Revoke flips the administrative validity flag. The ledger entry is
// untouched, revocation is a database-side policy decision.
func (is IssuanceService) Revoke(ctx context.Context, certificateId string) (*model.Certificate, error) {
	certificate, err := is.repo.Certificate.GetById(ctx, nil, certificateId)
	if err != nil {
		return nil, err
	}
	if certificate == nil {
		return nil, ErrCertificateNotFound
	}

	if err := is.repo.Certificate.SetActive(ctx, nil, certificate.ID, false); err != nil {
		return nil, err
	}
	certificate.IsActive = false

	return certificate, nil
}
