package service

import (
	"context"
	"time"

	"github.com/udid-foundation/udid-chain/internal/model"
)

// VerificationService answers the public authenticity question. Trust is
// re-derived from the ledger on every call, the stored ledger_verified flag
// is never consulted here.
type VerificationService struct {
	*baseService
}

// VerifyQuery carries exactly one lookup key.
type VerifyQuery struct {
	CertificateNumber string
	Digest            string
}

const (
	ReasonNotFound       = "not_found"
	ReasonLedgerMismatch = "ledger_mismatch"
)

// VerifiedLedger is the ledger proof exposed to the public.
type VerifiedLedger struct {
	TransactionID string     `json:"transactionId"`
	BlockHeight   uint64     `json:"blockHeight"`
	Timestamp     *time.Time `json:"timestamp"`
}

// VerifiedCertificate is the subset of certificate data a verifier is
// allowed to see. No addresses, no medical notes, no application history.
type VerifiedCertificate struct {
	CertificateNumber    string         `json:"certificateNumber"`
	HolderName           string         `json:"holderName"`
	DisabilityType       string         `json:"disabilityType"`
	DisabilityPercentage int            `json:"disabilityPercentage"`
	IssueDate            *time.Time     `json:"issueDate"`
	ValidUntil           *time.Time     `json:"validUntil"`
	IsActive             bool           `json:"isActive"`
	Ledger               VerifiedLedger `json:"ledger"`
}

type VerifyResult struct {
	Verified    bool                 `json:"verified"`
	Reason      string               `json:"reason,omitempty"`
	Certificate *VerifiedCertificate `json:"certificate,omitempty"`
}

// Verify looks the certificate up by number or digest and confirms its
// digest against the ledger. A record without a matching ledger entry is
// reported as tampered, not as an error.
func (vs VerificationService) Verify(ctx context.Context, query VerifyQuery) (*VerifyResult, error) {
	if (query.CertificateNumber == "") == (query.Digest == "") {
		return nil, ErrBadRequest
	}

	var certificate *model.Certificate
	var err error
	if query.CertificateNumber != "" {
		certificate, err = vs.repo.Certificate.GetByCertificateNumber(ctx, nil, query.CertificateNumber)
	} else {
		certificate, err = vs.repo.Certificate.GetByDigest(ctx, nil, query.Digest)
	}
	if err != nil {
		return nil, err
	}
	if certificate == nil {
		return &VerifyResult{Verified: false, Reason: ReasonNotFound}, nil
	}

	exists, err := vs.ledger.DigestExists(ctx, certificate.CertificateHash)
	if err != nil {
		return nil, err
	}
	if !exists {
		vs.logger.Warnf("Verify certificate %s: digest missing from ledger", certificate.CertificateNumber)
		return &VerifyResult{Verified: false, Reason: ReasonLedgerMismatch}, nil
	}

	ledgerInfo := VerifiedLedger{
		TransactionID: certificate.Ledger.TransactionID,
		BlockHeight:   certificate.Ledger.BlockHeight,
		Timestamp:     certificate.Ledger.ConfirmedAt,
	}
	if ts, ok, err := vs.ledger.DigestTimestamp(ctx, certificate.CertificateHash); err == nil && ok {
		ledgerInfo.Timestamp = &ts
	}

	return &VerifyResult{
		Verified: true,
		Certificate: &VerifiedCertificate{
			CertificateNumber:    certificate.CertificateNumber,
			HolderName:           certificate.Holder.FullName(),
			DisabilityType:       certificate.DisabilityType,
			DisabilityPercentage: certificate.DisabilityPercentage,
			IssueDate:            certificate.IssueDate,
			ValidUntil:           certificate.ValidUntil,
			IsActive:             certificate.IsActive,
			Ledger:               ledgerInfo,
		},
	}, nil
}
