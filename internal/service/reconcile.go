package service

import (
	"context"

	"github.com/udid-foundation/udid-chain/internal/ledger"
)

// ReconcileService audits the certificate store against the ledger. It
// refreshes the cached ledger_verified flag and reports two kinds of drift:
// certificates whose digest is gone from the ledger, and ledger digests with
// no matching certificate row. Drift is reported, never repaired, the ledger
// is append-only and orphans need a human decision.
type ReconcileService struct {
	*baseService
	pageSize int
}

type AuditReport struct {
	Checked    int      `json:"checked"`
	Confirmed  int      `json:"confirmed"`
	Mismatched []string `json:"mismatched,omitempty"`
	Orphaned   []string `json:"orphaned,omitempty"`
}

const defaultAuditPageSize = 200

func (rs ReconcileService) Audit(ctx context.Context) (*AuditReport, error) {
	pageSize := rs.pageSize
	if pageSize <= 0 {
		pageSize = defaultAuditPageSize
	}

	report := &AuditReport{}
	seen := make(map[string]bool)

	for page := 1; ; page++ {
		certificates, err := rs.repo.Certificate.List(ctx, nil, page, pageSize)
		if err != nil {
			return nil, err
		}
		if len(certificates) == 0 {
			break
		}

		for _, certificate := range certificates {
			report.Checked++
			seen[certificate.CertificateHash] = true

			exists, err := rs.ledger.DigestExists(ctx, certificate.CertificateHash)
			if err != nil {
				return nil, err
			}

			if !exists {
				rs.logger.Warnf("Audit: certificate %s digest missing from ledger", certificate.CertificateNumber)
				report.Mismatched = append(report.Mismatched, certificate.CertificateNumber)
			} else {
				report.Confirmed++
			}

			if exists != certificate.Ledger.Verified {
				if err := rs.repo.Certificate.SetLedgerVerified(ctx, nil, certificate.ID, exists); err != nil {
					return nil, err
				}
			}
		}

		if len(certificates) < pageSize {
			break
		}
	}

	// Orphan detection needs an enumerable ledger, remote registries that
	// cannot list are audited one way only.
	if lister, ok := rs.ledger.(ledger.Lister); ok {
		digests, err := lister.ListDigests(ctx)
		if err != nil {
			return nil, err
		}

		for _, digest := range digests {
			if seen[digest] {
				continue
			}

			certificate, err := rs.repo.Certificate.GetByDigest(ctx, nil, digest)
			if err != nil {
				return nil, err
			}
			if certificate == nil {
				rs.logger.Warnf("Audit: ledger digest %s has no certificate record", digest)
				report.Orphaned = append(report.Orphaned, digest)
			}
		}
	}

	return report, nil
}
