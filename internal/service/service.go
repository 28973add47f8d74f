package service

import (
	"errors"

	"github.com/udid-foundation/udid-chain/internal/ledger"
	"github.com/udid-foundation/udid-chain/internal/queue"
	"github.com/udid-foundation/udid-chain/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidState        = errors.New("application must be in APPROVED status")
	ErrAlreadyIssued       = errors.New("certificate already issued for this application")
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrLedgerCommit wraps any ledger-side failure during issuance. Never
	// downgraded to a partial success, a certificate without ledger proof is
	// a policy violation.
	ErrLedgerCommit = errors.New("failed to store certificate digest on ledger")

	// ErrBadRequest: the verification query must carry exactly one of
	// certificateNumber / hash.
	ErrBadRequest = errors.New("provide either certificateNumber or hash")
)

// MailPublisher is the slice of the queue the issuance flow needs. Nil
// publisher disables notifications.
type MailPublisher interface {
	PublishCertificateIssued(payload queue.CertificateIssuedPayload) error
}

type baseService struct {
	repo   *repository.Repository
	ledger ledger.Client
	logger *zap.SugaredLogger
}

type Service struct {
	Issuance     *IssuanceService
	Verification *VerificationService
	Reconcile    *ReconcileService
}

func NewService(repo *repository.Repository, ledgerClient ledger.Client, mail MailPublisher, frontendURL string, auditPageSize int, logger *zap.SugaredLogger) *Service {
	bs := &baseService{repo: repo, ledger: ledgerClient, logger: logger}

	return &Service{
		Issuance:     &IssuanceService{baseService: bs, mail: mail, frontendURL: frontendURL},
		Verification: &VerificationService{baseService: bs},
		Reconcile:    &ReconcileService{baseService: bs, pageSize: auditPageSize},
	}
}
