package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/ledger"
	"github.com/udid-foundation/udid-chain/internal/model"
	"github.com/udid-foundation/udid-chain/internal/repository"
	"github.com/udid-foundation/udid-chain/internal/util"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testFrontendURL = "https://udid.example.org"

func newTestService(t *testing.T) (*Service, *repository.Repository, *ledger.MemoryLedger) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// In-memory sqlite exists per connection, a second pooled connection
	// would see an empty database.
	sqlDb, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDb.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{},
		&model.Application{},
		&model.ApplicationStatusLog{},
		&model.Certificate{},
		&model.Sequence{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := util.NewLogger("development")
	repo := repository.NewRepository(db, log)
	registry := ledger.NewMemoryLedger("issuing-authority")

	return NewService(repo, registry, nil, testFrontendURL, 0, log), repo, registry
}

func seedUser(t *testing.T, repo *repository.Repository, email string, role constant.UserRole) *model.User {
	t.Helper()

	user, err := repo.User.Create(context.Background(), nil, &model.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}

	return user
}

// seedApprovedApplication walks an application through the full review chain
// so issuance preconditions hold.
func seedApprovedApplication(t *testing.T, repo *repository.Repository, holder, doctor, admin *model.User) *model.Application {
	t.Helper()
	ctx := context.Background()

	app, err := repo.Application.Create(ctx, nil, &model.Application{
		HolderID:              holder.ID,
		DisabilityType:        "Visual Impairment",
		DisabilityDescription: "Complete loss of vision in left eye",
		ClaimedPercentage:     60,
	})
	if err != nil {
		t.Fatalf("seed application: %v", err)
	}

	percentage := 55
	now := time.Now().UTC()
	steps := []struct {
		status constant.ApplicationStatus
		update *repository.ApplicationUpdate
	}{
		{constant.ApplicationStatusVerified, nil},
		{constant.ApplicationStatusDoctorAssigned, &repository.ApplicationUpdate{AssignedDoctorID: &doctor.ID}},
		{constant.ApplicationStatusAssessed, &repository.ApplicationUpdate{AssessedPercentage: &percentage, AssessmentDate: &now}},
		{constant.ApplicationStatusApproved, nil},
	}
	for _, step := range steps {
		if err := repo.Application.UpdateStatus(ctx, nil, app.ID, step.status, admin.ID, "", step.update); err != nil {
			t.Fatalf("transition to %s: %v", step.status, err)
		}
	}

	app, err = repo.Application.GetById(ctx, nil, app.ID)
	if err != nil || app == nil {
		t.Fatalf("reload application: %v", err)
	}

	return app
}

func TestIssueHappyPath(t *testing.T) {
	svc, repo, registry := newTestService(t)
	ctx := context.Background()

	holder := seedUser(t, repo, "holder@example.org", constant.UserRolePwd)
	doctor := seedUser(t, repo, "doctor@example.org", constant.UserRoleDoctor)
	admin := seedUser(t, repo, "admin@example.org", constant.UserRoleAdmin)
	app := seedApprovedApplication(t, repo, holder, doctor, admin)

	certificate, err := svc.Issuance.Issue(ctx, app.ID, admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if certificate.CertificateNumber == "" {
		t.Error("certificate number not allocated")
	}
	if certificate.DisabilityPercentage != 55 {
		t.Errorf("expected assessed percentage 55, got %d", certificate.DisabilityPercentage)
	}
	if got := certificate.ValidUntil.Sub(*certificate.IssueDate); got < 4*365*24*time.Hour {
		t.Errorf("validity window too short: %v", got)
	}
	if certificate.Ledger.TransactionID == "" || certificate.Ledger.ConfirmedAt == nil {
		t.Error("ledger receipt not populated")
	}
	if !certificate.Ledger.Verified {
		t.Error("ledger receipt not marked verified")
	}
	if certificate.QrPayload == "" {
		t.Error("qr payload not built")
	}

	exists, err := registry.DigestExists(ctx, certificate.CertificateHash)
	if err != nil || !exists {
		t.Errorf("digest not on ledger: exists=%v err=%v", exists, err)
	}

	reloaded, err := repo.Application.GetById(ctx, nil, app.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload application: %v", err)
	}
	if reloaded.Status != constant.ApplicationStatusCertificateIssued {
		t.Errorf("application status = %s, want CERTIFICATE_ISSUED", reloaded.Status)
	}

	var lastLog model.ApplicationStatusLog
	if err := repo.DB.Where("application_id = ?", app.ID).Order("created_at desc").First(&lastLog).Error; err != nil {
		t.Fatalf("load status log: %v", err)
	}
	if lastLog.Status != constant.ApplicationStatusCertificateIssued {
		t.Errorf("last status log = %s, want CERTIFICATE_ISSUED", lastLog.Status)
	}
}

func TestIssueUnknownApplication(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Issuance.Issue(context.Background(), "b2a7e5a0-0000-0000-0000-000000000000", "admin")
	if !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestIssueRequiresApprovedStatus(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	holder := seedUser(t, repo, "holder@example.org", constant.UserRolePwd)
	app, err := repo.Application.Create(ctx, nil, &model.Application{
		HolderID:              holder.ID,
		DisabilityType:        "Hearing Impairment",
		DisabilityDescription: "Severe hearing loss",
		ClaimedPercentage:     40,
	})
	if err != nil {
		t.Fatalf("seed application: %v", err)
	}

	_, err = svc.Issuance.Issue(ctx, app.ID, "admin")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for SUBMITTED application, got %v", err)
	}
}

func TestIssueTwiceRejected(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	holder := seedUser(t, repo, "holder@example.org", constant.UserRolePwd)
	doctor := seedUser(t, repo, "doctor@example.org", constant.UserRoleDoctor)
	admin := seedUser(t, repo, "admin@example.org", constant.UserRoleAdmin)
	app := seedApprovedApplication(t, repo, holder, doctor, admin)

	if _, err := svc.Issuance.Issue(ctx, app.ID, admin.ID); err != nil {
		t.Fatalf("first Issue: %v", err)
	}

	_, err := svc.Issuance.Issue(ctx, app.ID, admin.ID)
	switch {
	case errors.Is(err, ErrAlreadyIssued), errors.Is(err, ErrInvalidState):
		// Either precondition may fire first, both deny the reissue.
	default:
		t.Errorf("expected reissue to be rejected, got %v", err)
	}

	var count int64
	if err := repo.DB.Model(&model.Certificate{}).Where("application_id = ?", app.ID).Count(&count).Error; err != nil {
		t.Fatalf("count certificates: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one certificate, got %d", count)
	}
}

func TestIssueLedgerFailureLeavesApplicationApproved(t *testing.T) {
	svc, repo, registry := newTestService(t)
	ctx := context.Background()

	holder := seedUser(t, repo, "holder@example.org", constant.UserRolePwd)
	doctor := seedUser(t, repo, "doctor@example.org", constant.UserRoleDoctor)
	admin := seedUser(t, repo, "admin@example.org", constant.UserRoleAdmin)
	app := seedApprovedApplication(t, repo, holder, doctor, admin)

	// A caller without the write capability makes every commit fail.
	svc.Issuance.ledger = registry.As("intruder")

	_, err := svc.Issuance.Issue(ctx, app.ID, admin.ID)
	if !errors.Is(err, ErrLedgerCommit) {
		t.Fatalf("expected ErrLedgerCommit, got %v", err)
	}

	reloaded, err := repo.Application.GetById(ctx, nil, app.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload application: %v", err)
	}
	if reloaded.Status != constant.ApplicationStatusApproved {
		t.Errorf("application status = %s, want APPROVED after ledger failure", reloaded.Status)
	}

	certificate, err := repo.Certificate.GetByApplicationId(ctx, nil, app.ID)
	if err != nil {
		t.Fatalf("lookup certificate: %v", err)
	}
	if certificate != nil {
		t.Error("no certificate row may exist after a failed ledger commit")
	}

	// The operation is simply retried once the capability is back.
	svc.Issuance.ledger = registry
	if _, err := svc.Issuance.Issue(ctx, app.ID, admin.ID); err != nil {
		t.Errorf("retry after ledger recovery: %v", err)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	holder := seedUser(t, repo, "holder@example.org", constant.UserRolePwd)
	doctor := seedUser(t, repo, "doctor@example.org", constant.UserRoleDoctor)
	admin := seedUser(t, repo, "admin@example.org", constant.UserRoleAdmin)
	app := seedApprovedApplication(t, repo, holder, doctor, admin)

	certificate, err := svc.Issuance.Issue(ctx, app.ID, admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for name, query := range map[string]VerifyQuery{
		"by number": {CertificateNumber: certificate.CertificateNumber},
		"by digest": {Digest: certificate.CertificateHash},
	} {
		result, err := svc.Verification.Verify(ctx, query)
		if err != nil {
			t.Fatalf("Verify %s: %v", name, err)
		}
		if !result.Verified {
			t.Errorf("Verify %s: not verified, reason %s", name, result.Reason)
			continue
		}
		if result.Certificate.HolderName != holder.FullName() {
			t.Errorf("Verify %s: holder name = %q", name, result.Certificate.HolderName)
		}
		if result.Certificate.Ledger.TransactionID == "" {
			t.Errorf("Verify %s: ledger proof missing", name)
		}
	}
}

func TestVerifyUnknownCertificate(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Verification.Verify(context.Background(), VerifyQuery{CertificateNumber: "UDID-2026-0000000999"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Verified || result.Reason != ReasonNotFound {
		t.Errorf("expected not_found, got verified=%v reason=%s", result.Verified, result.Reason)
	}
}

func TestVerifyLedgerMismatch(t *testing.T) {
	svc, repo, registry := newTestService(t)
	ctx := context.Background()

	holder := seedUser(t, repo, "holder@example.org", constant.UserRolePwd)
	doctor := seedUser(t, repo, "doctor@example.org", constant.UserRoleDoctor)
	admin := seedUser(t, repo, "admin@example.org", constant.UserRoleAdmin)
	app := seedApprovedApplication(t, repo, holder, doctor, admin)

	certificate, err := svc.Issuance.Issue(ctx, app.ID, admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	registry.Drop(certificate.CertificateHash)

	result, err := svc.Verification.Verify(ctx, VerifyQuery{CertificateNumber: certificate.CertificateNumber})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Verified || result.Reason != ReasonLedgerMismatch {
		t.Errorf("expected ledger_mismatch, got verified=%v reason=%s", result.Verified, result.Reason)
	}
}

func TestVerifyQueryValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for name, query := range map[string]VerifyQuery{
		"no key":    {},
		"both keys": {CertificateNumber: "UDID-2026-0000000001", Digest: "abc"},
	} {
		if _, err := svc.Verification.Verify(ctx, query); !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: expected ErrBadRequest, got %v", name, err)
		}
	}
}

func TestAuditDetectsDriftAndRefreshesCache(t *testing.T) {
	svc, repo, registry := newTestService(t)
	ctx := context.Background()

	holder := seedUser(t, repo, "holder@example.org", constant.UserRolePwd)
	doctor := seedUser(t, repo, "doctor@example.org", constant.UserRoleDoctor)
	admin := seedUser(t, repo, "admin@example.org", constant.UserRoleAdmin)
	app := seedApprovedApplication(t, repo, holder, doctor, admin)

	certificate, err := svc.Issuance.Issue(ctx, app.ID, admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	report, err := svc.Reconcile.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if report.Checked != 1 || report.Confirmed != 1 || len(report.Mismatched) != 0 {
		t.Errorf("clean audit report off: %+v", report)
	}

	registry.Drop(certificate.CertificateHash)

	report, err = svc.Reconcile.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit after drop: %v", err)
	}
	if len(report.Mismatched) != 1 || report.Mismatched[0] != certificate.CertificateNumber {
		t.Errorf("expected %s mismatched, got %+v", certificate.CertificateNumber, report)
	}

	reloaded, err := repo.Certificate.GetById(ctx, nil, certificate.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload certificate: %v", err)
	}
	if reloaded.Ledger.Verified {
		t.Error("ledger_verified cache not cleared for drifted certificate")
	}
}

func TestAuditHonorsConfiguredPageSize(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	doctor := seedUser(t, repo, "doctor@example.org", constant.UserRoleDoctor)
	admin := seedUser(t, repo, "admin@example.org", constant.UserRoleAdmin)

	for i := range 3 {
		holder := seedUser(t, repo, fmt.Sprintf("holder%d@example.org", i), constant.UserRolePwd)
		app := seedApprovedApplication(t, repo, holder, doctor, admin)
		if _, err := svc.Issuance.Issue(ctx, app.ID, admin.ID); err != nil {
			t.Fatalf("Issue %d: %v", i, err)
		}
	}

	// A one-row page forces the audit to walk several pages.
	svc.Reconcile.pageSize = 1

	report, err := svc.Reconcile.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if report.Checked != 3 || report.Confirmed != 3 {
		t.Errorf("expected 3 checked and confirmed, got %+v", report)
	}
}

func TestAuditReportsOrphanedDigests(t *testing.T) {
	svc, _, registry := newTestService(t)
	ctx := context.Background()

	orphan := "3f4b9c2d1e0a5f6b7c8d9e0f1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b"
	if _, err := registry.StoreDigest(ctx, orphan); err != nil {
		t.Fatalf("store orphan digest: %v", err)
	}

	report, err := svc.Reconcile.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if len(report.Orphaned) != 1 || report.Orphaned[0] != orphan {
		t.Errorf("expected orphan %s, got %+v", orphan, report)
	}
}

func TestRevoke(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	holder := seedUser(t, repo, "holder@example.org", constant.UserRolePwd)
	doctor := seedUser(t, repo, "doctor@example.org", constant.UserRoleDoctor)
	admin := seedUser(t, repo, "admin@example.org", constant.UserRoleAdmin)
	app := seedApprovedApplication(t, repo, holder, doctor, admin)

	certificate, err := svc.Issuance.Issue(ctx, app.ID, admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	revoked, err := svc.Issuance.Revoke(ctx, certificate.ID)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked.IsActive {
		t.Error("certificate still active after revocation")
	}

	// A revoked certificate still verifies, the ledger entry is intact, but
	// the response carries the inactive flag.
	result, err := svc.Verification.Verify(ctx, VerifyQuery{CertificateNumber: certificate.CertificateNumber})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Verified {
		t.Errorf("revoked certificate failed verification: %s", result.Reason)
	}
	if result.Certificate.IsActive {
		t.Error("verification response must expose inactive status")
	}
}
