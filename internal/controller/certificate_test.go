package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	appcontext "github.com/udid-foundation/udid-chain/internal/app_context"
	"github.com/udid-foundation/udid-chain/internal/auth"
	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/ledger"
	"github.com/udid-foundation/udid-chain/internal/model"
	"github.com/udid-foundation/udid-chain/internal/repository"
	"github.com/udid-foundation/udid-chain/internal/service"
	"github.com/udid-foundation/udid-chain/internal/util"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type issueTestEnv struct {
	router   *gin.Engine
	repo     *repository.Repository
	registry *ledger.MemoryLedger
	admin    *model.User
	holder   *model.User
}

func newIssueTestEnv(t *testing.T, ledgerClient func(*ledger.MemoryLedger) ledger.Client) *issueTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	if err := db.AutoMigrate(
		&model.User{},
		&model.Application{},
		&model.ApplicationStatusLog{},
		&model.Certificate{},
		&model.Sequence{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := util.NewLogger("development")
	repo := repository.NewRepository(db, log)
	registry := ledger.NewMemoryLedger("issuing-authority")

	client := ledger.Client(registry)
	if ledgerClient != nil {
		client = ledgerClient(registry)
	}

	svc := service.NewService(repo, client, nil, "https://udid.example.org", 0, log)

	admin, err := repo.User.Create(context.Background(), nil, &model.User{
		Email:        "admin@example.org",
		PasswordHash: "x",
		FirstName:    "Admin",
		LastName:     "User",
		Role:         constant.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	holder, err := repo.User.Create(context.Background(), nil, &model.User{
		Email:        "holder@example.org",
		PasswordHash: "x",
		FirstName:    "Asha",
		LastName:     "Rao",
		Role:         constant.UserRolePwd,
	})
	if err != nil {
		t.Fatalf("create holder: %v", err)
	}

	app := &appcontext.Application{
		Logger:     log,
		Repository: repo,
		Service:    svc,
		Ledger:     client,
	}
	ctrl := NewController(app)

	router := gin.New()
	router.Use(func(ctx *gin.Context) {
		ctx.Set("user", auth.JWTPayload{
			ID:        admin.ID,
			Email:     admin.Email,
			FirstName: admin.FirstName,
			LastName:  admin.LastName,
			Role:      admin.Role,
		})
	})
	router.POST("/api/v1/certificates/issue", ctrl.Certificate.Issue)

	return &issueTestEnv{
		router:   router,
		repo:     repo,
		registry: registry,
		admin:    admin,
		holder:   holder,
	}
}

func (env *issueTestEnv) seedApprovedApplication(t *testing.T) *model.Application {
	t.Helper()

	percentage := 60
	app := &model.Application{
		ApplicationNumber:     "DCA-2026-000001",
		HolderID:              env.holder.ID,
		DisabilityType:        "Visual Impairment",
		DisabilityDescription: "Partial loss of vision",
		ClaimedPercentage:     60,
		Status:                constant.ApplicationStatusApproved,
		AssignedDoctorID:      &env.admin.ID,
		AssessedPercentage:    &percentage,
	}
	if err := env.repo.DB.Create(app).Error; err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return app
}

func (env *issueTestEnv) postIssue(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates/issue", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestIssueEndpointHappyPath(t *testing.T) {
	env := newIssueTestEnv(t, nil)
	app := env.seedApprovedApplication(t)

	rec := env.postIssue(t, gin.H{"applicationId": app.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Certificate model.Certificate `json:"certificate"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Error("expected success envelope")
	}
	if envelope.Data.Certificate.ApplicationID != app.ID {
		t.Errorf("certificate bound to %s, want %s", envelope.Data.Certificate.ApplicationID, app.ID)
	}
}

func TestIssueEndpointRequiresApplicationIdBody(t *testing.T) {
	env := newIssueTestEnv(t, nil)

	rec := env.postIssue(t, gin.H{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestIssueEndpointUnknownApplication(t *testing.T) {
	env := newIssueTestEnv(t, nil)

	rec := env.postIssue(t, gin.H{"applicationId": "no-such-application"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestIssueEndpointLedgerFailureIsServerError(t *testing.T) {
	env := newIssueTestEnv(t, func(registry *ledger.MemoryLedger) ledger.Client {
		// A caller without the write capability makes every commit fail.
		return registry.As("intruder")
	})
	app := env.seedApprovedApplication(t)

	rec := env.postIssue(t, gin.H{"applicationId": app.ID})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var count int64
	if err := env.repo.DB.Model(&model.Certificate{}).Count(&count).Error; err != nil {
		t.Fatalf("count certificates: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no certificate rows after ledger failure, got %d", count)
	}
}
