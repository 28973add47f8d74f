package repository

import (
	"context"
	"testing"

	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/model"
)

// Timestamps must survive a create/read round trip on the sqlite test
// driver, not just on postgres.
func TestUserCreateRoundTripsTimestamps(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.DB.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	created, err := repo.User.Create(ctx, nil, &model.User{
		Email:        "holder@example.com",
		PasswordHash: "x",
		FirstName:    "Asha",
		LastName:     "Rao",
		Role:         constant.UserRolePwd,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.User.GetById(ctx, nil, created.ID)
	if err != nil {
		t.Fatalf("GetById: %v", err)
	}
	if got == nil {
		t.Fatal("GetById returned nil")
	}
	if got.CreatedAt == nil || got.CreatedAt.IsZero() {
		t.Errorf("CreatedAt not populated: %v", got.CreatedAt)
	}
	if got.UpdatedAt == nil || got.UpdatedAt.IsZero() {
		t.Errorf("UpdatedAt not populated: %v", got.UpdatedAt)
	}
}
