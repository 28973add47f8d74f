package main

import (
	"github.com/udid-foundation/udid-chain/internal/config"
	"github.com/udid-foundation/udid-chain/internal/database"
	"github.com/udid-foundation/udid-chain/internal/env"
	"github.com/udid-foundation/udid-chain/internal/model"
	"go.uber.org/zap"
)

func init() {
	env.LoadEnv(".env")
}

func main() {
	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()
	cfg := config.GetConfig()

	logger.Infof("Database configuration: %+v", cfg.DB)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	migrateErr := db.AutoMigrate(
		&model.User{},
		&model.Application{},
		&model.ApplicationStatusLog{},
		&model.Certificate{},
		&model.Sequence{},
	)
	if migrateErr != nil {
		logger.Panic(migrateErr)
	}

	logger.Info("Migration complete")
}
