package appcontext

import (
	"github.com/minio/minio-go/v7"
	"github.com/udid-foundation/udid-chain/internal/auth"
	"github.com/udid-foundation/udid-chain/internal/config"
	"github.com/udid-foundation/udid-chain/internal/ledger"
	"github.com/udid-foundation/udid-chain/internal/mailer"
	"github.com/udid-foundation/udid-chain/internal/queue"
	"github.com/udid-foundation/udid-chain/internal/repository"
	"github.com/udid-foundation/udid-chain/internal/service"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository provides access to data storage operations.
	Repository *repository.Repository

	// Service holds the issuance, verification and reconciliation flows.
	Service *service.Service

	// Ledger is the digest registry client, memory or remote depending on
	// configuration.
	Ledger ledger.Client

	// Mailer handles email-sending functions.
	Mailer mailer.Client

	// Queue publishes notification jobs. Nil when the broker is disabled.
	Queue queue.Publisher

	// JWTService manages JWT operations for authentication such as generate, verify, refresh token.
	JWTService auth.JWTInterface

	// S3 stores rendered certificate PDFs.
	S3 *minio.Client
}
