package main

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	appcontext "github.com/udid-foundation/udid-chain/internal/app_context"
	"github.com/udid-foundation/udid-chain/internal/auth"
	"github.com/udid-foundation/udid-chain/internal/config"
	"github.com/udid-foundation/udid-chain/internal/controller"
	"github.com/udid-foundation/udid-chain/internal/database"
	"github.com/udid-foundation/udid-chain/internal/env"
	"github.com/udid-foundation/udid-chain/internal/ledger"
	"github.com/udid-foundation/udid-chain/internal/mailer"
	"github.com/udid-foundation/udid-chain/internal/middleware"
	"github.com/udid-foundation/udid-chain/internal/queue"
	ratelimiter "github.com/udid-foundation/udid-chain/internal/rate_limiter"
	"github.com/udid-foundation/udid-chain/internal/repository"
	"github.com/udid-foundation/udid-chain/internal/route"
	"github.com/udid-foundation/udid-chain/internal/service"
	"github.com/udid-foundation/udid-chain/internal/util"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func newLedgerClient(cfg config.LedgerConfig) (ledger.Client, error) {
	switch cfg.Mode {
	case "memory":
		return ledger.NewMemoryLedger(cfg.IssuerIdentity), nil
	case "http":
		return ledger.NewHTTPLedger(cfg)
	default:
		return nil, fmt.Errorf("unknown ledger mode %q", cfg.Mode)
	}
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	s3, err := minio.New(cfg.Minio.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.ACCESS_KEY, cfg.Minio.SECRET_KEY, ""),
		Secure: cfg.Minio.USE_SSL,
	})
	if err != nil {
		logger.Error("Error connecting to minio")
		logger.Panic(err)
	}

	ledgerClient, err := newLedgerClient(cfg.Ledger)
	if err != nil {
		logger.Panic(err)
	}
	logger.Infof("Ledger client ready in %s mode", cfg.Ledger.Mode)

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("strNotEmpty", util.StrNotEmpty); err != nil {
			return
		}
		if err = v.RegisterValidation("cmin", util.CustomMin); err != nil {
			return
		}
		if err = v.RegisterValidation("cmax", util.CustomMax); err != nil {
			return
		}
	}

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	mail := mailer.NewSendgrid(cfg.Mail.SEND_GRID.API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), logger)
	jwtService := auth.NewJwt(cfg.Auth,
		logger)
	repo := repository.NewRepository(db, logger)

	var mailQueue queue.Publisher
	if cfg.Queue.Enabled {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.Queue.URL)
		if err != nil {
			logger.Panic("Error connecting to RabbitMQ: ", err)
		}
		defer func() {
			if err := rabbitMQ.Close(); err != nil {
				logger.Errorf("Failed to close RabbitMQ connection: %v", err)
			}
		}()
		logger.Info("RabbitMQ connected \n")
		mailQueue = rabbitMQ
	}

	svc := service.NewService(repo, ledgerClient, mailQueue, cfg.FrontendURL, cfg.Reconciler.PageSize, logger)

	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Service:    svc,
		Ledger:     ledgerClient,
		Logger:     logger,
		Mailer:     mail,
		Queue:      mailQueue,
		JWTService: jwtService,
		S3:         s3,
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.ENV == "production" {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	route.V1_Auth(rApi, _controller.Auth, _middleware)
	route.V1_Applications(rApi, _controller.Application, _middleware)
	route.V1_Certificates(rApi, _controller.Certificate, _middleware)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panic("Error running server: %v \n", err)
	}
}
