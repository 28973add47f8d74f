package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/udid-foundation/udid-chain/internal/config"
	"github.com/udid-foundation/udid-chain/internal/env"
	"github.com/udid-foundation/udid-chain/internal/mailer"
	"github.com/udid-foundation/udid-chain/internal/queue"
	"github.com/udid-foundation/udid-chain/internal/util"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

const (
	MAX_WORKER = 3
)

func main() {
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV)

	mail := mailer.NewSendgrid(cfg.Mail.SEND_GRID.API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), logger)
	app := queue.MailConsumerContext{
		Config: &cfg,
		Logger: logger,
		Mailer: mail,
	}

	rabbitMQ, err := queue.NewRabbitMQ(cfg.Queue.URL)
	if err != nil {
		logger.Panic("Error connecting to RabbitMQ: ", err)
	}
	logger.Info("RabbitMQ connected \n")
	defer func() {
		if err := rabbitMQ.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %v", err)
		}
	}()

	ctx := context.Background()

	if err := rabbitMQ.ConsumeMailJob(ctx, mailJobHandler, MAX_WORKER, &app); err != nil {
		logger.Fatalf("Failed to consume mail job: %v", err)
	}

	logger.Infof("Started consuming mail job")

	// Block forever to keep the consumer running
	select {}
}

const mailDateFormat = "02 Jan 2006"

func mailJobHandler(_ context.Context, jobPayload queue.MailJobPayload, app *queue.MailConsumerContext) (bool, error) {
	switch jobPayload.TemplateFile {
	case mailer.TemplateCertificateIssued:
		var data queue.CertificateIssuedPayload
		if err := json.Unmarshal(jobPayload.Data, &data); err != nil {
			return false, fmt.Errorf("failed to unmarshal CertificateIssuedPayload: %w", err)
		}

		vars := struct {
			HolderName        string
			CertificateNumber string
			DisabilityType    string
			ValidUntil        string
			VerifyURL         string
		}{
			HolderName:        data.HolderName,
			CertificateNumber: data.CertificateNumber,
			DisabilityType:    data.DisabilityType,
			ValidUntil:        data.ValidUntil.Format(mailDateFormat),
			VerifyURL:         data.VerifyURL,
		}

		status, err := app.Mailer.Send(jobPayload.TemplateFile, jobPayload.ToName, jobPayload.ToEmail, vars)
		if err != nil {
			return true, fmt.Errorf("failed to send email: %w", err)
		}
		if status != http.StatusOK && status != http.StatusAccepted {
			return true, fmt.Errorf("email sending failed with status: %d", status)
		}

		return true, nil
	case mailer.TemplateApplicationSubmitted:
		var data queue.ApplicationSubmittedPayload
		if err := json.Unmarshal(jobPayload.Data, &data); err != nil {
			return false, fmt.Errorf("failed to unmarshal ApplicationSubmittedPayload: %w", err)
		}

		status, err := app.Mailer.Send(jobPayload.TemplateFile, jobPayload.ToName, jobPayload.ToEmail, data)
		if err != nil {
			return true, fmt.Errorf("failed to send email: %w", err)
		}
		if status != http.StatusOK && status != http.StatusAccepted {
			return true, fmt.Errorf("email sending failed with status: %d", status)
		}

		return true, nil
	default:
		return false, fmt.Errorf("unsupported template: %s", jobPayload.TemplateFile)
	}
}
