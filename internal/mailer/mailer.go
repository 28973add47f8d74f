package mailer

import "embed"

const (
	FROM_NAME = "UDID Certificate Authority"
	MAX_RETRY = 3
)

type MailTemplateFile string

const (
	TemplateCertificateIssued    MailTemplateFile = "certificate_issued.tmpl"
	TemplateApplicationSubmitted MailTemplateFile = "application_submitted.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile MailTemplateFile, toUsername, toEmail string, data any) (int, error)
}
