package handlers

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/ecotrackhq/ecotrack-api/models"
	templates "github.com/ecotrackhq/ecotrack-api/templates/html"
)

// VerdictMailer emails a citizen the outcome of their report. Sending is
// best-effort; callers run it in a goroutine and nothing depends on the
// result.
type VerdictMailer struct {
	APIKey string
}

// NewVerdictMailer returns nil when no sendgrid key is configured, which
// disables email without callers having to care.
func NewVerdictMailer(apiKey string) *VerdictMailer {
	if apiKey == "" {
		return nil
	}
	return &VerdictMailer{APIKey: apiKey}
}

// SendVerdict emails the report author about an admin verdict.
func (m *VerdictMailer) SendVerdict(toEmail, toName, verdict, reportID string) {
	if toEmail == "" {
		return
	}

	subject := "Your waste report has been " + verdict
	body := fmt.Sprintf("Hi %s,\n\nYour report (%s) has been %s by a municipal administrator.", toName, reportID, verdict)
	if verdict == models.AdminApproved {
		body += "\nThank you for helping keep your ward clean. A point has been added to your account."
	}

	from := mail.NewEmail("EcoTrack", "no-reply@ecotrack.city")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, templates.RenderVerdictEmail(subject, body))

	client := sendgrid.NewSendClient(m.APIKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Warnw("failed to send verdict email", "reportId", reportID, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Warnw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}
