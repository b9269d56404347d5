package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/config"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/metrics"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// NominationEmail carries what the nomination templates render.
type NominationEmail struct {
	To            string
	NominatorName string
	NomineeName   string
	NomineeEmail  string
	Category      string
	Year          int
	Status        models.NominationStatusType
}

// Notifier is the outbound email gateway. Every method returns an error
// wrapping utils.ErrNotificationDelivery when the message was not accepted.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendNominationReceived(ctx context.Context, e NominationEmail) error
	SendNominationStatusChanged(ctx context.Context, e NominationEmail) error
}

// mailSender is the subset of *sendgrid.Client the notifier uses.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendgridNotifier struct {
	client      mailSender
	fromName    string
	fromEmail   string
	sandbox     bool
	timeout     time.Duration
	codeExpiry  time.Duration
	metrics     *metrics.Metrics
	currentYear func() int
}

func NewSendGridNotifier(cfg *config.Config, m *metrics.Metrics) Notifier {
	return newSendGridNotifier(sendgrid.NewSendClient(cfg.SendGridAPIKey), cfg, m)
}

func newSendGridNotifier(client mailSender, cfg *config.Config, m *metrics.Metrics) *sendgridNotifier {
	timeout := cfg.NotificationTimeout
	if timeout <= 0 {
		timeout = config.DefaultNotificationTimeout
	}
	return &sendgridNotifier{
		client:      client,
		fromName:    cfg.OrganizationName,
		fromEmail:   cfg.LDFlag_SendgridFromEmail,
		sandbox:     cfg.LDFlag_SendgridSandboxMode,
		timeout:     timeout,
		codeExpiry:  cfg.VerificationCodeExpiry,
		metrics:     m,
		currentYear: func() int { return time.Now().Year() },
	}
}

// ---------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------

func (n *sendgridNotifier) SendVerificationCode(ctx context.Context, to, code string) error {
	minutes := int(n.codeExpiry.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	subject := fmt.Sprintf("%s verification code", n.fromName)
	plain := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	htmlContent := fmt.Sprintf(verificationEmailHTML, minutes, code, n.currentYear())
	return n.send(ctx, to, subject, plain, htmlContent)
}

func (n *sendgridNotifier) SendNominationReceived(ctx context.Context, e NominationEmail) error {
	subject := fmt.Sprintf("You have been nominated for the %d %s award", e.Year, titleCase(e.Category))
	plain := fmt.Sprintf(
		"Hello %s, %s has nominated you in the %s category for %d. The awards committee will review the nomination.",
		e.NomineeName, e.NominatorName, e.Category, e.Year,
	)
	body := fmt.Sprintf(
		"<p>Hello <strong>%s</strong>,</p><p><strong>%s</strong> has nominated you in the <strong>%s</strong> category for %d.</p><p>The awards committee will review the nomination and reach out with the outcome.</p>",
		html.EscapeString(e.NomineeName), html.EscapeString(e.NominatorName),
		html.EscapeString(titleCase(e.Category)), e.Year,
	)
	htmlContent := fmt.Sprintf(nominationEmailHTML, "You have been nominated", body, n.currentYear())
	return n.send(ctx, e.To, subject, plain, htmlContent)
}

func (n *sendgridNotifier) SendNominationStatusChanged(ctx context.Context, e NominationEmail) error {
	outcome := strings.ToLower(string(e.Status))
	subject := fmt.Sprintf("Your nomination of %s was %s", e.NomineeName, outcome)
	plain := fmt.Sprintf(
		"Hello %s, your %d nomination of %s in the %s category was %s.",
		e.NominatorName, e.Year, e.NomineeName, e.Category, outcome,
	)
	body := fmt.Sprintf(
		"<p>Hello <strong>%s</strong>,</p><p>Your %d nomination of <strong>%s</strong> in the <strong>%s</strong> category was <strong>%s</strong>.</p>",
		html.EscapeString(e.NominatorName), e.Year, html.EscapeString(e.NomineeName),
		html.EscapeString(titleCase(e.Category)), outcome,
	)
	htmlContent := fmt.Sprintf(nominationEmailHTML, "Nomination update", body, n.currentYear())
	return n.send(ctx, e.To, subject, plain, htmlContent)
}

// ---------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------

func (n *sendgridNotifier) send(ctx context.Context, toEmail, subject, plain, htmlContent string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, htmlContent)
	if n.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := time.Now()
	resp, err := n.client.SendWithContext(ctx, message)
	n.metrics.ObserveNotificationLatency(time.Since(start))
	if err != nil {
		return fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrNotificationDelivery, err)
	}
	if resp == nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status, body := 0, ""
		if resp != nil {
			status, body = resp.StatusCode, resp.Body
		}
		return fmt.Errorf("%w: sendgrid responded %d: %s", utils.ErrNotificationDelivery, status, body)
	}
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
