package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"onboarding-service/internal/config"
	"onboarding-service/internal/models"
	"onboarding-service/internal/util"
)

// Mailer sends the new-application notification to the configured admin
// address. Notification is best-effort and runs after the record is stored;
// a mail failure never fails the submission.
type Mailer struct {
	client *mail.Client
	config *config.SMTPConfig
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	smtpConfig := cfg.SMTP

	opts := []mail.Option{
		mail.WithPort(smtpConfig.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if smtpConfig.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(smtpConfig.Username),
			mail.WithPassword(smtpConfig.Password),
		)
	}

	mailClient, err := mail.NewClient(smtpConfig.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	util.Info("Mail client initialized",
		zap.String("host", smtpConfig.Host),
		zap.Int("port", smtpConfig.Port))

	return &Mailer{
		client: mailClient,
		config: &smtpConfig,
	}, nil
}

// SendSubmissionNotice emails the admin about a new application, attaching
// the generated PDF when one was produced. The message carries contact
// details only; no EIN or payment secrets.
func (m *Mailer) SendSubmissionNotice(ctx context.Context, record *models.CustomerRecord, pdfData []byte) error {
	if m.config.AdminEmail == "" {
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.config.AdminEmail); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(fmt.Sprintf("New customer application: %s", record.BusinessName))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"A new customer application was submitted.\n\n"+
			"Business: %s\n"+
			"Contact: %s\n"+
			"Email: %s\n"+
			"Phone: %s\n"+
			"Payment method: %s\n"+
			"Submitted: %s\n",
		record.BusinessName,
		record.MainContactRep,
		record.MainEmail,
		record.Phone,
		record.PaymentMethod,
		record.SubmissionDate.Format("2006-01-02 15:04:05 MST"),
	))

	if len(pdfData) > 0 {
		if err := msg.AttachReader("application.pdf", bytes.NewReader(pdfData)); err != nil {
			return fmt.Errorf("failed to attach application pdf: %w", err)
		}
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		util.Error("Failed to send submission notice",
			zap.String("customer_id", record.ID),
			zap.Error(err))
		return fmt.Errorf("failed to send submission notice: %w", err)
	}

	util.Info("Submission notice sent",
		zap.String("customer_id", record.ID),
		zap.String("recipient", m.config.AdminEmail))

	return nil
}
