// Package notify delivers outbound candidate email.
package notify

import (
	"context"

	"talentsparkle/internal/config"
	"talentsparkle/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Email is a plain text message to one recipient
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends email
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// NewMailer returns an SES mailer when mail is enabled and a log-only mailer otherwise
func NewMailer(ctx context.Context, cfg config.MailConfig, logger *errors.Logger) (Mailer, error) {
	if !cfg.Enabled {
		return &LogMailer{logger: logger}, nil
	}
	return NewSESMailer(ctx, cfg, logger)
}

// LogMailer records emails in the log without sending them
type LogMailer struct {
	logger *errors.Logger
}

func NewLogMailer(logger *errors.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.logger.Info("Email not sent, mail delivery disabled",
		"to", email.To,
		"subject", email.Subject)
	return nil
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends through Amazon SES
type SESMailer struct {
	client sesAPI
	sender string
	logger *errors.Logger
}

// NewSESMailer loads AWS credentials from the default chain
func NewSESMailer(ctx context.Context, cfg config.MailConfig, logger *errors.Logger) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load AWS configuration", err)
	}
	return &SESMailer{client: ses.NewFromConfig(awsCfg), sender: cfg.Sender, logger: logger}, nil
}

func (m *SESMailer) Send(ctx context.Context, email Email) error {
	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{email.To},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(email.Subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(email.Body)},
			},
		},
		Source: aws.String(m.sender),
	})
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeMailSendFailed, "failed to send email", err).
			WithContext("to", email.To)
	}

	m.logger.Info("Email sent", "to", email.To, "message_id", aws.ToString(out.MessageId))
	return nil
}
