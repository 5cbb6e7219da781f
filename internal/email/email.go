// Package email sends patient notifications over SMTP. When SMTP is
// disabled in config the sender is a logged no-op, so environments without
// a mail relay still run every flow.
package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/medilab/lab-api/internal/config"
	"github.com/medilab/lab-api/internal/model"
)

type Sender struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
	logger zerolog.Logger
}

func NewSender(cfg config.SMTPConfig, logger zerolog.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger.With().Str("component", "email").Logger()}
	if cfg.Enabled {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return s
}

// NotifyResultsReady tells the patient their confirmed results are available.
func (s *Sender) NotifyResultsReady(ctx context.Context, rec *model.TestRecord) error {
	if s.dialer == nil {
		s.logger.Debug().Str("record_id", rec.Ref.ID.String()).Msg("smtp disabled, skipping notification")
		return nil
	}
	if rec.PatientEmail == "" {
		s.logger.Debug().Str("record_id", rec.Ref.ID.String()).Msg("record has no patient email")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", rec.PatientEmail)
	m.SetHeader("Subject", "Your lab test results are ready")
	m.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nYour lab test results have been verified and are now available. "+
			"Please log in to view or collect your report.\n\nReference: %s\n",
		rec.PatientName, rec.Ref.ID))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send results notification: %w", err)
	}
	s.logger.Info().Str("record_id", rec.Ref.ID.String()).Msg("results notification sent")
	return nil
}
