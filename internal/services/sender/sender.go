// Package services доставляет уведомления из брокера по электронной почте.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// SenderService отправляет письма через SMTP-транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendTrialExpiring сообщает пользователю о скором окончании пробного периода.
func (s *SenderService) SendTrialExpiring(body []byte) error {
	const op = "services.sender.SendTrialExpiring"
	var message models.TrialExpiring
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}

	subject := "Your free trial is ending soon"
	days := "day"
	if message.DaysLeft != 1 {
		days = "days"
	}
	bodyText := fmt.Sprintf("Hello!\n\nYour trial ends in %d %s (%s UTC).\n"+
		"Upload a payment receipt in the dashboard to keep access to your campaigns.",
		message.DaysLeft, days, message.TrialEndDate.UTC().Format("02 Jan 2006 15:04"))

	return s.sendEmail([]string{message.Email}, subject, bodyText)
}

// SendReceiptDecided сообщает пользователю решение по его квитанции.
func (s *SenderService) SendReceiptDecided(body []byte) error {
	const op = "services.sender.SendReceiptDecided"
	var message models.ReceiptDecided
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}

	var subject, bodyText string
	switch message.Status {
	case models.ReceiptApproved:
		subject = "Payment approved: lifetime access unlocked"
		bodyText = fmt.Sprintf("Hello!\n\nYour payment receipt #%d was approved. "+
			"Your account now has lifetime access.", message.ReceiptID)
	case models.ReceiptRejected:
		subject = "Payment receipt rejected"
		bodyText = fmt.Sprintf("Hello!\n\nWe could not verify payment receipt #%d. "+
			"Please upload a clearer copy or contact support.", message.ReceiptID)
	default:
		s.log.Warn("skipping receipt notification with unexpected status", slog.String("status", string(message.Status)))
		return nil
	}

	return s.sendEmail([]string{message.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	const op = "services.sender.sendEmail"
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("smtp client close", sl.Err(err))
		}
	}()

	if err = client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, addr := range to {
		if err = client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
