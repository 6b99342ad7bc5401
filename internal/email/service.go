package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/model"
)

type Service interface {
	SendBookingConfirmation(ctx context.Context, to string, appointment *model.Appointment, typeName string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendBookingConfirmation(_ context.Context, to string, appointment *model.Appointment, typeName string) error {
	if typeName == "" {
		typeName = "consulta"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Confirmación de cita")
	m.SetBody("text/plain", fmt.Sprintf(
		"Su cita de %s ha sido agendada para el %s.",
		typeName,
		appointment.DateHour.Format("02/01/2006 15:04"),
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send confirmation mail: %w", err)
	}
	return nil
}
