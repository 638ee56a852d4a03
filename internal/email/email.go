// email — отправка писем с кодом подтверждения.
//
// Sender — шов для подмены в тестах (mocks.MockSender); боевой транспорт — SMTP.
// Сбой отправки никогда не роняет регистрацию/resend: вызывающая сторона
// логирует его и продолжает (политика «log and continue»).
package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Sender отправляет письмо с кодом подтверждения на адрес.
type Sender interface {
	SendConfirmationCode(ctx context.Context, address, code string) error
}

// SMTPConfig — параметры SMTP-транспорта.
type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
	// ConfirmLink — базовая ссылка подтверждения; код добавляется параметром code.
	ConfirmLink string
}

type smtpSender struct {
	cfg SMTPConfig
}

// NewSMTPSender создаёт отправщик поверх net/smtp.
func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

// SendConfirmationCode собирает письмо и отправляет его синхронно.
// net/smtp не принимает контекст, поэтому отменённый ctx проверяется до дозвона.
func (s *smtpSender) SendConfirmationCode(ctx context.Context, address, code string) error {
	const op = "email.smtp.SendConfirmationCode"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := s.buildMessage(address, code)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{address}, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *smtpSender) buildMessage(address, code string) []byte {
	link := s.cfg.ConfirmLink + "?code=" + code

	var b strings.Builder
	b.WriteString("From: " + s.cfg.From + "\r\n")
	b.WriteString("To: " + address + "\r\n")
	b.WriteString("Subject: Confirm your registration\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("<h1>Thanks for your registration</h1>")
	b.WriteString("<p>To finish registration please follow the link below:<br>")
	b.WriteString("<a href=\"" + link + "\">complete registration</a></p>")

	return []byte(b.String())
}
